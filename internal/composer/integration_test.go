package composer

import (
	"strings"
	"testing"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/sqltool"
)

func TestCheckIntegration(t *testing.T) {
	sqlRes := sqlEvidence()
	vector := vectorEvidence()

	tests := []struct {
		name   string
		answer string
		want   IntegrationReport
	}{
		{
			name:   "fully integrated answer",
			answer: integratedAnswer,
			want:   IntegrationReport{true, true, true, true},
		},
		{
			name: "no statistic cited",
			answer: "He scored a lot because his passing out of the double team creates " +
				"easy baskets for cutters, around 30 a night.",
			want: IntegrationReport{false, true, true, true},
		},
		{
			name:   "no discussion phrase",
			answer: "Nikola Jokic averaged 26.4 points because he reads the floor better than anyone.",
			want:   IntegrationReport{true, false, true, true},
		},
		{
			name:   "facts stated without linkage",
			answer: "Nikola Jokic averaged 26.4 points. His passing out of the double team creates easy baskets.",
			want:   IntegrationReport{true, true, false, false},
		},
		{
			name:   "nothing from either leg",
			answer: "He is simply the best player.",
			want:   IntegrationReport{false, false, false, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CheckIntegration(tt.answer, sqlRes, vector)
			if got != tt.want {
				t.Errorf("CheckIntegration(%q) = %+v, want %+v", tt.answer, got, tt.want)
			}
		})
	}
}

func TestCheckIntegration_NilSQL(t *testing.T) {
	got := CheckIntegration(integratedAnswer, nil, vectorEvidence())
	if got.SQLComponentUsed {
		t.Error("nil SQL result cannot contribute a component")
	}
	if !got.VectorComponentUsed {
		t.Error("vector component should still be detected")
	}
}

func TestSQLComponentUsed_SkipsSingleCharacterCells(t *testing.T) {
	res := &sqltool.SQLExecutionResult{
		Executed: true,
		Result: sqltool.ResultSet{
			Columns: []string{"games_played", "pts"},
			Rows:    [][]string{{"5", "33"}},
		},
	}

	if sqlComponentUsed(strings.ToLower("A high 5 for the team."), res) {
		t.Error("a lone digit must not count as a cited statistic")
	}
	if !sqlComponentUsed(strings.ToLower("He scored 33 last night."), res) {
		t.Error("a multi-digit cell appearing in the answer should count")
	}
}

func TestShingles(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want []string
	}{
		{
			name: "sliding window",
			text: "Points in the paint",
			n:    3,
			want: []string{"points in the", "in the paint"},
		},
		{
			name: "punctuation trimmed",
			text: "easy baskets, for cutters.",
			n:    3,
			want: []string{"easy baskets for", "baskets for cutters"},
		},
		{
			name: "too short",
			text: "two words",
			n:    3,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shingles(tt.text, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("shingles = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("shingles = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestIntegrationReport_FailedCriteria(t *testing.T) {
	report := IntegrationReport{SQLComponentUsed: true, AnswerComplete: true}
	got := report.FailedCriteria()
	want := []string{"vector_component_used", "components_blended"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("FailedCriteria = %v, want %v", got, want)
	}

	if (IntegrationReport{true, true, true, true}).Passed() != true {
		t.Error("all-true report should pass")
	}
	if report.Passed() {
		t.Error("partial report should not pass")
	}
}
