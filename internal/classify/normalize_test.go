package classify

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "lowercases and trims",
			query: "  Who Scored The Most Points?  ",
			want:  "who scored the most points?",
		},
		{
			name:  "collapses internal whitespace",
			query: "who\t\tscored   the most",
			want:  "who scored the most",
		},
		{
			name:  "strips html tags",
			query: "<b>LeBron</b> <script>alert(1)</script> legacy",
			want:  "lebron alert(1) legacy",
		},
		{
			name:  "removes code fences",
			query: "```sql SELECT name FROM players ``` explain this",
			want:  "select name from players explain this",
		},
		{
			name:  "collapses statement separators and comments",
			query: "points leader; DROP TABLE players -- gotcha",
			want:  "points leader drop table players gotcha",
		},
		{
			name:  "removes sql block comments",
			query: "/* hidden */ assists leader",
			want:  "hidden assists leader",
		},
		{
			name:  "strips control characters",
			query: "who\x00 scored\x1b the most",
			want:  "who scored the most",
		},
		{
			name:  "keeps unicode names",
			query: "Nikola Jokić vs Luka Dončić",
			want:  "nikola jokić vs luka dončić",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.query); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestNormalizeWithReport(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		stripped bool
	}{
		{"plain question", "Who scored the most points?", false},
		{"padded but clean", "  who scored the most  ", false},
		{"html markup", "<b>who</b> scored", true},
		{"statement separator", "points; drop table players", true},
		{"control characters", "who\x00 scored", true},
		{"template injection", "{{config}} points leader", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stripped := NormalizeWithReport(tt.query)
			if stripped != tt.stripped {
				t.Errorf("NormalizeWithReport(%q) stripped = %v, want %v", tt.query, stripped, tt.stripped)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	tokens := Tokenize("who leads in fg% and three-point shooting, jokić or curry?")

	for _, want := range []string{"fg%", "three-point", "jokić", "curry", "leads"} {
		if !tokens[want] {
			t.Errorf("tokens missing %q: %v", want, tokens)
		}
	}
	if tokens["curry?"] {
		t.Error("punctuation should be cleaned from tokens")
	}
	if tokens[""] {
		t.Error("empty token should never be stored")
	}
}

func TestTokenize_Empty(t *testing.T) {
	if got := Tokenize(""); len(got) != 0 {
		t.Errorf("Tokenize(\"\") = %v, want empty", got)
	}
}

func TestClauseCount(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"who scored the most points", 1},
		{"compare jokić and embiid", 2},
		{"jokić vs embiid", 2},
		{"rebounds, assists and scoring", 3},
		{"points and rebounds, but not assists", 4},
	}

	for _, tt := range tests {
		if got := ClauseCount(tt.query); got != tt.want {
			t.Errorf("ClauseCount(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestNormalize_NeverExecutable(t *testing.T) {
	// Whatever the input, nothing resembling an executable statement
	// boundary survives normalization.
	inputs := []string{
		"'; DELETE FROM players; --",
		"`rm -rf /`",
		"${jndi:ldap://x}",
		"{{7*7}}",
		"SELECT 1; SELECT 2",
	}

	for _, in := range inputs {
		got := Normalize(in)
		for _, forbidden := range []string{";", "`", "${", "{{", "}}", "--"} {
			if strings.Contains(got, forbidden) {
				t.Errorf("Normalize(%q) = %q, still contains %q", in, got, forbidden)
			}
		}
	}
}
