package composer

import (
	"regexp"
	"strings"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/sqltool"
)

// IntegrationReport holds the four acceptance criteria for a hybrid answer.
type IntegrationReport struct {
	// SQLComponentUsed - a value or name from the result set appears in
	// the answer.
	SQLComponentUsed bool `json:"sql_component_used"`

	// VectorComponentUsed - a phrase from a retrieved chunk appears.
	VectorComponentUsed bool `json:"vector_component_used"`

	// ComponentsBlended - a connective links fact to explanation.
	ComponentsBlended bool `json:"components_blended"`

	// AnswerComplete - both a quantitative token and an explanatory
	// marker are present.
	AnswerComplete bool `json:"answer_complete"`
}

// Passed reports whether every criterion held.
func (r IntegrationReport) Passed() bool {
	return r.SQLComponentUsed && r.VectorComponentUsed && r.ComponentsBlended && r.AnswerComplete
}

// FailedCriteria names the criteria that did not hold.
func (r IntegrationReport) FailedCriteria() []string {
	var failed []string
	if !r.SQLComponentUsed {
		failed = append(failed, "sql_component_used")
	}
	if !r.VectorComponentUsed {
		failed = append(failed, "vector_component_used")
	}
	if !r.ComponentsBlended {
		failed = append(failed, "components_blended")
	}
	if !r.AnswerComplete {
		failed = append(failed, "answer_complete")
	}
	return failed
}

const shingleSize = 3

var (
	connectivePattern = regexp.MustCompile(
		`(?i)\b(because|since|which explains|this is why|while|whereas|combined with|due to|as a result)\b`)
	explanatoryPattern = regexp.MustCompile(
		`(?i)\b(because|since|why|reason|explains?|explained|due to|strategy|style|approach)\b`)
	quantitativePattern = regexp.MustCompile(`[0-9]`)
)

// CheckIntegration scores a generated hybrid answer against its evidence.
func CheckIntegration(answer string, sqlRes *sqltool.SQLExecutionResult, vector []retrieval.SearchResult) IntegrationReport {
	lower := strings.ToLower(answer)
	return IntegrationReport{
		SQLComponentUsed:    sqlComponentUsed(lower, sqlRes),
		VectorComponentUsed: vectorComponentUsed(lower, vector),
		ComponentsBlended:   connectivePattern.MatchString(answer),
		AnswerComplete:      quantitativePattern.MatchString(answer) && explanatoryPattern.MatchString(answer),
	}
}

func sqlComponentUsed(lowerAnswer string, res *sqltool.SQLExecutionResult) bool {
	if res == nil {
		return false
	}
	for _, row := range res.Result.Rows {
		for _, cell := range row {
			cell = strings.ToLower(strings.TrimSpace(cell))
			// Single characters match almost anything.
			if len(cell) < 2 {
				continue
			}
			if strings.Contains(lowerAnswer, cell) {
				return true
			}
		}
	}
	return false
}

func vectorComponentUsed(lowerAnswer string, vector []retrieval.SearchResult) bool {
	for _, r := range vector {
		for _, phrase := range shingles(r.Text, shingleSize) {
			if strings.Contains(lowerAnswer, phrase) {
				return true
			}
		}
	}
	return false
}

// shingles returns every run of n consecutive words, lowercased with edge
// punctuation trimmed.
func shingles(text string, n int) []string {
	fields := strings.Fields(strings.ToLower(text))
	words := fields[:0]
	for _, w := range fields {
		if w = strings.Trim(w, `.,!?;:"'()[]`); w != "" {
			words = append(words, w)
		}
	}
	if len(words) < n {
		return nil
	}
	out := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+n], " "))
	}
	return out
}
