package composer

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/classify"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/conversation"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/sqltool"
)

type fakeGen struct {
	responses []string
	err       error
	errOnCall int // 1-based call that fails; 0 applies err to every call
	calls     int
	prompts   []string
}

func (f *fakeGen) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil && (f.errOnCall == 0 || f.calls == f.errOnCall) {
		return "", f.err
	}
	i := f.calls - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func newTestComposer(gen *fakeGen) *Composer {
	return NewComposer(gen, logger.New("error", "text"), Config{})
}

func sqlEvidence() *sqltool.SQLExecutionResult {
	return &sqltool.SQLExecutionResult{
		GeneratedSQL: "SELECT players.name, player_stats.pts FROM players, player_stats WHERE player_stats.player_id = players.id ORDER BY player_stats.pts DESC LIMIT 1",
		Executed:     true,
		Result: sqltool.ResultSet{
			Columns: []string{"name", "pts"},
			Rows:    [][]string{{"Nikola Jokic", "26.4"}},
		},
	}
}

func vectorEvidence() []retrieval.SearchResult {
	return []retrieval.SearchResult{
		{
			Chunk: retrieval.Chunk{
				ID:   "chunk-01",
				Text: "His passing out of the double team creates easy baskets for cutters.",
				Metadata: retrieval.ChunkMetadata{
					Source:   "reddit",
					DataType: "discussion",
				},
			},
			BaseScore:    80,
			BoostedScore: 84,
		},
	}
}

// Answer that satisfies all four integration criteria against the fixtures.
const integratedAnswer = "Jokic averaged 26.4 points, which explains why his passing out of " +
	"the double team creates easy baskets for cutters."

func TestCompose_SQLOnly(t *testing.T) {
	gen := &fakeGen{responses: []string{"Jokic led the league at 26.4 points per game."}}
	c := newTestComposer(gen)

	draft, err := c.Compose(context.Background(), Input{
		Query:          "Who leads the league in scoring?",
		Route:          classify.SQLOnly,
		Context:        []conversation.Turn{{TurnNumber: 1, Query: "earlier question", AnswerText: "earlier answer"}},
		SQL:            sqlEvidence(),
		IncludeSources: true,
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if draft.Text != gen.responses[0] {
		t.Errorf("text = %q, want generator response", draft.Text)
	}
	if draft.RoutingActuallyUsed != RoutingSQL {
		t.Errorf("routing = %q, want %q", draft.RoutingActuallyUsed, RoutingSQL)
	}
	if len(draft.SourcesUsed) != 1 || draft.SourcesUsed[0] != sqlSource {
		t.Errorf("sources = %v, want [%s]", draft.SourcesUsed, sqlSource)
	}
	if draft.FallbackToVector {
		t.Error("unexpected fallback report")
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}

	prompt := gen.prompts[0]
	for _, want := range []string{"Conversation so far:", "Q1: earlier question", "Statistics from the stats database:", "Nikola Jokic | 26.4", "Question: Who leads the league in scoring?"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCompose_SQLOnly_ReportsFallback(t *testing.T) {
	tests := []struct {
		name string
		sql  *sqltool.SQLExecutionResult
	}{
		{"missing result", nil},
		{"not executed", &sqltool.SQLExecutionResult{GeneratedSQL: "SELECT 1", Err: "syntax error"}},
		{"zero rows", &sqltool.SQLExecutionResult{
			GeneratedSQL: "SELECT name FROM players",
			Executed:     true,
			Result:       sqltool.ResultSet{Columns: []string{"name"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGen{responses: []string{"should not be called"}}
			c := newTestComposer(gen)

			draft, err := c.Compose(context.Background(), Input{
				Query: "Who leads the league in scoring?",
				Route: classify.SQLOnly,
				SQL:   tt.sql,
			})
			if err != nil {
				t.Fatalf("Compose failed: %v", err)
			}
			if !draft.FallbackToVector {
				t.Error("expected fallback report")
			}
			if gen.calls != 0 {
				t.Errorf("generator called %d times, want 0", gen.calls)
			}
		})
	}
}

func TestCompose_VectorOnly(t *testing.T) {
	gen := &fakeGen{responses: []string{"Fans point to his passing out of the double team."}}
	c := newTestComposer(gen)

	draft, err := c.Compose(context.Background(), Input{
		Query:          "Why is Jokic so effective?",
		Route:          classify.VectorOnly,
		Vector:         vectorEvidence(),
		IncludeSources: true,
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if draft.RoutingActuallyUsed != RoutingVector {
		t.Errorf("routing = %q, want %q", draft.RoutingActuallyUsed, RoutingVector)
	}
	if len(draft.SourcesUsed) != 1 || draft.SourcesUsed[0] != "reddit" {
		t.Errorf("sources = %v, want [reddit]", draft.SourcesUsed)
	}
	if !strings.Contains(gen.prompts[0], "Discussion context:") {
		t.Error("prompt missing discussion section")
	}
}

func TestCompose_VectorOnly_NoResultsSkipsGenerator(t *testing.T) {
	gen := &fakeGen{responses: []string{"should not be called"}}
	c := newTestComposer(gen)

	draft, err := c.Compose(context.Background(), Input{
		Query: "Why is Jokic so effective?",
		Route: classify.VectorOnly,
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if draft.Text != NoInformationAnswer {
		t.Errorf("text = %q, want the no-information answer", draft.Text)
	}
	if draft.RoutingActuallyUsed != RoutingUnknown {
		t.Errorf("routing = %q, want %q", draft.RoutingActuallyUsed, RoutingUnknown)
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times, want 0", gen.calls)
	}
}

func TestCompose_Hybrid_PassesFirstTry(t *testing.T) {
	gen := &fakeGen{responses: []string{integratedAnswer}}
	c := newTestComposer(gen)

	draft, err := c.Compose(context.Background(), Input{
		Query:          "Who leads in scoring and why is he so effective?",
		Route:          classify.Hybrid,
		SQL:            sqlEvidence(),
		Vector:         vectorEvidence(),
		IncludeSources: true,
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if draft.RoutingActuallyUsed != RoutingHybrid {
		t.Errorf("routing = %q, want %q", draft.RoutingActuallyUsed, RoutingHybrid)
	}
	if draft.Integration == nil || !draft.Integration.Passed() {
		t.Errorf("integration = %+v, want all criteria met", draft.Integration)
	}
	if draft.Regenerated {
		t.Error("unexpected regeneration")
	}
	if gen.calls != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls)
	}
	want := []string{sqlSource, "reddit"}
	if len(draft.SourcesUsed) != 2 || draft.SourcesUsed[0] != want[0] || draft.SourcesUsed[1] != want[1] {
		t.Errorf("sources = %v, want %v", draft.SourcesUsed, want)
	}
}

func TestCompose_Hybrid_RegeneratesOnce(t *testing.T) {
	gen := &fakeGen{responses: []string{"He is simply the best player.", integratedAnswer}}
	c := newTestComposer(gen)

	draft, err := c.Compose(context.Background(), Input{
		Query:  "Who leads in scoring and why is he so effective?",
		Route:  classify.Hybrid,
		SQL:    sqlEvidence(),
		Vector: vectorEvidence(),
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if gen.calls != 2 {
		t.Fatalf("generator called %d times, want 2", gen.calls)
	}
	if !draft.Regenerated {
		t.Error("expected regeneration flag")
	}
	if draft.Text != integratedAnswer {
		t.Errorf("text = %q, want the second draft", draft.Text)
	}
	if draft.Integration == nil || !draft.Integration.Passed() {
		t.Errorf("integration = %+v, want the second draft's report", draft.Integration)
	}

	corrective := gen.prompts[1]
	for _, want := range []string{"did not meet these requirements", "Previous answer: He is simply the best player.", "Rewritten answer:"} {
		if !strings.Contains(corrective, want) {
			t.Errorf("corrective prompt missing %q", want)
		}
	}
}

func TestCompose_Hybrid_SecondDraftAcceptedRegardless(t *testing.T) {
	gen := &fakeGen{responses: []string{"First weak answer.", "Second weak answer."}}
	c := newTestComposer(gen)

	draft, err := c.Compose(context.Background(), Input{
		Query:  "Who leads in scoring and why?",
		Route:  classify.Hybrid,
		SQL:    sqlEvidence(),
		Vector: vectorEvidence(),
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if gen.calls != 2 {
		t.Fatalf("generator called %d times, want 2", gen.calls)
	}
	if draft.Text != "Second weak answer." {
		t.Errorf("text = %q, want the second draft even though it failed", draft.Text)
	}
	if draft.Integration.Passed() {
		t.Error("second draft should still report failed criteria")
	}
	if !draft.Regenerated {
		t.Error("expected regeneration flag")
	}
}

func TestCompose_Hybrid_DegradesToSingleLeg(t *testing.T) {
	tests := []struct {
		name        string
		sql         *sqltool.SQLExecutionResult
		vector      []retrieval.SearchResult
		wantRouting string
		wantText    string
		wantCalls   int
	}{
		{"vector leg failed", sqlEvidence(), nil, RoutingSQL, "generated", 1},
		{"sql leg failed", nil, vectorEvidence(), RoutingVector, "generated", 1},
		{"both legs failed", nil, nil, RoutingUnknown, NoInformationAnswer, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGen{responses: []string{"generated"}}
			c := newTestComposer(gen)

			draft, err := c.Compose(context.Background(), Input{
				Query:  "Who leads in scoring and why?",
				Route:  classify.Hybrid,
				SQL:    tt.sql,
				Vector: tt.vector,
			})
			if err != nil {
				t.Fatalf("Compose failed: %v", err)
			}
			if draft.RoutingActuallyUsed != tt.wantRouting {
				t.Errorf("routing = %q, want %q", draft.RoutingActuallyUsed, tt.wantRouting)
			}
			if draft.Text != tt.wantText {
				t.Errorf("text = %q, want %q", draft.Text, tt.wantText)
			}
			if gen.calls != tt.wantCalls {
				t.Errorf("generator called %d times, want %d", gen.calls, tt.wantCalls)
			}
			if draft.Integration != nil {
				t.Error("integration check should need both legs")
			}
		})
	}
}

func TestCompose_CorrectiveFailureKeepsFirstDraft(t *testing.T) {
	gen := &fakeGen{
		responses: []string{"First weak answer."},
		err:       stderrors.New("backend down"),
		errOnCall: 2,
	}
	c := newTestComposer(gen)

	draft, err := c.Compose(context.Background(), Input{
		Query:  "Who leads in scoring and why?",
		Route:  classify.Hybrid,
		SQL:    sqlEvidence(),
		Vector: vectorEvidence(),
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}

	if gen.calls != 2 {
		t.Fatalf("generator called %d times, want 2", gen.calls)
	}
	if draft.Text != "First weak answer." {
		t.Errorf("text = %q, want the first draft", draft.Text)
	}
	if draft.Regenerated {
		t.Error("failed corrective pass must not mark the draft regenerated")
	}
	if draft.Integration == nil || draft.Integration.Passed() {
		t.Errorf("integration = %+v, want the first draft's failed report", draft.Integration)
	}
}

func TestCompose_GenerationFailures(t *testing.T) {
	t.Run("hard failure maps to generation error", func(t *testing.T) {
		gen := &fakeGen{err: stderrors.New("backend down")}
		c := newTestComposer(gen)

		_, err := c.Compose(context.Background(), Input{
			Query:  "Why is Jokic so effective?",
			Route:  classify.VectorOnly,
			Vector: vectorEvidence(),
		})
		if errors.Code(err) != errors.CodeGeneration {
			t.Errorf("error = %v, want code %s", err, errors.CodeGeneration)
		}
	})

	t.Run("rate limit passes through typed", func(t *testing.T) {
		gen := &fakeGen{err: errors.RateLimitedError("generate", 2)}
		c := newTestComposer(gen)

		_, err := c.Compose(context.Background(), Input{
			Query:  "Why is Jokic so effective?",
			Route:  classify.VectorOnly,
			Vector: vectorEvidence(),
		})
		if !errors.IsRateLimited(err) {
			t.Errorf("error = %v, want rate limited", err)
		}
	})

	t.Run("empty completion is a generation error", func(t *testing.T) {
		gen := &fakeGen{responses: []string{"   "}}
		c := newTestComposer(gen)

		_, err := c.Compose(context.Background(), Input{
			Query:  "Why is Jokic so effective?",
			Route:  classify.VectorOnly,
			Vector: vectorEvidence(),
		})
		if errors.Code(err) != errors.CodeGeneration {
			t.Errorf("error = %v, want code %s", err, errors.CodeGeneration)
		}
	})
}

func TestCompose_SourcesOnlyWhenRequested(t *testing.T) {
	gen := &fakeGen{responses: []string{"answer"}}
	c := newTestComposer(gen)

	draft, err := c.Compose(context.Background(), Input{
		Query:  "Why is Jokic so effective?",
		Route:  classify.VectorOnly,
		Vector: vectorEvidence(),
	})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if draft.SourcesUsed != nil {
		t.Errorf("sources = %v, want none without IncludeSources", draft.SourcesUsed)
	}
}

func TestRenderTable_CapsRows(t *testing.T) {
	rs := sqltool.ResultSet{
		Columns: []string{"name"},
		Rows:    [][]string{{"a"}, {"b"}, {"c"}},
	}
	got := renderTable(rs, 1)
	if !strings.Contains(got, "... (2 more rows)") {
		t.Errorf("rendering = %q, want row cap marker", got)
	}
	if strings.Contains(got, "b") || strings.Contains(got, "c") {
		t.Errorf("rendering = %q, want capped rows omitted", got)
	}
}

func TestRenderSnippets_TruncatesAndTags(t *testing.T) {
	results := vectorEvidence()
	got := renderSnippets(results, 10)
	if !strings.Contains(got, "[1] reddit: His passin...") {
		t.Errorf("rendering = %q, want truncated tagged snippet", got)
	}
}
