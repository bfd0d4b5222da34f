package composer

import (
	"fmt"
	"strings"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/conversation"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/sqltool"
)

const answerInstruction = "You are a basketball analytics assistant. " +
	"Answer the question using only the evidence below. Be direct and specific."

func answerPrompt(in Input, cfg Config, withSQL, withVector bool) string {
	var b strings.Builder
	b.WriteString(answerInstruction)
	b.WriteString("\n")
	writeEvidence(&b, in, cfg, withSQL, withVector)
	fmt.Fprintf(&b, "\nQuestion: %s\n\nAnswer:", in.Query)
	return b.String()
}

func correctivePrompt(in Input, cfg Config, firstDraft string, report IntegrationReport) string {
	var b strings.Builder
	b.WriteString(answerInstruction)
	b.WriteString("\n\nYour previous answer did not meet these requirements:\n")
	for _, line := range correctiveLines(report) {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nPrevious answer: %s\n", firstDraft)
	writeEvidence(&b, in, cfg, true, true)
	fmt.Fprintf(&b, "\nQuestion: %s\n\nRewritten answer:", in.Query)
	return b.String()
}

func writeEvidence(b *strings.Builder, in Input, cfg Config, withSQL, withVector bool) {
	if ctx := renderContext(in.Context); ctx != "" {
		b.WriteString("\nConversation so far:\n")
		b.WriteString(ctx)
	}
	if withSQL && in.SQL != nil && len(in.SQL.Result.Columns) > 0 {
		b.WriteString("\nStatistics from the stats database:\n")
		b.WriteString(renderTable(in.SQL.Result, cfg.MaxTableRows))
	}
	if withVector && len(in.Vector) > 0 {
		b.WriteString("\nDiscussion context:\n")
		b.WriteString(renderSnippets(in.Vector, cfg.MaxSnippetChars))
	}
}

func correctiveLines(report IntegrationReport) []string {
	var lines []string
	if !report.SQLComponentUsed {
		lines = append(lines, "cite at least one concrete number or name from the statistics table")
	}
	if !report.VectorComponentUsed {
		lines = append(lines, "work in a phrase from the discussion context")
	}
	if !report.ComponentsBlended {
		lines = append(lines, `connect the statistics to the discussion with a connective such as "because" or "which explains"`)
	}
	if !report.AnswerComplete {
		lines = append(lines, "state both the key number and the reason behind it")
	}
	return lines
}

func renderContext(turns []conversation.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", t.TurnNumber, t.Query, t.TurnNumber, t.AnswerText)
	}
	return b.String()
}

func renderTable(rs sqltool.ResultSet, maxRows int) string {
	var b strings.Builder
	b.WriteString(strings.Join(rs.Columns, " | "))
	b.WriteString("\n")
	for i, row := range rs.Rows {
		if maxRows > 0 && i >= maxRows {
			fmt.Fprintf(&b, "... (%d more rows)\n", len(rs.Rows)-maxRows)
			break
		}
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return b.String()
}

func renderSnippets(results []retrieval.SearchResult, maxChars int) string {
	var b strings.Builder
	for i, r := range results {
		text := r.Text
		if maxChars > 0 && len(text) > maxChars {
			text = text[:maxChars] + "..."
		}
		source := r.Metadata.Source
		if source == "" {
			source = "discussion"
		}
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, source, text)
	}
	return b.String()
}
