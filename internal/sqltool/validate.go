package sqltool

import (
	"regexp"
	"strings"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
)

var (
	forbiddenVerbs = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|attach)\b`)
	selectPrefix   = regexp.MustCompile(`(?i)^select\b`)
	lineComment    = regexp.MustCompile(`--[^\n]*`)
	blockComment   = regexp.MustCompile(`(?s)/\*.*?\*/`)

	fencedBlock    = regexp.MustCompile("(?s)```(?:sql)?\\s*(.*?)```")
	wherePattern   = regexp.MustCompile(`(?i)\bwhere\b`)
	clauseBoundary = regexp.MustCompile(`(?i)\b(group\s+by|order\s+by|having|limit)\b`)

	// tableMention finds referenced schema tables, including comma-style
	// joins. Aliases are resolved separately so a following JOIN keyword
	// is never swallowed as an alias.
	tableMention = regexp.MustCompile(`(?i)(?:\b(?:from|join)\s+|,\s*)(players|player_stats)\b`)
	aliasAfter   = regexp.MustCompile(`(?i)^\s+(?:as\s+)?([a-zA-Z_][a-zA-Z0-9_]*)`)
)

// aliasStopwords are keywords that can follow a table name without
// being an alias.
var aliasStopwords = map[string]bool{
	"where": true, "on": true, "join": true, "inner": true, "left": true,
	"right": true, "cross": true, "natural": true, "group": true,
	"order": true, "limit": true, "having": true, "using": true,
	"as": true, "union": true, "select": true,
}

// Validate rejects everything except a single SELECT statement.
// Destructive verbs are refused wherever they appear; a statement that
// fails here is never executed.
func Validate(query string) error {
	trimmed := strings.TrimSpace(stripComments(query))
	if trimmed == "" {
		return errors.ValidationError("empty sql statement")
	}

	body := strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	if strings.Contains(body, ";") {
		return errors.ValidationError("multiple sql statements are not allowed")
	}
	if !selectPrefix.MatchString(body) {
		return errors.ValidationError("only select statements are allowed")
	}
	if verb := forbiddenVerbs.FindString(body); verb != "" {
		return errors.ValidationError("forbidden sql verb: " + strings.ToLower(verb))
	}
	return nil
}

func stripComments(query string) string {
	out := blockComment.ReplaceAllString(query, " ")
	return lineComment.ReplaceAllString(out, " ")
}

// stripFences extracts SQL from a fenced markdown block, or removes
// stray fence markers when the model left the block unclosed.
func stripFences(raw string) string {
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	out := strings.ReplaceAll(raw, "```sql", " ")
	out = strings.ReplaceAll(out, "```", " ")
	return strings.TrimSpace(out)
}

// tableRef is a referenced schema table with the qualifier valid for it
// in this statement: its alias when one is declared, the table name
// otherwise.
type tableRef struct {
	table     string
	qualifier string
}

func tableRefs(query string) map[string]tableRef {
	refs := make(map[string]tableRef)
	for _, m := range tableMention.FindAllStringSubmatchIndex(query, -1) {
		table := strings.ToLower(query[m[2]:m[3]])
		qualifier := table
		if am := aliasAfter.FindStringSubmatch(query[m[3]:]); am != nil {
			if alias := strings.ToLower(am[1]); !aliasStopwords[alias] {
				qualifier = alias
			}
		}
		refs[table] = tableRef{table: table, qualifier: qualifier}
	}
	return refs
}

// AutoCorrect repairs the two mistakes generated SQL makes most: it
// qualifies unqualified schema columns when both tables are referenced,
// and injects the known join key when both tables appear with no join
// predicate. Statements touching at most one schema table pass through
// untouched.
func AutoCorrect(query string) string {
	refs := tableRefs(query)
	if len(refs) < 2 {
		return query
	}

	body := strings.TrimSpace(query)
	body = strings.TrimSpace(strings.TrimSuffix(body, ";"))

	for _, col := range schemaColumns {
		body = qualifyColumn(body, col, refs[col.table].qualifier)
	}

	ps := refs[tablePlayerStats]
	pl := refs[tablePlayers]
	if !hasJoinPredicate(body, ps, pl) {
		body = injectJoin(body, ps, pl)
	}
	return body
}

// qualifyColumn prefixes bare occurrences of a schema column with its
// table qualifier. Occurrences that already carry a prefix or that name
// an output alias (AS x) stay as they are.
func qualifyColumn(query string, col schemaColumn, qualifier string) string {
	locs := col.pattern.FindAllStringIndex(query, -1)
	if len(locs) == 0 {
		return query
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(query[last:loc[0]])
		word := query[loc[0]:loc[1]]
		if prefixed(query, loc[0]) || qualifierUse(query, loc[1]) ||
			outputAlias(query, loc[0]) || tableAlias(query, loc[0]) {
			b.WriteString(word)
		} else {
			b.WriteString(qualifier)
			b.WriteByte('.')
			b.WriteString(word)
		}
		last = loc[1]
	}
	b.WriteString(query[last:])
	return b.String()
}

func prefixed(query string, pos int) bool {
	return pos > 0 && query[pos-1] == '.'
}

// qualifierUse reports whether the match ending at end is itself used as
// a qualifier, as the first pts in "pts.pts".
func qualifierUse(query string, end int) bool {
	return end < len(query) && query[end] == '.'
}

func outputAlias(query string, pos int) bool {
	head := strings.TrimRight(query[:pos], " \t\n")
	if len(head) < 2 || !strings.EqualFold(head[len(head)-2:], "as") {
		return false
	}
	return len(head) == 2 || !isWordByte(head[len(head)-3])
}

// tableAlias reports whether the match at pos is an alias declaration
// directly after a table name, as in "FROM player_stats pts".
func tableAlias(query string, pos int) bool {
	head := strings.ToLower(strings.TrimRight(query[:pos], " \t\n"))
	for _, table := range []string{tablePlayers, tablePlayerStats} {
		if !strings.HasSuffix(head, table) {
			continue
		}
		idx := len(head) - len(table)
		if idx == 0 || !isWordByte(head[idx-1]) {
			return true
		}
	}
	return false
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

func hasJoinPredicate(query string, ps, pl tableRef) bool {
	pairs := [][2]string{
		{ps.qualifier + `\s*\.\s*player_id`, pl.qualifier + `\s*\.\s*id`},
		{tablePlayerStats + `\s*\.\s*player_id`, tablePlayers + `\s*\.\s*id`},
	}
	for _, pair := range pairs {
		left, right := pair[0], pair[1]
		if regexp.MustCompile(`(?i)` + left + `\s*=\s*` + right + `\b`).MatchString(query) {
			return true
		}
		if regexp.MustCompile(`(?i)` + right + `\s*=\s*` + left + `\b`).MatchString(query) {
			return true
		}
	}
	return false
}

// injectJoin adds the fixed join key as a WHERE predicate. With an
// existing WHERE the predicate is AND-ed in front of it; otherwise a
// WHERE clause lands before any trailing GROUP BY, ORDER BY, HAVING or
// LIMIT.
func injectJoin(query string, ps, pl tableRef) string {
	predicate := ps.qualifier + ".player_id = " + pl.qualifier + ".id"

	if loc := wherePattern.FindStringIndex(query); loc != nil {
		return query[:loc[1]] + " " + predicate + " AND" + query[loc[1]:]
	}
	if loc := clauseBoundary.FindStringIndex(query); loc != nil {
		return query[:loc[0]] + "WHERE " + predicate + " " + query[loc[0]:]
	}
	return query + " WHERE " + predicate
}
