package sqltool

import (
	"context"
	"database/sql"
	"strings"
)

// ResultSet is a column-ordered view of query output. Values arrive as
// their SQLite text rendering; NULL becomes the empty string.
type ResultSet struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the result carries no data rows.
func (r ResultSet) Empty() bool { return len(r.Rows) == 0 }

// Column returns the index of the named column, or -1 when absent.
// Matching ignores case.
func (r ResultSet) Column(name string) int {
	for i, c := range r.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// LeadingEntity returns the name column of the first row. Follow-up
// questions stay anchored to the player the answer led with.
func (r ResultSet) LeadingEntity() string {
	idx := r.Column("name")
	if idx < 0 || len(r.Rows) == 0 {
		return ""
	}
	return r.Rows[0][idx]
}

// PlayerRow is a typed view of one row against the fixed schema.
type PlayerRow struct {
	Name     string            `json:"name,omitempty"`
	Team     string            `json:"team,omitempty"`
	Position string            `json:"position,omitempty"`
	Stats    map[string]string `json:"stats,omitempty"`
}

// PlayerRows maps every row onto the fixed schema. Columns that are not
// identity fields land in Stats keyed by their reported label, so
// aggregates like avg(pts) keep their name.
func (r ResultSet) PlayerRows() []PlayerRow {
	players := make([]PlayerRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		p := PlayerRow{}
		for i, col := range r.Columns {
			if i >= len(row) {
				break
			}
			switch strings.ToLower(col) {
			case "name":
				p.Name = row[i]
			case "team":
				p.Team = row[i]
			case "position":
				p.Position = row[i]
			default:
				if p.Stats == nil {
					p.Stats = make(map[string]string)
				}
				p.Stats[strings.ToLower(col)] = row[i]
			}
		}
		players = append(players, p)
	}
	return players
}

// Execute runs an already-validated statement on the read-only handle.
// Failures come back inside the result; callers decide whether to
// repair or fall back.
func (t *Tool) Execute(ctx context.Context, query string) SQLExecutionResult {
	result := SQLExecutionResult{GeneratedSQL: query}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.Result.Columns = columns

	for len(result.Result.Rows) < t.cfg.MaxRows && rows.Next() {
		values := make([]sql.NullString, len(columns))
		scanArgs := make([]any, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			result.Err = err.Error()
			return result
		}

		row := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}
		result.Result.Rows = append(result.Result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		result.Err = err.Error()
		return result
	}

	result.Executed = true
	return result
}
