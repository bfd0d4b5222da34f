package sqltool

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	apperrors "github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
)

type fakeGenerator struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	i := f.calls - 1
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	return f.responses[i], nil
}

func newTestTool(t *testing.T, gen *fakeGenerator) (*Tool, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tool := New(db, gen, logger.New("error", "text"), Config{MaxRows: 10, Timeout: time.Second})
	return tool, mock
}

func TestExecute_RowsComeBackAsStrings(t *testing.T) {
	tool, mock := newTestTool(t, &fakeGenerator{})
	mock.ExpectQuery("SELECT name, pts FROM players").WillReturnRows(
		sqlmock.NewRows([]string{"name", "pts"}).
			AddRow("Nikola Jokic", "26.4").
			AddRow("Joel Embiid", int64(33)).
			AddRow(nil, "12.1"))

	res := tool.Execute(context.Background(), "SELECT name, pts FROM players")
	if !res.Executed {
		t.Fatalf("Executed = false, err = %s", res.Err)
	}
	if len(res.Result.Columns) != 2 || res.Result.Columns[0] != "name" {
		t.Errorf("Columns = %v", res.Result.Columns)
	}
	if res.Result.Rows[0][0] != "Nikola Jokic" || res.Result.Rows[0][1] != "26.4" {
		t.Errorf("Rows[0] = %v", res.Result.Rows[0])
	}
	if res.Result.Rows[1][1] != "33" {
		t.Errorf("integer value = %q, want 33", res.Result.Rows[1][1])
	}
	if res.Result.Rows[2][0] != "" {
		t.Errorf("NULL value = %q, want empty", res.Result.Rows[2][0])
	}
}

func TestExecute_CapsRowCount(t *testing.T) {
	tool, mock := newTestTool(t, &fakeGenerator{})
	rows := sqlmock.NewRows([]string{"name"})
	for i := 0; i < 25; i++ {
		rows.AddRow(fmt.Sprintf("player-%d", i))
	}
	mock.ExpectQuery("SELECT name FROM players").WillReturnRows(rows)

	res := tool.Execute(context.Background(), "SELECT name FROM players")
	if !res.Executed {
		t.Fatalf("Executed = false, err = %s", res.Err)
	}
	if len(res.Result.Rows) != 10 {
		t.Errorf("len(Rows) = %d, want 10", len(res.Result.Rows))
	}
}

func TestExecute_ErrorStaysInsideResult(t *testing.T) {
	tool, mock := newTestTool(t, &fakeGenerator{})
	mock.ExpectQuery("SELECT nam FROM players").WillReturnError(fmt.Errorf("no such column: nam"))

	res := tool.Execute(context.Background(), "SELECT nam FROM players")
	if res.Executed {
		t.Error("Executed = true for a failed query")
	}
	if !strings.Contains(res.Err, "no such column") {
		t.Errorf("Err = %q, want the database error", res.Err)
	}
}

func TestRun_HappyPath(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"```sql\nSELECT name FROM players LIMIT 1\n```"}}
	tool, mock := newTestTool(t, gen)
	mock.ExpectQuery("SELECT name FROM players LIMIT 1").WillReturnRows(
		sqlmock.NewRows([]string{"name"}).AddRow("LeBron James"))

	res := tool.Run(context.Background(), "Who is the first player?")
	if !res.Executed {
		t.Fatalf("Executed = false, err = %s", res.Err)
	}
	if res.GeneratedSQL != "SELECT name FROM players LIMIT 1" {
		t.Errorf("GeneratedSQL = %q", res.GeneratedSQL)
	}
	if got := res.Result.LeadingEntity(); got != "LeBron James" {
		t.Errorf("LeadingEntity() = %q, want LeBron James", got)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
	if !strings.Contains(gen.prompts[0], "players(") || !strings.Contains(gen.prompts[0], "player_stats(") {
		t.Error("prompt should embed the schema card")
	}
	if !strings.Contains(gen.prompts[0], "Who is the first player?") {
		t.Error("prompt should embed the question")
	}
}

func TestRun_RepairsAfterExecutionError(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"SELECT nam FROM players",
		"SELECT name FROM players",
	}}
	tool, mock := newTestTool(t, gen)
	mock.ExpectQuery("SELECT nam FROM players").WillReturnError(fmt.Errorf("no such column: nam"))
	mock.ExpectQuery("SELECT name FROM players").WillReturnRows(
		sqlmock.NewRows([]string{"name"}).AddRow("Stephen Curry"))

	res := tool.Run(context.Background(), "List player names")
	if !res.Executed {
		t.Fatalf("repair did not recover: %s", res.Err)
	}
	if !res.Repaired {
		t.Error("result should be marked repaired")
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
	if !strings.Contains(gen.prompts[1], "no such column: nam") {
		t.Error("repair prompt should carry the execution error")
	}
	if !strings.Contains(gen.prompts[1], "SELECT nam FROM players") {
		t.Error("repair prompt should carry the failed statement")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRun_DestructiveStatementsNeverReachDatabase(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"DROP TABLE players",
		"SELECT name FROM players UNION DELETE FROM players",
	}}
	tool, mock := newTestTool(t, gen)

	res := tool.Run(context.Background(), "Remove everyone")
	if res.Executed {
		t.Fatal("destructive statement executed")
	}
	if res.Err == "" {
		t.Error("Err should describe the rejection")
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2 (one repair)", gen.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("database was touched: %v", err)
	}
}

func TestRun_ExactlyOneRepair(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"SELECT nam FROM players",
		"SELECT namm FROM players",
	}}
	tool, mock := newTestTool(t, gen)
	mock.ExpectQuery("SELECT nam FROM players").WillReturnError(fmt.Errorf("no such column: nam"))
	mock.ExpectQuery("SELECT namm FROM players").WillReturnError(fmt.Errorf("no such column: namm"))

	res := tool.Run(context.Background(), "List player names")
	if res.Executed {
		t.Error("Executed = true after two failures")
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
	if res.GeneratedSQL != "SELECT namm FROM players" {
		t.Errorf("GeneratedSQL = %q, want the repair attempt", res.GeneratedSQL)
	}
	if !strings.Contains(res.Err, "namm") {
		t.Errorf("Err = %q, want the final failure", res.Err)
	}
}

func TestRun_GenerationFailureInsideResult(t *testing.T) {
	gen := &fakeGenerator{err: apperrors.ServiceUnavailableError("ollama")}
	tool, mock := newTestTool(t, gen)

	res := tool.Run(context.Background(), "Who scored the most?")
	if res.Executed {
		t.Error("Executed = true without generated sql")
	}
	if res.Err == "" {
		t.Error("Err should carry the provider failure")
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1 (no repair without sql)", gen.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("database was touched: %v", err)
	}
}

func TestRun_EmptyCompletion(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"```sql\n```"}}
	tool, _ := newTestTool(t, gen)

	res := tool.Run(context.Background(), "Who scored the most?")
	if res.Executed {
		t.Error("Executed = true for an empty completion")
	}
	if !strings.Contains(res.Err, "no sql") {
		t.Errorf("Err = %q, want a no-sql failure", res.Err)
	}
}

func TestPlayerRows(t *testing.T) {
	rs := ResultSet{
		Columns: []string{"name", "team", "position", "pts", "avg(reb)"},
		Rows: [][]string{
			{"Nikola Jokic", "DEN", "C", "26.4", "12.4"},
			{"Luka Doncic", "DAL", "G", "33.9", "9.2"},
		},
	}

	players := rs.PlayerRows()
	if len(players) != 2 {
		t.Fatalf("len(players) = %d, want 2", len(players))
	}
	first := players[0]
	if first.Name != "Nikola Jokic" || first.Team != "DEN" || first.Position != "C" {
		t.Errorf("identity fields = %+v", first)
	}
	if first.Stats["pts"] != "26.4" || first.Stats["avg(reb)"] != "12.4" {
		t.Errorf("stats = %v", first.Stats)
	}
}

func TestLeadingEntity(t *testing.T) {
	tests := []struct {
		name string
		rs   ResultSet
		want string
	}{
		{"name column", ResultSet{Columns: []string{"name", "pts"}, Rows: [][]string{{"Jayson Tatum", "28"}}}, "Jayson Tatum"},
		{"case-insensitive column", ResultSet{Columns: []string{"Name"}, Rows: [][]string{{"Devin Booker"}}}, "Devin Booker"},
		{"no name column", ResultSet{Columns: []string{"pts"}, Rows: [][]string{{"30"}}}, ""},
		{"no rows", ResultSet{Columns: []string{"name"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rs.LeadingEntity(); got != tt.want {
				t.Errorf("LeadingEntity() = %q, want %q", got, tt.want)
			}
		})
	}
}
