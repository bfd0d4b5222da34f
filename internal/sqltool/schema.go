package sqltool

import "regexp"

// SchemaCard is the fixed two-table schema embedded into every
// generation prompt. The stats database never changes shape at runtime.
const SchemaCard = `Database schema (SQLite):

players(
  id INTEGER PRIMARY KEY,
  name TEXT,
  team TEXT,
  position TEXT
)

player_stats(
  player_id INTEGER REFERENCES players(id),
  season TEXT,
  games_played INTEGER,
  pts REAL, reb REAL, ast REAL, stl REAL, blk REAL,
  fg_pct REAL, fg3_pct REAL, ft_pct REAL
)

Join key: player_stats.player_id = players.id`

const (
	tablePlayers     = "players"
	tablePlayerStats = "player_stats"
)

type schemaColumn struct {
	name    string
	table   string
	pattern *regexp.Regexp
}

func column(name, table string) schemaColumn {
	return schemaColumn{
		name:    name,
		table:   table,
		pattern: regexp.MustCompile(`(?i)\b` + name + `\b`),
	}
}

// schemaColumns lists every column with its owning table. The two tables
// share no column names, so an unqualified column resolves to exactly
// one qualifier.
var schemaColumns = []schemaColumn{
	column("id", tablePlayers),
	column("name", tablePlayers),
	column("team", tablePlayers),
	column("position", tablePlayers),
	column("player_id", tablePlayerStats),
	column("season", tablePlayerStats),
	column("games_played", tablePlayerStats),
	column("pts", tablePlayerStats),
	column("reb", tablePlayerStats),
	column("ast", tablePlayerStats),
	column("stl", tablePlayerStats),
	column("blk", tablePlayerStats),
	column("fg_pct", tablePlayerStats),
	column("fg3_pct", tablePlayerStats),
	column("ft_pct", tablePlayerStats),
}
