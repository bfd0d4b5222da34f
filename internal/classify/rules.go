package classify

import "strings"

// RuleTableVersion identifies the revision of the routing vocabulary below.
// Bump it whenever a rule list changes so logged decisions stay comparable.
const RuleTableVersion = 3

// Rule binds a pattern to the weight it contributes to its cluster score.
// Patterns containing a space match as substrings of the normalized query;
// single words match whole tokens only.
type Rule struct {
	Pattern string
	Weight  int
}

// StatisticalRules match queries answerable from the stats database:
// rankings, aggregations, and box-score vocabulary.
var StatisticalRules = []Rule{
	// Ranking and superlatives
	{Pattern: "most", Weight: 1},
	{Pattern: "top", Weight: 1},
	{Pattern: "highest", Weight: 1},
	{Pattern: "lowest", Weight: 1},
	{Pattern: "best", Weight: 1},
	{Pattern: "leader", Weight: 1},
	{Pattern: "leaders", Weight: 1},
	{Pattern: "leads", Weight: 1},
	{Pattern: "rank", Weight: 1},

	// Aggregations
	{Pattern: "average", Weight: 1},
	{Pattern: "total", Weight: 1},
	{Pattern: "per game", Weight: 1},
	{Pattern: "how many", Weight: 1},
	{Pattern: "count", Weight: 1},
	{Pattern: "sum", Weight: 1},

	// Box-score vocabulary
	{Pattern: "points", Weight: 1},
	{Pattern: "pts", Weight: 1},
	{Pattern: "ppg", Weight: 1},
	{Pattern: "scored", Weight: 1},
	{Pattern: "scoring", Weight: 1},
	{Pattern: "rebounds", Weight: 1},
	{Pattern: "reb", Weight: 1},
	{Pattern: "rpg", Weight: 1},
	{Pattern: "assists", Weight: 1},
	{Pattern: "ast", Weight: 1},
	{Pattern: "apg", Weight: 1},
	{Pattern: "steals", Weight: 1},
	{Pattern: "blocks", Weight: 1},
	{Pattern: "field goal", Weight: 1},
	{Pattern: "fg%", Weight: 1},
	{Pattern: "three-point", Weight: 1},
	{Pattern: "3p%", Weight: 1},
	{Pattern: "free throw", Weight: 1},
	{Pattern: "games played", Weight: 1},
	{Pattern: "stats", Weight: 1},
	{Pattern: "stat", Weight: 1},
	{Pattern: "numbers", Weight: 1},
	{Pattern: "season", Weight: 1},
	{Pattern: "record", Weight: 1},
}

// ContextualRules match queries asking for explanation, opinion, or
// narrative: material that lives in the discussion corpus.
var ContextualRules = []Rule{
	{Pattern: "why", Weight: 1},
	{Pattern: "explain", Weight: 1},
	{Pattern: "how come", Weight: 1},
	{Pattern: "what makes", Weight: 1},
	{Pattern: "opinion", Weight: 1},
	{Pattern: "think", Weight: 1},
	{Pattern: "feel", Weight: 1},
	{Pattern: "discuss", Weight: 1},
	{Pattern: "discussion", Weight: 1},
	{Pattern: "debate", Weight: 1},
	{Pattern: "considered", Weight: 1},
	{Pattern: "greatest", Weight: 1},
	{Pattern: "goat", Weight: 1},
	{Pattern: "legacy", Weight: 1},
	{Pattern: "impact", Weight: 1},
	{Pattern: "influence", Weight: 1},
	{Pattern: "clutch", Weight: 1},
	{Pattern: "playstyle", Weight: 1},
	{Pattern: "style", Weight: 1},
	{Pattern: "strategy", Weight: 1},
	{Pattern: "narrative", Weight: 1},
	{Pattern: "underrated", Weight: 1},
	{Pattern: "overrated", Weight: 1},
	{Pattern: "better", Weight: 1},
	{Pattern: "worse", Weight: 1},
}

// HybridRules match combinator phrases that explicitly demand both the
// statistical and the contextual leg. Any hit forces the hybrid route.
var HybridRules = []Rule{
	{Pattern: "and explain", Weight: 2},
	{Pattern: "and why", Weight: 2},
	{Pattern: "and discuss", Weight: 2},
	{Pattern: "stats and", Weight: 2},
	{Pattern: "numbers and", Weight: 2},
	{Pattern: "based on the stats", Weight: 2},
	{Pattern: "based on his stats", Weight: 2},
	{Pattern: "show me the stats and", Weight: 2},
	{Pattern: "statistically and", Weight: 2},
}

// FollowUpPronouns are third-person references that point at the entity of a
// prior turn. Matched against whole tokens.
var FollowUpPronouns = []string{"his", "her", "their", "he", "she", "they", "him", "them"}

// FollowUpOpeners are comparative phrasings that continue a conversation.
// Ordered longest first so the most specific phrasing wins.
var FollowUpOpeners = []string{
	"how does that compare",
	"compared to",
	"what about",
}

// SynonymEntry maps a query term to corpus synonyms appended during
// expansion. The table is ordered; expansion walks it top to bottom.
type SynonymEntry struct {
	Term     string
	Synonyms []string
}

// SynonymTable is the fixed expansion vocabulary for the sports domain.
var SynonymTable = []SynonymEntry{
	{Term: "points", Synonyms: []string{"scoring", "pts", "ppg"}},
	{Term: "rebounds", Synonyms: []string{"boards", "reb", "rpg"}},
	{Term: "assists", Synonyms: []string{"dimes", "ast", "apg"}},
	{Term: "steals", Synonyms: []string{"stl"}},
	{Term: "blocks", Synonyms: []string{"blk", "swats"}},
	{Term: "three-point", Synonyms: []string{"3pt", "from deep"}},
	{Term: "field goal", Synonyms: []string{"fg", "shooting"}},
	{Term: "free throw", Synonyms: []string{"ft", "foul shot"}},
	{Term: "greatest", Synonyms: []string{"goat", "all-time", "legend"}},
	{Term: "clutch", Synonyms: []string{"crunch time", "late-game"}},
	{Term: "playoffs", Synonyms: []string{"postseason"}},
	{Term: "championship", Synonyms: []string{"title", "ring", "finals"}},
	{Term: "mvp", Synonyms: []string{"most valuable player"}},
	{Term: "defense", Synonyms: []string{"defensive", "rim protection"}},
	{Term: "offense", Synonyms: []string{"offensive", "scoring"}},
	{Term: "season", Synonyms: []string{"campaign", "year"}},
	{Term: "team", Synonyms: []string{"franchise", "roster"}},
	{Term: "player", Synonyms: []string{"star"}},
}

// EntityAlias maps a query-side alias to the canonical player name used for
// entity tracking across turns. Ordered longest alias first.
type EntityAlias struct {
	Alias     string
	Canonical string
}

// EntityAliases covers the players the discussion corpus talks about most.
// Entity extraction is best effort; SQL result names take precedence.
var EntityAliases = []EntityAlias{
	{Alias: "shai gilgeous-alexander", Canonical: "Shai Gilgeous-Alexander"},
	{Alias: "gilgeous-alexander", Canonical: "Shai Gilgeous-Alexander"},
	{Alias: "giannis antetokounmpo", Canonical: "Giannis Antetokounmpo"},
	{Alias: "victor wembanyama", Canonical: "Victor Wembanyama"},
	{Alias: "nikola jokić", Canonical: "Nikola Jokić"},
	{Alias: "nikola jokic", Canonical: "Nikola Jokić"},
	{Alias: "lebron james", Canonical: "LeBron James"},
	{Alias: "stephen curry", Canonical: "Stephen Curry"},
	{Alias: "kevin durant", Canonical: "Kevin Durant"},
	{Alias: "luka dončić", Canonical: "Luka Dončić"},
	{Alias: "luka doncic", Canonical: "Luka Dončić"},
	{Alias: "jayson tatum", Canonical: "Jayson Tatum"},
	{Alias: "anthony edwards", Canonical: "Anthony Edwards"},
	{Alias: "joel embiid", Canonical: "Joel Embiid"},
	{Alias: "wembanyama", Canonical: "Victor Wembanyama"},
	{Alias: "giannis", Canonical: "Giannis Antetokounmpo"},
	{Alias: "lebron", Canonical: "LeBron James"},
	{Alias: "curry", Canonical: "Stephen Curry"},
	{Alias: "jokić", Canonical: "Nikola Jokić"},
	{Alias: "jokic", Canonical: "Nikola Jokić"},
	{Alias: "embiid", Canonical: "Joel Embiid"},
	{Alias: "durant", Canonical: "Kevin Durant"},
	{Alias: "tatum", Canonical: "Jayson Tatum"},
	{Alias: "dončić", Canonical: "Luka Dončić"},
	{Alias: "doncic", Canonical: "Luka Dončić"},
	{Alias: "sga", Canonical: "Shai Gilgeous-Alexander"},
}

// scoreRules sums the weights of matching rules. Multi-word patterns match
// as substrings; single words must match a whole token.
func scoreRules(normalized string, tokens map[string]bool, rules []Rule) int {
	score := 0
	for _, r := range rules {
		if strings.ContainsRune(r.Pattern, ' ') {
			if strings.Contains(normalized, r.Pattern) {
				score += r.Weight
			}
			continue
		}
		if tokens[r.Pattern] {
			score += r.Weight
		}
	}
	return score
}

// ExtractEntity returns the canonical name of the first known player
// mentioned in the normalized query, or empty when none matches.
func ExtractEntity(normalized string) string {
	for _, alias := range EntityAliases {
		if strings.Contains(normalized, alias.Alias) {
			return alias.Canonical
		}
	}
	return ""
}

// ExpandQuery appends up to limit synonyms for terms present in the
// normalized query. Table order makes the expansion deterministic.
func ExpandQuery(normalized string, tokens map[string]bool, limit int) string {
	if limit <= 0 {
		return normalized
	}

	added := 0
	var extra []string
	for _, entry := range SynonymTable {
		if added >= limit {
			break
		}

		matched := false
		if strings.ContainsRune(entry.Term, ' ') || strings.ContainsRune(entry.Term, '-') {
			matched = strings.Contains(normalized, entry.Term)
		} else {
			matched = tokens[entry.Term]
		}
		if !matched {
			continue
		}

		for _, syn := range entry.Synonyms {
			if added >= limit {
				break
			}
			if strings.Contains(normalized, syn) {
				continue
			}
			extra = append(extra, syn)
			added++
		}
	}

	if len(extra) == 0 {
		return normalized
	}
	return normalized + " " + strings.Join(extra, " ")
}
