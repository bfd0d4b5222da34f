package classify

import (
	"strings"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
)

// Classifier routes queries to a retrieval strategy using the versioned rule
// table in rules.go. Classification is a pure computation over its inputs:
// no I/O, no stored state, and it never fails.
type Classifier struct {
	log *logger.Logger
}

// New creates a classifier.
func New(log *logger.Logger) *Classifier {
	return &Classifier{log: log}
}

// Classify normalizes the query, resolves follow-up references against
// lastEntity, scores the three vocabularies, and picks a route.
//
// Priority: any hybrid combinator forces HYBRID; both clusters scoring forces
// HYBRID; otherwise the stronger cluster wins. Ties fall to VECTOR_ONLY and
// are flagged ambiguous so the caller can log them.
func (c *Classifier) Classify(query, lastEntity string) Decision {
	normalized, strippedNoise := NormalizeWithReport(query)
	rewritten, followUp := RewriteFollowUp(normalized, lastEntity)
	tokens := Tokenize(rewritten)

	signals := Signals{
		StatisticalScore: scoreRules(rewritten, tokens, StatisticalRules),
		ContextualScore:  scoreRules(rewritten, tokens, ContextualRules),
		HybridScore:      scoreRules(rewritten, tokens, HybridRules),
	}

	queryType, ambiguous := route(signals)
	category := categorize(rewritten, followUp, strippedNoise, tokens, signals)

	decision := Decision{
		QueryType:   queryType,
		Signals:     signals,
		Rewritten:   rewritten,
		FollowUp:    followUp,
		Ambiguous:   ambiguous,
		Category:    category,
		RuleVersion: RuleTableVersion,
	}

	if c.log != nil {
		c.log.Debug("classified query",
			"route", queryType,
			"statistical", signals.StatisticalScore,
			"contextual", signals.ContextualScore,
			"hybrid", signals.HybridScore,
			"category", category,
			"follow_up", followUp,
		)
	}

	return decision
}

// route applies the decision priority to the cluster scores.
func route(s Signals) (QueryType, bool) {
	switch {
	case s.HybridScore > 0:
		return Hybrid, false
	case s.StatisticalScore > 0 && s.ContextualScore > 0:
		return Hybrid, false
	case s.StatisticalScore > s.ContextualScore:
		return SQLOnly, false
	case s.ContextualScore > s.StatisticalScore:
		return VectorOnly, false
	default:
		// Tied, including the zero-signal case. A query with no statistical
		// signal gives SQL generation nothing to work from; the vector path
		// degrades gracefully to the no-information answer.
		return VectorOnly, true
	}
}

// RewriteFollowUp resolves third-person references against the entity from
// the previous turn. Pronoun tokens are substituted in place; comparative
// openers get the entity appended. With no known entity the query passes
// through unchanged, only the follow-up flag is reported.
func RewriteFollowUp(normalized, lastEntity string) (string, bool) {
	followUp := false
	entity := strings.ToLower(lastEntity)

	words := strings.Fields(normalized)
	for i, word := range words {
		token := cleanToken(word)
		for _, pronoun := range FollowUpPronouns {
			if token != pronoun {
				continue
			}
			followUp = true
			if entity != "" {
				words[i] = entity
			}
			break
		}
	}
	rewritten := strings.Join(words, " ")

	openerHit := false
	for _, opener := range FollowUpOpeners {
		if strings.Contains(normalized, opener) {
			followUp = true
			openerHit = true
			break
		}
	}

	// An opener without a pronoun still needs the entity in scope, e.g.
	// "what about the assists" after a turn about a player.
	if openerHit && entity != "" && !strings.Contains(rewritten, entity) {
		rewritten = rewritten + " " + entity
	}

	return rewritten, followUp
}

// categorize derives the query shape used for expansion and recall sizing.
// Noise wins over everything; a follow-up is conversational even when long.
func categorize(rewritten string, followUp, strippedNoise bool, tokens map[string]bool, signals Signals) Category {
	totalSignal := signals.StatisticalScore + signals.ContextualScore + signals.HybridScore

	if strippedNoise || (len(tokens) <= 2 && totalSignal == 0) {
		return CategoryNoisy
	}
	if followUp {
		return CategoryConversational
	}
	if ClauseCount(rewritten) >= 2 || len(tokens) > 12 {
		return CategoryComplex
	}
	return CategorySimple
}
