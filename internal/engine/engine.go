// Package engine orchestrates the answer pipeline: request validation,
// conversation context, query classification, route execution, answer
// composition, and turn persistence.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shah-data-scientist/Sports-See-sub000/internal/bus"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/classify"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/composer"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/conversation"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/errors"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/logger"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/pkg/security"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/retrieval"
	"github.com/shah-data-scientist/Sports-See-sub000/internal/sqltool"
)

// SQLRunner executes the SQL leg of a routed query.
type SQLRunner interface {
	Run(ctx context.Context, question string) sqltool.SQLExecutionResult
}

// Retriever executes the vector leg of a routed query.
type Retriever interface {
	Search(ctx context.Context, req retrieval.Request) (*retrieval.Response, error)
}

// AnswerComposer builds the final answer from routed evidence.
type AnswerComposer interface {
	Compose(ctx context.Context, in composer.Input) (composer.Draft, error)
}

// Deps are the collaborators the engine orchestrates.
type Deps struct {
	Classifier    *classify.Classifier
	Conversations *conversation.Manager
	SQL           SQLRunner
	Retriever     Retriever
	Composer      AnswerComposer

	// Bus receives pipeline events. Nil disables publishing.
	Bus bus.Bus

	Log *logger.Logger
}

// Engine answers natural-language questions by routing them across the
// stats database and the discussion corpus.
type Engine struct {
	classifier *classify.Classifier
	conv       *conversation.Manager
	sql        SQLRunner
	retriever  Retriever
	composer   AnswerComposer
	bus        bus.Bus
	log        *logger.Logger
}

// New creates an engine from its collaborators.
func New(deps Deps) *Engine {
	log := deps.Log
	if log == nil {
		log = logger.Default()
	}
	return &Engine{
		classifier: deps.Classifier,
		conv:       deps.Conversations,
		sql:        deps.SQL,
		retriever:  deps.Retriever,
		composer:   deps.Composer,
		bus:        deps.Bus,
		log:        log,
	}
}

// Answer runs the full pipeline for one question.
//
// Validation failures, archived conversations, index outages, and hard
// generation failures surface as errors. Everything else degrades through
// the fallback chain into a structured answer.
func (e *Engine) Answer(ctx context.Context, req AnswerRequest) (*HybridAnswer, error) {
	start := time.Now()

	validator := security.AnswerRequestValidator{
		Query:          req.Query,
		ConversationID: req.ConversationID,
		TurnNumber:     req.TurnNumber,
		TopK:           req.K,
	}
	if err := validator.Validate(); err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	// The answer ID correlates every event published for this request.
	answerID := uuid.NewString()
	e.publish(ctx, bus.TopicQueryReceived, answerID, map[string]interface{}{
		"query":           security.SanitizeQuery(req.Query),
		"conversation_id": req.ConversationID,
		"turn_number":     req.TurnNumber,
		"k":               req.K,
	})

	var (
		turns      []conversation.Turn
		lastEntity string
	)
	turnNumber := req.TurnNumber
	log := e.log
	if req.ConversationID != "" {
		state, err := e.conv.State(ctx, req.ConversationID)
		if err != nil {
			return nil, e.failed(ctx, answerID, start, err)
		}
		if state == conversation.StateArchived {
			return nil, e.failed(ctx, answerID, start, errors.ConversationArchivedError(req.ConversationID))
		}
		if turnNumber == 0 {
			turnNumber, err = e.conv.NextTurnNumber(ctx, req.ConversationID)
			if err != nil {
				return nil, e.failed(ctx, answerID, start, err)
			}
		}
		turns, err = e.conv.BuildContext(ctx, req.ConversationID, turnNumber)
		if err != nil {
			return nil, e.failed(ctx, answerID, start, err)
		}
		lastEntity, err = e.conv.LastEntity(ctx, req.ConversationID)
		if err != nil {
			return nil, e.failed(ctx, answerID, start, err)
		}
		log = log.WithConversation(req.ConversationID, turnNumber)
	}

	decision := e.classifier.Classify(req.Query, lastEntity)
	log = log.WithRoute(string(decision.QueryType))
	if decision.Ambiguous {
		ambiguous := errors.ClassificationAmbiguousError(security.SanitizeQuery(req.Query))
		log.Warn("classification ambiguous, proceeding with default route",
			"error", ambiguous.Error())
	}
	e.publish(ctx, bus.TopicRoutingDecided, answerID, map[string]interface{}{
		"route":        string(decision.QueryType),
		"category":     string(decision.Category),
		"follow_up":    decision.FollowUp,
		"ambiguous":    decision.Ambiguous,
		"rule_version": decision.RuleVersion,
	})

	in := composer.Input{
		Query:          decision.Rewritten,
		Route:          decision.QueryType,
		Context:        turns,
		IncludeSources: req.IncludeSources,
	}

	var sqlRes *sqltool.SQLExecutionResult

	switch decision.QueryType {
	case classify.SQLOnly:
		res := e.runSQL(ctx, answerID, decision.Rewritten)
		sqlRes = &res
		in.SQL = &res

	case classify.VectorOnly:
		hits, err := e.runVector(ctx, answerID, vectorRequest(decision, req.K))
		if err != nil {
			return nil, e.failed(ctx, answerID, start, err)
		}
		in.Vector = hits

	case classify.Hybrid:
		var (
			res  sqltool.SQLExecutionResult
			hits []retrieval.SearchResult
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			res = e.runSQL(gctx, answerID, decision.Rewritten)
			return nil
		})
		g.Go(func() error {
			vec, err := e.runVector(gctx, answerID, vectorRequest(decision, req.K))
			if err != nil {
				// A failed leg degrades the route, never aborts the other.
				log.Warn("vector leg degraded", "error", err.Error())
				return nil
			}
			hits = vec
			return nil
		})
		_ = g.Wait()
		sqlRes = &res
		in.SQL = &res
		in.Vector = hits
	}

	draft, err := e.composer.Compose(ctx, in)
	if err != nil {
		return nil, e.failed(ctx, answerID, start, err)
	}

	fellBack := false
	if draft.FallbackToVector {
		fellBack = true
		log.Info("sql route unusable, falling back to vector retrieval",
			"generated_sql", generatedSQL(sqlRes))

		hits, err := e.runVector(ctx, answerID, vectorRequest(decision, req.K))
		if err != nil {
			return nil, e.failed(ctx, answerID, start, err)
		}
		in.Route = classify.VectorOnly
		in.Vector = hits
		in.SQL = nil

		draft, err = e.composer.Compose(ctx, in)
		if err != nil {
			return nil, e.failed(ctx, answerID, start, err)
		}
	}

	entity := classify.ExtractEntity(decision.Rewritten)
	if sqlRes != nil && sqlRes.Executed {
		if name := sqlRes.Result.LeadingEntity(); name != "" {
			entity = name
		}
	}

	if req.ConversationID != "" {
		turn := conversation.Turn{
			ConversationID: req.ConversationID,
			TurnNumber:     turnNumber,
			Query:          req.Query,
			AnswerText:     draft.Text,
			SourcesUsed:    draft.SourcesUsed,
			GeneratedSQL:   generatedSQL(sqlRes),
			RoutingLabel:   draft.RoutingActuallyUsed,
			Entity:         entity,
			CreatedAt:      time.Now(),
		}
		if err := e.conv.Append(ctx, turn); err != nil {
			if errors.IsConversationArchived(err) {
				return nil, e.failed(ctx, answerID, start, err)
			}
			// The answer stands; the lost turn costs follow-up context only.
			log.Error("turn append failed", "error", err.Error())
		} else {
			e.publish(ctx, bus.TopicTurnAppended, answerID, map[string]interface{}{
				"conversation_id": req.ConversationID,
				"turn_number":     turnNumber,
				"entity":          entity,
			})
		}
	}

	latency := time.Since(start).Milliseconds()
	e.publish(ctx, bus.TopicQueryAnswered, answerID, map[string]interface{}{
		"latency_ms":            latency,
		"routing_actually_used": draft.RoutingActuallyUsed,
		"error_type":            "",
		"fallback":              fellBack,
		"regenerated":           draft.Regenerated,
	})

	return &HybridAnswer{
		Text:                draft.Text,
		SourcesUsed:         draft.SourcesUsed,
		GeneratedSQL:        generatedSQL(sqlRes),
		RoutingDecision:     string(decision.QueryType),
		RoutingActuallyUsed: draft.RoutingActuallyUsed,
		ProcessingTimeMs:    latency,
		ConversationID:      req.ConversationID,
		TurnNumber:          turnNumber,
	}, nil
}

// Search is the direct retrieval surface. It skips classification and
// returns the ranked chunks for the query as-is.
func (e *Engine) Search(ctx context.Context, query string, k int, filters map[string]string) ([]retrieval.SearchResult, error) {
	validator := security.SearchRequestValidator{
		Query:   query,
		TopK:    k,
		Filters: filters,
	}
	if err := validator.Validate(); err != nil {
		return nil, errors.ValidationError(err.Error())
	}

	return e.runVector(ctx, uuid.NewString(), retrieval.Request{
		Query:   query,
		K:       k,
		Filters: filters,
	})
}

// runSQL executes the SQL leg and publishes its outcome.
func (e *Engine) runSQL(ctx context.Context, answerID, question string) sqltool.SQLExecutionResult {
	legStart := time.Now()
	res := e.sql.Run(ctx, question)
	e.publish(ctx, bus.TopicSQLExecuted, answerID, map[string]interface{}{
		"latency_ms": time.Since(legStart).Milliseconds(),
		"repaired":   res.Repaired,
		"executed":   res.Executed,
		"rows":       len(res.Result.Rows),
		"error":      res.Err,
	})
	return res
}

// runVector executes the vector leg and publishes its outcome.
func (e *Engine) runVector(ctx context.Context, answerID string, req retrieval.Request) ([]retrieval.SearchResult, error) {
	legStart := time.Now()
	resp, err := e.retriever.Search(ctx, req)

	payload := map[string]interface{}{
		"latency_ms":   time.Since(legStart).Milliseconds(),
		"result_count": 0,
		"error":        "",
	}
	if err != nil {
		payload["error"] = err.Error()
	} else {
		payload["result_count"] = len(resp.Results)
		payload["filter_relaxed"] = resp.FilterRelaxed
	}
	e.publish(ctx, bus.TopicRetrievalPerformed, answerID, payload)

	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// failed publishes the terminal event for a surfaced error and returns it.
func (e *Engine) failed(ctx context.Context, answerID string, start time.Time, err error) error {
	code := errors.Code(err)
	if code == "" {
		code = errors.CodeInternal
	}
	e.publish(ctx, bus.TopicQueryAnswered, answerID, map[string]interface{}{
		"latency_ms":            time.Since(start).Milliseconds(),
		"routing_actually_used": "",
		"error_type":            code,
		"fallback":              false,
		"regenerated":           false,
	})
	return err
}

func (e *Engine) publish(ctx context.Context, topic, correlationID string, payload map[string]interface{}) {
	if e.bus == nil {
		return
	}
	event := bus.NewEvent(topic, correlationID, payload)
	if err := e.bus.Publish(ctx, topic, event); err != nil {
		e.log.Warn("event publish failed", "topic", topic, "error", err.Error())
	}
}

func vectorRequest(decision classify.Decision, k int) retrieval.Request {
	return retrieval.Request{
		Query:    decision.Rewritten,
		Category: decision.Category,
		K:        k,
	}
}

func generatedSQL(res *sqltool.SQLExecutionResult) string {
	if res == nil {
		return ""
	}
	return res.GeneratedSQL
}
