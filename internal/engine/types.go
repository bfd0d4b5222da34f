package engine

// AnswerRequest is one natural-language question, optionally tied to a
// conversation.
type AnswerRequest struct {
	// Query is the question text.
	Query string `json:"query"`

	// ConversationID ties the request to a conversation. Empty means a
	// single-shot question with no context and no stored turn.
	ConversationID string `json:"conversation_id,omitempty"`

	// TurnNumber is the position of this exchange in the conversation.
	// Zero means "assign the next turn".
	TurnNumber int `json:"turn_number,omitempty"`

	// K overrides the retrieval result count when positive.
	K int `json:"k,omitempty"`

	// IncludeSources asks for source attributions in the answer.
	IncludeSources bool `json:"include_sources,omitempty"`
}

// HybridAnswer is the engine's reply to one question.
type HybridAnswer struct {
	// Text is the composed answer.
	Text string `json:"text"`

	// SourcesUsed lists the evidence sources, when requested.
	SourcesUsed []string `json:"sources_used,omitempty"`

	// GeneratedSQL is the statement the SQL leg produced, when one ran.
	// It is reported even when the answer fell back to vector evidence.
	GeneratedSQL string `json:"generated_sql,omitempty"`

	// RoutingDecision is the route the classifier chose.
	RoutingDecision string `json:"routing_decision"`

	// RoutingActuallyUsed is the evidence the answer drew on. It diverges
	// from RoutingDecision through the fallback chain.
	RoutingActuallyUsed string `json:"routing_actually_used"`

	// ProcessingTimeMs is the end-to-end latency.
	ProcessingTimeMs int64 `json:"processing_time_ms"`

	// ConversationID echoes the request, when set.
	ConversationID string `json:"conversation_id,omitempty"`

	// TurnNumber is the turn this answer was stored under. Zero for
	// single-shot questions.
	TurnNumber int `json:"turn_number,omitempty"`
}
