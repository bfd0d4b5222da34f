// Request validation limits and validators for the answer and search APIs.
package security

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// Validation limits.
const (
	// Query limits.
	MinQueryLength = 1
	MaxQueryLength = 2000

	// Conversation ID limits.
	MinConversationIDLength = 1
	MaxConversationIDLength = 64

	// Result limits accepted at the API edge. The retrieval engine applies its
	// own adaptive band on top of these.
	MinTopK = 1
	MaxTopK = 50

	// Metadata filter limits.
	MaxFilterCount       = 8
	MaxFilterValueLength = 128

	// Request body limit.
	MaxRequestSize = 1 * 1024 * 1024 // 1MB
)

// ValidationError represents a field validation error.
type ValidationError struct {
	Field      string
	Value      interface{}
	Constraint string
}

func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation failed for %s: %s (got: %v)", e.Field, e.Constraint, e.Value)
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Constraint)
}

// conversationIDRegex matches valid conversation IDs: alphanumeric, hyphen,
// underscore, starting alphanumeric. UUIDs satisfy this.
var conversationIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// filterKeyRegex matches metadata filter keys.
var filterKeyRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateQuery validates a user query string.
// Requirements: Required, 1-2000 chars, valid UTF-8.
func ValidateQuery(query string) error {
	if query == "" {
		return &ValidationError{
			Field:      "query",
			Constraint: "required",
		}
	}

	if !utf8.ValidString(query) {
		return &ValidationError{
			Field:      "query",
			Constraint: "must be valid UTF-8",
		}
	}

	length := utf8.RuneCountInString(query)
	if length < MinQueryLength {
		return &ValidationError{
			Field:      "query",
			Value:      length,
			Constraint: fmt.Sprintf("minimum length is %d characters", MinQueryLength),
		}
	}

	if length > MaxQueryLength {
		return &ValidationError{
			Field:      "query",
			Value:      length,
			Constraint: fmt.Sprintf("maximum length is %d characters", MaxQueryLength),
		}
	}

	return nil
}

// ValidateConversationID validates a conversation identifier.
// Requirements: 1-64 chars, alphanumeric + hyphen + underscore, must start
// with alphanumeric. Empty is allowed at the API edge (single-shot question).
func ValidateConversationID(id string) error {
	if id == "" {
		return nil
	}

	if len(id) > MaxConversationIDLength {
		return &ValidationError{
			Field:      "conversation_id",
			Value:      len(id),
			Constraint: fmt.Sprintf("maximum length is %d characters", MaxConversationIDLength),
		}
	}

	if !conversationIDRegex.MatchString(id) {
		return &ValidationError{
			Field:      "conversation_id",
			Value:      SanitizeForLog(id),
			Constraint: "must contain only alphanumeric characters, hyphens, and underscores, and start with alphanumeric",
		}
	}

	return nil
}

// ValidateTurnNumber validates a turn number.
// Requirements: >= 1. Zero means "assign the next turn".
func ValidateTurnNumber(turn int) error {
	if turn < 0 {
		return &ValidationError{
			Field:      "turn_number",
			Value:      turn,
			Constraint: "must not be negative",
		}
	}
	return nil
}

// ValidateTopK validates the k parameter.
// Requirements: 1-50. Zero means "let the engine size it".
func ValidateTopK(topK int) error {
	if topK == 0 {
		return nil
	}

	if topK < MinTopK {
		return &ValidationError{
			Field:      "k",
			Value:      topK,
			Constraint: fmt.Sprintf("minimum value is %d", MinTopK),
		}
	}

	if topK > MaxTopK {
		return &ValidationError{
			Field:      "k",
			Value:      topK,
			Constraint: fmt.Sprintf("maximum value is %d", MaxTopK),
		}
	}

	return nil
}

// ValidateMetadataFilters validates equality filters on chunk metadata.
func ValidateMetadataFilters(filters map[string]string) error {
	if len(filters) > MaxFilterCount {
		return &ValidationError{
			Field:      "filters",
			Value:      len(filters),
			Constraint: fmt.Sprintf("maximum filter count is %d", MaxFilterCount),
		}
	}

	for key, value := range filters {
		if !filterKeyRegex.MatchString(key) {
			return &ValidationError{
				Field:      "filters",
				Value:      SanitizeForLog(key),
				Constraint: "filter keys must be lowercase identifiers",
			}
		}
		if value == "" {
			return &ValidationError{
				Field:      "filters." + key,
				Constraint: "filter value required",
			}
		}
		if len(value) > MaxFilterValueLength {
			return &ValidationError{
				Field:      "filters." + key,
				Value:      len(value),
				Constraint: fmt.Sprintf("maximum value length is %d", MaxFilterValueLength),
			}
		}
	}

	return nil
}

// AnswerRequestValidator provides validation for answer requests.
type AnswerRequestValidator struct {
	Query          string
	ConversationID string
	TurnNumber     int
	TopK           int
}

// Validate validates all fields in the answer request.
func (v *AnswerRequestValidator) Validate() error {
	if err := ValidateQuery(v.Query); err != nil {
		return err
	}

	if err := ValidateConversationID(v.ConversationID); err != nil {
		return err
	}

	if err := ValidateTurnNumber(v.TurnNumber); err != nil {
		return err
	}

	if v.TurnNumber > 0 && v.ConversationID == "" {
		return &ValidationError{
			Field:      "turn_number",
			Value:      v.TurnNumber,
			Constraint: "requires conversation_id",
		}
	}

	return ValidateTopK(v.TopK)
}

// SearchRequestValidator provides validation for search requests.
type SearchRequestValidator struct {
	Query   string
	TopK    int
	Filters map[string]string
}

// Validate validates all fields in the search request.
func (v *SearchRequestValidator) Validate() error {
	if err := ValidateQuery(v.Query); err != nil {
		return err
	}

	if err := ValidateTopK(v.TopK); err != nil {
		return err
	}

	return ValidateMetadataFilters(v.Filters)
}
