package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New(CodeValidation, "invalid input"),
			want: "VALIDATION_ERROR: invalid input",
		},
		{
			name: "with wrapped error",
			err:  Wrap(CodeInternal, "something failed", errors.New("underlying")),
			want: "INTERNAL_ERROR: something failed: underlying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	err := Wrap(CodeInternal, "wrapped", underlying)

	if unwrapped := err.Unwrap(); unwrapped != underlying {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, underlying)
	}
}

func TestAppError_HTTPStatus(t *testing.T) {
	tests := []struct {
		code   string
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeInvalidRequest, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConversationArchived, http.StatusConflict},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeIndexUnavailable, http.StatusServiceUnavailable},
		{CodeTimeout, http.StatusGatewayTimeout},
		{CodeGeneration, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
		{CodeSQLExecution, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test")
			if status := err.HTTPStatus(); status != tt.status {
				t.Errorf("HTTPStatus() = %d, want %d", status, tt.status)
			}
		})
	}
}

func TestAppError_WithDetails(t *testing.T) {
	err := New(CodeValidation, "invalid").
		WithDetails(map[string]string{"field": "query"})

	if err.Details["field"] != "query" {
		t.Errorf("Details[field] = %s, want query", err.Details["field"])
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := New(CodeValidation, "invalid").
		WithDetail("field", "query").
		WithDetail("reason", "required")

	if err.Details["field"] != "query" {
		t.Errorf("Details[field] = %s, want query", err.Details["field"])
	}

	if err.Details["reason"] != "required" {
		t.Errorf("Details[reason] = %s, want required", err.Details["reason"])
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("ValidationError", func(t *testing.T) {
		err := ValidationError("bad input")
		if err.Code != CodeValidation {
			t.Errorf("Code = %s, want %s", err.Code, CodeValidation)
		}
	})

	t.Run("NotFoundError", func(t *testing.T) {
		err := NotFoundError("conversation")
		if err.Code != CodeNotFound {
			t.Errorf("Code = %s, want %s", err.Code, CodeNotFound)
		}
		if err.Message != "conversation not found" {
			t.Errorf("Message = %s, want 'conversation not found'", err.Message)
		}
	})

	t.Run("ConversationArchivedError", func(t *testing.T) {
		err := ConversationArchivedError("conv-42")
		if err.Code != CodeConversationArchived {
			t.Errorf("Code = %s, want %s", err.Code, CodeConversationArchived)
		}
		if err.Details["conversation_id"] != "conv-42" {
			t.Errorf("Details[conversation_id] = %s, want conv-42", err.Details["conversation_id"])
		}
	})

	t.Run("InternalError", func(t *testing.T) {
		underlying := errors.New("db error")
		err := InternalError("failed", underlying)
		if err.Code != CodeInternal {
			t.Errorf("Code = %s, want %s", err.Code, CodeInternal)
		}
		if err.Unwrap() != underlying {
			t.Error("Underlying error not preserved")
		}
	})

	t.Run("SQLGenerationError", func(t *testing.T) {
		err := SQLGenerationError("empty output", errors.New("blank"))
		if err.Code != CodeSQLGeneration {
			t.Errorf("Code = %s, want %s", err.Code, CodeSQLGeneration)
		}
	})

	t.Run("IndexUnavailableError", func(t *testing.T) {
		err := IndexUnavailableError("collection missing", errors.New("not found"))
		if err.Code != CodeIndexUnavailable {
			t.Errorf("Code = %s, want %s", err.Code, CodeIndexUnavailable)
		}
	})

	t.Run("RateLimitedError", func(t *testing.T) {
		err := RateLimitedError("embed", 3)
		if err.Code != CodeRateLimited {
			t.Errorf("Code = %s, want %s", err.Code, CodeRateLimited)
		}
		if err.Details["operation"] != "embed" {
			t.Errorf("Details[operation] = %s, want embed", err.Details["operation"])
		}
		if err.Details["retry_after"] != "3" {
			t.Errorf("Details[retry_after] = %s, want 3", err.Details["retry_after"])
		}
	})
}

func TestIsNotFound(t *testing.T) {
	notFound := NotFoundError("test")
	other := ValidationError("test")

	if !IsNotFound(notFound) {
		t.Error("IsNotFound(NotFoundError) = false, want true")
	}

	if IsNotFound(other) {
		t.Error("IsNotFound(ValidationError) = true, want false")
	}

	if IsNotFound(errors.New("standard error")) {
		t.Error("IsNotFound(standard error) = true, want false")
	}
}

func TestIsValidation(t *testing.T) {
	validation := ValidationError("test")
	other := NotFoundError("test")

	if !IsValidation(validation) {
		t.Error("IsValidation(ValidationError) = false, want true")
	}

	if IsValidation(other) {
		t.Error("IsValidation(NotFoundError) = true, want false")
	}
}

func TestCode_WrappedError(t *testing.T) {
	inner := TimeoutError("generate")
	wrapped := fmt.Errorf("answering: %w", inner)

	if Code(wrapped) != CodeTimeout {
		t.Errorf("Code(wrapped) = %s, want %s", Code(wrapped), CodeTimeout)
	}
	if !IsTimeout(wrapped) {
		t.Error("IsTimeout(wrapped) = false, want true")
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"validation", ValidationError("bad"), true},
		{"index unavailable", IndexUnavailableError("down", nil), true},
		{"generation", GenerationError("hard failure", nil), true},
		{"archived", ConversationArchivedError("c1"), true},
		{"rate limited", RateLimitedError("embed", 0), true},
		{"sql generation", SQLGenerationError("bad sql", nil), false},
		{"sql execution", SQLExecutionError("exec failed", nil), false},
		{"retrieval empty", RetrievalEmptyError("q"), false},
		{"ambiguous", ClassificationAmbiguousError("q"), false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.fatal {
				t.Errorf("IsFatal() = %v, want %v", got, tt.fatal)
			}
		})
	}
}
