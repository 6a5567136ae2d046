package http

import (
	"context"
	"errors"
	"net/http"

	"vye/internal/categorize"
	"vye/internal/log"
)

// toast collects the single notification a categorization produces and
// turns it into an HX-Trigger.
type toast struct {
	sent *categorize.Notification
}

func (t *toast) Notify(_ context.Context, n categorize.Notification) {
	t.sent = &n
}

func (t *toast) apply(b *HTMXResponseBuilder) *HTMXResponseBuilder {
	if t.sent == nil {
		return b
	}
	if t.sent.Level == categorize.LevelSuccess {
		return b.TriggerSuccessNotification(t.sent.Message)
	}
	return b.TriggerErrorNotification(t.sent.Message)
}

// handleCategorize assigns a category to an operation. On success the modal
// closes and the affected views refresh; on failure nothing is refreshed and
// the user sees one error toast.
func (s *Server) handleCategorize(w http.ResponseWriter, r *http.Request) {
	id, err := parseOperationID(r)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Invalid operation id", log.FieldPath, r.URL.Path)
		UnprocessableEntityError("Invalid operation id").
			TriggerErrorNotification(categorize.FailureMessage).
			Write(w)
		return
	}

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to parse categorize request", log.FieldOperationID, id, log.FieldError, err)
		BadRequestError("Invalid request body").
			TriggerErrorNotification(categorize.FailureMessage).
			Write(w)
		return
	}
	code := parser.Get("category_code")

	if s.categorizer == nil {
		InternalServerError("Categorization is not available").
			TriggerErrorNotification(categorize.FailureMessage).
			Write(w)
		return
	}

	t := &toast{}
	if err := s.categorizer.Categorize(r.Context(), id, code, t); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, categorize.ErrInvalidOperation) || errors.Is(err, categorize.ErrInvalidCategory) {
			status = http.StatusUnprocessableEntity
		}
		t.apply(ErrorResponse(status, categorize.FailureMessage)).Write(w)
		return
	}

	log.NewStructuredLogger(s.logger).LogCategorized(r.Context(), id, code)
	t.apply(NewHTMXResponse().
		TriggerModalClose().
		TriggerUncategorizedRefresh().
		TriggerOperationsRefresh(id)).
		Status(http.StatusOK).
		Write(w)
}
