// Package categorize implements the one write path of the dashboard:
// assigning a category to an operation.
package categorize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"vye/internal/core"
	"vye/internal/store"
)

var (
	ErrInvalidOperation = core.ErrInvalidOperationID
	ErrInvalidCategory  = core.ErrEmptyCategoryCode
)

const (
	SuccessMessage = "Operation categorized successfully"
	FailureMessage = "Failed to categorize operation"
)

// Level of a user notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is shown to the user once per outcome.
type Notification struct {
	Level   Level
	Message string
}

// Notifier receives the outcome of a categorization.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Invalidator drops cached query results.
type Invalidator interface {
	Invalidate(names ...string)
}

// Publisher announces categorized operations to other services.
type Publisher interface {
	PublishOperationCategorized(ctx context.Context, operationID int64, categoryCode string, at time.Time) error
}

type Service struct {
	store       store.OperationCategorizer
	invalidator Invalidator
	publisher   Publisher
	queries     []string
	now         func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher publishes an event after every successful categorization.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds a service that invalidates the given query names on success.
func New(st store.OperationCategorizer, inv Invalidator, queries []string, opts ...Option) *Service {
	s := &Service{
		store:       st,
		invalidator: inv,
		queries:     append([]string(nil), queries...),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Categorize sets the category of one operation. Exactly one notification is
// sent per call. On failure no cached data is touched.
func (s *Service) Categorize(ctx context.Context, operationID int64, categoryCode string, n Notifier) error {
	if n == nil {
		n = NotifierFunc(func(context.Context, Notification) {})
	}
	categoryCode = strings.TrimSpace(categoryCode)

	err := validate(operationID, categoryCode)
	if err == nil {
		err = s.store.SetOperationCategory(ctx, operationID, categoryCode)
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed to categorize operation",
			"operation_id", operationID, "category_code", categoryCode, "error", err)
		n.Notify(ctx, Notification{Level: LevelError, Message: FailureMessage})
		return fmt.Errorf("categorize operation %d: %w", operationID, err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(s.queries...)
	}
	s.publish(ctx, operationID, categoryCode)

	n.Notify(ctx, Notification{Level: LevelSuccess, Message: SuccessMessage})
	return nil
}

func (s *Service) publish(ctx context.Context, operationID int64, categoryCode string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishOperationCategorized(ctx, operationID, categoryCode, s.now()); err != nil {
		slog.ErrorContext(ctx, "Failed to publish categorization event",
			"operation_id", operationID, "error", err)
	}
}

func validate(operationID int64, categoryCode string) error {
	if operationID <= 0 {
		return ErrInvalidOperation
	}
	if categoryCode == "" {
		return ErrInvalidCategory
	}
	return nil
}
