package ports

import (
	"context"

	"github.com/kirillkom/loan-intake/internal/core/domain"
)

// DecisionProvider is the capability boundary to the generative-AI
// collaborator: given form data and documents it returns a structured
// extraction + decision, or fails. The core treats it as a black box.
type DecisionProvider interface {
	ProcessApplication(ctx context.Context, form domain.ApplicantForm, documents []domain.Document) (*domain.ProcessingResult, error)
}

// ApplicationStore holds the full set of application records. Only insert
// and whole-record replace exist; field-level mutation is deliberately not
// exposed so the append-only audit guarantee cannot be bypassed.
type ApplicationStore interface {
	Insert(ctx context.Context, app *domain.LoanApplication) error
	Replace(ctx context.Context, app *domain.LoanApplication) error
	GetByID(ctx context.Context, id string) (*domain.LoanApplication, error)
	List(ctx context.Context) ([]*domain.LoanApplication, error)
}

// EventPublisher fans committed transitions out to downstream consumers.
type EventPublisher interface {
	PublishApplicationEvent(ctx context.Context, event domain.ApplicationEvent) error
}

// EventSubscriber consumes application events (worker side).
type EventSubscriber interface {
	SubscribeApplicationEvents(ctx context.Context, handler func(context.Context, domain.ApplicationEvent) error) error
}

// IDGenerator produces application identifiers. Injectable so tests can
// assert on deterministic ids.
type IDGenerator interface {
	NewID() string
}

// DocumentInspector derives a best-effort plain-text preview from an
// uploaded document. Failures are non-fatal.
type DocumentInspector interface {
	Preview(doc domain.Document) (string, error)
}

// AuditArchive persists application events outside the core store.
type AuditArchive interface {
	SaveEvent(ctx context.Context, event domain.ApplicationEvent) error
}

// PayloadArchive keeps raw document payloads for compliance retention.
type PayloadArchive interface {
	SavePayload(ctx context.Context, key string, raw []byte) error
}
