package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"context"

	"github.com/kirillkom/loan-intake/internal/core/domain"
	"github.com/kirillkom/loan-intake/internal/core/ports"
)

// SubmitApplicationUseCase drives the only creation path: validate the form
// and documents, ask the decision provider for a result, and only then
// create and store a COMPLETED application. A provider failure creates
// nothing; the applicant retries with a brand-new attempt.
type SubmitApplicationUseCase struct {
	store     ports.ApplicationStore
	provider  ports.DecisionProvider
	ids       ports.IDGenerator
	inspector ports.DocumentInspector
	publisher ports.EventPublisher
	now       func() time.Time
}

func NewSubmitApplicationUseCase(
	store ports.ApplicationStore,
	provider ports.DecisionProvider,
	ids ports.IDGenerator,
	inspector ports.DocumentInspector,
	publisher ports.EventPublisher,
) *SubmitApplicationUseCase {
	return &SubmitApplicationUseCase{
		store:     store,
		provider:  provider,
		ids:       ids,
		inspector: inspector,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source for tests.
func (uc *SubmitApplicationUseCase) WithClock(now func() time.Time) *SubmitApplicationUseCase {
	uc.now = now
	return uc
}

func (uc *SubmitApplicationUseCase) Submit(
	ctx context.Context,
	form domain.ApplicantForm,
	documents []domain.Document,
) (*domain.LoanApplication, error) {
	if err := validateForm(form); err != nil {
		return nil, err
	}

	docs, order, err := uc.collectDocuments(documents)
	if err != nil {
		return nil, err
	}

	result, err := uc.provider.ProcessApplication(ctx, form, order)
	if err != nil {
		if domain.IsKind(err, domain.ErrInvalidInput) || domain.IsKind(err, domain.ErrProvider) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrProvider, "process application", err)
	}
	if result == nil {
		return nil, domain.WrapError(domain.ErrProvider, "process application", errors.New("provider returned no result"))
	}
	if _, ok := domain.ParseDecision(string(result.Decision)); !ok {
		return nil, domain.WrapError(domain.ErrProvider, "process application",
			fmt.Errorf("unrecognized decision %q", result.Decision))
	}

	now := uc.now()
	result.Timestamp = now

	app := &domain.LoanApplication{
		ID:        uc.ids.NewID(),
		Form:      form,
		Status:    domain.StatusCompleted,
		Documents: docs,
		Result:    result,
		AuditTrail: []domain.AuditEntry{{
			Timestamp: now,
			Action:    domain.AuditActionProcessed,
			Actor:     domain.AuditActorAI,
			Comment:   result.Explanation,
		}},
	}

	if err := uc.store.Insert(ctx, app); err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}

	uc.publish(ctx, domain.ApplicationEvent{
		Action:      domain.AuditActionProcessed,
		Actor:       domain.AuditActorAI,
		Comment:     result.Explanation,
		OccurredAt:  now,
		Application: *app.Clone(),
	})

	return app, nil
}

// collectDocuments keys uploads by type (last write wins per type), checks
// payload shape before any provider call, and attaches previews. Returns
// both the keyed map and a stable type-ordered slice for the provider.
func (uc *SubmitApplicationUseCase) collectDocuments(
	documents []domain.Document,
) (map[domain.DocumentType]domain.Document, []domain.Document, error) {
	keyed := make(map[domain.DocumentType]domain.Document, len(documents))
	var typeOrder []domain.DocumentType

	for _, doc := range documents {
		if err := domain.ValidateDocumentPayload(doc); err != nil {
			return nil, nil, err
		}
		if _, seen := keyed[doc.Type]; !seen {
			typeOrder = append(typeOrder, doc.Type)
		}
		if uc.inspector != nil {
			// Preview is a reviewer convenience; extraction failures are
			// never a reason to block a submission.
			if preview, err := uc.inspector.Preview(doc); err == nil {
				doc.TextPreview = preview
			}
		}
		keyed[doc.Type] = doc
	}

	for _, required := range []domain.DocumentType{domain.DocumentTypeID, domain.DocumentTypePaystub} {
		if _, ok := keyed[required]; !ok {
			return nil, nil, domain.WrapError(domain.ErrInvalidInput, "collect documents",
				fmt.Errorf("missing required document %s", required))
		}
	}

	ordered := make([]domain.Document, 0, len(keyed))
	for _, t := range typeOrder {
		ordered = append(ordered, keyed[t])
	}
	return keyed, ordered, nil
}

func (uc *SubmitApplicationUseCase) publish(ctx context.Context, event domain.ApplicationEvent) {
	if uc.publisher == nil {
		return
	}
	// Best-effort: a committed transition is never unwound because a
	// downstream consumer is unreachable.
	if err := uc.publisher.PublishApplicationEvent(ctx, event); err != nil {
		slog.Warn("publish application event failed",
			"action", event.Action,
			"application_id", event.Application.ID,
			"error", err,
		)
	}
}

func validateForm(form domain.ApplicantForm) error {
	if strings.TrimSpace(form.FullName) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate form", errors.New("full name is required"))
	}
	if strings.TrimSpace(form.Email) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate form", errors.New("email is required"))
	}
	if form.RequestedAmount <= 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate form", errors.New("requested amount must be positive"))
	}
	return nil
}
