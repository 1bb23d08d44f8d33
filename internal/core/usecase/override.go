package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/loan-intake/internal/core/domain"
	"github.com/kirillkom/loan-intake/internal/core/ports"
)

// OverrideDecisionUseCase performs the one human-initiated transition:
// replace an automated decision on a record that already carries a result.
// The transition is a whole-record clone-and-replace; the prior result
// snapshot keeps every field except decision and explanation, and the audit
// trail strictly grows. Re-overriding an OVERRIDDEN record repeats the
// transition.
type OverrideDecisionUseCase struct {
	store     ports.ApplicationStore
	publisher ports.EventPublisher
	now       func() time.Time
}

func NewOverrideDecisionUseCase(store ports.ApplicationStore, publisher ports.EventPublisher) *OverrideDecisionUseCase {
	return &OverrideDecisionUseCase{
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the timestamp source for tests.
func (uc *OverrideDecisionUseCase) WithClock(now func() time.Time) *OverrideDecisionUseCase {
	uc.now = now
	return uc
}

func (uc *OverrideDecisionUseCase) Override(
	ctx context.Context,
	id string,
	newDecision domain.Decision,
	comment string,
) (*domain.LoanApplication, error) {
	if _, ok := domain.ParseDecision(string(newDecision)); !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "override",
			fmt.Errorf("unrecognized decision %q", newDecision))
	}

	current, err := uc.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch application: %w", err)
	}
	if current.Result == nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "override",
			errors.New("application has no automated result to override"))
	}

	now := uc.now()

	next := current.Clone()
	next.Status = domain.StatusOverridden
	next.Result.Decision = newDecision
	next.Result.Explanation = "OVERRIDDEN BY OFFICER: " + comment
	next.AuditTrail = append(next.AuditTrail, domain.AuditEntry{
		Timestamp: now,
		Action:    domain.AuditActionOverride,
		Actor:     domain.AuditActorOfficer,
		Comment:   comment,
	})

	if err := uc.store.Replace(ctx, next); err != nil {
		return nil, fmt.Errorf("replace application: %w", err)
	}

	uc.publish(ctx, domain.ApplicationEvent{
		Action:      domain.AuditActionOverride,
		Actor:       domain.AuditActorOfficer,
		Comment:     comment,
		OccurredAt:  now,
		Application: *next.Clone(),
	})

	return next, nil
}

func (uc *OverrideDecisionUseCase) publish(ctx context.Context, event domain.ApplicationEvent) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.PublishApplicationEvent(ctx, event); err != nil {
		slog.Warn("publish application event failed",
			"action", event.Action,
			"application_id", event.Application.ID,
			"error", err,
		)
	}
}
