package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirillkom/loan-intake/internal/core/domain"
	"github.com/kirillkom/loan-intake/internal/core/ports"
)

// ReviewQueueUseCase is the reviewer's view over the store. It owns no state
// beyond the currently selected id; counts and listings are derived from the
// store on every call so they stay correct after overrides move records into
// or out of HUMAN_REVIEW.
type ReviewQueueUseCase struct {
	store ports.ApplicationStore

	mu         sync.Mutex
	selectedID string
}

func NewReviewQueueUseCase(store ports.ApplicationStore) *ReviewQueueUseCase {
	return &ReviewQueueUseCase{store: store}
}

func (uc *ReviewQueueUseCase) List(ctx context.Context) ([]*domain.LoanApplication, error) {
	return uc.store.List(ctx)
}

func (uc *ReviewQueueUseCase) PendingReview(ctx context.Context) ([]*domain.LoanApplication, error) {
	apps, err := uc.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	pending := make([]*domain.LoanApplication, 0)
	for _, app := range apps {
		if app.Result != nil && app.Result.Decision == domain.DecisionHumanReview {
			pending = append(pending, app)
		}
	}
	return pending, nil
}

func (uc *ReviewQueueUseCase) PendingReviewCount(ctx context.Context) (int, error) {
	pending, err := uc.PendingReview(ctx)
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

// Select marks a record for detailed inspection. Selecting an id absent from
// the store is a no-op.
func (uc *ReviewQueueUseCase) Select(ctx context.Context, id string) {
	if _, err := uc.store.GetByID(ctx, id); err != nil {
		return
	}
	uc.mu.Lock()
	uc.selectedID = id
	uc.mu.Unlock()
}

func (uc *ReviewQueueUseCase) Selected(ctx context.Context) (*domain.LoanApplication, error) {
	uc.mu.Lock()
	id := uc.selectedID
	uc.mu.Unlock()

	if id == "" {
		return nil, nil
	}
	app, err := uc.store.GetByID(ctx, id)
	if err != nil {
		if domain.IsKind(err, domain.ErrApplicationNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return app, nil
}
