package ports

import (
	"context"

	"github.com/kirillkom/loan-intake/internal/core/domain"
)

// ApplicationSubmitter is the inbound contract for the applicant flow.
type ApplicationSubmitter interface {
	Submit(ctx context.Context, form domain.ApplicantForm, documents []domain.Document) (*domain.LoanApplication, error)
}

// DecisionOverrider is the inbound contract for the officer override flow.
type DecisionOverrider interface {
	Override(ctx context.Context, id string, newDecision domain.Decision, comment string) (*domain.LoanApplication, error)
}

// ReviewQueue is the reviewer's read/select view over the store.
type ReviewQueue interface {
	PendingReviewCount(ctx context.Context) (int, error)
	PendingReview(ctx context.Context) ([]*domain.LoanApplication, error)
	List(ctx context.Context) ([]*domain.LoanApplication, error)
	Select(ctx context.Context, id string)
	Selected(ctx context.Context) (*domain.LoanApplication, error)
}

// ApplicationReader is the inbound read model for single records.
type ApplicationReader interface {
	GetByID(ctx context.Context, id string) (*domain.LoanApplication, error)
}
