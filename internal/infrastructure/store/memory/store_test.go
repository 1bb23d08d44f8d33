package memory

import (
	"context"
	"testing"

	"github.com/kirillkom/loan-intake/internal/core/domain"
)

func newApp(id string) *domain.LoanApplication {
	return &domain.LoanApplication{
		ID:     id,
		Status: domain.StatusCompleted,
		Result: &domain.ProcessingResult{
			Decision:    domain.DecisionHumanReview,
			Explanation: "needs a second look",
		},
		AuditTrail: []domain.AuditEntry{{Action: domain.AuditActionProcessed, Actor: domain.AuditActorAI}},
	}
}

func TestInsertRejectsDuplicatesAndEmptyIDs(t *testing.T) {
	store := New()
	ctx := context.Background()

	if err := store.Insert(ctx, newApp("a")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := store.Insert(ctx, newApp("a")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for duplicate, got %v", err)
	}
	if err := store.Insert(ctx, &domain.LoanApplication{}); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty id, got %v", err)
	}
}

func TestListNewestFirstAndReplaceKeepsPosition(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		if err := store.Insert(ctx, newApp(id)); err != nil {
			t.Fatalf("Insert(%s) error = %v", id, err)
		}
	}

	apps, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	got := []string{apps[0].ID, apps[1].ID, apps[2].ID}
	want := []string{"third", "second", "first"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}

	replaced := newApp("second")
	replaced.Status = domain.StatusOverridden
	if err := store.Replace(ctx, replaced); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	apps, _ = store.List(ctx)
	if apps[1].ID != "second" || apps[1].Status != domain.StatusOverridden {
		t.Fatalf("replace moved or lost the record: %+v", apps[1])
	}
}

func TestReplaceUnknownID(t *testing.T) {
	store := New()
	err := store.Replace(context.Background(), newApp("ghost"))
	if !domain.IsKind(err, domain.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestGetByIDUnknown(t *testing.T) {
	store := New()
	_, err := store.GetByID(context.Background(), "ghost")
	if !domain.IsKind(err, domain.ErrApplicationNotFound) {
		t.Fatalf("expected ErrApplicationNotFound, got %v", err)
	}
}

func TestReadsReturnIsolatedCopies(t *testing.T) {
	store := New()
	ctx := context.Background()
	if err := store.Insert(ctx, newApp("a")); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	fetched, err := store.GetByID(ctx, "a")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	fetched.Result.Decision = domain.DecisionAutoApprove
	fetched.AuditTrail = append(fetched.AuditTrail, domain.AuditEntry{Action: domain.AuditActionOverride})

	again, _ := store.GetByID(ctx, "a")
	if again.Result.Decision != domain.DecisionHumanReview {
		t.Fatalf("caller mutation leaked into stored result")
	}
	if len(again.AuditTrail) != 1 {
		t.Fatalf("caller mutation leaked into stored audit trail")
	}
}
