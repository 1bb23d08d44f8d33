package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/loan-intake/internal/core/domain"
	"github.com/kirillkom/loan-intake/internal/infrastructure/store/memory"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeProvider struct {
	result *domain.ProcessingResult
	err    error

	calls     int
	lastDocs  []domain.Document
	lastForm  domain.ApplicantForm
	lastCtxOK bool
}

func (p *fakeProvider) ProcessApplication(ctx context.Context, form domain.ApplicantForm, documents []domain.Document) (*domain.ProcessingResult, error) {
	p.calls++
	p.lastForm = form
	p.lastDocs = documents
	p.lastCtxOK = ctx != nil
	if p.err != nil {
		return nil, p.err
	}
	if p.result == nil {
		return nil, nil
	}
	clone := *p.result
	return &clone, nil
}

var idSeq atomic.Int64

type fakeIDs struct{}

func (fakeIDs) NewID() string {
	return fmt.Sprintf("app-%d", idSeq.Add(1))
}

type fakePublisher struct {
	events []domain.ApplicationEvent
	err    error
}

func (p *fakePublisher) PublishApplicationEvent(_ context.Context, event domain.ApplicationEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type fakeInspector struct {
	preview string
	err     error
}

func (f *fakeInspector) Preview(domain.Document) (string, error) {
	return f.preview, f.err
}

func validForm() domain.ApplicantForm {
	return domain.ApplicantForm{
		FullName:        "A. Kumar",
		Email:           "a.kumar@example.com",
		Phone:           "+91-98000-00000",
		RequestedAmount: 50000,
	}
}

func validDocuments() []domain.Document {
	return []domain.Document{
		{Type: domain.DocumentTypeID, Name: "id.png", Content: "data:image/png;base64,aWQtc2Nhbg=="},
		{Type: domain.DocumentTypePaystub, Name: "pay.pdf", Content: "data:application/pdf;base64,cGF5c3R1Yg=="},
	}
}

func reviewResult() *domain.ProcessingResult {
	name := "A. Kumar"
	return &domain.ProcessingResult{
		ExtractedFields: domain.ExtractedFields{FullName: &name},
		Validations:     []domain.ValidationStatus{{FieldName: "fullName", IsValid: true, Message: "matches ID document"}},
		Decision:        domain.DecisionHumanReview,
		Explanation:     "income close to threshold",
		MissingData:     []string{},
	}
}

func TestSubmitCreatesCompletedApplicationWithSingleAuditEntry(t *testing.T) {
	store := memory.New()
	provider := &fakeProvider{result: reviewResult()}
	publisher := &fakePublisher{}
	uc := NewSubmitApplicationUseCase(store, provider, &fakeIDs{}, nil, publisher).
		WithClock(func() time.Time { return fixedNow })

	app, err := uc.Submit(context.Background(), validForm(), validDocuments())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if app.ID == "" {
		t.Fatalf("expected generated id")
	}
	if app.Status != domain.StatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", app.Status)
	}
	if app.Result == nil || app.Result.Decision != domain.DecisionHumanReview {
		t.Fatalf("expected HUMAN_REVIEW result, got %+v", app.Result)
	}
	if !app.Result.Timestamp.Equal(fixedNow) {
		t.Fatalf("expected result stamped with clock time, got %v", app.Result.Timestamp)
	}
	if len(app.AuditTrail) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(app.AuditTrail))
	}
	entry := app.AuditTrail[0]
	if entry.Action != domain.AuditActionProcessed || entry.Actor != domain.AuditActorAI {
		t.Fatalf("unexpected audit entry %+v", entry)
	}

	stored, err := store.GetByID(context.Background(), app.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.Status != domain.StatusCompleted {
		t.Fatalf("stored record not COMPLETED: %s", stored.Status)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
	if publisher.events[0].Action != domain.AuditActionProcessed {
		t.Fatalf("unexpected event action %s", publisher.events[0].Action)
	}
}

func TestSubmitProviderFailureCreatesNothing(t *testing.T) {
	store := memory.New()
	provider := &fakeProvider{err: domain.WrapError(domain.ErrProvider, "generate", errors.New("upstream 503"))}
	uc := NewSubmitApplicationUseCase(store, provider, &fakeIDs{}, nil, nil)

	_, err := uc.Submit(context.Background(), validForm(), validDocuments())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}

	apps, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(apps) != 0 {
		t.Fatalf("expected empty store after provider failure, got %d records", len(apps))
	}
}

func TestSubmitWrapsUnclassifiedProviderErrors(t *testing.T) {
	provider := &fakeProvider{err: errors.New("connection reset")}
	uc := NewSubmitApplicationUseCase(memory.New(), provider, &fakeIDs{}, nil, nil)

	_, err := uc.Submit(context.Background(), validForm(), validDocuments())
	if !domain.IsKind(err, domain.ErrProvider) {
		t.Fatalf("expected ErrProvider wrap, got %v", err)
	}
}

func TestSubmitRejectsUnrecognizedProviderDecision(t *testing.T) {
	result := reviewResult()
	result.Decision = "MAYBE"
	provider := &fakeProvider{result: result}
	store := memory.New()
	uc := NewSubmitApplicationUseCase(store, provider, &fakeIDs{}, nil, nil)

	_, err := uc.Submit(context.Background(), validForm(), validDocuments())
	if !domain.IsKind(err, domain.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	apps, _ := store.List(context.Background())
	if len(apps) != 0 {
		t.Fatalf("expected nothing stored, got %d", len(apps))
	}
}

func TestSubmitValidatesFormBeforeProviderCall(t *testing.T) {
	provider := &fakeProvider{result: reviewResult()}
	uc := NewSubmitApplicationUseCase(memory.New(), provider, &fakeIDs{}, nil, nil)

	cases := []struct {
		name string
		form domain.ApplicantForm
	}{
		{"empty name", domain.ApplicantForm{Email: "x@example.com", RequestedAmount: 1000}},
		{"empty email", domain.ApplicantForm{FullName: "X", RequestedAmount: 1000}},
		{"zero amount", domain.ApplicantForm{FullName: "X", Email: "x@example.com"}},
		{"negative amount", domain.ApplicantForm{FullName: "X", Email: "x@example.com", RequestedAmount: -5}},
	}
	for _, tc := range cases {
		_, err := uc.Submit(context.Background(), tc.form, validDocuments())
		if !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
	if provider.calls != 0 {
		t.Fatalf("provider called %d times for invalid forms", provider.calls)
	}
}

func TestSubmitRequiresBothDocumentTypes(t *testing.T) {
	provider := &fakeProvider{result: reviewResult()}
	uc := NewSubmitApplicationUseCase(memory.New(), provider, &fakeIDs{}, nil, nil)

	docs := []domain.Document{
		{Type: domain.DocumentTypeID, Name: "id.png", Content: "data:image/png;base64,aWQ="},
	}
	_, err := uc.Submit(context.Background(), validForm(), docs)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for missing paystub, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("provider should not be called when documents are incomplete")
	}
}

func TestSubmitLastUploadPerTypeWins(t *testing.T) {
	provider := &fakeProvider{result: reviewResult()}
	uc := NewSubmitApplicationUseCase(memory.New(), provider, &fakeIDs{}, nil, nil).
		WithClock(func() time.Time { return fixedNow })

	docs := []domain.Document{
		{Type: domain.DocumentTypeID, Name: "old-id.png", Content: "data:image/png;base64,b2xk"},
		{Type: domain.DocumentTypePaystub, Name: "pay.pdf", Content: "data:application/pdf;base64,cGF5"},
		{Type: domain.DocumentTypeID, Name: "new-id.png", Content: "data:image/png;base64,bmV3"},
	}
	app, err := uc.Submit(context.Background(), validForm(), docs)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if len(app.Documents) != 2 {
		t.Fatalf("expected one document per type, got %d", len(app.Documents))
	}
	if app.Documents[domain.DocumentTypeID].Name != "new-id.png" {
		t.Fatalf("expected last ID upload to win, got %s", app.Documents[domain.DocumentTypeID].Name)
	}
	if len(provider.lastDocs) != 2 {
		t.Fatalf("expected provider to see one document per type, got %d", len(provider.lastDocs))
	}
}

func TestSubmitAttachesPreviewsBestEffort(t *testing.T) {
	provider := &fakeProvider{result: reviewResult()}
	uc := NewSubmitApplicationUseCase(memory.New(), provider, &fakeIDs{}, &fakeInspector{preview: "EMPLOYEE PAYSLIP"}, nil)

	app, err := uc.Submit(context.Background(), validForm(), validDocuments())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if app.Documents[domain.DocumentTypePaystub].TextPreview != "EMPLOYEE PAYSLIP" {
		t.Fatalf("expected preview attached, got %q", app.Documents[domain.DocumentTypePaystub].TextPreview)
	}

	failing := NewSubmitApplicationUseCase(memory.New(), provider, &fakeIDs{}, &fakeInspector{err: errors.New("not a pdf")}, nil)
	if _, err := failing.Submit(context.Background(), validForm(), validDocuments()); err != nil {
		t.Fatalf("preview failure must not block submission: %v", err)
	}
}

func TestSubmitSucceedsWhenPublishFails(t *testing.T) {
	provider := &fakeProvider{result: reviewResult()}
	publisher := &fakePublisher{err: errors.New("nats unreachable")}
	uc := NewSubmitApplicationUseCase(memory.New(), provider, &fakeIDs{}, nil, publisher)

	if _, err := uc.Submit(context.Background(), validForm(), validDocuments()); err != nil {
		t.Fatalf("publish failure must not fail the submission: %v", err)
	}
}
