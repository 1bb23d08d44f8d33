package domain

import "time"

type ApplicationStatus string

const (
	StatusSubmitted  ApplicationStatus = "SUBMITTED"
	StatusProcessing ApplicationStatus = "PROCESSING"
	StatusCompleted  ApplicationStatus = "COMPLETED"
	StatusOverridden ApplicationStatus = "OVERRIDDEN"
)

type Decision string

const (
	DecisionAutoApprove Decision = "AUTO_APPROVE"
	DecisionAutoReject  Decision = "AUTO_REJECT"
	DecisionHumanReview Decision = "HUMAN_REVIEW"
	DecisionIncomplete  Decision = "INCOMPLETE"
)

// ParseDecision validates a decision string coming from outside the core
// (the provider response or an override request). The external model is not
// trusted to always return one of the recognized values.
func ParseDecision(raw string) (Decision, bool) {
	switch Decision(raw) {
	case DecisionAutoApprove, DecisionAutoReject, DecisionHumanReview, DecisionIncomplete:
		return Decision(raw), true
	default:
		return "", false
	}
}

type DocumentType string

const (
	DocumentTypeID      DocumentType = "ID"
	DocumentTypePaystub DocumentType = "PAYSTUB"
)

type ApplicantForm struct {
	FullName        string  `json:"full_name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	RequestedAmount float64 `json:"requested_amount"`
}

// Document is one applicant upload. Content is a data URI
// (data:<mime>;base64,<payload>). TextPreview is a best-effort plain-text
// extract for the reviewer detail view and is empty for non-PDF uploads.
type Document struct {
	Type        DocumentType `json:"type"`
	Name        string       `json:"name"`
	Content     string       `json:"content"`
	TextPreview string       `json:"text_preview,omitempty"`
}

type ExtractedFields struct {
	FullName       *string  `json:"full_name"`
	DOB            *string  `json:"dob"`
	Age            *int     `json:"age"`
	IdentityNumber *string  `json:"identity_number"`
	EmployerName   *string  `json:"employer_name"`
	AnnualIncome   *float64 `json:"annual_income"`
}

type ValidationStatus struct {
	FieldName string `json:"field_name"`
	IsValid   bool   `json:"is_valid"`
	Message   string `json:"message"`
}

// ProcessingResult is produced exactly once per successful provider call and
// never edited afterwards; an override replaces the whole record with a copy
// in which only Decision and Explanation differ.
type ProcessingResult struct {
	ExtractedFields ExtractedFields    `json:"extracted_fields"`
	Validations     []ValidationStatus `json:"validations"`
	Decision        Decision           `json:"decision"`
	Explanation     string             `json:"explanation"`
	MissingData     []string           `json:"missing_data"`
	UserFeedback    string             `json:"user_feedback"`
	Timestamp       time.Time          `json:"timestamp"`
}

const (
	AuditActionProcessed = "APPLICATION_PROCESSED"
	AuditActionOverride  = "MANUAL_OVERRIDE"

	AuditActorAI      = "AI_SYSTEM"
	AuditActorOfficer = "CREDIT_OFFICER"
)

type AuditEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Comment   string    `json:"comment,omitempty"`
}

// LoanApplication is the aggregate root. Documents are keyed by type so the
// one-document-per-type invariant is structural. AuditTrail is append-only,
// insertion order = chronological order.
type LoanApplication struct {
	ID         string                    `json:"id"`
	Form       ApplicantForm             `json:"form"`
	Status     ApplicationStatus         `json:"status"`
	Documents  map[DocumentType]Document `json:"documents"`
	Result     *ProcessingResult         `json:"result,omitempty"`
	AuditTrail []AuditEntry              `json:"audit_trail"`
}

// Clone deep-copies the aggregate so stored records can never be mutated
// through a reader's reference.
func (a *LoanApplication) Clone() *LoanApplication {
	if a == nil {
		return nil
	}
	out := *a

	out.Documents = make(map[DocumentType]Document, len(a.Documents))
	for t, doc := range a.Documents {
		out.Documents[t] = doc
	}

	out.AuditTrail = make([]AuditEntry, len(a.AuditTrail))
	copy(out.AuditTrail, a.AuditTrail)

	if a.Result != nil {
		result := *a.Result
		result.Validations = make([]ValidationStatus, len(a.Result.Validations))
		copy(result.Validations, a.Result.Validations)
		result.MissingData = make([]string, len(a.Result.MissingData))
		copy(result.MissingData, a.Result.MissingData)
		result.ExtractedFields = cloneExtractedFields(a.Result.ExtractedFields)
		out.Result = &result
	}
	return &out
}

func cloneExtractedFields(f ExtractedFields) ExtractedFields {
	return ExtractedFields{
		FullName:       clonePtr(f.FullName),
		DOB:            clonePtr(f.DOB),
		Age:            clonePtr(f.Age),
		IdentityNumber: clonePtr(f.IdentityNumber),
		EmployerName:   clonePtr(f.EmployerName),
		AnnualIncome:   clonePtr(f.AnnualIncome),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
