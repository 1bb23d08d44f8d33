package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/loan-intake/internal/core/domain"
)

func TestExportWritesOneRowPerApplication(t *testing.T) {
	apps := []*domain.LoanApplication{
		{
			ID: "app-2",
			Form: domain.ApplicantForm{
				FullName:        "B. Singh",
				Email:           "b.singh@example.com",
				RequestedAmount: 10000,
			},
			Status: domain.StatusOverridden,
			Result: &domain.ProcessingResult{
				Decision:    domain.DecisionAutoApprove,
				Explanation: "OVERRIDDEN BY OFFICER: verified",
				Timestamp:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			},
			AuditTrail: []domain.AuditEntry{{}, {}},
		},
		{
			ID:     "app-1",
			Form:   domain.ApplicantForm{FullName: "A. Kumar", Email: "a.kumar@example.com", RequestedAmount: 50000},
			Status: domain.StatusSubmitted,
		},
	}

	var buf bytes.Buffer
	if err := New().Export(apps, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer book.Close()

	rows, err := book.GetRows("Applications")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus two rows, got %d", len(rows))
	}
	if rows[0][0] != "Application ID" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "app-2" || rows[1][6] != "AUTO_APPROVE" {
		t.Fatalf("unexpected first row %v", rows[1])
	}
	// A record without a result leaves the decision columns blank.
	if rows[2][0] != "app-1" || len(rows[2]) > 6 && rows[2][6] != "" {
		t.Fatalf("unexpected second row %v", rows[2])
	}
}

func TestExportEmptyBookStillProducesWorkbook(t *testing.T) {
	var buf bytes.Buffer
	if err := New().Export(nil, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	book, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer book.Close()
	rows, err := book.GetRows("Applications")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
