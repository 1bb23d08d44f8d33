package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/loan-intake/internal/core/domain"
)

const sheetName = "Applications"

// Exporter renders the application book as an XLSX workbook for credit
// officers, one row per application in store order (newest first).
type Exporter struct{}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(apps []*domain.LoanApplication, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	header := []any{
		"Application ID", "Applicant", "Email", "Phone", "Requested Amount",
		"Status", "Decision", "Explanation", "Processed At", "Audit Entries",
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, app := range apps {
		var decision, explanation, processedAt string
		if app.Result != nil {
			decision = string(app.Result.Decision)
			explanation = app.Result.Explanation
			processedAt = app.Result.Timestamp.Format("2006-01-02 15:04:05")
		}
		row := []any{
			app.ID,
			app.Form.FullName,
			app.Form.Email,
			app.Form.Phone,
			app.Form.RequestedAmount,
			string(app.Status),
			decision,
			explanation,
			processedAt,
			len(app.AuditTrail),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("row coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
