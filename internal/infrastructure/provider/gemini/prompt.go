package gemini

import (
	"fmt"
	"strings"

	"github.com/kirillkom/loan-intake/internal/core/domain"
)

func buildSystemInstruction(form domain.ApplicantForm, rules Rules) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a Senior Loan Officer processing a loan application in %s.\n", rules.Market)
	b.WriteString("Analyze the provided documents (Images or PDFs) and the applicant's form data.\n\n")

	b.WriteString("APPLICATION FORM DATA:\n")
	fmt.Fprintf(&b, "- Name: %s\n", form.FullName)
	fmt.Fprintf(&b, "- Requested Amount: %s%.0f\n\n", rules.CurrencySymbol, form.RequestedAmount)

	b.WriteString("EXTRACTION & VALIDATION RULES:\n")
	for i, rule := range rules.ExtractionRules {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rule)
	}

	b.WriteString("\nDOCUMENT HANDLING:\n")
	b.WriteString("- The provided documents may be multi-page PDFs. Analyze all pages to find required information.\n")
	b.WriteString("- Handle local tax documents, salary slips, and national identity layouts.\n")

	b.WriteString("\nDECISION ENGINE LOGIC:\n")
	for _, rule := range rules.DecisionRules {
		fmt.Fprintf(&b, "- %s\n", rule)
	}

	b.WriteString(`
Return a strict JSON object with keys:
extractedFields (object with fullName, dob, age, identityNumber, employerName, annualIncome; use null for anything not found),
validations (array of objects with fieldName, isValid, message),
decision (one of: AUTO_APPROVE, AUTO_REJECT, HUMAN_REVIEW, INCOMPLETE),
explanation (string), missingData (array of strings), userFeedback (string).
No markdown, no extra keys. Never hallucinate data.
Provide specific feedback in userFeedback for the applicant.
`)

	return b.String()
}
