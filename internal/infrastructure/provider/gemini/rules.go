package gemini

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules parameterize the extraction and decision instructions sent to the
// model. Credit policy wording changes more often than code, so officers can
// maintain it in a YAML file; the compiled-in defaults match the original
// Indian lending rule set.
type Rules struct {
	Market          string   `yaml:"market"`
	CurrencySymbol  string   `yaml:"currency_symbol"`
	ExtractionRules []string `yaml:"extraction_rules"`
	DecisionRules   []string `yaml:"decision_rules"`
}

func DefaultRules() Rules {
	return Rules{
		Market:         "India",
		CurrencySymbol: "₹",
		ExtractionRules: []string{
			`Full Name: Must be extracted from documents. Must exactly match the form input. If there is a mismatch (even minor like missing middle initial), set decision to HUMAN_REVIEW.`,
			`DOB/Age: Extract DOB if available. If DOB is present, derive age. If neither DOB nor Age can be found, set decision to INCOMPLETE.`,
			`Identity Number (KYC): Extract PAN Card, Aadhaar Number, or National ID. This field is MANDATORY. If missing, set decision to AUTO_REJECT.`,
			`Employer Name: Must be extracted from paystubs, tax returns, or employment letters. If missing, set decision to HUMAN_REVIEW.`,
			`Annual Income: Extract a numeric value. You can calculate this from monthly figures (Monthly * 12). If income is present but calculations are ambiguous, set decision to HUMAN_REVIEW and request clarification in userFeedback.`,
		},
		DecisionRules: []string{
			`AUTO_APPROVE: Only if all mandatory fields are present, high confidence in extraction, and no inconsistencies.`,
			`AUTO_REJECT: Critical identity/KYC data is missing or verification failed.`,
			`HUMAN_REVIEW: Partial data exists, minor name mismatches, or ambiguity in income calculation.`,
			`INCOMPLETE: Essential data (DOB/Income proof) is totally missing.`,
		},
	}
}

// LoadRules reads a rules file, falling back to defaults when path is empty.
// Missing fields in the file inherit the default value.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules file: %w", err)
	}
	return rules, nil
}
