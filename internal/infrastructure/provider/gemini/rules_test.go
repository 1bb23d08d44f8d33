package gemini

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRulesEmptyPathUsesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if rules.Market != "India" || rules.CurrencySymbol != "₹" {
		t.Fatalf("unexpected defaults %+v", rules)
	}
	if len(rules.ExtractionRules) == 0 || len(rules.DecisionRules) == 0 {
		t.Fatalf("default rule sets must not be empty")
	}
}

func TestLoadRulesFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "market: Germany\ncurrency_symbol: \"€\"\ndecision_rules:\n  - \"AUTO_APPROVE: never\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if rules.Market != "Germany" || rules.CurrencySymbol != "€" {
		t.Fatalf("overrides not applied: %+v", rules)
	}
	if len(rules.DecisionRules) != 1 {
		t.Fatalf("decision rules not replaced: %+v", rules.DecisionRules)
	}
	// Fields absent from the file keep the compiled-in defaults.
	if len(rules.ExtractionRules) != len(DefaultRules().ExtractionRules) {
		t.Fatalf("extraction rules lost: %+v", rules.ExtractionRules)
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
