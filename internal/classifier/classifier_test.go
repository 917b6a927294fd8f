package classifier

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"spendwise/internal/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		desc string
		want core.Category
	}{
		{"dinner", core.Food},
		{"Grocery run", core.Food},
		{"dinner with doctor", core.Food},
		{"dinner at the doctor's office", core.Food},
		{"UBER to airport", core.Transportation},
		{"Gas station", core.Transportation},
		{"Monthly rent", core.Housing},
		{"Phone bill", core.Utilities},
		{"Netflix subscription", core.Entertainment},
		{"Pharmacy", core.Healthcare},
		{"Amazon order", core.Shopping},
		{"Textbook", core.Education},
		{"Gift for mom", core.Other},
		{"", core.Other},
		// substring semantics: "car" occurs inside "scarf"
		{"Scarf", core.Transportation},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := Classify(tt.desc, core.Money{Cents: 100}, ""); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.desc, got, tt.want)
			}
		})
	}
}

func TestClassifyIgnoresAmountAndReceipt(t *testing.T) {
	c := Default()
	base := c.Classify("movie night", core.Money{Cents: 1}, "")
	for _, tc := range []struct {
		amount  core.Money
		receipt string
	}{
		{core.Money{Cents: 999999}, ""},
		{core.Money{Cents: -5}, "hospital pharmacy doctor"},
	} {
		if got := c.Classify("movie night", tc.amount, tc.receipt); got != base {
			t.Fatalf("classification changed with amount=%v receipt=%q: %s vs %s", tc.amount, tc.receipt, got, base)
		}
	}
}

func TestExplain(t *testing.T) {
	c := Default()
	m := c.Explain("Train ticket")
	if !m.Matched || m.Category != core.Transportation || m.Keyword != "train" {
		t.Fatalf("unexpected match %+v", m)
	}
	m = c.Explain("nothing here")
	if m.Matched || m.Category != core.Other {
		t.Fatalf("unexpected match %+v", m)
	}
}

func TestDefaultRulesOrder(t *testing.T) {
	rules := DefaultRules()
	want := []core.Category{
		core.Food, core.Transportation, core.Housing, core.Utilities,
		core.Entertainment, core.Healthcare, core.Shopping, core.Education,
	}
	if len(rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(rules))
	}
	for i, r := range rules {
		if r.Category != want[i] {
			t.Errorf("rule %d = %s, want %s", i, r.Category, want[i])
		}
	}
	rules[0].Keywords[0] = "mutated"
	if DefaultRules()[0].Keywords[0] != "grocery" {
		t.Fatal("DefaultRules must return a copy")
	}
}

func TestNewNormalizesKeywords(t *testing.T) {
	c := New([]Rule{
		{Category: core.Healthcare, Keywords: []string{"  VET ", ""}},
		{Category: core.Food, Keywords: []string{"vet"}},
	})
	if got := c.Classify("Vet visit", core.Money{}, ""); got != core.Healthcare {
		t.Fatalf("expected Healthcare, got %s", got)
	}
	if got := c.Classify("anything", core.Money{}, ""); got != core.Other {
		t.Fatalf("empty keyword must not match, got %s", got)
	}
}

func TestParseRules(t *testing.T) {
	data := []byte(`
rules:
  - category: education
    keywords: [udemy, coursera]
  - category: Food
    keywords: [pizza]
`)
	rules, err := ParseRules(data)
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if len(rules) != 2 || rules[0].Category != core.Education || rules[1].Keywords[0] != "pizza" {
		t.Fatalf("unexpected rules %+v", rules)
	}

	if _, err := ParseRules([]byte("rules: []")); !errors.Is(err, ErrNoRules) {
		t.Fatalf("expected ErrNoRules, got %v", err)
	}
	if _, err := ParseRules([]byte("rules:\n  - category: Pets\n    keywords: [dog]\n")); !errors.Is(err, core.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := ParseRules([]byte("rules: [")); err == nil {
		t.Fatal("expected yaml error")
	}
}

func TestFromFile(t *testing.T) {
	c, err := FromFile("")
	if err != nil {
		t.Fatalf("FromFile empty: %v", err)
	}
	if got := c.Classify("lunch", core.Money{}, ""); got != core.Food {
		t.Fatalf("default classifier returned %s", got)
	}

	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("rules:\n  - category: Shopping\n    keywords: [lunch]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = FromFile(path)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	if got := c.Classify("lunch", core.Money{}, ""); got != core.Shopping {
		t.Fatalf("custom classifier returned %s", got)
	}

	if _, err := FromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
