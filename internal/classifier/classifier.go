// Package classifier assigns a spending category to an expense description
// using an ordered list of keyword rules. The first rule with a keyword that
// occurs in the lower-cased description wins; nothing matching yields Other.
package classifier

import (
	"strings"

	"spendwise/internal/core"
)

// Rule maps a set of keywords to one category.
type Rule struct {
	Category core.Category `yaml:"category"`
	Keywords []string      `yaml:"keywords"`
}

// Match describes which rule and keyword decided a classification.
type Match struct {
	Category core.Category
	Keyword  string
	Matched  bool
}

// Classifier assigns categories from an ordered keyword rule list.
type Classifier struct {
	rules []Rule
}

var defaultRules = []Rule{
	{core.Food, []string{"grocery", "food", "restaurant", "meal", "lunch", "dinner", "breakfast"}},
	{core.Transportation, []string{"uber", "lyft", "taxi", "bus", "train", "gas", "fuel", "car"}},
	{core.Housing, []string{"rent", "mortgage", "housing"}},
	{core.Utilities, []string{"electric", "water", "utility", "internet", "phone", "bill"}},
	{core.Entertainment, []string{"movie", "game", "entertainment", "concert", "show", "subscription"}},
	{core.Healthcare, []string{"doctor", "hospital", "medicine", "medical", "health", "pharmacy"}},
	{core.Shopping, []string{"clothes", "shopping", "amazon", "store", "buy", "purchase"}},
	{core.Education, []string{"tuition", "school", "book", "course", "class", "education"}},
}

// DefaultRules returns a copy of the built-in rule table in evaluation order.
func DefaultRules() []Rule {
	return cloneRules(defaultRules)
}

// Default returns a classifier using the built-in rule table.
func Default() *Classifier {
	return &Classifier{rules: cloneRules(defaultRules)}
}

// New builds a classifier from rules evaluated in the given order.
// Keywords are lower-cased; empty keywords are dropped since they would match everything.
func New(rules []Rule) *Classifier {
	c := &Classifier{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				kws = append(kws, k)
			}
		}
		c.rules = append(c.rules, Rule{Category: r.Category, Keywords: kws})
	}
	return c
}

// Classify returns the category for a description. amount and receiptText are
// accepted for future use and do not influence the result.
func (c *Classifier) Classify(description string, amount core.Money, receiptText string) core.Category {
	return c.Explain(description).Category
}

// Explain reports the deciding rule and keyword for a description.
func (c *Classifier) Explain(description string) Match {
	lower := strings.ToLower(description)
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(lower, k) {
				return Match{Category: r.Category, Keyword: k, Matched: true}
			}
		}
	}
	return Match{Category: core.Other}
}

// Rules returns a copy of the classifier's rules.
func (c *Classifier) Rules() []Rule {
	return cloneRules(c.rules)
}

// Classify uses the built-in rule table.
func Classify(description string, amount core.Money, receiptText string) core.Category {
	return (&Classifier{rules: defaultRules}).Classify(description, amount, receiptText)
}

func cloneRules(in []Rule) []Rule {
	out := make([]Rule, len(in))
	for i, r := range in {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}
