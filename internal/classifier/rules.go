package classifier

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"spendwise/internal/core"
)

var ErrNoRules = errors.New("rules file contains no rules")

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads an ordered rule table from a YAML file of the form
//
//	rules:
//	  - category: Food
//	    keywords: [grocery, lunch]
//
// Every category must be one of the fixed categories.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule table.
func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, ErrNoRules
	}
	for i, r := range f.Rules {
		c, err := core.ParseCategory(string(r.Category))
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		f.Rules[i].Category = c
	}
	return f.Rules, nil
}

// FromFile returns the built-in classifier when path is empty, otherwise one
// built from the rules in path.
func FromFile(path string) (*Classifier, error) {
	if path == "" {
		return Default(), nil
	}
	rules, err := LoadRules(path)
	if err != nil {
		return nil, err
	}
	return New(rules), nil
}
