// Package questions implements the interview question policy.
//
// Matching is intentionally fuzzy: study keywords are case-insensitive
// substrings and employer patterns are case-insensitive regular expressions,
// so "Wirtschaftsinformatik" counts as business and "JPMorgan Chase" counts as
// a notable employer.
package questions

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const employerPlaceholder = "{employer}"

//go:embed catalog.yaml
var catalogYAML []byte

// Catalog is the parsed question catalog.
type Catalog struct {
	DefaultEmployer string   `yaml:"default_employer"`
	Base            []string `yaml:"base"`
	Domain          struct {
		InsertAfter   int      `yaml:"insert_after"`
		Question      string   `yaml:"question"`
		StudyKeywords []string `yaml:"study_keywords"`
	} `yaml:"domain"`
	Employer struct {
		Question string   `yaml:"question"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"employer"`

	employerRe *regexp.Regexp
}

var defaultCatalog = mustLoad(catalogYAML)

// Generate returns the ordered questions for a candidate. It is pure and
// deterministic; the result has 4 to 6 entries depending on keyword matches.
func Generate(fieldOfStudy, targetEmployer string) []string {
	return defaultCatalog.Generate(fieldOfStudy, targetEmployer)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse question catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid question catalog: %w", err)
	}

	quoted := make([]string, 0, len(c.Employer.Patterns))
	for _, p := range c.Employer.Patterns {
		quoted = append(quoted, strings.TrimSpace(p))
	}
	re, err := regexp.Compile(`(?i)` + strings.Join(quoted, "|"))
	if err != nil {
		return nil, fmt.Errorf("compile employer patterns: %w", err)
	}
	c.employerRe = re
	return &c, nil
}

func mustLoad(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic("questions: " + err.Error())
	}
	return c
}

func (c *Catalog) validate() error {
	if len(c.Base) != 4 {
		return fmt.Errorf("base must contain exactly 4 questions, got %d", len(c.Base))
	}
	if strings.TrimSpace(c.DefaultEmployer) == "" {
		return fmt.Errorf("default_employer cannot be empty")
	}
	if c.Domain.InsertAfter < 0 || c.Domain.InsertAfter > len(c.Base) {
		return fmt.Errorf("domain.insert_after out of range: %d", c.Domain.InsertAfter)
	}
	if c.Domain.Question == "" || len(c.Domain.StudyKeywords) == 0 {
		return fmt.Errorf("domain question and study_keywords are required")
	}
	if !strings.Contains(c.Employer.Question, employerPlaceholder) {
		return fmt.Errorf("employer.question must contain %s", employerPlaceholder)
	}
	if len(c.Employer.Patterns) == 0 {
		return fmt.Errorf("employer.patterns cannot be empty")
	}
	return nil
}

// Generate applies the policy to one candidate.
func (c *Catalog) Generate(fieldOfStudy, targetEmployer string) []string {
	employer := strings.TrimSpace(targetEmployer)
	name := employer
	if name == "" {
		name = c.DefaultEmployer
	}

	out := make([]string, 0, len(c.Base)+2)
	for i, q := range c.Base {
		out = append(out, strings.ReplaceAll(q, employerPlaceholder, name))
		if i+1 == c.Domain.InsertAfter && c.matchesStudy(fieldOfStudy) {
			out = append(out, c.Domain.Question)
		}
	}
	if c.Domain.InsertAfter == 0 && c.matchesStudy(fieldOfStudy) {
		out = append([]string{c.Domain.Question}, out...)
	}

	if employer != "" && c.employerRe.MatchString(employer) {
		out = append(out, strings.ReplaceAll(c.Employer.Question, employerPlaceholder, employer))
	}
	return out
}

func (c *Catalog) matchesStudy(study string) bool {
	s := strings.ToLower(study)
	if s == "" {
		return false
	}
	for _, kw := range c.Domain.StudyKeywords {
		if strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
