package classifier

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/shared"
)

// Classifier turns message headers and snippets into structured application fields.
//
// A Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	rules Rules
	now   func() time.Time
}

// Option configures a [Classifier].
type Option func(*Classifier)

// WithClock sets the time source used when a Date header cannot be parsed.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) { c.now = now }
}

// New creates a Classifier over rules.
func New(rules Rules, opts ...Option) *Classifier {
	c := &Classifier{rules: rules, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig builds a Classifier from the default rules with any configured keyword overrides.
func FromConfig(cfg shared.ClassifierConfig, opts ...Option) *Classifier {
	rules := DefaultRules().WithOverrides(
		cfg.RelevanceKeywords, cfg.ConfidenceKeywords, cfg.CompanyBlocklist, cfg.ConsumerDomains,
	)
	return New(rules, opts...)
}

// Rules returns the tables in use.
func (c *Classifier) Rules() Rules { return c.rules }

// IsRelevant reports whether any relevance keyword occurs in the subject, snippet, or sender.
func (c *Classifier) IsRelevant(headers map[string]string, snippet string) bool {
	text := strings.ToLower(headers["subject"] + " " + snippet + " " + headers["from"])
	for _, kw := range c.rules.RelevanceKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Extract derives company, role, status, and applied-at. Confidence is left at zero.
func (c *Classifier) Extract(headers map[string]string, snippet string) models.Classification {
	subject, from := headers["subject"], headers["from"]
	appliedAt, estimated := ParseAppliedAt(headers["date"], c.now)

	return models.Classification{
		Company:            c.ExtractCompany(subject, from),
		Role:               c.ExtractRole(subject, snippet),
		Status:             c.InferStatus(subject, snippet),
		AppliedAt:          appliedAt,
		AppliedAtEstimated: estimated,
	}
}

// Classify runs [Classifier.Extract] and scores the result.
func (c *Classifier) Classify(headers map[string]string, snippet string) models.Classification {
	out := c.Extract(headers, snippet)
	out.Confidence = c.Confidence(headers, snippet)
	return out
}

// ExtractCompany applies the company rules in order and falls back to the unknown placeholder.
func (c *Classifier) ExtractCompany(subject, from string) string {
	for _, rule := range c.rules.Company {
		if name, ok := rule.Extract(&c.rules, subject, from); ok && name != "" {
			return name
		}
	}
	return c.rules.UnknownCompany
}

// ExtractRole returns the first role capture within the length bounds, or nil.
func (c *Classifier) ExtractRole(subject, snippet string) *string {
	text := subject + " " + snippet
	for _, rule := range c.rules.Role {
		m := rule.Pattern.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		role := strings.TrimSpace(m[1])
		n := utf8.RuneCountInString(role)
		if n > c.rules.MinRoleLength && n < c.rules.MaxRoleLength {
			return &role
		}
	}
	return nil
}

// InferStatus returns the status of the first matching rule. Rule order decides ties.
func (c *Classifier) InferStatus(subject, snippet string) models.Status {
	text := strings.ToLower(subject + " " + snippet)
	for _, rule := range c.rules.Status {
		if rule.Pattern.MatchString(text) {
			return rule.Status
		}
	}
	return c.rules.DefaultStatus
}

// Confidence scores how likely the message is part of an application thread, in [0, 1].
func (c *Classifier) Confidence(headers map[string]string, snippet string) float64 {
	subject, from := headers["subject"], headers["from"]
	text := strings.ToLower(subject + " " + snippet + " " + from)

	score := c.rules.BaseConfidence
	for _, kw := range c.rules.ConfidenceKeywords {
		if strings.Contains(text, kw) {
			score += c.rules.KeywordWeight
		}
	}
	if c.hasEmployerDomain(from) {
		score += c.rules.DomainWeight
	}
	if c.rules.Signal != nil && c.rules.Signal.MatchString(text) {
		score += c.rules.SignalWeight
	}
	return math.Min(score, 1.0)
}

// hasEmployerDomain reports whether any "@" in from is not followed by a consumer domain.
func (c *Classifier) hasEmployerDomain(from string) bool {
	lower := strings.ToLower(from)
	for i := 0; i < len(lower); i++ {
		if lower[i] != '@' {
			continue
		}
		rest := lower[i+1:]
		consumer := false
		for _, d := range c.rules.ConsumerDomains {
			if strings.HasPrefix(rest, d) {
				consumer = true
				break
			}
		}
		if !consumer {
			return true
		}
	}
	return false
}
