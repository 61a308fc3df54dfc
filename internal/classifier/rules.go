package classifier

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/desertthunder/jobtrail/internal/models"
)

// CompanyRule extracts an employer name from a subject and sender, reporting whether it matched.
type CompanyRule struct {
	Name    string
	Extract func(r *Rules, subject, from string) (string, bool)
}

// RoleRule captures a role title in the first submatch of Pattern.
type RoleRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// StatusRule maps a lower-cased text signal to a lifecycle status.
type StatusRule struct {
	Status  models.Status
	Pattern *regexp.Regexp
}

// Rules holds every table the [Classifier] consults.
type Rules struct {
	RelevanceKeywords  []string // Any hit passes the relevance gate
	ConfidenceKeywords []string // Each distinct hit adds KeywordWeight
	CompanyBlocklist   []string // Sender domain labels never reported as an employer
	ConsumerDomains    []string // Sender domains that do not add DomainWeight

	Company []CompanyRule
	Role    []RoleRule
	Status  []StatusRule

	DefaultStatus  models.Status
	UnknownCompany string

	// Role captures are accepted when MinRoleLength < len < MaxRoleLength.
	MinRoleLength int
	MaxRoleLength int

	Signal         *regexp.Regexp // Status indicators that add SignalWeight
	BaseConfidence float64
	KeywordWeight  float64
	DomainWeight   float64
	SignalWeight   float64
}

var (
	senderDomain  = regexp.MustCompile(`@([^.]+)\.`)
	senderName    = regexp.MustCompile(`^([^<@]+)`)
	subjectSplit  = regexp.MustCompile(`[\s\-|—]+`)
	roleClause    = regexp.MustCompile(`(?i)(?:for|as|position|role)\s+(?:a\s+)?([^,.\n]+?)(?:\s+at|\s+with|\s*,|\s*\.|\s*\n|$)`)
	roleTitleNoun = regexp.MustCompile(`(?i)([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+(?:Engineer|Developer|Manager|Analyst|Specialist|Lead|Director)`)
	roleCanonical = regexp.MustCompile(`(?i)(Software Engineer|Product Manager|Data Scientist|Frontend Developer|Backend Developer|Full Stack Developer)`)
)

// DefaultRules returns a fresh copy of the built-in tables.
func DefaultRules() Rules {
	return Rules{
		RelevanceKeywords: []string{
			"application", "applied", "interview", "assessment", "coding test",
			"recruiter", "hiring", "position", "role", "job", "career",
			"opportunity", "talent", "candidate", "resume", "cv",
		},
		ConfidenceKeywords: []string{
			"application", "applied", "interview", "assessment", "coding test",
			"recruiter", "hiring", "position", "role", "job", "career",
		},
		CompanyBlocklist: []string{"gmail", "outlook", "yahoo", "hotmail", "recruiting", "talent"},
		ConsumerDomains:  []string{"gmail", "outlook", "yahoo", "hotmail"},
		Company: []CompanyRule{
			{Name: "sender_domain", Extract: companyFromDomain},
			{Name: "sender_name", Extract: companyFromName},
			{Name: "subject_token", Extract: companyFromSubject},
		},
		Role: []RoleRule{
			{Name: "clause", Pattern: roleClause},
			{Name: "title_noun", Pattern: roleTitleNoun},
			{Name: "canonical", Pattern: roleCanonical},
		},
		Status: []StatusRule{
			{Status: models.StatusInterview, Pattern: regexp.MustCompile(`(?i)interview|onsite|screen|schedule|meet|call`)},
			{Status: models.StatusAssessment, Pattern: regexp.MustCompile(`(?i)assessment|take[- ]home|cod(e|ing)|hackerrank|test`)},
			{Status: models.StatusOffer, Pattern: regexp.MustCompile(`(?i)offer|congratulations|pleased to|happy to`)},
			{Status: models.StatusRejected, Pattern: regexp.MustCompile(`(?i)rejected|declined|unfortunately|not moving forward|not selected`)},
		},
		DefaultStatus:  models.StatusApplied,
		UnknownCompany: models.UnknownCompany,
		MinRoleLength:  2,
		MaxRoleLength:  100,
		Signal:         regexp.MustCompile(`(?i)interview|assessment|offer|rejected`),
		BaseConfidence: 0.5,
		KeywordWeight:  0.1,
		DomainWeight:   0.2,
		SignalWeight:   0.2,
	}
}

// WithOverrides replaces keyword tables with the non-empty lists given.
func (r Rules) WithOverrides(relevance, confidence, blocklist, consumer []string) Rules {
	if len(relevance) > 0 {
		r.RelevanceKeywords = lowerAll(relevance)
	}
	if len(confidence) > 0 {
		r.ConfidenceKeywords = lowerAll(confidence)
	}
	if len(blocklist) > 0 {
		r.CompanyBlocklist = lowerAll(blocklist)
	}
	if len(consumer) > 0 {
		r.ConsumerDomains = lowerAll(consumer)
	}
	return r
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// companyFromDomain uses the label after "@" unless it is a blocklisted mail provider.
func companyFromDomain(r *Rules, _, from string) (string, bool) {
	m := senderDomain.FindStringSubmatch(from)
	if m == nil {
		return "", false
	}
	domain := m[1]
	if slices.Contains(r.CompanyBlocklist, strings.ToLower(domain)) {
		return "", false
	}
	return capitalize(domain), true
}

// companyFromName takes the first word of the display name, or the local part for bare addresses.
func companyFromName(_ *Rules, _, from string) (string, bool) {
	m := senderName.FindStringSubmatch(from)
	if m == nil {
		return "", false
	}
	name := strings.ReplaceAll(strings.TrimSpace(m[1]), `"`, "")
	words := strings.Fields(name)
	if len(words) == 0 {
		return "", false
	}
	return words[0], true
}

// companyFromSubject returns the first subject token longer than two characters starting with A-Z.
func companyFromSubject(_ *Rules, subject, _ string) (string, bool) {
	for _, word := range subjectSplit.Split(subject, -1) {
		if utf8.RuneCountInString(word) > 2 && word[0] >= 'A' && word[0] <= 'Z' {
			return word, true
		}
	}
	return "", false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
