package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/jobtrail/internal/shared"
)

// UnknownCompany is stored when no employer could be extracted.
const UnknownCompany = "Unknown Company"

// SnippetLimit is the maximum stored snippet length in characters.
const SnippetLimit = 500

// Status is the lifecycle stage of an application.
type Status string

const (
	StatusApplied    Status = "applied"
	StatusAssessment Status = "assessment"
	StatusInterview  Status = "interview"
	StatusOffer      Status = "offer"
	StatusRejected   Status = "rejected"
	StatusGhosted    Status = "ghosted"
	StatusWithdrawn  Status = "withdrawn"
	StatusOther      Status = "other"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusApplied, StatusAssessment, StatusInterview, StatusOffer,
	StatusRejected, StatusGhosted, StatusWithdrawn, StatusOther,
}

// ParseStatus validates a status name (case-insensitive).
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, s)
	}
	return st, nil
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// forward lists the statuses reachable from each status under the monotonic policy.
var forward = map[Status][]Status{
	StatusApplied:    {StatusAssessment, StatusInterview, StatusOffer, StatusRejected, StatusGhosted, StatusWithdrawn},
	StatusAssessment: {StatusInterview, StatusOffer, StatusRejected, StatusGhosted, StatusWithdrawn},
	StatusInterview:  {StatusOffer, StatusRejected, StatusGhosted, StatusWithdrawn},
	StatusOffer:      {StatusWithdrawn},
	StatusGhosted:    {StatusAssessment, StatusInterview, StatusOffer, StatusRejected, StatusWithdrawn},
	StatusOther:      {StatusApplied, StatusAssessment, StatusInterview, StatusOffer, StatusRejected, StatusGhosted, StatusWithdrawn},
	StatusRejected:   {},
	StatusWithdrawn:  {},
}

// CanTransition reports whether moving from one status to another is a forward move.
// Staying on the same status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, st := range forward[from] {
		if st == to {
			return true
		}
	}
	return false
}

// Source records where an application came from.
type Source string

const (
	SourceGmail  Source = "gmail"
	SourceManual Source = "manual"
)

// ParseSource validates a source name.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceGmail:
		return SourceGmail, nil
	case SourceManual:
		return SourceManual, nil
	default:
		return "", fmt.Errorf("%w: unknown source %q", shared.ErrInvalidInput, s)
	}
}

// Metadata is the free-form metadata stored with an application.
type Metadata struct {
	Headers map[string]string `json:"headers,omitempty"`
}

// Application is one employer/role application tracked for a user.
type Application struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Source     Source     `json:"source"`
	Company    string     `json:"company"`
	Role       *string    `json:"role"`
	Location   *string    `json:"location"`
	Status     Status     `json:"status"`
	JobPostURL *string    `json:"job_post_url"`
	AppliedAt  *time.Time `json:"applied_at"`
	EmailID    *string    `json:"email_id"`
	ThreadID   *string    `json:"thread_id"`
	Snippet    *string    `json:"snippet"`
	Metadata   Metadata   `json:"metadata"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Validate checks required fields and enumerations.
func (a *Application) Validate() error {
	if a.UserID == "" {
		return fmt.Errorf("%w: user_id is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(a.Company) == "" {
		return fmt.Errorf("%w: company is required", shared.ErrInvalidInput)
	}
	if !a.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, a.Status)
	}
	switch a.Source {
	case SourceGmail:
		if a.EmailID == nil || *a.EmailID == "" {
			return fmt.Errorf("%w: gmail records need an email_id", shared.ErrInvalidInput)
		}
	case SourceManual:
	default:
		return fmt.Errorf("%w: unknown source %q", shared.ErrInvalidInput, a.Source)
	}
	if a.Snippet != nil && len([]rune(*a.Snippet)) > SnippetLimit {
		return fmt.Errorf("%w: snippet longer than %d characters", shared.ErrInvalidInput, SnippetLimit)
	}
	return nil
}

// ApplyClassification overwrites every classifiable field from c and msg (full replace, not merge).
func (a *Application) ApplyClassification(msg Message, c Classification) {
	a.Source = SourceGmail
	a.Company = c.Company
	a.Role = c.Role
	a.Status = c.Status
	applied := c.AppliedAt
	a.AppliedAt = &applied
	a.EmailID = shared.StringPtr(msg.ID)
	a.ThreadID = shared.StringPtr(msg.ThreadID)
	snippet := shared.Truncate(msg.Snippet, SnippetLimit)
	a.Snippet = &snippet
	a.Metadata = Metadata{Headers: msg.Headers}
}

// ApplicationPatch carries a partial update issued against a record by id.
type ApplicationPatch struct {
	Company    *string    `json:"company"`
	Role       *string    `json:"role"`
	Location   *string    `json:"location"`
	Status     *Status    `json:"status"`
	JobPostURL *string    `json:"job_post_url"`
	AppliedAt  *time.Time `json:"applied_at"`
}

// Apply copies the set fields of p onto a. Empty strings clear nullable fields.
func (p ApplicationPatch) Apply(a *Application) error {
	if p.Company != nil {
		a.Company = strings.TrimSpace(*p.Company)
	}
	if p.Role != nil {
		a.Role = shared.StringPtr(strings.TrimSpace(*p.Role))
	}
	if p.Location != nil {
		a.Location = shared.StringPtr(strings.TrimSpace(*p.Location))
	}
	if p.JobPostURL != nil {
		a.JobPostURL = shared.StringPtr(strings.TrimSpace(*p.JobPostURL))
	}
	if p.Status != nil {
		st, err := ParseStatus(string(*p.Status))
		if err != nil {
			return err
		}
		a.Status = st
	}
	if p.AppliedAt != nil {
		t := p.AppliedAt.UTC()
		a.AppliedAt = &t
	}
	return a.Validate()
}
