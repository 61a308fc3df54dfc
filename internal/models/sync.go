package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/jobtrail/internal/shared"
)

// Message is the metadata fetched for one mailbox message. Header keys are lower-cased.
type Message struct {
	ID       string            `json:"id"`
	ThreadID string            `json:"thread_id"`
	Snippet  string            `json:"snippet"`
	Headers  map[string]string `json:"headers"`
}

// Header returns the value for name, matched case-insensitively.
func (m Message) Header(name string) string {
	return m.Headers[strings.ToLower(name)]
}

// NormalizeHeaders lower-cases header names. Later duplicates win.
func NormalizeHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = v
	}
	return out
}

// Classification is the structured result extracted from one message.
//
// AppliedAtEstimated is set when the Date header could not be parsed and the
// classification time was used instead.
type Classification struct {
	Company            string    `json:"company"`
	Role               *string   `json:"role"`
	Status             Status    `json:"status"`
	AppliedAt          time.Time `json:"applied_at"`
	AppliedAtEstimated bool      `json:"applied_at_estimated"`
	Confidence         float64   `json:"confidence"`
}

// RunStats are the counters of one sync run.
type RunStats struct {
	Scanned int `json:"scanned"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// SyncStatusSuccess tags a completed run in the audit log.
const SyncStatusSuccess = "success"

// SyncLog is one append-only audit row for a sync run.
type SyncLog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Stats     RunStats  `json:"stats"`
	CreatedAt time.Time `json:"created_at"`
}

func (l *SyncLog) Validate() error {
	if l.UserID == "" {
		return fmt.Errorf("%w: user_id is required", shared.ErrInvalidInput)
	}
	if l.Status == "" {
		return fmt.Errorf("%w: status is required", shared.ErrInvalidInput)
	}
	return nil
}

// ProviderGoogle is the only credential provider in use.
const ProviderGoogle = "google"

// Credential is a stored long-lived refresh credential.
type Credential struct {
	UserID       string    `json:"user_id"`
	Provider     string    `json:"provider"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Credential) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: user_id is required", shared.ErrInvalidInput)
	}
	if c.Provider == "" {
		return fmt.Errorf("%w: provider is required", shared.ErrInvalidInput)
	}
	if strings.TrimSpace(c.RefreshToken) == "" {
		return shared.ErrNoRefreshToken
	}
	return nil
}
