package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/shared"
)

const applicationColumns = `id, user_id, source, company, role, location, status, job_post_url, applied_at,
	email_id, thread_id, snippet, metadata, created_at, updated_at`

// ApplicationRepository implements models.Repository[*models.Application].
type ApplicationRepository struct {
	store
}

var _ models.Repository[*models.Application] = (*ApplicationRepository)(nil)

// NewApplicationRepository creates a new ApplicationRepository with the given database connection
func NewApplicationRepository(db *sql.DB) *ApplicationRepository {
	return &ApplicationRepository{store: newStore(db)}
}

// Create inserts a new application, generating its ID and timestamps when unset.
func (r *ApplicationRepository) Create(ctx context.Context, a *models.Application) error {
	if a.ID == "" {
		a.ID = shared.GenerateID()
	}
	ts := now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = ts
	}
	a.UpdatedAt = ts

	if err := a.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}

	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.exec(ctx, query,
		a.ID,
		a.UserID,
		string(a.Source),
		a.Company,
		nullString(a.Role),
		nullString(a.Location),
		string(a.Status),
		nullString(a.JobPostURL),
		nullTime(a.AppliedAt),
		nullString(a.EmailID),
		nullString(a.ThreadID),
		nullString(a.Snippet),
		string(metadata),
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return fmt.Errorf("%w: application for email %s already exists", shared.ErrConflict, shared.Deref(a.EmailID))
		}
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// Get retrieves an application by ID
func (r *ApplicationRepository) Get(ctx context.Context, id string) (*models.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE id = ?`
	a, err := scanApplication(r.queryRow(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: application %s", shared.ErrNotFound, id)
	}
	return a, err
}

// GetByEmailID retrieves the mailbox-sourced application for an owner and message ID.
func (r *ApplicationRepository) GetByEmailID(ctx context.Context, userID, emailID string) (*models.Application, error) {
	query := `
		SELECT ` + applicationColumns + `
		FROM applications
		WHERE user_id = ? AND email_id = ? AND source = 'gmail'
	`
	a, err := scanApplication(r.queryRow(ctx, query, userID, emailID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: application for email %s", shared.ErrNotFound, emailID)
	}
	return a, err
}

// Update replaces every mutable column of an existing application.
func (r *ApplicationRepository) Update(ctx context.Context, a *models.Application) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	metadata, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	a.UpdatedAt = now()

	query := `
		UPDATE applications
		SET source = ?, company = ?, role = ?, location = ?, status = ?, job_post_url = ?, applied_at = ?,
			email_id = ?, thread_id = ?, snippet = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.exec(ctx, query,
		string(a.Source),
		a.Company,
		nullString(a.Role),
		nullString(a.Location),
		string(a.Status),
		nullString(a.JobPostURL),
		nullTime(a.AppliedAt),
		nullString(a.EmailID),
		nullString(a.ThreadID),
		nullString(a.Snippet),
		string(metadata),
		a.UpdatedAt,
		a.ID,
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return fmt.Errorf("%w: application for email %s already exists", shared.ErrConflict, shared.Deref(a.EmailID))
		}
		return fmt.Errorf("failed to update application: %w", err)
	}
	return expectRows(result, "application", a.ID)
}

// Delete removes an application by ID
func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	result, err := r.exec(ctx, `DELETE FROM applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return expectRows(result, "application", id)
}

// List retrieves applications matching criteria, newest applied first with undated records last.
//
// Supported criteria keys are user_id, status, and source.
func (r *ApplicationRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Application, error) {
	var (
		where []string
		args  []any
	)

	for _, key := range []string{"user_id", "status", "source"} {
		v := criterion(criteria[key])
		if v == "" {
			continue
		}
		where = append(where, key+" = ?")
		args = append(args, v)
	}

	query := `SELECT ` + applicationColumns + ` FROM applications`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY applied_at IS NULL, applied_at DESC, created_at DESC"

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer rows.Close()

	var apps []*models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return apps, nil
}

// CountByStatus returns the number of applications per status for an owner.
func (r *ApplicationRepository) CountByStatus(ctx context.Context, userID string) (map[models.Status]int, error) {
	rows, err := r.query(ctx, `SELECT status, COUNT(*) FROM applications WHERE user_id = ? GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

// criterion accepts plain strings and the string-backed enum types.
func criterion(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case models.Status:
		return string(t)
	case models.Source:
		return string(t)
	default:
		return ""
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (*models.Application, error) {
	var (
		a                          models.Application
		source, status, metadata   string
		role, location, jobPostURL sql.NullString
		emailID, threadID, snippet sql.NullString
		appliedAt                  sql.NullTime
	)

	err := row.Scan(
		&a.ID, &a.UserID, &source, &a.Company, &role, &location, &status, &jobPostURL, &appliedAt,
		&emailID, &threadID, &snippet, &metadata, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan application: %w", err)
	}

	a.Source = models.Source(source)
	a.Status = models.Status(status)
	a.Role = stringPtr(role)
	a.Location = stringPtr(location)
	a.JobPostURL = stringPtr(jobPostURL)
	a.AppliedAt = timePtr(appliedAt)
	a.EmailID = stringPtr(emailID)
	a.ThreadID = stringPtr(threadID)
	a.Snippet = stringPtr(snippet)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()

	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return &a, nil
}
