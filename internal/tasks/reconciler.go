package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jobtrail/internal/events"
	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/services"
	"github.com/desertthunder/jobtrail/internal/shared"
)

// CredentialStore loads the refresh credential of an owner.
type CredentialStore interface {
	RefreshToken(ctx context.Context, userID string) (string, error)
}

// ApplicationStore is the subset of the record store a run writes through.
type ApplicationStore interface {
	GetByEmailID(ctx context.Context, userID, emailID string) (*models.Application, error)
	Create(ctx context.Context, a *models.Application) error
	Update(ctx context.Context, a *models.Application) error
}

// SyncLogStore appends run audit rows.
type SyncLogStore interface {
	Append(ctx context.Context, l *models.SyncLog) error
}

// Classifier gates and classifies one message.
type Classifier interface {
	IsRelevant(headers map[string]string, snippet string) bool
	Classify(headers map[string]string, snippet string) models.Classification
}

// StatusPolicy decides whether a classified status may replace a stored one.
type StatusPolicy int

const (
	// PolicyLatest lets the most recently processed message win.
	PolicyLatest StatusPolicy = iota
	// PolicyMonotonic only applies forward moves per [models.CanTransition].
	PolicyMonotonic
)

// ParseStatusPolicy maps a config value to a [StatusPolicy]. Empty means latest.
func ParseStatusPolicy(s string) (StatusPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "latest":
		return PolicyLatest, nil
	case "monotonic":
		return PolicyMonotonic, nil
	default:
		return PolicyLatest, fmt.Errorf("%w: unknown status policy %q", shared.ErrInvalidConfig, s)
	}
}

func (p StatusPolicy) String() string {
	if p == PolicyMonotonic {
		return "monotonic"
	}
	return "latest"
}

// Dependencies are the collaborators a [Reconciler] needs.
type Dependencies struct {
	Credentials CredentialStore
	Exchanger   services.TokenExchanger
	Fetcher     services.MessageFetcher
	Classifier  Classifier
	Records     ApplicationStore
	Logs        SyncLogStore
}

// Option configures a [Reconciler].
type Option func(*Reconciler)

// WithStatusPolicy sets how stored statuses are replaced.
func WithStatusPolicy(p StatusPolicy) Option {
	return func(r *Reconciler) { r.policy = p }
}

// WithPublisher sets the change event publisher. Publish failures are logged only.
func WithPublisher(p events.Publisher) Option {
	return func(r *Reconciler) {
		if p != nil {
			r.publisher = p
		}
	}
}

// WithLogger sets the run logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) { r.logger = l }
}

// Reconciler runs mailbox syncs. One run per owner may be active at a time.
type Reconciler struct {
	Dependencies
	policy    StatusPolicy
	publisher events.Publisher
	logger    *log.Logger

	mu      sync.Mutex
	running map[string]struct{}
}

// NewReconciler creates a Reconciler over the given dependencies.
func NewReconciler(deps Dependencies, opts ...Option) *Reconciler {
	r := &Reconciler{
		Dependencies: deps,
		publisher:    events.NopPublisher{},
		logger:       log.Default(),
		running:      make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// sendProgress sends a progress update through the channel without blocking.
func (r *Reconciler) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (r *Reconciler) acquire(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.running[userID]; ok {
		return false
	}
	r.running[userID] = struct{}{}
	return true
}

func (r *Reconciler) release(userID string) {
	r.mu.Lock()
	delete(r.running, userID)
	r.mu.Unlock()
}

// IsRunning reports whether a run for userID is in progress.
func (r *Reconciler) IsRunning(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.running[userID]
	return ok
}

// outcome is the terminal state of one message within a run.
type outcome int

const (
	skipped outcome = iota
	created
	updated
)

// Run performs one sync for userID and returns its counters.
//
// Failures before the message loop abort with no audit row. Per-message failures are
// logged and counted as skipped. A failure writing the audit row is returned as the run error.
func (r *Reconciler) Run(ctx context.Context, userID string, progress chan<- ProgressUpdate) (*models.RunStats, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", shared.ErrMissingArgument)
	}
	if !r.acquire(userID) {
		return nil, fmt.Errorf("%w for user %s", shared.ErrSyncInProgress, userID)
	}
	defer r.release(userID)

	logger := shared.WithLogger(r.logger, "user", userID)

	r.sendProgress(progress, authenticateUpdate())
	accessToken, err := r.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	r.sendProgress(progress, fetchMessagesUpdate(0))
	messages, err := r.Fetcher.FetchCandidates(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	total := len(messages)
	r.sendProgress(progress, fetchMessagesUpdate(total))

	stats := &models.RunStats{Scanned: total}
	for i, msg := range messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r.sendProgress(progress, reconcileUpdate(i+1, total, msg))

		result, app, err := r.reconcile(ctx, userID, msg)
		if err != nil {
			logger.Warn("skipping message", "id", msg.ID, "error", err)
		}

		switch result {
		case created:
			stats.Created++
			r.publish(ctx, logger, events.NewApplicationEvent(events.ApplicationCreated, app))
		case updated:
			stats.Updated++
			r.publish(ctx, logger, events.NewApplicationEvent(events.ApplicationUpdated, app))
		default:
			stats.Skipped++
		}
	}

	r.sendProgress(progress, recordRunUpdate(*stats))
	entry := &models.SyncLog{UserID: userID, Status: models.SyncStatusSuccess, Stats: *stats}
	if err := r.Logs.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}
	r.publish(ctx, logger, events.NewSyncCompletedEvent(entry))

	logger.Info("sync completed",
		"scanned", stats.Scanned, "created", stats.Created, "updated", stats.Updated, "skipped", stats.Skipped)
	return stats, nil
}

// ClassifyMessage fetches one message by id and classifies it without touching the store.
func (r *Reconciler) ClassifyMessage(ctx context.Context, userID, emailID string) (*models.Classification, error) {
	if emailID == "" {
		return nil, fmt.Errorf("%w: email id is required", shared.ErrMissingArgument)
	}

	accessToken, err := r.accessToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	msg, err := r.Fetcher.FetchMessage(ctx, accessToken, emailID)
	if err != nil {
		return nil, err
	}

	c := r.Classifier.Classify(msg.Headers, msg.Snippet)
	return &c, nil
}

func (r *Reconciler) accessToken(ctx context.Context, userID string) (string, error) {
	refresh, err := r.Credentials.RefreshToken(ctx, userID)
	if err != nil {
		return "", err
	}

	token, err := r.Exchanger.Exchange(ctx, refresh)
	if err != nil {
		return "", err
	}
	return token.AccessToken, nil
}

// reconcile moves one message through gate, classification, and upsert.
// A panic anywhere in the pipeline becomes an error and a skip.
func (r *Reconciler) reconcile(ctx context.Context, userID string, msg models.Message) (result outcome, app *models.Application, err error) {
	defer func() {
		if p := recover(); p != nil {
			result, app, err = skipped, nil, fmt.Errorf("panic while reconciling: %v", p)
		}
	}()

	if msg.ID == "" {
		return skipped, nil, fmt.Errorf("%w: message has no id", shared.ErrInvalidInput)
	}
	if !r.Classifier.IsRelevant(msg.Headers, msg.Snippet) {
		return skipped, nil, nil
	}
	c := r.Classifier.Classify(msg.Headers, msg.Snippet)

	existing, err := r.Records.GetByEmailID(ctx, userID, msg.ID)
	switch {
	case err == nil:
		return r.replace(ctx, existing, msg, c)
	case !errors.Is(err, shared.ErrNotFound):
		return skipped, nil, err
	}

	app = &models.Application{UserID: userID}
	app.ApplyClassification(msg, c)
	if err := r.Records.Create(ctx, app); err != nil {
		if !errors.Is(err, shared.ErrConflict) {
			return skipped, nil, err
		}

		// Another writer inserted the same message first.
		existing, err := r.Records.GetByEmailID(ctx, userID, msg.ID)
		if err != nil {
			return skipped, nil, err
		}
		return r.replace(ctx, existing, msg, c)
	}
	return created, app, nil
}

// replace overwrites the classifiable fields of an existing record.
func (r *Reconciler) replace(ctx context.Context, existing *models.Application, msg models.Message, c models.Classification) (outcome, *models.Application, error) {
	prev := existing.Status
	existing.ApplyClassification(msg, c)
	if r.policy == PolicyMonotonic && !models.CanTransition(prev, c.Status) {
		existing.Status = prev
	}

	if err := r.Records.Update(ctx, existing); err != nil {
		return skipped, nil, err
	}
	return updated, existing, nil
}

func (r *Reconciler) publish(ctx context.Context, logger *log.Logger, e events.Event) {
	if err := r.publisher.Publish(ctx, e); err != nil {
		logger.Warn("failed to publish event", "type", e.Type, "error", err)
	}
}
