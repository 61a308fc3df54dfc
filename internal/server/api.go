package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/shared"
	"github.com/desertthunder/jobtrail/internal/tasks"
)

// ErrClassifyBody is returned when a classify request names neither a message nor raw metadata.
var ErrClassifyBody = fmt.Errorf("%w: Either emailId or rawHeaders+snippet must be provided", shared.ErrInvalidInput)

const defaultLogLimit = 20

// Syncer runs mailbox syncs and classifies single messages by id.
type Syncer interface {
	Run(ctx context.Context, userID string, progress chan<- tasks.ProgressUpdate) (*models.RunStats, error)
	ClassifyMessage(ctx context.Context, userID, emailID string) (*models.Classification, error)
}

// Classifier classifies raw message metadata. No relevance gate is applied.
type Classifier interface {
	Classify(headers map[string]string, snippet string) models.Classification
}

// RecordStore is the application record store behind the API.
type RecordStore interface {
	Create(ctx context.Context, a *models.Application) error
	Get(ctx context.Context, id string) (*models.Application, error)
	Update(ctx context.Context, a *models.Application) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, criteria map[string]any) ([]*models.Application, error)
	CountByStatus(ctx context.Context, userID string) (map[models.Status]int, error)
}

// LogStore lists sync audit rows.
type LogStore interface {
	List(ctx context.Context, userID string, limit int) ([]*models.SyncLog, error)
}

// API implements the JSON endpoints of the service.
type API struct {
	syncer     Syncer
	classifier Classifier
	records    RecordStore
	logs       LogStore
	logger     *log.Logger
}

// NewAPI creates an [API] handler.
func NewAPI(syncer Syncer, classifier Classifier, records RecordStore, logs LogStore, logger *log.Logger) *API {
	if logger == nil {
		logger = log.Default()
	}
	return &API{syncer: syncer, classifier: classifier, records: records, logs: logs, logger: logger}
}

// Routes implements [Handler].
func (a *API) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/healthz", Handler: a.health, Public: true},
		{Method: http.MethodPost, Path: "/api/sync", Handler: a.sync},
		{Method: http.MethodPost, Path: "/api/classify", Handler: a.classify},
		{Method: http.MethodGet, Path: "/api/applications", Handler: a.listApplications},
		{Method: http.MethodPost, Path: "/api/applications", Handler: a.createApplication},
		{Method: http.MethodGet, Path: "/api/applications/summary", Handler: a.summary},
		{Method: http.MethodPatch, Path: "/api/applications/{id}", Handler: a.updateApplication},
		{Method: http.MethodDelete, Path: "/api/applications/{id}", Handler: a.deleteApplication},
		{Method: http.MethodGet, Path: "/api/sync-logs", Handler: a.listSyncLogs},
	}
}

// owner returns the authenticated owner id, failing closed when the guard did not run.
func owner(r *http.Request) (string, error) {
	id, ok := OwnerFrom(r.Context())
	if !ok {
		return "", shared.ErrNotAuthenticated
	}
	return id, nil
}

func (a *API) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type syncResponse struct {
	OK    bool             `json:"ok"`
	Stats *models.RunStats `json:"stats"`
}

func (a *API) sync(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	stats, err := a.syncer.Run(r.Context(), userID, nil)
	if err != nil {
		a.logger.Error("sync failed", "user", userID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, syncResponse{OK: true, Stats: stats})
}

type classifyRequest struct {
	EmailID    string            `json:"emailId"`
	RawHeaders map[string]string `json:"rawHeaders"`
	Snippet    string            `json:"snippet"`
}

func (a *API) classify(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req classifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, ErrClassifyBody)
		return
	}

	switch {
	case req.EmailID != "":
		c, err := a.syncer.ClassifyMessage(r.Context(), userID, req.EmailID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case req.RawHeaders != nil && req.Snippet != "":
		c := a.classifier.Classify(models.NormalizeHeaders(req.RawHeaders), req.Snippet)
		writeJSON(w, http.StatusOK, c)
	default:
		writeError(w, ErrClassifyBody)
	}
}

func (a *API) listApplications(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	criteria := map[string]any{"user_id": userID}
	q := r.URL.Query()
	if s := q.Get("status"); s != "" {
		st, err := models.ParseStatus(s)
		if err != nil {
			writeError(w, err)
			return
		}
		criteria["status"] = st
	}
	if s := q.Get("source"); s != "" {
		src, err := models.ParseSource(s)
		if err != nil {
			writeError(w, err)
			return
		}
		criteria["source"] = src
	}

	apps, err := a.records.List(r.Context(), criteria)
	if err != nil {
		writeError(w, err)
		return
	}
	if apps == nil {
		apps = []*models.Application{}
	}
	writeJSON(w, http.StatusOK, apps)
}

type createApplicationRequest struct {
	Company    string     `json:"company"`
	Role       *string    `json:"role"`
	Location   *string    `json:"location"`
	Status     string     `json:"status"`
	JobPostURL *string    `json:"job_post_url"`
	AppliedAt  *time.Time `json:"applied_at"`
}

func (a *API) createApplication(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	app, err := NewManualApplication(userID, req.Company, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	app.Role = trimmed(req.Role)
	app.Location = trimmed(req.Location)
	app.JobPostURL = trimmed(req.JobPostURL)
	if req.AppliedAt != nil {
		t := req.AppliedAt.UTC()
		app.AppliedAt = &t
	}

	if err := a.records.Create(r.Context(), app); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// NewManualApplication builds a manual record. An empty status means applied.
func NewManualApplication(userID, company, status string) (*models.Application, error) {
	st := models.StatusApplied
	if status != "" {
		parsed, err := models.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		st = parsed
	}
	return &models.Application{
		UserID:  userID,
		Source:  models.SourceManual,
		Company: strings.TrimSpace(company),
		Status:  st,
	}, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return shared.StringPtr(strings.TrimSpace(*s))
}

// owned loads a record by id, hiding records of other owners as not found.
func (a *API) owned(ctx context.Context, userID, id string) (*models.Application, error) {
	app, err := a.records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, fmt.Errorf("%w: application %s", shared.ErrNotFound, id)
	}
	return app, nil
}

func (a *API) updateApplication(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch models.ApplicationPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, err)
		return
	}

	app, err := a.owned(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := patch.Apply(app); err != nil {
		writeError(w, err)
		return
	}
	if err := a.records.Update(r.Context(), app); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (a *API) deleteApplication(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	app, err := a.owned(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := a.records.Delete(r.Context(), app.ID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type summaryResponse struct {
	Total    int                   `json:"total"`
	ByStatus map[models.Status]int `json:"by_status"`
}

func (a *API) summary(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	counts, err := a.records.CountByStatus(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := summaryResponse{ByStatus: counts}
	for _, n := range counts {
		resp.Total += n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) listSyncLogs(w http.ResponseWriter, r *http.Request) {
	userID, err := owner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit := defaultLogLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, fmt.Errorf("%w: limit must be a positive integer", shared.ErrInvalidArgument))
			return
		}
		limit = n
	}

	logs, err := a.logs.List(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []*models.SyncLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}
