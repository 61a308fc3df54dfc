package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	// DefaultQuery selects recent messages that look like application mail.
	DefaultQuery = `category:primary newer_than:90d (applied OR application OR interview OR assessment OR "coding test" OR recruiter OR "job opportunity" OR "position" OR "role")`

	DefaultMaxCandidates = 200
	DefaultMaxFetch      = 50

	gmailUser = "me"
	listPage  = 100
)

// metadataHeaders are the only headers requested per message. Bodies are never fetched.
var metadataHeaders = []string{"From", "Subject", "Date", "To"}

// GmailFetcher implements [MessageFetcher] with the Gmail v1 API.
type GmailFetcher struct {
	endpoint      string
	query         string
	maxCandidates int
	maxFetch      int
	limiter       *rate.Limiter
	httpClient    *http.Client
	logger        *log.Logger
}

// FetcherOption configures a [GmailFetcher].
type FetcherOption func(*GmailFetcher)

// WithHTTPClient sets the base client wrapped with the bearer token.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *GmailFetcher) { f.httpClient = c }
}

// WithEndpoint points the fetcher at a non-default API root.
func WithEndpoint(endpoint string) FetcherOption {
	return func(f *GmailFetcher) {
		if endpoint != "" && !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}
		f.endpoint = endpoint
	}
}

// WithFetcherLogger sets the logger used for skipped messages.
func WithFetcherLogger(l *log.Logger) FetcherOption {
	return func(f *GmailFetcher) { f.logger = l }
}

// NewGmailFetcher creates a fetcher from sync settings. Zero caps fall back to the defaults.
func NewGmailFetcher(cfg shared.SyncConfig, opts ...FetcherOption) *GmailFetcher {
	f := &GmailFetcher{
		query:         cfg.Query,
		maxCandidates: cfg.MaxCandidates,
		maxFetch:      cfg.MaxFetch,
		limiter:       rate.NewLimiter(rate.Inf, 1),
		httpClient:    http.DefaultClient,
		logger:        log.Default(),
	}
	if f.query == "" {
		f.query = DefaultQuery
	}
	if f.maxCandidates <= 0 {
		f.maxCandidates = DefaultMaxCandidates
	}
	if f.maxFetch <= 0 {
		f.maxFetch = DefaultMaxFetch
	}
	if cfg.FetchRate > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.FetchRate), 1)
	}

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// service builds a Gmail client authorized with a static bearer token.
func (f *GmailFetcher) service(ctx context.Context, accessToken string) (*gmail.Service, error) {
	if accessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	base := context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	client := oauth2.NewClient(base, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if f.endpoint != "" {
		opts = append(opts, option.WithEndpoint(f.endpoint))
	}

	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail service: %w", err)
	}
	return svc, nil
}

// FetchCandidates lists up to maxCandidates matching ids and fetches metadata for the first maxFetch.
//
// Detail requests run one at a time, paced by the limiter.
func (f *GmailFetcher) FetchCandidates(ctx context.Context, accessToken string) ([]models.Message, error) {
	svc, err := f.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	ids, err := f.listIDs(ctx, svc)
	if err != nil {
		return nil, err
	}
	if len(ids) > f.maxFetch {
		ids = ids[:f.maxFetch]
	}

	messages := make([]models.Message, 0, len(ids))
	for _, id := range ids {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		msg, err := f.get(ctx, svc, id)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			f.logger.Warn("skipping message", "id", id, "error", err)
			continue
		}
		messages = append(messages, *msg)
	}

	f.logger.Debug("fetched candidates", "listed", len(ids), "fetched", len(messages))
	return messages, nil
}

// FetchMessage fetches header metadata for one message.
func (f *GmailFetcher) FetchMessage(ctx context.Context, accessToken, id string) (*models.Message, error) {
	svc, err := f.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return f.get(ctx, svc, id)
}

func (f *GmailFetcher) listIDs(ctx context.Context, svc *gmail.Service) ([]string, error) {
	var (
		ids       []string
		pageToken string
	)

	for len(ids) < f.maxCandidates {
		call := svc.Users.Messages.List(gmailUser).
			Q(f.query).
			MaxResults(int64(min(listPage, f.maxCandidates-len(ids)))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, apiError("list messages", err)
		}

		for _, m := range resp.Messages {
			if len(ids) == f.maxCandidates {
				break
			}
			ids = append(ids, m.Id)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return ids, nil
}

func (f *GmailFetcher) get(ctx context.Context, svc *gmail.Service, id string) (*models.Message, error) {
	m, err := svc.Users.Messages.Get(gmailUser, id).
		Format("metadata").
		MetadataHeaders(metadataHeaders...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, apiError("get message "+id, err)
	}
	return normalize(m), nil
}

// normalize converts a Gmail message into a [models.Message] with lower-cased header names.
func normalize(m *gmail.Message) *models.Message {
	headers := make(map[string]string)
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			headers[strings.ToLower(h.Name)] = h.Value
		}
	}
	return &models.Message{
		ID:       m.Id,
		ThreadID: m.ThreadId,
		Snippet:  m.Snippet,
		Headers:  headers,
	}
}

// apiError maps Gmail API failures onto the shared error kinds.
func apiError(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: gmail %s returned %d", shared.ErrAuthFailed, op, gerr.Code)
		case http.StatusNotFound:
			return fmt.Errorf("%w: gmail %s", shared.ErrNotFound, op)
		}
		return fmt.Errorf("%w: gmail %s returned %d: %s", shared.ErrProvider, op, gerr.Code, gerr.Message)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: gmail %s: %v", shared.ErrProvider, op, err)
}
