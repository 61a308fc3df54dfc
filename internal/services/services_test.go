package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jobtrail/internal/shared"
	tu "github.com/desertthunder/jobtrail/internal/testing"
	"golang.org/x/oauth2/google"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestGoogleTokenExchanger(t *testing.T) {
	cfg := shared.GoogleConfig{ClientID: "client-id", ClientSecret: "client-secret"}

	t.Run("NewGoogleTokenExchanger", func(t *testing.T) {
		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewGoogleTokenExchanger(shared.GoogleConfig{ClientSecret: "s"}, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewGoogleTokenExchanger(shared.GoogleConfig{ClientID: "c"}, nil)
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Token URL", func(t *testing.T) {
			e, err := NewGoogleTokenExchanger(cfg, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if e.config.Endpoint.TokenURL != google.Endpoint.TokenURL {
				t.Errorf("expected %s, got %s", google.Endpoint.TokenURL, e.config.Endpoint.TokenURL)
			}
		})
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("failed to parse form: %v", err)
		}
		if r.Form.Get("grant_type") != "refresh_token" {
			t.Errorf("expected refresh_token grant, got %q", r.Form.Get("grant_type"))
		}
		if r.Form.Get("client_id") != "client-id" || r.Form.Get("client_secret") != "client-secret" {
			t.Errorf("expected client credentials in the form body, got %v", r.Form)
		}

		switch r.Form.Get("refresh_token") {
		case "valid":
			writeJSON(t, w, http.StatusOK, map[string]any{
				"access_token": "access-123",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		case "revoked":
			writeJSON(t, w, http.StatusBadRequest, map[string]string{
				"error":             "invalid_grant",
				"error_description": "Token has been expired or revoked.",
			})
		case "empty":
			writeJSON(t, w, http.StatusOK, map[string]any{"token_type": "Bearer"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	cfg.TokenURL = server.URL
	e, err := NewGoogleTokenExchanger(cfg, server.Client())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	ctx := context.Background()

	t.Run("Exchange", func(t *testing.T) {
		tok, err := e.Exchange(ctx, "valid")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.AccessToken != "access-123" {
			t.Errorf("expected access-123, got %s", tok.AccessToken)
		}
	})

	t.Run("Revoked", func(t *testing.T) {
		_, err := e.Exchange(ctx, "revoked")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Fatalf("expected ErrAuthFailed, got %v", err)
		}
		if !shared.IsAuthError(err) {
			t.Error("expected revoked credential to be an auth error")
		}
	})

	t.Run("Provider Failure", func(t *testing.T) {
		_, err := e.Exchange(ctx, "boom")
		if !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
		if shared.IsAuthError(err) {
			t.Error("a 500 should not be reported as an auth error")
		}
	})

	t.Run("Missing Access Token", func(t *testing.T) {
		if _, err := e.Exchange(ctx, "empty"); err == nil {
			t.Error("expected error for response without access_token")
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		failing, err := NewGoogleTokenExchanger(cfg, client)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := failing.Exchange(ctx, "valid"); !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
	})

	t.Run("Unreadable Body", func(t *testing.T) {
		resp := &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       &tu.FCloser{},
		}
		client := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		failing, err := NewGoogleTokenExchanger(cfg, client)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := failing.Exchange(ctx, "valid"); !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
	})

	t.Run("Empty Refresh Token", func(t *testing.T) {
		if _, err := e.Exchange(ctx, " "); !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Errorf("expected ErrNoRefreshToken, got %v", err)
		}
	})
}

type gmailFixture struct {
	total    int
	pageSize int
	failing  map[string]int
	listCode int
	lists    atomic.Int32
	gets     atomic.Int32
}

func (g *gmailFixture) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		g.lists.Add(1)
		if r.Header.Get("Authorization") != "Bearer access-123" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("q") == "" {
			t.Error("expected search query")
		}
		if g.listCode != 0 {
			writeJSON(t, w, g.listCode, map[string]any{"error": map[string]any{"code": g.listCode, "message": "denied"}})
			return
		}

		start := 0
		if tok := r.URL.Query().Get("pageToken"); tok != "" {
			fmt.Sscanf(tok, "page-%d", &start)
		}
		end := min(start+g.pageSize, g.total)

		var msgs []map[string]string
		for i := start; i < end; i++ {
			msgs = append(msgs, map[string]string{"id": fmt.Sprintf("m%d", i), "threadId": fmt.Sprintf("t%d", i)})
		}
		resp := map[string]any{"messages": msgs}
		if end < g.total {
			resp["nextPageToken"] = fmt.Sprintf("page-%d", end)
		}
		writeJSON(t, w, http.StatusOK, resp)
	})

	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		g.gets.Add(1)
		id := r.PathValue("id")
		if r.URL.Query().Get("format") != "metadata" {
			t.Errorf("expected metadata format, got %q", r.URL.Query().Get("format"))
		}
		if code, ok := g.failing[id]; ok {
			writeJSON(t, w, code, map[string]any{"error": map[string]any{"code": code, "message": "nope"}})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id":       id,
			"threadId": "thread-" + id,
			"snippet":  "Thanks for applying",
			"payload": map[string]any{
				"headers": []map[string]string{
					{"name": "From", "value": "Jane Doe <jane@initech.com>"},
					{"name": "Subject", "value": "Application received"},
					{"name": "Date", "value": "Tue, 4 Mar 2025 10:15:00 -0800"},
				},
			},
		})
	})

	return mux
}

func newTestFetcher(server *httptest.Server, cfg shared.SyncConfig) *GmailFetcher {
	return NewGmailFetcher(cfg,
		WithHTTPClient(server.Client()),
		WithEndpoint(server.URL),
		WithFetcherLogger(log.New(io.Discard)),
	)
}

func TestGmailFetcher(t *testing.T) {
	ctx := context.Background()

	t.Run("Defaults", func(t *testing.T) {
		f := NewGmailFetcher(shared.SyncConfig{})
		if f.query != DefaultQuery || f.maxCandidates != DefaultMaxCandidates || f.maxFetch != DefaultMaxFetch {
			t.Errorf("expected defaults, got %q %d %d", f.query, f.maxCandidates, f.maxFetch)
		}
	})

	t.Run("FetchCandidates", func(t *testing.T) {
		fixture := &gmailFixture{total: 250, pageSize: 100}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		f := newTestFetcher(server, shared.SyncConfig{Query: "subject:application", MaxCandidates: 200, MaxFetch: 50})
		msgs, err := f.FetchCandidates(ctx, "access-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(msgs) != 50 {
			t.Fatalf("expected 50 messages, got %d", len(msgs))
		}
		if got := fixture.lists.Load(); got != 2 {
			t.Errorf("expected 2 list pages for a 200 cap, got %d", got)
		}
		if got := fixture.gets.Load(); got != 50 {
			t.Errorf("expected 50 detail fetches, got %d", got)
		}

		first := msgs[0]
		if first.ID != "m0" || first.ThreadID != "thread-m0" {
			t.Errorf("unexpected ids: %s %s", first.ID, first.ThreadID)
		}
		if first.Header("from") != "Jane Doe <jane@initech.com>" || first.Headers["subject"] != "Application received" {
			t.Errorf("expected lower-cased headers, got %v", first.Headers)
		}
	})

	t.Run("Skips failed messages", func(t *testing.T) {
		fixture := &gmailFixture{total: 3, pageSize: 100, failing: map[string]int{"m1": http.StatusNotFound}}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		msgs, err := newTestFetcher(server, shared.SyncConfig{}).FetchCandidates(ctx, "access-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(msgs) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(msgs))
		}
		for _, m := range msgs {
			if m.ID == "m1" {
				t.Error("failed message should be skipped")
			}
		}
	})

	t.Run("Empty mailbox", func(t *testing.T) {
		fixture := &gmailFixture{total: 0, pageSize: 100}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		msgs, err := newTestFetcher(server, shared.SyncConfig{}).FetchCandidates(ctx, "access-123")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(msgs) != 0 {
			t.Errorf("expected no messages, got %d", len(msgs))
		}
	})

	t.Run("Rejected token", func(t *testing.T) {
		fixture := &gmailFixture{listCode: http.StatusUnauthorized}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		_, err := newTestFetcher(server, shared.SyncConfig{}).FetchCandidates(ctx, "access-123")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("List failure", func(t *testing.T) {
		fixture := &gmailFixture{listCode: http.StatusBadRequest}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()

		_, err := newTestFetcher(server, shared.SyncConfig{}).FetchCandidates(ctx, "access-123")
		if !errors.Is(err, shared.ErrProvider) {
			t.Errorf("expected ErrProvider, got %v", err)
		}
	})

	t.Run("Missing token", func(t *testing.T) {
		f := NewGmailFetcher(shared.SyncConfig{})
		if _, err := f.FetchCandidates(ctx, ""); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("FetchMessage", func(t *testing.T) {
		fixture := &gmailFixture{failing: map[string]int{"gone": http.StatusNotFound}}
		server := httptest.NewServer(fixture.handler(t))
		defer server.Close()
		f := newTestFetcher(server, shared.SyncConfig{})

		msg, err := f.FetchMessage(ctx, "access-123", "abc")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if msg.ID != "abc" || !strings.Contains(msg.Header("subject"), "Application") {
			t.Errorf("unexpected message: %+v", msg)
		}

		if _, err := f.FetchMessage(ctx, "access-123", "gone"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}
