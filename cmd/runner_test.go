package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/repositories"
	"github.com/desertthunder/jobtrail/internal/shared"
	tu "github.com/desertthunder/jobtrail/internal/testing"
)

// newTestRunner returns a runner over a migrated in-memory database that writes to out.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer, *sql.DB) {
	t.Helper()
	db := tu.NewTestDB(t)
	out := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:     shared.DefaultConfig(),
		ConfigPath: filepath.Join(t.TempDir(), "config.toml"),
		Logger:     log.New(io.Discard),
		Output:     out,
		DB:         db,
	})
	return runner, out, db
}

// run executes the CLI with args, pointing --config at the runner's config path.
func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	argv := append([]string{"jobtrail", "--config", r.configPath, "--user", "user-1"}, args...)
	return newApp(r).Run(context.Background(), argv)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			db := tu.NewTestDB(t)

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				DB:         db,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.db != db {
				t.Error("expected db to be set")
			}
			if runner.palette == nil {
				t.Error("expected palette to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Config: nil,
			})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Logger: nil,
			})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Output: nil,
			})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				HTTPClient: nil,
			})

			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				ConfigPath: "/test/path/config.toml",
			})

			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			expected := `{"key":"value"}` + "\n"
			if result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			// channels cannot be marshaled to JSON
			data := make(chan int)
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			data := map[string]string{"key": "value"}
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(data, false)

			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writePlain("hello %s", "world")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			failing := &tu.FWriter{}
			runner := NewRunner(RunnerOpts{Output: failing})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("writePlainln wraps in newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("Next steps:"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "\nNext steps:\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "credentials", "token", "sync", "classify", "records", "reports", "serve"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("Close", func(t *testing.T) {
		t.Run("leaves injected database open", func(t *testing.T) {
			runner, _, db := newTestRunner(t)
			if err := runner.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if err := db.Ping(); err != nil {
				t.Errorf("injected database should stay open, got %v", err)
			}
		})

		t.Run("closes opened database", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Database.Path = filepath.Join(t.TempDir(), "jobtrail.db")
			runner := NewRunner(RunnerOpts{Config: config, Logger: log.New(io.Discard)})

			db, err := runner.database()
			if err != nil {
				t.Fatalf("database() error = %v", err)
			}
			if err := runner.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if err := db.Ping(); err == nil {
				t.Error("expected opened database to be closed")
			}
		})
	})

	t.Run("hint", func(t *testing.T) {
		tests := []struct {
			err  error
			want string
		}{
			{shared.ErrNoRefreshToken, "credentials set' first"},
			{shared.ErrAuthFailed, "may be revoked"},
			{shared.ErrMissingCredentials, "google.client_id"},
			{shared.ErrProvider, ""},
		}
		for _, tt := range tests {
			got := hint(tt.err)
			if !errors.Is(got, tt.err) {
				t.Errorf("hint(%v) lost the original error", tt.err)
			}
			if tt.want != "" && !strings.Contains(got.Error(), tt.want) {
				t.Errorf("hint(%v) = %q, want mention of %q", tt.err, got, tt.want)
			}
			if tt.want == "" && got != tt.err {
				t.Errorf("hint(%v) should pass through, got %v", tt.err, got)
			}
		}
	})
}

func TestConfigLoading(t *testing.T) {
	t.Run("reads config file when present", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		config := shared.DefaultConfig()
		config.Auth.JWTSecret = "from-file"
		config.Log.Level = "debug"
		if err := shared.SaveConfig(runner.configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		if err := run(t, runner, "token", "issue"); err != nil {
			t.Fatalf("token issue error = %v", err)
		}
		if runner.config.Auth.JWTSecret != "from-file" {
			t.Errorf("expected secret from config file, got %q", runner.config.Auth.JWTSecret)
		}
		if runner.logger.GetLevel() != log.DebugLevel {
			t.Errorf("expected debug level, got %v", runner.logger.GetLevel())
		}
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		config := shared.DefaultConfig()
		config.Sync.StatusPolicy = "sometimes"
		if err := shared.SaveConfig(runner.configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		err := run(t, runner, "records", "list")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("config", func(t *testing.T) {
		runner, out, _ := newTestRunner(t)

		if err := run(t, runner, "setup", "config"); err != nil {
			t.Fatalf("setup config error = %v", err)
		}
		tu.AssertFileExists(t, runner.configPath)
		if !strings.Contains(out.String(), "Config written to") {
			t.Errorf("unexpected output: %s", out.String())
		}

		if err := run(t, runner, "setup", "config"); err == nil {
			t.Error("expected error when config already exists")
		}
		if err := run(t, runner, "setup", "config", "--force"); err != nil {
			t.Errorf("setup config --force error = %v", err)
		}
		if content := tu.MustReadFile(t, runner.configPath); !strings.Contains(content, "[google]") {
			t.Errorf("expected template config, got %s", content)
		}
	})

	t.Run("database and rollback", func(t *testing.T) {
		dir := t.TempDir()
		config := shared.DefaultConfig()
		config.Database.Path = filepath.Join(dir, "jobtrail.db")
		configPath := filepath.Join(dir, "config.toml")
		if err := shared.SaveConfig(configPath, config); err != nil {
			t.Fatalf("SaveConfig() error = %v", err)
		}

		out := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{ConfigPath: configPath, Logger: log.New(io.Discard), Output: out})
		defer runner.Close()

		if err := run(t, runner, "setup", "database"); err != nil {
			t.Fatalf("setup database error = %v", err)
		}
		tu.AssertFileExists(t, config.Database.Path)
		if !strings.Contains(out.String(), "3 migrations applied") {
			t.Errorf("unexpected output: %s", out.String())
		}

		if err := run(t, runner, "setup", "rollback"); err != nil {
			t.Fatalf("setup rollback error = %v", err)
		}
		if !strings.Contains(out.String(), "2 migrations remain") {
			t.Errorf("unexpected output: %s", out.String())
		}
	})
}

func TestCredentialCommands(t *testing.T) {
	runner, out, db := newTestRunner(t)

	if err := run(t, runner, "credentials", "status"); !errors.Is(err, shared.ErrNoRefreshToken) {
		t.Fatalf("expected ErrNoRefreshToken before linking, got %v", err)
	}

	if err := run(t, runner, "credentials", "set", "--refresh-token", " rt-1 "); err != nil {
		t.Fatalf("credentials set error = %v", err)
	}
	token, err := repositories.NewCredentialRepository(db).RefreshToken(context.Background(), "user-1")
	if err != nil || token != "rt-1" {
		t.Fatalf("stored token = %q, %v; want rt-1", token, err)
	}

	out.Reset()
	if err := run(t, runner, "credentials", "status"); err != nil {
		t.Fatalf("credentials status error = %v", err)
	}
	if !strings.Contains(out.String(), "Refresh token stored for user-1") {
		t.Errorf("unexpected status output: %s", out.String())
	}

	if err := run(t, runner, "credentials", "delete"); err != nil {
		t.Fatalf("credentials delete error = %v", err)
	}
	if err := run(t, runner, "credentials", "delete"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestTokenIssue(t *testing.T) {
	t.Run("signs token", func(t *testing.T) {
		runner, out, _ := newTestRunner(t)
		runner.config.Auth.JWTSecret = "cli-secret"

		if err := run(t, runner, "token", "issue", "--ttl", "1h"); err != nil {
			t.Fatalf("token issue error = %v", err)
		}
		if parts := strings.Split(strings.TrimSpace(out.String()), "."); len(parts) != 3 {
			t.Errorf("expected a compact JWT, got %q", out.String())
		}
	})

	t.Run("requires secret", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		if err := run(t, runner, "token", "issue"); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}

func TestRecordCommands(t *testing.T) {
	runner, out, db := newTestRunner(t)
	repo := repositories.NewApplicationRepository(db)
	ctx := context.Background()

	err := run(t, runner, "records", "add",
		"--company", " Initech ", "--role", "Backend Engineer", "--status", "interview", "--applied", "2025-03-04")
	if err != nil {
		t.Fatalf("records add error = %v", err)
	}

	apps, err := repo.List(ctx, map[string]any{"user_id": "user-1"})
	if err != nil || len(apps) != 1 {
		t.Fatalf("expected one record, got %d (%v)", len(apps), err)
	}
	app := apps[0]
	if app.Company != "Initech" || app.Source != models.SourceManual || app.Status != models.StatusInterview {
		t.Errorf("unexpected record %+v", app)
	}
	if shared.Deref(app.Role) != "Backend Engineer" || app.AppliedAt == nil || app.AppliedAt.UTC().Format("2006-01-02") != "2025-03-04" {
		t.Errorf("optional fields not stored: %+v", app)
	}

	t.Run("list", func(t *testing.T) {
		out.Reset()
		if err := run(t, runner, "records", "list", "--json"); err != nil {
			t.Fatalf("records list error = %v", err)
		}
		var listed []models.Application
		if err := json.Unmarshal(out.Bytes(), &listed); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out.String())
		}
		if len(listed) != 1 || listed[0].ID != app.ID {
			t.Errorf("unexpected listing %+v", listed)
		}

		out.Reset()
		if err := run(t, runner, "records", "list", "--status", "offer"); err != nil {
			t.Fatalf("records list error = %v", err)
		}
		if !strings.Contains(out.String(), "No applications found") {
			t.Errorf("expected empty table, got %s", out.String())
		}

		if err := run(t, runner, "records", "list", "--status", "hired"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for unknown status, got %v", err)
		}
	})

	t.Run("update", func(t *testing.T) {
		if err := run(t, runner, "records", "update", "--status", "offer", "--location", "Remote", app.ID); err != nil {
			t.Fatalf("records update error = %v", err)
		}
		got, err := repo.Get(ctx, app.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Status != models.StatusOffer || shared.Deref(got.Location) != "Remote" || shared.Deref(got.Role) != "Backend Engineer" {
			t.Errorf("unexpected record after update %+v", got)
		}

		if err := run(t, runner, "records", "update", "--applied", "March 4th", app.ID); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for bad date, got %v", err)
		}
		if err := run(t, runner, "records", "update"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument without id, got %v", err)
		}
	})

	t.Run("summary", func(t *testing.T) {
		out.Reset()
		if err := run(t, runner, "records", "summary", "--json"); err != nil {
			t.Fatalf("records summary error = %v", err)
		}
		var summary summaryResult
		if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if summary.Total != 1 || summary.ByStatus[models.StatusOffer] != 1 {
			t.Errorf("unexpected summary %+v", summary)
		}
	})

	t.Run("export", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "apps.md")
		if err := run(t, runner, "records", "export", "--format", "markdown", "--output", path); err != nil {
			t.Fatalf("records export error = %v", err)
		}
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "Initech") {
			t.Errorf("export missing record: %s", content)
		}

		if err := run(t, runner, "records", "export", "--format", "xlsx"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for unknown format, got %v", err)
		}
	})

	t.Run("other owners cannot touch the record", func(t *testing.T) {
		argv := []string{"jobtrail", "--config", runner.configPath, "--user", "user-2", "records", "delete", app.ID}
		if err := newApp(runner).Run(ctx, argv); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for another owner, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := run(t, runner, "records", "delete", app.ID); err != nil {
			t.Fatalf("records delete error = %v", err)
		}
		if _, err := repo.Get(ctx, app.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected record to be gone, got %v", err)
		}
	})

	t.Run("add requires company", func(t *testing.T) {
		if err := run(t, runner, "records", "add", "--status", "applied"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput without company, got %v", err)
		}
	})
}

func TestClassify(t *testing.T) {
	t.Run("raw headers", func(t *testing.T) {
		runner, out, _ := newTestRunner(t)

		err := run(t, runner, "classify",
			"--from", "Jane <jane@initech.com>",
			"--subject", "Interview invitation",
			"--date", "Tue, 4 Mar 2025 10:15:00 -0800",
			"--snippet", "Can we schedule a call?",
			"--json")
		if err != nil {
			t.Fatalf("classify error = %v", err)
		}

		var c models.Classification
		if err := json.Unmarshal(out.Bytes(), &c); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out.String())
		}
		if c.Company != "Initech" || c.Status != models.StatusInterview || c.AppliedAtEstimated {
			t.Errorf("unexpected classification %+v", c)
		}
	})

	t.Run("plain output", func(t *testing.T) {
		runner, out, _ := newTestRunner(t)

		if err := run(t, runner, "classify", "--from", "jobs@initech.com", "--subject", "Your application", "--snippet", "Thanks for applying"); err != nil {
			t.Fatalf("classify error = %v", err)
		}
		if !strings.Contains(out.String(), "Company:") || !strings.Contains(out.String(), "Confidence:") {
			t.Errorf("unexpected output: %s", out.String())
		}
	})

	t.Run("requires input", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		if err := run(t, runner, "classify"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestSyncCommands(t *testing.T) {
	t.Run("sync without a linked mailbox", func(t *testing.T) {
		runner, _, db := newTestRunner(t)

		err := run(t, runner, "sync", "run")
		if !errors.Is(err, shared.ErrNoRefreshToken) {
			t.Fatalf("expected ErrNoRefreshToken, got %v", err)
		}
		if !strings.Contains(err.Error(), "credentials set") {
			t.Errorf("expected hint in error, got %v", err)
		}

		logs, _ := repositories.NewSyncLogRepository(db).List(context.Background(), "user-1", 10)
		if len(logs) != 0 {
			t.Errorf("failed runs should not be logged, got %d", len(logs))
		}
	})

	t.Run("sync without oauth client", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		runner.config.Google.ClientID = ""
		t.Setenv("JOBTRAIL_GOOGLE_CLIENT_ID", "")
		t.Setenv("GOOGLE_CLIENT_ID", "")

		if err := run(t, runner, "sync", "run"); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})

	t.Run("reports list", func(t *testing.T) {
		runner, out, db := newTestRunner(t)
		logs := repositories.NewSyncLogRepository(db)
		if err := logs.Append(context.Background(), &models.SyncLog{
			UserID: "user-1",
			Status: models.SyncStatusSuccess,
			Stats:  models.RunStats{Scanned: 4, Created: 1, Updated: 2, Skipped: 1},
		}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}

		if err := run(t, runner, "reports", "list"); err != nil {
			t.Fatalf("reports list error = %v", err)
		}
		if !strings.Contains(out.String(), "Sync runs for user-1") || !strings.Contains(out.String(), "success") {
			t.Errorf("unexpected output: %s", out.String())
		}

		out.Reset()
		if err := run(t, runner, "reports", "list", "--json"); err != nil {
			t.Fatalf("reports list --json error = %v", err)
		}
		var decoded []models.SyncLog
		if err := json.Unmarshal(out.Bytes(), &decoded); err != nil || len(decoded) != 1 {
			t.Errorf("unexpected JSON %s (%v)", out.String(), err)
		}

		if err := run(t, runner, "reports", "list", "--limit", "0"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for zero limit, got %v", err)
		}
	})
}

func TestServeHandler(t *testing.T) {
	t.Run("serves the API", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		runner.config.Auth.JWTSecret = "serve-secret"

		handler, cleanup, err := runner.handler(context.Background())
		if err != nil {
			t.Fatalf("handler() error = %v", err)
		}
		defer cleanup()

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if w.Code != http.StatusOK {
			t.Errorf("healthz status = %d", w.Code)
		}

		w = httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/applications", nil))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("unauthenticated status = %d, want 401", w.Code)
		}
	})

	t.Run("requires auth config", func(t *testing.T) {
		runner, _, _ := newTestRunner(t)
		if _, _, err := runner.handler(context.Background()); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})
}
