package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jobtrail/internal/classifier"
	"github.com/desertthunder/jobtrail/internal/events"
	"github.com/desertthunder/jobtrail/internal/formatter"
	"github.com/desertthunder/jobtrail/internal/repositories"
	"github.com/desertthunder/jobtrail/internal/services"
	"github.com/desertthunder/jobtrail/internal/shared"
	"github.com/desertthunder/jobtrail/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	palette    *formatter.Palette
	db         *sql.DB
	ownsDB     bool
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	// DB replaces the configured database. The runner does not close it.
	DB         *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    formatter.DefaultPalette(),
		db:         opts.DB,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, credentialsCommand, tokenCommand, syncCommand, classifyCommand, recordsCommand, reportsCommand, serveCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig runs before every command. It reads the config file named by --config when it exists
// and layers environment overrides on top.
func (r *Runner) loadConfig(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	r.config.ApplyEnv()
	if err := r.config.Validate(); err != nil {
		return ctx, err
	}

	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Log.Level))
	return ctx, nil
}

// owner resolves the mailbox owner that CLI commands act for.
func (r *Runner) owner(cmd *cli.Command) (string, error) {
	userID := cmd.String("user")
	if userID == "" {
		return "", fmt.Errorf("%w: --user or JOBTRAIL_USER is required", shared.ErrMissingArgument)
	}
	return userID, nil
}

// database opens the configured database on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	dialect, err := shared.ParseDialect(r.config.Database.Driver)
	if err != nil {
		return nil, err
	}

	db, err := shared.OpenDatabase(dialect, r.config.DatabaseDSN())
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	r.db, r.ownsDB = db, true
	return db, nil
}

// Close releases the database opened by the runner.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db, r.ownsDB = nil, false
	return err
}

func (r *Runner) classifier() *classifier.Classifier {
	return classifier.FromConfig(r.config.Classifier)
}

// publisher connects to JetStream when events are configured.
func (r *Runner) publisher(ctx context.Context) (events.Publisher, error) {
	if r.config.Events.NATSURL == "" {
		return events.NopPublisher{}, nil
	}

	p, err := events.NewJetStreamPublisher(r.config.Events)
	if err != nil {
		return nil, err
	}
	if err := p.EnsureStream(ctx); err != nil {
		p.Close()
		return nil, err
	}

	r.logger.Debug("publishing events", "url", r.config.Events.NATSURL, "stream", r.config.Events.Stream)
	return p, nil
}

// newReconciler wires the sync pipeline from config. The returned cleanup func closes the event publisher.
func (r *Runner) newReconciler(ctx context.Context) (*tasks.Reconciler, func(), error) {
	db, err := r.database()
	if err != nil {
		return nil, nil, err
	}

	policy, err := tasks.ParseStatusPolicy(r.config.Sync.StatusPolicy)
	if err != nil {
		return nil, nil, err
	}

	exchanger, err := services.NewGoogleTokenExchanger(r.config.Google, r.httpClient)
	if err != nil {
		return nil, nil, err
	}

	fetcher := services.NewGmailFetcher(r.config.Sync,
		services.WithHTTPClient(r.httpClient),
		services.WithEndpoint(r.config.Google.GmailEndpoint),
		services.WithFetcherLogger(r.logger),
	)

	publisher, err := r.publisher(ctx)
	if err != nil {
		return nil, nil, err
	}

	reconciler := tasks.NewReconciler(tasks.Dependencies{
		Credentials: repositories.NewCredentialRepository(db),
		Exchanger:   exchanger,
		Fetcher:     fetcher,
		Classifier:  r.classifier(),
		Records:     repositories.NewApplicationRepository(db),
		Logs:        repositories.NewSyncLogRepository(db),
	},
		tasks.WithStatusPolicy(policy),
		tasks.WithPublisher(publisher),
		tasks.WithLogger(r.logger),
	)

	return reconciler, publisher.Close, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// hint decorates errors a user can fix from the CLI.
func hint(err error) error {
	switch {
	case errors.Is(err, shared.ErrNoRefreshToken):
		return fmt.Errorf("%w (run 'jobtrail credentials set' first)", err)
	case shared.IsAuthError(err):
		return fmt.Errorf("%w (the stored refresh token may be revoked; run 'jobtrail credentials set' again)", err)
	case errors.Is(err, shared.ErrMissingCredentials):
		return fmt.Errorf("%w (set google.client_id and google.client_secret in config.toml)", err)
	default:
		return err
	}
}
