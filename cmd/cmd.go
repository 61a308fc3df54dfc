// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/urfave/cli/v3"
)

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and database",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a config.toml from the bundled template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Replace an existing config file with defaults",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
		},
	}
}

// credentialsCommand manages the stored Google refresh token
func credentialsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "credentials",
		Aliases: []string{"creds"},
		Usage:   "Manage the linked Gmail account",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Store a Google refresh token for the owner",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "refresh-token",
						Usage:    "Google OAuth refresh token with gmail.readonly scope",
						Sources:  cli.EnvVars("GOOGLE_REFRESH_TOKEN"),
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "verify",
						Usage: "Exchange the token once before storing it",
					},
				},
				Action: r.CredentialsSet,
			},
			{
				Name:  "status",
				Usage: "Show whether a refresh token is stored",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "verify",
						Usage: "Exchange the stored token to check it is still valid",
					},
				},
				Action: r.CredentialsStatus,
			},
			{
				Name:   "delete",
				Usage:  "Remove the stored refresh token",
				Action: r.CredentialsDelete,
			},
		},
	}
}

// tokenCommand issues bearer tokens for the HTTP API
func tokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue API bearer tokens",
		Commands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "Sign an HS256 token for the owner with auth.jwt_secret",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime",
						Value: 24 * time.Hour,
					},
				},
				Action: r.TokenIssue,
			},
		},
	}
}

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile the mailbox into application records",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run one sync for the owner",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output the run report as JSON",
					},
				},
				Action: r.SyncRun,
			},
		},
	}
}

func classifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "classify",
		Usage: "Classify one message by id or from raw headers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "email-id",
				Usage: "Gmail message id to fetch and classify",
			},
			&cli.StringFlag{
				Name:  "from",
				Usage: "From header",
			},
			&cli.StringFlag{
				Name:  "subject",
				Usage: "Subject header",
			},
			&cli.StringFlag{
				Name:  "date",
				Usage: "Date header (RFC 5322)",
			},
			&cli.StringFlag{
				Name:  "snippet",
				Usage: "Message snippet",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Classify,
	}
}

func recordsCommand(r *Runner) *cli.Command {
	recordFlags := []cli.Flag{
		&cli.StringFlag{Name: "company", Usage: "Company name"},
		&cli.StringFlag{Name: "role", Usage: "Role title"},
		&cli.StringFlag{Name: "location", Usage: "Location"},
		&cli.StringFlag{Name: "status", Usage: "Status (applied, assessment, interview, offer, rejected, ghosted, withdrawn, other)"},
		&cli.StringFlag{Name: "url", Usage: "Job post URL"},
		&cli.StringFlag{Name: "applied", Usage: "Applied date (YYYY-MM-DD)"},
	}

	return &cli.Command{
		Name:    "records",
		Aliases: []string{"apps"},
		Usage:   "Manage application records",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List application records",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "Only records with this status"},
					&cli.StringFlag{Name: "source", Usage: "Only records from this source (gmail, manual)"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.RecordsList,
			},
			{
				Name:   "add",
				Usage:  "Add a manual record",
				Flags:  recordFlags,
				Action: r.RecordsAdd,
			},
			{
				Name:      "update",
				Usage:     "Update fields of a record",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     recordFlags,
				Action:    r.RecordsUpdate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a record",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.RecordsDelete,
			},
			{
				Name:  "export",
				Usage: "Export records to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Export format (csv, md, json, txt)",
						Value:   "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
					&cli.StringFlag{Name: "status", Usage: "Only records with this status"},
				},
				Action: r.RecordsExport,
			},
			{
				Name:  "summary",
				Usage: "Count records per status",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.RecordsSummary,
			},
		},
	}
}

func reportsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reports",
		Usage: "Inspect the sync audit log",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent sync runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.ReportsList,
			},
		},
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides server.host and server.port",
			},
		},
		Action: r.Serve,
	}
}
