package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/jobtrail/internal/formatter"
	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/repositories"
	"github.com/desertthunder/jobtrail/internal/shared"
	"github.com/desertthunder/jobtrail/internal/tasks"
	"github.com/urfave/cli/v3"
)

type syncResult struct {
	OK    bool             `json:"ok"`
	Stats *models.RunStats `json:"stats"`
}

// SyncRun reconciles the owner's mailbox once and prints the run report.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}
	useJSON := cmd.Bool("json")

	reconciler, cleanup, err := r.newReconciler(ctx)
	if err != nil {
		return hint(err)
	}
	defer cleanup()

	var progressCh chan tasks.ProgressUpdate
	done := make(chan struct{})
	if useJSON {
		close(done)
	} else {
		progressCh = make(chan tasks.ProgressUpdate, 50)
		go func() {
			defer close(done)
			for update := range progressCh {
				switch update.Phase {
				case tasks.Authenticate:
					r.writePlain("🔑 %s\n", update.Message)
				case tasks.FetchMessages:
					r.writePlain("📥 %s\n", update.Message)
				case tasks.Reconcile:
					r.writePlain("   %s\n", update.Message)
				case tasks.RecordRun:
					r.writePlain("\n📝 %s\n", update.Message)
				}
			}
		}()
	}

	stats, err := reconciler.Run(ctx, userID, progressCh)
	if progressCh != nil {
		close(progressCh)
	}
	<-done

	if err != nil {
		return hint(err)
	}

	if useJSON {
		return r.writeJSON(syncResult{OK: true, Stats: stats}, true)
	}
	return r.writePlain("\n%s", formatter.RunReport(*stats, r.palette))
}

// Classify runs the classifier over one message. With --email-id the message is fetched from Gmail,
// otherwise the headers and snippet come from flags and no relevance check is applied.
func (r *Runner) Classify(ctx context.Context, cmd *cli.Command) error {
	emailID := cmd.String("email-id")
	snippet := cmd.String("snippet")

	var c *models.Classification
	switch {
	case emailID != "":
		userID, err := r.owner(cmd)
		if err != nil {
			return err
		}

		reconciler, cleanup, err := r.newReconciler(ctx)
		if err != nil {
			return hint(err)
		}
		defer cleanup()

		if c, err = reconciler.ClassifyMessage(ctx, userID, emailID); err != nil {
			return hint(err)
		}
	case snippet != "":
		headers := models.NormalizeHeaders(map[string]string{
			"From":    cmd.String("from"),
			"Subject": cmd.String("subject"),
			"Date":    cmd.String("date"),
		})
		result := r.classifier().Classify(headers, snippet)
		c = &result
	default:
		return fmt.Errorf("%w: either --email-id or --snippet must be provided", shared.ErrMissingArgument)
	}

	if cmd.Bool("json") {
		return r.writeJSON(c, true)
	}
	return r.writePlain("%s", formatter.Classification(*c, r.palette))
}

// ReportsList prints the owner's recent sync runs.
func (r *Runner) ReportsList(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}

	limit := cmd.Int("limit")
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidArgument)
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	logs, err := repositories.NewSyncLogRepository(db).List(ctx, userID, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if logs == nil {
			logs = []*models.SyncLog{}
		}
		return r.writeJSON(logs, true)
	}

	r.writePlainHeader("Sync runs for " + userID)
	return r.writePlain("%s", formatter.SyncLogTable(logs, r.palette))
}
