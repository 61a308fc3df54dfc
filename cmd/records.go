package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/jobtrail/internal/formatter"
	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/repositories"
	"github.com/desertthunder/jobtrail/internal/server"
	"github.com/desertthunder/jobtrail/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) applications() (*repositories.ApplicationRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, err
	}
	return repositories.NewApplicationRepository(db), nil
}

// criteria builds list filters for the owner from --status and --source.
func criteria(userID string, cmd *cli.Command) (map[string]any, error) {
	c := map[string]any{"user_id": userID}
	if s := cmd.String("status"); s != "" {
		st, err := models.ParseStatus(s)
		if err != nil {
			return nil, err
		}
		c["status"] = st
	}
	if s := cmd.String("source"); s != "" {
		src, err := models.ParseSource(s)
		if err != nil {
			return nil, err
		}
		c["source"] = src
	}
	return c, nil
}

func parseDate(s string) (*time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%w: applied date must be YYYY-MM-DD, got %q", shared.ErrInvalidArgument, s)
	}
	t = t.UTC()
	return &t, nil
}

// patchFrom collects the record flags that were set on the command line.
func patchFrom(cmd *cli.Command) (models.ApplicationPatch, error) {
	var p models.ApplicationPatch
	str := func(name string) *string {
		if !cmd.IsSet(name) {
			return nil
		}
		v := cmd.String(name)
		return &v
	}

	p.Company = str("company")
	p.Role = str("role")
	p.Location = str("location")
	p.JobPostURL = str("url")
	if s := str("status"); s != nil {
		st := models.Status(*s)
		p.Status = &st
	}
	if s := str("applied"); s != nil {
		t, err := parseDate(*s)
		if err != nil {
			return p, err
		}
		p.AppliedAt = t
	}
	return p, nil
}

// RecordsList prints the owner's records, newest first.
func (r *Runner) RecordsList(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}
	filters, err := criteria(userID, cmd)
	if err != nil {
		return err
	}

	repo, err := r.applications()
	if err != nil {
		return err
	}
	apps, err := repo.List(ctx, filters)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if apps == nil {
			apps = []*models.Application{}
		}
		return r.writeJSON(apps, true)
	}
	return r.writePlain("%s", formatter.ApplicationTable(apps, r.palette))
}

// RecordsAdd creates a manual record.
func (r *Runner) RecordsAdd(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}

	app, err := server.NewManualApplication(userID, cmd.String("company"), cmd.String("status"))
	if err != nil {
		return err
	}

	// company and status are set by NewManualApplication
	patch, err := patchFrom(cmd)
	if err != nil {
		return err
	}
	patch.Company, patch.Status = nil, nil
	if err := patch.Apply(app); err != nil {
		return err
	}

	repo, err := r.applications()
	if err != nil {
		return err
	}
	if err := repo.Create(ctx, app); err != nil {
		return err
	}

	r.logger.Debug("record created", "id", app.ID)
	return r.writePlain("✓ Added %s (%s) %s\n", app.Company, r.palette.Status(app.Status), app.ID)
}

// RecordsUpdate applies the set flags to one of the owner's records.
func (r *Runner) RecordsUpdate(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: record id", shared.ErrMissingArgument)
	}

	patch, err := patchFrom(cmd)
	if err != nil {
		return err
	}

	repo, err := r.applications()
	if err != nil {
		return err
	}
	app, err := r.owned(ctx, repo, userID, id)
	if err != nil {
		return err
	}
	if err := patch.Apply(app); err != nil {
		return err
	}
	if err := repo.Update(ctx, app); err != nil {
		return err
	}

	return r.writePlain("✓ Updated %s (%s)\n", app.Company, r.palette.Status(app.Status))
}

// RecordsDelete removes one of the owner's records.
func (r *Runner) RecordsDelete(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: record id", shared.ErrMissingArgument)
	}

	repo, err := r.applications()
	if err != nil {
		return err
	}
	if _, err := r.owned(ctx, repo, userID, id); err != nil {
		return err
	}
	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	return r.writePlain("✓ Deleted %s\n", id)
}

func (r *Runner) owned(ctx context.Context, repo *repositories.ApplicationRepository, userID, id string) (*models.Application, error) {
	app, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, fmt.Errorf("%w: application %s", shared.ErrNotFound, id)
	}
	return app, nil
}

// RecordsExport writes the owner's records to a file in the requested format.
func (r *Runner) RecordsExport(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	filters, err := criteria(userID, cmd)
	if err != nil {
		return err
	}

	repo, err := r.applications()
	if err != nil {
		return err
	}
	apps, err := repo.List(ctx, filters)
	if err != nil {
		return err
	}

	path, err := formatter.WriteExport(format, apps, cmd.String("output"))
	if err != nil {
		return err
	}

	r.logger.Info("export written", "path", path, "records", len(apps))
	return r.writePlain("✓ Exported %d records to %s\n", len(apps), path)
}

type summaryResult struct {
	Total    int                   `json:"total"`
	ByStatus map[models.Status]int `json:"by_status"`
}

// RecordsSummary prints record counts per status.
func (r *Runner) RecordsSummary(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}

	repo, err := r.applications()
	if err != nil {
		return err
	}
	counts, err := repo.CountByStatus(ctx, userID)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		total := 0
		for _, n := range counts {
			total += n
		}
		return r.writeJSON(summaryResult{Total: total, ByStatus: counts}, true)
	}
	return r.writePlain("%s", formatter.StatusSummary(counts, r.palette))
}
