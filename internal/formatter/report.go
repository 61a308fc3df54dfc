package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/shared"
)

const rule = "═══════════════════════════════════════"

// column pads s to width in terminal cells. Values that would fill the column are cut with an ellipsis.
func column(s string, width int) string {
	if lipgloss.Width(s) >= width {
		s = shared.Truncate(s, width-2) + "…"
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

// RunReport renders the counters of one sync run.
func RunReport(stats models.RunStats, p *Palette) string {
	var b strings.Builder

	b.WriteString(rule + "\n")
	b.WriteString(p.OK("✓ Sync completed") + "\n")
	b.WriteString(rule + "\n")
	b.WriteString(fmt.Sprintf("Scanned: %d\n", stats.Scanned))
	b.WriteString(fmt.Sprintf("Created: %s\n", p.OK(fmt.Sprint(stats.Created))))
	b.WriteString(fmt.Sprintf("Updated: %s\n", p.Warn(fmt.Sprint(stats.Updated))))
	b.WriteString(fmt.Sprintf("Skipped: %s\n", p.Help(fmt.Sprint(stats.Skipped))))

	return b.String()
}

// StatusSummary renders record counts per status in display order. Statuses with no records are omitted.
func StatusSummary(counts map[models.Status]int, p *Palette) string {
	var b strings.Builder

	total := 0
	for _, n := range counts {
		total += n
	}

	b.WriteString(p.Title(fmt.Sprintf("Applications: %d", total)) + "\n")
	for _, st := range models.Statuses {
		n := counts[st]
		if n == 0 {
			continue
		}
		b.WriteString(column(p.Status(st), 14) + fmt.Sprintf("%d\n", n))
	}

	return b.String()
}

// ApplicationTable renders records as aligned columns.
func ApplicationTable(apps []*models.Application, p *Palette) string {
	if len(apps) == 0 {
		return p.Help("No applications found") + "\n"
	}

	var b strings.Builder
	b.WriteString(column("ID", 38) + column("Company", 24) + column("Role", 28) + column("Status", 12) + "Applied\n")
	for _, a := range apps {
		b.WriteString(column(a.ID, 38) +
			column(a.Company, 24) +
			column(shared.Deref(a.Role), 28) +
			column(p.Status(a.Status), 12) +
			formatDate(a.AppliedAt) + "\n")
	}
	return b.String()
}

// SyncLogTable renders sync audit rows newest first.
func SyncLogTable(logs []*models.SyncLog, p *Palette) string {
	if len(logs) == 0 {
		return p.Help("No sync runs recorded") + "\n"
	}

	var b strings.Builder
	b.WriteString(column("Run At", 22) + column("Status", 10) + "Scanned Created Updated Skipped\n")
	for _, l := range logs {
		b.WriteString(column(l.CreatedAt.UTC().Format("2006-01-02 15:04:05"), 22) +
			column(p.OK(l.Status), 10) +
			fmt.Sprintf("%7d %7d %7d %7d\n", l.Stats.Scanned, l.Stats.Created, l.Stats.Updated, l.Stats.Skipped))
	}
	return b.String()
}

// Classification renders one classification result.
func Classification(c models.Classification, p *Palette) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Company:    %s\n", c.Company))
	b.WriteString(fmt.Sprintf("Role:       %s\n", shared.Deref(c.Role)))
	b.WriteString(fmt.Sprintf("Status:     %s\n", p.Status(c.Status)))

	applied := c.AppliedAt.UTC().Format("2006-01-02 15:04:05")
	if c.AppliedAtEstimated {
		applied += " " + p.Warn("(estimated)")
	}
	b.WriteString(fmt.Sprintf("Applied:    %s\n", applied))
	b.WriteString(fmt.Sprintf("Confidence: %.2f\n", c.Confidence))

	return b.String()
}
