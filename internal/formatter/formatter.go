// package formatter provides functions to export application records to various formats (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/shared"
)

// Format is an export file format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatText     Format = "txt"
)

// ParseFormat validates an export format name. "markdown" is accepted for md.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "txt", "text":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
	}
}

const dateLayout = "2006-01-02"

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

// ExportToCSV converts records to CSV with columns: ID, Company, Role, Status, Source, Location, Applied At, Job Post URL, Email ID
func ExportToCSV(apps []*models.Application) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Company", "Role", "Status", "Source", "Location", "Applied At", "Job Post URL", "Email ID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, a := range apps {
		record := []string{
			a.ID,
			a.Company,
			shared.Deref(a.Role),
			a.Status.String(),
			string(a.Source),
			shared.Deref(a.Location),
			formatDate(a.AppliedAt),
			shared.Deref(a.JobPostURL),
			shared.Deref(a.EmailID),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// cell escapes pipes and newlines for a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// ExportToMarkdown converts records to a Markdown document with a status summary and a table
func ExportToMarkdown(title string, apps []*models.Application) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Applications"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Applications**: %d\n\n", len(apps)))

	counts := CountStatuses(apps)
	if len(counts) > 0 {
		buf.WriteString("## Status\n\n")
		for _, st := range models.Statuses {
			if n := counts[st]; n > 0 {
				buf.WriteString(fmt.Sprintf("- %s: %d\n", st, n))
			}
		}
		buf.WriteString("\n")
	}

	buf.WriteString("## Records\n\n")
	buf.WriteString("| Company | Role | Status | Applied | Source |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, a := range apps {
		company := cell(a.Company)
		if url := shared.Deref(a.JobPostURL); url != "" {
			company = fmt.Sprintf("[%s](%s)", company, url)
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			company, cell(shared.Deref(a.Role)), a.Status, formatDate(a.AppliedAt), a.Source))
	}

	return buf.Bytes(), nil
}

// ExportToText converts records to plain text format
func ExportToText(apps []*models.Application) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Applications: %d\n\n", len(apps)))
	for i, a := range apps {
		line := fmt.Sprintf("%d. %s", i+1, a.Company)
		if role := shared.Deref(a.Role); role != "" {
			line += " - " + role
		}
		line += fmt.Sprintf(" [%s]", a.Status)
		if d := formatDate(a.AppliedAt); d != "" {
			line += " " + d
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts records to indented JSON
func ExportToJSON(apps []*models.Application) ([]byte, error) {
	if apps == nil {
		apps = []*models.Application{}
	}
	data, err := json.MarshalIndent(apps, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Export renders records in the requested format.
func Export(f Format, title string, apps []*models.Application) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ExportToCSV(apps)
	case FormatMarkdown:
		return ExportToMarkdown(title, apps)
	case FormatJSON:
		return ExportToJSON(apps)
	case FormatText:
		return ExportToText(apps)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, f)
	}
}

// WriteExport renders records and writes them to path.
//
// Defaults to applications.{format} as the filename.
func WriteExport(f Format, apps []*models.Application, path string) (string, error) {
	if path == "" {
		path = "applications." + string(f)
	}

	data, err := Export(f, "", apps)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s export: %w", f, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// CountStatuses tallies records per status.
func CountStatuses(apps []*models.Application) map[models.Status]int {
	counts := make(map[models.Status]int)
	for _, a := range apps {
		counts[a.Status]++
	}
	return counts
}
