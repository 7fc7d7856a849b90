// Package report renders a finished run as Markdown and HTML.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/coursegest/internal/labs"
	"github.com/dgallion1/coursegest/internal/yearbook"
)

// Run is what a report describes. Exactly one of Labs and Yearbook is set
// once the run has finished.
type Run struct {
	JobID      string
	Kind       string
	Filename   string
	Target     string
	Status     string
	Attempts   int
	StartedAt  time.Time
	FinishedAt time.Time
	Labs       *labs.Stats
	Yearbook   *yearbook.Stats
	Errors     []string
}

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Markdown renders r as a Markdown document.
func Markdown(r Run) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s run %s\n\n", r.Kind, r.JobID)

	b.WriteString("| | |\n|---|---|\n")
	row(&b, "File", r.Filename)
	row(&b, "Target", r.Target)
	row(&b, "Status", r.Status)
	row(&b, "Attempts", r.Attempts)
	if !r.StartedAt.IsZero() {
		row(&b, "Started", r.StartedAt.UTC().Format(time.RFC3339))
	}
	if !r.FinishedAt.IsZero() && !r.StartedAt.IsZero() {
		row(&b, "Duration", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}

	if s := r.Labs; s != nil {
		b.WriteString("\n## Lab schedule\n\n| Count | Value |\n|---|---|\n")
		row(&b, "Sheets", s.Sheets)
		row(&b, "Tables detected", s.BlocksDetected)
		row(&b, "Tables without caption", s.BlocksDropped)
		row(&b, "Sessions", s.Records)
		row(&b, "Courses", s.Courses)
		if len(s.Dropped) > 0 {
			b.WriteString("\nTables dropped for lack of a course caption:\n\n")
			for _, d := range s.Dropped {
				fmt.Fprintf(&b, "- sheet `%s`, header row %d\n", d.Sheet, d.HeaderRow)
			}
		}
	}

	if s := r.Yearbook; s != nil {
		b.WriteString("\n## Yearbook\n\n| Count | Value |\n|---|---|\n")
		row(&b, "Semesters", s.Semesters)
		row(&b, "Course tables", s.Tables)
		row(&b, "Tables skipped", s.TablesSkipped)
		row(&b, "Courses", s.Courses)
		row(&b, "Rows skipped", s.RowsSkipped)
		row(&b, "Relations", s.Relations)
		row(&b, "Names resolved late", s.Resolved)
		row(&b, "Names unresolved", s.Unresolved)
	}

	if len(r.Errors) > 0 {
		b.WriteString("\n## Errors\n\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	return b.String()
}

// HTML renders r as an HTML fragment.
func HTML(r Run) ([]byte, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(r)), &buf); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}

func row(b *strings.Builder, label string, v any) {
	s := strings.ReplaceAll(fmt.Sprint(v), "|", `\|`)
	fmt.Fprintf(b, "| %s | %s |\n", label, s)
}
