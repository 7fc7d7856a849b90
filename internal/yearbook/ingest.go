package yearbook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dgallion1/coursegest/internal/doctree"
	"github.com/dgallion1/coursegest/internal/normalize"
	"github.com/dgallion1/coursegest/internal/store"
)

// Target names the yearbook a document is filed under.
type Target struct {
	YearbookID string
	Label      string
}

func (t Target) Validate() error {
	if t.YearbookID == "" {
		return fmt.Errorf("yearbook id is required")
	}
	return nil
}

func RootPath(id string) store.Path {
	return store.NewPath("yearbooks", id)
}

func SemesterPath(id string, n int) store.Path {
	return RootPath(id).Child("requiredCourses", "semester_"+strconv.Itoa(n))
}

func CoursePath(id string, n int, code string) store.Path {
	return SemesterPath(id, n).Child("courses", code)
}

func RelationPath(id string, n int, code, related string) store.Path {
	return CoursePath(id, n, code).Child("relations", related)
}

// Stats counts what a yearbook run wrote.
type Stats struct {
	Semesters     int `json:"semesters"`
	Tables        int `json:"tables"`
	TablesSkipped int `json:"tables_skipped"`
	Courses       int `json:"courses"`
	RowsSkipped   int `json:"rows_skipped"`
	Relations     int `json:"relations"`
	// Pending is the number of relations written without a course name.
	Pending    int `json:"pending"`
	Resolved   int `json:"resolved"`
	Unresolved int `json:"unresolved"`
}

type pendingName struct {
	path store.Path
	code string
}

// Ingester runs the yearbook pipeline against a store.
type Ingester struct {
	store store.Store
	log   *slog.Logger
}

func NewIngester(st store.Store, log *slog.Logger) *Ingester {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Ingester{store: st, log: log}
}

// run is the state of one document walk.
type run struct {
	ctx     context.Context
	st      store.Store
	target  Target
	sems    *Semesters
	names   map[string]string
	pending []pendingName
	stats   Stats
}

// Run walks doc in body order. Semester headings, courses and relations are
// merged as they are met; relations whose course name was unknown at the
// time are patched in one batch at the end when the name has since turned up.
func (in *Ingester) Run(ctx context.Context, doc *doctree.Document, t Target) (Stats, error) {
	if err := t.Validate(); err != nil {
		return Stats{}, err
	}
	r := &run{
		ctx:    ctx,
		st:     in.store,
		target: t,
		sems:   NewSemesters(),
		names:  make(map[string]string),
	}

	root := map[string]any{"yearbookId": t.YearbookID, "displayName": t.Label}
	if err := r.st.Put(ctx, RootPath(t.YearbookID), root, true); err != nil {
		return r.stats, fmt.Errorf("write yearbook root: %w", err)
	}

	for _, b := range doc.Blocks {
		if err := ctx.Err(); err != nil {
			return r.stats, err
		}
		var err error
		switch {
		case b.Paragraph != nil:
			err = r.paragraph(*b.Paragraph)
		case b.Table != nil:
			err = r.table(b.Table)
		}
		if err != nil {
			return r.stats, err
		}
	}

	if err := r.resolvePending(); err != nil {
		return r.stats, err
	}
	in.log.Info("yearbook stored",
		"yearbook_id", t.YearbookID,
		"document", doc.Title,
		"semesters", r.sems.Seen(),
		"courses", r.stats.Courses,
		"relations", r.stats.Relations,
		"tables_skipped", r.stats.TablesSkipped,
		"pending", r.stats.Pending,
		"resolved", r.stats.Resolved,
	)
	if r.stats.Unresolved > 0 {
		in.log.Warn("relations left without course name", "yearbook_id", t.YearbookID, "count", r.stats.Unresolved)
	}
	return r.stats, nil
}

func (r *run) paragraph(p doctree.Paragraph) error {
	n, first, ok := r.sems.Observe(p.Text())
	if !ok || !first {
		return nil
	}
	r.stats.Semesters++
	path := SemesterPath(r.target.YearbookID, n)
	if err := r.st.Put(r.ctx, path, map[string]any{"semesterNumber": n}, true); err != nil {
		return fmt.Errorf("write semester %d: %w", n, err)
	}
	return nil
}

func (r *run) table(tbl *doctree.Table) error {
	sem, ok := r.sems.Active()
	if !ok || len(tbl.Rows) == 0 {
		r.stats.TablesSkipped++
		return nil
	}
	headers := cellTexts(tbl.Rows[0])
	if !IsCourseHeader(headers) {
		r.stats.TablesSkipped++
		return nil
	}
	r.stats.Tables++
	cols := LocateColumns(headers)
	for _, row := range tbl.Rows[1:] {
		if err := r.courseRow(sem, cols, row); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) courseRow(sem int, cols Columns, row doctree.Row) error {
	code := cellText(row, cols.Code)
	if !IsCourseCode(code) {
		r.stats.RowsSkipped++
		return nil
	}
	name := cellText(row, cols.Name)
	if name != "" {
		r.names[code] = name
	}

	id := r.target.YearbookID
	course := map[string]any{
		"courseCode":    code,
		"courseName":    name,
		"lectureHours":  Hours(Number(cellText(row, cols.Lecture), true)),
		"practiceHours": Hours(Number(cellText(row, cols.Practice), true)),
		"labHours":      Hours(Number(cellText(row, cols.Lab), true)),
		"credits":       Number(cellText(row, cols.Credits), false),
	}
	if err := r.st.Put(r.ctx, CoursePath(id, sem, code), course, true); err != nil {
		return fmt.Errorf("write course %s: %w", code, err)
	}
	r.stats.Courses++

	if cols.Relation < 0 || cols.Relation >= len(row.Cells) {
		return nil
	}
	for _, rel := range ExtractRelations(row.Cells[cols.Relation], r.names) {
		path := RelationPath(id, sem, code, rel.Code)
		if err := r.st.Put(r.ctx, path, rel.Fields(), true); err != nil {
			return fmt.Errorf("write relation %s -> %s: %w", code, rel.Code, err)
		}
		r.stats.Relations++
		if rel.Name == nil {
			r.pending = append(r.pending, pendingName{path: path, code: rel.Code})
			r.stats.Pending++
		}
	}
	return nil
}

func (r *run) resolvePending() error {
	var writes []store.Write
	for _, p := range r.pending {
		name, ok := r.names[p.code]
		if !ok {
			continue
		}
		writes = append(writes, store.Write{Path: p.path, Fields: map[string]any{"courseName": name}, Merge: true})
	}
	r.stats.Resolved = len(writes)
	r.stats.Unresolved = r.stats.Pending - r.stats.Resolved
	if len(writes) == 0 {
		return nil
	}
	if err := r.st.Batch(r.ctx, writes); err != nil {
		return fmt.Errorf("resolve relation names: %w", err)
	}
	return nil
}

func cellTexts(row doctree.Row) []string {
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = normalize.Text(c.Text())
	}
	return out
}

// cellText returns the normalized text at col, or "" when the row is short
// or col is -1.
func cellText(row doctree.Row, col int) string {
	if col < 0 || col >= len(row.Cells) {
		return ""
	}
	return normalize.Text(row.Cells[col].Text())
}
