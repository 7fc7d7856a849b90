package labs

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgallion1/coursegest/internal/sheet"
	"github.com/dgallion1/coursegest/internal/store"
)

// Target names the destination of a lab-schedule run.
type Target struct {
	YearID    string
	YearLabel string
	Semester  int
}

func (t Target) Validate() error {
	if t.YearID == "" {
		return fmt.Errorf("year id is required")
	}
	if t.Semester <= 0 {
		return fmt.Errorf("semester must be a positive number, got %d", t.Semester)
	}
	return nil
}

// YearPath is lab_schedule/{yearID}.
func YearPath(yearID string) store.Path {
	return store.NewPath("lab_schedule", yearID)
}

// SemesterPath is lab_schedule/{yearID}/semesters/{semester}.
func SemesterPath(yearID string, semester int) store.Path {
	return YearPath(yearID).Child("semesters", strconv.Itoa(semester))
}

// Ingester runs the spreadsheet pipeline against a store.
type Ingester struct {
	store store.Store
	log   *slog.Logger
	opts  Options
	now   func() time.Time
}

func NewIngester(st store.Store, log *slog.Logger, opts Options) *Ingester {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Ingester{store: st, log: log, opts: opts, now: time.Now}
}

// SetClock replaces the clock used for updatedAt.
func (in *Ingester) SetClock(now func() time.Time) {
	in.now = now
}

// Run extracts wb and writes the year label and the semester document in
// one batch. The semester document is replaced wholesale, so an identical
// workbook always produces an identical document.
func (in *Ingester) Run(ctx context.Context, wb *sheet.Workbook, t Target) (Stats, error) {
	if err := t.Validate(); err != nil {
		return Stats{}, err
	}
	sched, st := Extract(wb, in.opts, in.log)
	yearLabel := t.YearLabel
	if yearLabel == "" {
		yearLabel = t.YearID
	}

	writes := []store.Write{
		{
			Path:   YearPath(t.YearID),
			Fields: map[string]any{"year": yearLabel},
			Merge:  true,
		},
		{
			Path: SemesterPath(t.YearID, t.Semester),
			Fields: map[string]any{
				"semester":  t.Semester,
				"updatedAt": in.now().UTC(),
				"courses":   sched.Fields(),
			},
			Merge: false,
		},
	}
	if err := in.store.Batch(ctx, writes); err != nil {
		return st, fmt.Errorf("write lab schedule: %w", err)
	}
	in.log.Info("lab schedule stored",
		"year_id", t.YearID,
		"semester", t.Semester,
		"courses", st.Courses,
		"records", st.Records,
		"blocks_detected", st.BlocksDetected,
		"blocks_dropped", st.BlocksDropped,
	)
	return st, nil
}
