package labs

import (
	"log/slog"

	"github.com/dgallion1/coursegest/internal/normalize"
	"github.com/dgallion1/coursegest/internal/sheet"
)

// Options tunes detection. Zero fields take their defaults.
type Options struct {
	// MinHeaderHits is how many canonical fields a row must match to count
	// as a table header.
	MinHeaderHits int
	// CaptionLookback is how many rows above a header are searched for
	// the course caption.
	CaptionLookback int
	// CenturyBase is added to two-digit years.
	CenturyBase int
	Labels      []FieldLabels
}

const (
	DefaultMinHeaderHits   = 5
	DefaultCaptionLookback = 7
)

func DefaultOptions() Options {
	return Options{
		MinHeaderHits:   DefaultMinHeaderHits,
		CaptionLookback: DefaultCaptionLookback,
		CenturyBase:     normalize.DefaultCenturyBase,
		Labels:          DefaultHeaderLabels,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MinHeaderHits <= 0 {
		o.MinHeaderHits = d.MinHeaderHits
	}
	if o.CaptionLookback <= 0 {
		o.CaptionLookback = d.CaptionLookback
	}
	if o.CenturyBase == 0 {
		o.CenturyBase = d.CenturyBase
	}
	if len(o.Labels) == 0 {
		o.Labels = d.Labels
	}
	return o
}

// CourseSchedule is a course and its sessions in workbook order.
type CourseSchedule struct {
	Code string          `json:"courseCode" yaml:"courseCode"`
	Name string          `json:"courseName" yaml:"courseName"`
	Labs []SessionRecord `json:"labs" yaml:"labs"`
}

// Schedule accumulates courses across every sheet of a workbook.
type Schedule struct {
	order   []string
	courses map[string]*CourseSchedule
}

func NewSchedule() *Schedule {
	return &Schedule{courses: make(map[string]*CourseSchedule)}
}

// Add appends recs to the course, creating it on first sight. A course
// keeps the name it was first seen with.
func (s *Schedule) Add(c Course, recs []SessionRecord) {
	cs, ok := s.courses[c.Code]
	if !ok {
		cs = &CourseSchedule{Code: c.Code, Name: c.Name, Labs: []SessionRecord{}}
		s.courses[c.Code] = cs
		s.order = append(s.order, c.Code)
	}
	cs.Labs = append(cs.Labs, recs...)
}

// Course returns the schedule for code.
func (s *Schedule) Course(code string) (*CourseSchedule, bool) {
	cs, ok := s.courses[code]
	return cs, ok
}

// Courses lists courses in first-seen order.
func (s *Schedule) Courses() []*CourseSchedule {
	out := make([]*CourseSchedule, len(s.order))
	for i, code := range s.order {
		out[i] = s.courses[code]
	}
	return out
}

// Len is the number of courses.
func (s *Schedule) Len() int {
	return len(s.order)
}

// Fields renders the schedule as the nested "courses" document field.
func (s *Schedule) Fields() map[string]any {
	out := make(map[string]any, len(s.courses))
	for _, cs := range s.courses {
		labs := make([]any, len(cs.Labs))
		for i, r := range cs.Labs {
			labs[i] = r.Fields()
		}
		out[cs.Code] = map[string]any{
			"courseCode": cs.Code,
			"courseName": cs.Name,
			"labs":       labs,
		}
	}
	return out
}

// DroppedBlock is a detected table with no caption to file it under.
type DroppedBlock struct {
	Sheet     string `json:"sheet" yaml:"sheet"`
	HeaderRow int    `json:"header_row" yaml:"header_row"`
}

// Stats counts what an extraction saw.
type Stats struct {
	Sheets         int            `json:"sheets"`
	BlocksDetected int            `json:"blocks_detected"`
	BlocksDropped  int            `json:"blocks_dropped"`
	Records        int            `json:"records"`
	Courses        int            `json:"courses"`
	Dropped        []DroppedBlock `json:"dropped,omitempty"`
}

// Extract scans every sheet of wb independently and folds the captioned
// table blocks into one schedule. Blocks without a caption are dropped and
// reported in Stats.
func Extract(wb *sheet.Workbook, opts Options, log *slog.Logger) (*Schedule, Stats) {
	opts = opts.withDefaults()
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	sched := NewSchedule()
	var st Stats
	for _, sh := range wb.Sheets {
		st.Sheets++
		for _, b := range Segment(sh, opts) {
			st.BlocksDetected++
			course, ok := FindCaption(sh, b.HeaderRow, opts.CaptionLookback)
			if !ok {
				st.BlocksDropped++
				st.Dropped = append(st.Dropped, DroppedBlock{Sheet: sh.Name, HeaderRow: b.HeaderRow})
				log.Warn("table without caption dropped", "sheet", sh.Name, "header_row", b.HeaderRow, "rows", b.Rows())
				continue
			}
			recs := Assemble(sh, b, opts.CenturyBase)
			st.Records += len(recs)
			sched.Add(course, recs)
			log.Debug("table extracted", "sheet", sh.Name, "header_row", b.HeaderRow, "course", course.Code, "rows", len(recs))
		}
	}
	st.Courses = sched.Len()
	return sched, st
}
