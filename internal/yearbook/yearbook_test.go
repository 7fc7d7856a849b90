package yearbook

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/coursegest/internal/doctree"
	"github.com/dgallion1/coursegest/internal/store"
)

func para(runs ...doctree.Run) doctree.Paragraph {
	return doctree.Paragraph{Runs: runs}
}

func plain(s string) doctree.Run     { return doctree.Run{Text: s} }
func underlined(s string) doctree.Run { return doctree.Run{Text: s, Underline: true} }

func TestSemesters(t *testing.T) {
	s := NewSemesters()
	_, ok := s.Active()
	assert.False(t, ok)

	n, first, ok := s.Observe("שנה א' סמסטר 3")
	assert.True(t, ok)
	assert.True(t, first)
	assert.Equal(t, 3, n)

	n, first, ok = s.Observe("סמסטר3 (המשך)")
	assert.True(t, ok)
	assert.False(t, first)
	assert.Equal(t, 3, n)

	_, _, ok = s.Observe("סמסטר 9")
	assert.False(t, ok)
	_, _, ok = s.Observe("קורסי בחירה")
	assert.False(t, ok)

	active, ok := s.Active()
	assert.True(t, ok)
	assert.Equal(t, 3, active, "non-heading paragraphs keep the active semester")

	s.Observe("סמסטר 1")
	active, _ = s.Active()
	assert.Equal(t, 1, active)
	assert.Equal(t, []int{3, 1}, s.Seen())
}

func TestLocateColumns_Abbreviations(t *testing.T) {
	cols := LocateColumns([]string{"קוד", "שם הקורס", "ה", "ת", "מ", `נ"ז`, "דרישות קדם / צמוד"})
	assert.Equal(t, Columns{Code: 0, Name: 1, Lecture: 2, Practice: 3, Lab: 4, Credits: 5, Relation: 6}, cols)
}

func TestLocateColumns_FullLabelsBeforeAbbreviations(t *testing.T) {
	// "מעבדה" contains the letter ה; it must not be taken as the lecture column.
	cols := LocateColumns([]string{"קוד", "שם הקורס", "מעבדה", "הרצאה", "נקודות זכות"})
	assert.Equal(t, 3, cols.Lecture)
	assert.Equal(t, 2, cols.Lab)
	assert.Equal(t, -1, cols.Practice)
	assert.Equal(t, 4, cols.Credits)
	assert.Equal(t, -1, cols.Relation)
}

func TestLocateColumns_QuotedAbbreviationsAndGershayim(t *testing.T) {
	cols := LocateColumns([]string{"קוד", "שם הקורס", `"ה"`, "ת'", "נ״ז"})
	assert.Equal(t, 2, cols.Lecture)
	assert.Equal(t, 3, cols.Practice)
	assert.Equal(t, -1, cols.Lab)
	assert.Equal(t, 4, cols.Credits)
}

func TestIsCourseHeader(t *testing.T) {
	assert.True(t, IsCourseHeader([]string{"קוד", "שם הקורס"}))
	assert.False(t, IsCourseHeader([]string{"קוד", "שם"}))
	assert.False(t, IsCourseHeader(nil))
}

func TestNumber(t *testing.T) {
	tests := []struct {
		text string
		dash bool
		want any
	}{
		{"", true, nil},
		{"-", true, 0},
		{"-", false, nil},
		{"3", false, 3},
		{"2.5", false, 2.5},
		{"abc", true, nil},
		{"3a", true, nil},
		{"1,5", true, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Number(tt.text, tt.dash), "%q dash=%v", tt.text, tt.dash)
	}
}

func TestHours(t *testing.T) {
	assert.Equal(t, 0, Hours(0))
	assert.Equal(t, 10, Hours(10))
	assert.Equal(t, 1.5, Hours(1.5))
	assert.Nil(t, Hours(11))
	assert.Nil(t, Hours(10.5))
	assert.Nil(t, Hours(nil))
}

func TestIsCourseCode(t *testing.T) {
	assert.True(t, IsCourseCode("12345"))
	assert.True(t, IsCourseCode("123456"))
	assert.False(t, IsCourseCode("1234"))
	assert.False(t, IsCourseCode("1234567"))
	assert.False(t, IsCourseCode("12345 "))
	assert.False(t, IsCourseCode("הערה"))
}

func TestCodeTokens(t *testing.T) {
	got := CodeTokens("קורס 12345, 678901 ו-1234 א123456 1234567 (55555)")
	assert.Equal(t, []string{"12345", "678901", "55555"}, got)
	assert.Empty(t, CodeTokens("אין דרישות"))
}

func TestExtractRelations_PerParagraphFormatting(t *testing.T) {
	cell := doctree.Cell{Paragraphs: []doctree.Paragraph{
		para(underlined("12345")),
		para(plain("67890")),
	}}
	rels := ExtractRelations(cell, map[string]string{"67890": "כימיה כללית"})
	require.Len(t, rels, 2)

	assert.Equal(t, "12345", rels[0].Code)
	assert.Equal(t, Corequisite, rels[0].Type)
	assert.Nil(t, rels[0].Name)

	assert.Equal(t, "67890", rels[1].Code)
	assert.Equal(t, Prerequisite, rels[1].Type)
	require.NotNil(t, rels[1].Name)
	assert.Equal(t, "כימיה כללית", *rels[1].Name)
}

func TestExtractRelations_MixedRunsMarkWholeParagraph(t *testing.T) {
	cell := doctree.Cell{Paragraphs: []doctree.Paragraph{
		para(plain("12345 "), underlined("ו-67890")),
	}}
	rels := ExtractRelations(cell, nil)
	require.Len(t, rels, 2)
	assert.Equal(t, Corequisite, rels[0].Type)
	assert.Equal(t, Corequisite, rels[1].Type)
}

func TestExtractRelations_DedupLastWinsFirstPositionKept(t *testing.T) {
	cell := doctree.Cell{Paragraphs: []doctree.Paragraph{
		para(plain("11111 22222")),
		para(),
		para(plain("   ")),
		para(underlined("11111")),
	}}
	rels := ExtractRelations(cell, nil)
	require.Len(t, rels, 2)
	assert.Equal(t, "11111", rels[0].Code)
	assert.Equal(t, Corequisite, rels[0].Type)
	assert.Equal(t, "22222", rels[1].Code)
	assert.Equal(t, Prerequisite, rels[1].Type)
}

func TestRelationFields(t *testing.T) {
	name := "מבוא"
	assert.Equal(t, map[string]any{"courseCode": "11111", "courseName": "מבוא", "type": "PREREQUISITE"},
		Relation{Code: "11111", Name: &name, Type: Prerequisite}.Fields())
	f := Relation{Code: "11111", Type: Corequisite}.Fields()
	assert.Contains(t, f, "courseName")
	assert.Nil(t, f["courseName"])
}

var header = doctree.TextRow("קוד", "שם הקורס", "ה", "ת", "מ", `נ"ז`, "קדם/צמוד")

func sampleDocument() *doctree.Document {
	relCell := doctree.Cell{Paragraphs: []doctree.Paragraph{
		para(plain("11111")),
		para(underlined("22222")),
	}}
	advanced := doctree.Row{Cells: []doctree.Cell{
		doctree.TextCell("11112"), doctree.TextCell("מתקדם"),
		doctree.TextCell(""), doctree.TextCell(""), doctree.TextCell(""), doctree.TextCell(""),
		relCell,
	}}
	return &doctree.Document{Blocks: []doctree.Block{
		doctree.P(plain("תוכנית לימודים")),
		doctree.T(header, doctree.TextRow("33333", "לפני סמסטר", "1", "1", "1", "1", "")),
		doctree.P(plain("סמסטר 1")),
		doctree.T(header,
			doctree.TextRow("11111", "מבוא", "3", "1", "-", "4", ""),
			advanced,
			doctree.TextRow("הערה", "הקורסים מתקיימים בבוקר"),
		),
		doctree.P(plain("סמסטר "), plain("2")),
		doctree.T(header, doctree.TextRow("22222", "המשך", "12", "2", "0", "3.5", "")),
		doctree.T(doctree.TextRow("a", "b")),
	}}
}

func TestIngester_LogsSemesterOrderAndDocument(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	doc := sampleDocument()
	doc.Title = "yearbook-2025"
	_, err := NewIngester(store.NewMemory(), log).Run(context.Background(), doc, Target{YearbookID: "yb"})
	require.NoError(t, err)

	var line struct {
		Msg       string `json:"msg"`
		Document  string `json:"document"`
		Semesters []int  `json:"semesters"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line), buf.String())
	assert.Equal(t, "yearbook stored", line.Msg)
	assert.Equal(t, "yearbook-2025", line.Document)
	assert.Equal(t, []int{1, 2}, line.Semesters)
}

func TestIngester_Run(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	st, err := NewIngester(mem, nil).Run(ctx, sampleDocument(), Target{YearbookID: "yb", Label: "שנתון"})
	require.NoError(t, err)

	assert.Equal(t, Stats{
		Semesters: 2, Tables: 2, TablesSkipped: 2, Courses: 3, RowsSkipped: 1,
		Relations: 2, Pending: 1, Resolved: 1, Unresolved: 0,
	}, st)

	get := func(p store.Path) map[string]any {
		t.Helper()
		doc, err := mem.Get(ctx, p)
		require.NoError(t, err, p.String())
		return doc
	}

	assert.Equal(t, map[string]any{"yearbookId": "yb", "displayName": "שנתון"}, get(RootPath("yb")))
	assert.Equal(t, map[string]any{"semesterNumber": 1}, get(SemesterPath("yb", 1)))
	assert.Equal(t, map[string]any{"semesterNumber": 2}, get(SemesterPath("yb", 2)))

	assert.Equal(t, map[string]any{
		"courseCode": "11111", "courseName": "מבוא",
		"lectureHours": 3, "practiceHours": 1, "labHours": 0, "credits": 4,
	}, get(CoursePath("yb", 1, "11111")))

	adv := get(CoursePath("yb", 1, "11112"))
	assert.Nil(t, adv["lectureHours"])
	assert.Nil(t, adv["credits"])

	later := get(CoursePath("yb", 2, "22222"))
	assert.Nil(t, later["lectureHours"], "hours above 10 are dropped")
	assert.Equal(t, 3.5, later["credits"])

	assert.Equal(t, map[string]any{"courseCode": "11111", "courseName": "מבוא", "type": "PREREQUISITE"},
		get(RelationPath("yb", 1, "11112", "11111")))
	assert.Equal(t, map[string]any{"courseCode": "22222", "courseName": "המשך", "type": "COREQUISITE"},
		get(RelationPath("yb", 1, "11112", "22222")), "name patched after the walk")

	_, err = mem.Get(ctx, CoursePath("yb", 1, "33333"))
	assert.ErrorIs(t, err, store.ErrNotFound, "tables before any semester heading are ignored")
}

func TestIngester_UnresolvedNameStaysNull(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	doc := &doctree.Document{Blocks: []doctree.Block{
		doctree.P(plain("סמסטר 4")),
		doctree.T(doctree.TextRow("קוד", "שם הקורס", "דרישות קדם"), doctree.TextRow("44444", "סמינר", "99999")),
	}}
	st, err := NewIngester(mem, nil).Run(ctx, doc, Target{YearbookID: "yb"})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, 0, st.Resolved)
	assert.Equal(t, 1, st.Unresolved)

	rel, err := mem.Get(ctx, RelationPath("yb", 4, "44444", "99999"))
	require.NoError(t, err)
	assert.Contains(t, rel, "courseName")
	assert.Nil(t, rel["courseName"])
}

func TestIngester_Idempotent(t *testing.T) {
	ctx := context.Background()
	target := Target{YearbookID: "yb", Label: "2025"}

	once := store.NewMemory()
	_, err := NewIngester(once, nil).Run(ctx, sampleDocument(), target)
	require.NoError(t, err)

	twice := store.NewMemory()
	for range 2 {
		_, err := NewIngester(twice, nil).Run(ctx, sampleDocument(), target)
		require.NoError(t, err)
	}
	assert.Equal(t, once.Snapshot(), twice.Snapshot())
}

func TestIngester_RequiresID(t *testing.T) {
	_, err := NewIngester(store.NewMemory(), nil).Run(context.Background(), &doctree.Document{}, Target{})
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	assert.Equal(t, "yearbooks/yb/requiredCourses/semester_1/courses/11112/relations/22222",
		RelationPath("yb", 1, "11112", "22222").String())
}
