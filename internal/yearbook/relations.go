package yearbook

import (
	"regexp"

	"github.com/dgallion1/coursegest/internal/doctree"
	"github.com/dgallion1/coursegest/internal/normalize"
)

// RelationType classifies a course dependency.
type RelationType string

const (
	Prerequisite RelationType = "PREREQUISITE"
	Corequisite  RelationType = "COREQUISITE"
)

// Relation is one dependency listed in a course row. Name is nil when the
// related course had not been seen yet.
type Relation struct {
	Code string
	Name *string
	Type RelationType
}

func (r Relation) Fields() map[string]any {
	var name any
	if r.Name != nil {
		name = *r.Name
	}
	return map[string]any{
		"courseCode": r.Code,
		"courseName": name,
		"type":       string(r.Type),
	}
}

var wordToken = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// CodeTokens returns the standalone 5 or 6 digit numbers in s. A digit run
// glued to letters is part of a longer word and does not count.
func CodeTokens(s string) []string {
	var codes []string
	for _, tok := range wordToken.FindAllString(s, -1) {
		if IsCourseCode(tok) {
			codes = append(codes, tok)
		}
	}
	return codes
}

// ExtractRelations reads the relation cell paragraph by paragraph. Codes in
// a paragraph with any underlined run are corequisites, otherwise
// prerequisites. A code listed twice keeps its first position but takes the
// type and name of its last listing.
func ExtractRelations(cell doctree.Cell, names map[string]string) []Relation {
	var out []Relation
	index := make(map[string]int)
	for _, p := range cell.Paragraphs {
		line := normalize.Text(p.Text())
		if line == "" {
			continue
		}
		codes := CodeTokens(line)
		if len(codes) == 0 {
			continue
		}
		typ := Prerequisite
		if p.Underlined() {
			typ = Corequisite
		}
		for _, code := range codes {
			rel := Relation{Code: code, Type: typ}
			if name, ok := names[code]; ok {
				rel.Name = &name
			}
			if i, ok := index[code]; ok {
				out[i] = rel
				continue
			}
			index[code] = len(out)
			out = append(out, rel)
		}
	}
	return out
}
