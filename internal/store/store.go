// Package store abstracts the hierarchical document store the extractors
// write into: collections of documents addressed by path segments, written
// with either a full replace or a shallow field merge.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when no document lives at the path.
var ErrNotFound = errors.New("document not found")

// Path addresses a document, e.g. {"yearbooks", "2025", "requiredCourses", "semester_1"}.
type Path []string

// NewPath builds a path from segments.
func NewPath(segs ...string) Path {
	return Path(segs)
}

// ParsePath splits a slash-separated path, dropping empty segments.
func ParsePath(s string) Path {
	var p Path
	for _, seg := range strings.Split(s, "/") {
		if seg = strings.TrimSpace(seg); seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// Child returns a new path extended by segs. The receiver is not modified.
func (p Path) Child(segs ...string) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

func (p Path) String() string {
	return strings.Join(p, "/")
}

// Validate rejects empty paths and segments that are empty or contain '/'.
func (p Path) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("empty path")
	}
	for i, seg := range p {
		if seg == "" {
			return fmt.Errorf("path %q: segment %d is empty", p.String(), i)
		}
		if strings.Contains(seg, "/") {
			return fmt.Errorf("path %q: segment %q contains '/'", p.String(), seg)
		}
	}
	return nil
}

// Write is one put operation.
type Write struct {
	Path   Path
	Fields map[string]any
	Merge  bool
}

// Store is the persistence capability handed to the ingesters.
type Store interface {
	// Put replaces the document at path with fields, or with merge set,
	// overwrites only the given top-level fields.
	Put(ctx context.Context, path Path, fields map[string]any, merge bool) error
	// Batch applies writes in order, atomically where the backend allows.
	Batch(ctx context.Context, writes []Write) error
	// Get returns the document at path or ErrNotFound.
	Get(ctx context.Context, path Path) (map[string]any, error)
	Close() error
}

// Lister is implemented by stores that can enumerate the documents stored
// directly under a path.
type Lister interface {
	Children(ctx context.Context, parent Path) ([]string, error)
}

// mergeFields applies src onto a copy of dst.
func mergeFields(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}

func validateWrites(writes []Write) error {
	for _, w := range writes {
		if err := w.Path.Validate(); err != nil {
			return err
		}
	}
	return nil
}
