package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Store used for dry runs and tests.
type Memory struct {
	mu   sync.Mutex
	docs map[string]map[string]any
	puts int
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[string]map[string]any)}
}

func (m *Memory) Put(ctx context.Context, path Path, fields map[string]any, merge bool) error {
	return m.Batch(ctx, []Write{{Path: path, Fields: fields, Merge: merge}})
}

func (m *Memory) Batch(_ context.Context, writes []Write) error {
	if err := validateWrites(writes); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range writes {
		key := w.Path.String()
		if existing, ok := m.docs[key]; ok && w.Merge {
			m.docs[key] = mergeFields(existing, w.Fields)
		} else {
			m.docs[key] = mergeFields(nil, w.Fields)
		}
		m.puts++
	}
	return nil
}

func (m *Memory) Get(_ context.Context, path Path) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[path.String()]
	if !ok {
		return nil, ErrNotFound
	}
	return mergeFields(nil, doc), nil
}

// Children returns the paths stored directly under parent, sorted.
func (m *Memory) Children(_ context.Context, parent Path) ([]string, error) {
	prefix := parent.String() + "/"
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k := range m.docs {
		if rest, ok := strings.CutPrefix(k, prefix); ok && rest != "" && !strings.Contains(rest, "/") {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Snapshot copies every stored document keyed by path.
func (m *Memory) Snapshot() map[string]map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[string]any, len(m.docs))
	for k, v := range m.docs {
		out[k] = mergeFields(nil, v)
	}
	return out
}

// Writes counts applied write operations.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

func (m *Memory) Close() error { return nil }
