package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dgallion1/coursegest/internal/pathstore"
)

// Remote writes through the pathstore HTTP API. Batch is applied
// sequentially; pathstore has no multi-key transaction.
type Remote struct {
	client *pathstore.Client
	source string
}

func NewRemote(client *pathstore.Client) *Remote {
	return &Remote{client: client, source: "coursegest"}
}

func (r *Remote) Put(ctx context.Context, path Path, fields map[string]any, merge bool) error {
	if err := path.Validate(); err != nil {
		return err
	}
	mode := pathstore.MergeModeReplace
	if merge {
		mode = pathstore.MergeModeMerge
	}
	return r.client.PutNode(ctx, remoteKey(path), pathstore.NodeRequest{
		Value:     fields,
		MergeMode: mode,
		Source:    r.source,
	})
}

func (r *Remote) Batch(ctx context.Context, writes []Write) error {
	if err := validateWrites(writes); err != nil {
		return err
	}
	for _, w := range writes {
		if err := r.Put(ctx, w.Path, w.Fields, w.Merge); err != nil {
			return err
		}
	}
	return nil
}

func (r *Remote) Get(ctx context.Context, path Path) (map[string]any, error) {
	node, err := r.client.GetNode(ctx, remoteKey(path))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, ErrNotFound
	}
	fields, ok := node.Value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document %s: value is %T, not an object", path, node.Value)
	}
	return fields, nil
}

func (r *Remote) Close() error {
	r.client.Close()
	return nil
}

func remoteKey(p Path) string {
	segs := make([]string, len(p))
	for i, s := range p {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
