package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Collection is one named set of records persisted as a single file.
// Every mutation loads the whole file, changes it in memory and rewrites
// it. The mutex serializes read-modify-write cycles within this process
// only; nothing guards against a second process writing the same file.
type Collection[V any] struct {
	name     string
	path     string
	compress bool
	tracer   trace.Tracer

	mu sync.Mutex
}

func newCollection[V any](dir, name string, compress bool, tracer trace.Tracer) *Collection[V] {
	return &Collection[V]{
		name:     name,
		path:     filepath.Join(dir, name+fileExt),
		compress: compress,
		tracer:   tracer,
	}
}

// Name returns the collection name.
func (c *Collection[V]) Name() string { return c.name }

// Path returns the backing file path.
func (c *Collection[V]) Path() string { return c.path }

// Get returns the record stored under key and whether it exists.
func (c *Collection[V]) Get(ctx context.Context, key string) (V, bool, error) {
	records, err := c.All(ctx)
	if err != nil {
		var zero V
		return zero, false, err
	}
	v, ok := records[key]
	return v, ok, nil
}

// All returns the full collection.
func (c *Collection[V]) All(ctx context.Context) (map[string]V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Put stores v under key, replacing any previous record.
func (c *Collection[V]) Put(ctx context.Context, key string, v V) error {
	return c.Update(ctx, func(records map[string]V) (bool, error) {
		records[key] = v
		return true, nil
	})
}

// Delete removes key and reports whether it existed. A missing key leaves
// the file untouched.
func (c *Collection[V]) Delete(ctx context.Context, key string) (bool, error) {
	var existed bool
	err := c.Update(ctx, func(records map[string]V) (bool, error) {
		if _, existed = records[key]; existed {
			delete(records, key)
		}
		return existed, nil
	})
	return existed, err
}

// Update loads the collection, applies fn and rewrites the file when fn
// reports a change.
func (c *Collection[V]) Update(ctx context.Context, fn func(records map[string]V) (bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(records)
	if err != nil || !changed {
		return err
	}
	return c.save(ctx, records)
}

// ensure creates the backing file holding seed when it does not exist yet.
// It reports whether the file was created.
func (c *Collection[V]) ensure(ctx context.Context, seed map[string]V) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := os.Stat(c.path)
	switch {
	case err == nil:
		return false, nil
	case !errors.Is(err, os.ErrNotExist):
		return false, c.fault("stat", err)
	}
	if seed == nil {
		seed = make(map[string]V)
	}
	if err := c.save(ctx, seed); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Collection[V]) load(ctx context.Context) (_ map[string]V, rerr error) {
	ctx, span := c.tracer.Start(ctx, "filestore.load", trace.WithAttributes(
		attribute.String("collection", c.name),
	))
	defer func() { endSpan(span, rerr) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(map[string]V), nil
		}
		return nil, c.fault("read", err)
	}

	records, err := decodeCollection[V](c.name, data)
	if err != nil {
		return nil, c.fault("decode", fmt.Errorf("%w: %w", ErrCorrupt, err))
	}
	span.SetAttributes(attribute.Int("records", len(records)))
	return records, nil
}

func (c *Collection[V]) save(ctx context.Context, records map[string]V) (rerr error) {
	ctx, span := c.tracer.Start(ctx, "filestore.save", trace.WithAttributes(
		attribute.String("collection", c.name),
		attribute.Int("records", len(records)),
	))
	defer func() { endSpan(span, rerr) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encodeCollection(c.name, records, c.compress)
	if err != nil {
		return c.fault("encode", err)
	}
	if err := writeFileAtomic(c.path, data); err != nil {
		return c.fault("write", err)
	}
	return nil
}

func (c *Collection[V]) fault(op string, err error) error {
	return &StorageError{Collection: c.name, Op: op, Path: c.path, Err: err}
}

// writeFileAtomic replaces path with data via a temporary file in the same
// directory, so readers see either the old or the new contents.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
