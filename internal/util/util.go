package util

import (
	"bytes"
	"context"
	"encoding/json"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/keshon/cvc/internal/fs"
)

// MarshalJSON renders v the way every persisted file in the workspace is rendered:
// two-space indent, no HTML escaping, trailing newline.
func MarshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteJSON writes a JSON file atomically using the FS interface.
func WriteJSON(fsys fs.FS, path string, v any) error {
	data, err := MarshalJSON(v)
	if err != nil {
		return err
	}
	return fsys.WriteFileAtomic(path, data)
}

// ReadJSON reads a JSON file and unmarshals it into v
func ReadJSON(fsys fs.FS, path string, v any) error {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// WorkerCount returns the number of workers for concurrent operations.
func WorkerCount() int {
	return runtime.NumCPU()
}

// Parallel runs fn concurrently for each item in inputs, limited by workerLimit.
// The first error cancels the context handed to the remaining calls.
func Parallel[T any](ctx context.Context, inputs []T, workerLimit int, fn func(context.Context, T) error) error {
	if len(inputs) == 0 {
		return nil
	}
	if workerLimit < 1 {
		workerLimit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit)

	for _, in := range inputs {
		x := in
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, x)
		})
	}
	return g.Wait()
}
