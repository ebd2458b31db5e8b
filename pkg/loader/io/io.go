package io

import (
	"context"
	"os"

	"golang.org/x/sync/singleflight"
)

// FileSourceReader reads dataset documents from the local filesystem.
// Concurrent reads of the same path share one underlying read; nothing is
// cached between loads.
type FileSourceReader struct {
	group singleflight.Group
}

func NewFileSourceReader() *FileSourceReader {
	return &FileSourceReader{}
}

func (r *FileSourceReader) ReadSource(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err, _ := r.group.Do(path, func() (any, error) {
		return os.ReadFile(path)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
