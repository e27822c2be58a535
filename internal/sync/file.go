package sync

import (
	"bytes"
	"context"
	"fmt"

	"github.com/natefinch/atomic"
)

// FileDestination writes the JSONL snapshot to a local file. The write is
// atomic (write-to-temp then rename), so a reader never observes a
// half-written snapshot.
type FileDestination struct {
	path string
}

// NewFileDestination creates a destination writing to path.
func NewFileDestination(path string) *FileDestination {
	return &FileDestination{path: path}
}

// Write replaces the snapshot file with data.
func (d *FileDestination) Write(ctx context.Context, data []byte) error {
	if err := atomic.WriteFile(d.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write snapshot %s: %w", d.path, err)
	}
	return nil
}
