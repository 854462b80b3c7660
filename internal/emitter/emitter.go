// Package emitter holds what the generators share: the plan of written
// files and the write helper that records it.
package emitter

import (
	"context"
	"fmt"
	"os"

	"github.com/apiforge/schemagen/internal/sink"
)

// PlannedFile describes a file an emitter wrote or would write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result lists the files an emitter produced, in write order.
type Result struct {
	Planned []PlannedFile
}

// Merge appends the files of other.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Planned = append(r.Planned, other.Planned...)
}

// Paths returns the planned relative paths in write order.
func (r *Result) Paths() []string {
	out := make([]string, 0, len(r.Planned))
	for _, p := range r.Planned {
		out = append(out, p.RelPath)
	}
	return out
}

// Write sends content to s and records it in r.
func (r *Result) Write(ctx context.Context, s sink.OutputSink, rel string, content []byte) error {
	if s == nil {
		return fmt.Errorf("write %s: no output sink", rel)
	}
	if err := s.WriteFile(ctx, rel, content); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	r.Planned = append(r.Planned, PlannedFile{RelPath: rel, Size: len(content), Mode: 0o644})
	return nil
}
