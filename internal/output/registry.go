package output

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Builder creates a Sink writing to the given path.
type Builder func(path string) Sink

type format struct {
	ext   string
	build Builder
}

// Registry maps output format names to sink builders.
type Registry struct {
	formats map[string]format
}

// NewRegistry creates a registry with the built-in formats.
func NewRegistry() *Registry {
	r := &Registry{formats: make(map[string]format)}
	r.Register("tsv", ".tsv", func(path string) Sink { return NewTSVSink(path) })
	r.Register("xlsx", ".xlsx", func(path string) Sink { return NewWorkbookSink(path) })
	return r
}

// Register adds a format under name with the file extension its
// artifacts carry. Registering an existing name replaces it.
func (r *Registry) Register(name, ext string, build Builder) {
	r.formats[name] = format{ext: ext, build: build}
}

// Build creates a sink for the named format writing to path.
func (r *Registry) Build(name, path string) (Sink, error) {
	f, ok := r.formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", name, strings.Join(r.Formats(), ", "))
	}
	return f.build(path), nil
}

// Formats lists the registered format names, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.formats))
	for name := range r.formats {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// artifactStamp renders artifact timestamps with fixed nanosecond
// precision. Reports consolidated in one run land at distinct instants,
// so their artifact names never collide.
const artifactStamp = "2006-01-02T15:04:05.000000000Z07:00"

// ArtifactName composes the timestamped output file name for the named
// format: OUTPUT-<nanosecond RFC 3339 timestamp with colons flattened>
// plus the format's extension.
func (r *Registry) ArtifactName(name string, now time.Time) (string, error) {
	f, ok := r.formats[name]
	if !ok {
		return "", fmt.Errorf("unknown output format %q (available: %s)", name, strings.Join(r.Formats(), ", "))
	}
	stamp := strings.ReplaceAll(now.Format(artifactStamp), ":", "_")
	return "OUTPUT-" + stamp + f.ext, nil
}
