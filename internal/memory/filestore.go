package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FileStore keeps fingerprints in a plain text file, one decimal value per
// line. Persist replaces the whole file atomically: write to a temp file,
// then rename over the original.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path. The file does
// not need to exist yet.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Name returns the backing file path.
func (s *FileStore) Name() string { return s.path }

// Load reads every fingerprint line. A missing file is an empty set.
func (s *FileStore) Load() (map[Fingerprint]struct{}, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[Fingerprint]struct{}), nil
		}
		return nil, err
	}

	seen := make(map[Fingerprint]struct{})
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.ParseUint(line, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %q is not a fingerprint", ErrStoreUnreadable, s.path, i+1, line)
		}
		seen[Fingerprint(v)] = struct{}{}
	}
	return seen, nil
}

// Persist rewrites the file with the full set, sorted ascending so
// repeated runs over the same set produce identical bytes.
func (s *FileStore) Persist(fps map[Fingerprint]struct{}) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	ordered := make([]Fingerprint, 0, len(fps))
	for fp := range fps {
		ordered = append(ordered, fp)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	var b strings.Builder
	for _, fp := range ordered {
		b.WriteString(strconv.FormatUint(uint64(fp), 10))
		b.WriteByte('\n')
	}

	// Atomic write pattern: write to temp file, then rename.
	tempFile := s.path + ".tmp"
	if err := os.WriteFile(tempFile, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempFile, s.path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
