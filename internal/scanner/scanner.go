// Package scanner discovers transaction report files on disk.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scanner walks a directory tree and finds transaction report files.
type Scanner struct {
	rootDir string
}

// New creates a scanner rooted at the given directory.
func New(rootDir string) *Scanner {
	return &Scanner{rootDir: rootDir}
}

// Scan walks the directory tree and returns every report file found.
// Paths are sorted so repeated scans list files in the same order.
func (s *Scanner) Scan() ([]string, error) {
	rootDir := s.expandHome(s.rootDir)

	var paths []string
	err := filepath.WalkDir(rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !s.isReportFile(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

// isReportFile checks if the file carries a known report extension.
func (s *Scanner) isReportFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".csv" || ext == ".tsv" || ext == ".txt"
}

// expandHome expands ~ to home directory.
func (s *Scanner) expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
