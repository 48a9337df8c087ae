package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Storage struct{}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	Path      string
	SizeBytes int64
	ModTime   time.Time
}

// Source is an opened text file ready to be analyzed.
type Source struct {
	*os.File
	Stats FileStats
}

// Open opens a regular file for reading and stats it. The caller closes it.
func (s *Storage) Open(filePath string) (*Source, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("error resolving path: %w", err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("error opening file: %s is a directory", filePath)
	}

	return &Source{File: f, Stats: newFileStats(abs, info)}, nil
}

func newFileStats(abs string, info os.FileInfo) FileStats {
	return FileStats{
		Path:      abs,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}
}

func (s *Storage) SaveFile(filePath string, content []byte) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}
