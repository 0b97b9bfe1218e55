package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/RCarmona53/amazon-word-cloud/models"
	"github.com/RCarmona53/amazon-word-cloud/pkg/mapreduce"
)

type Storage struct{}

func (s *Storage) SaveFile(filePath string, content []byte) error {
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

// Sink writes the latest ranked list to a file, one "word:count" per line.
// Each write replaces the previous contents.
type Sink struct {
	mu      sync.Mutex
	path    string
	storage *Storage
}

func NewSink(path string) *Sink {
	return &Sink{path: path, storage: &Storage{}}
}

func (s *Sink) Path() string {
	return s.path
}

func (s *Sink) Write(list models.RankedList) error {
	var buf bytes.Buffer
	for _, line := range mapreduce.TopKeywords(list) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.SaveFile(s.path, buf.Bytes())
}
