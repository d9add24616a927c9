package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"tripeak/training-engine/internal/domain"
)

// FileSource loads the template library from a JSON document on disk. Used in
// development and tests.
type FileSource struct {
	Path string
}

// NewFileSource creates a file-backed template source.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// libraryDocument is the published wire shape: a version header plus the pool.
type libraryDocument struct {
	Version   int                      `json:"version"`
	Templates []domain.WorkoutTemplate `json:"templates"`
}

// Load reads and decodes the template pool.
func (s *FileSource) Load(_ context.Context) ([]domain.WorkoutTemplate, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read template library %s: %w", s.Path, err)
	}
	return decodeLibrary(data)
}

func decodeLibrary(data []byte) ([]domain.WorkoutTemplate, error) {
	var doc libraryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode template library: %w", err)
	}
	if len(doc.Templates) == 0 {
		return nil, domain.Validationf("template library is empty")
	}
	return doc.Templates, nil
}
