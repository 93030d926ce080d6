// Package questionbank loads question catalogs from YAML.
package questionbank

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"adaptivequiz/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed bank.yaml
var defaultBank []byte

type document struct {
	Questions []model.Question `yaml:"questions"`
}

// Default returns the embedded question bank
func Default() ([]model.Question, error) {
	return Parse(defaultBank)
}

// LoadFile reads a bank from path
func LoadFile(path string) ([]model.Question, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML bank, validates every question and assigns positions
// in document order. Question ids must be unique.
func Parse(data []byte) ([]model.Question, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("question bank is empty")
	}

	seen := make(map[string]struct{}, len(doc.Questions))
	for i := range doc.Questions {
		q := &doc.Questions[i]
		if err := q.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", model.ErrInvalidQuestion, q.ID)
		}
		seen[q.ID] = struct{}{}
		q.Position = i
	}
	return doc.Questions, nil
}
