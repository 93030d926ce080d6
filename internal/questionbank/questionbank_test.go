package questionbank

import (
	"os"
	"path/filepath"
	"testing"

	"adaptivequiz/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	questions, err := Default()
	require.NoError(t, err)
	require.Len(t, questions, 20)

	perTrait := make(map[model.Trait]int)
	for i, q := range questions {
		assert.Equal(t, i, q.Position)
		assert.Len(t, q.Options, 5)
		perTrait[q.Trait]++
	}
	for _, trait := range model.AllTraits {
		assert.Equal(t, 4, perTrait[trait], trait)
	}

	text, ok := questions[0].OptionText(4)
	assert.True(t, ok)
	assert.Equal(t, "Agree", text)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "questions: []"},
		{"unknown trait", `questions: [{id: a, text: x, trait: humor, weight: 1, options: [{value: 1, text: y}]}]`},
		{"no options", `questions: [{id: a, text: x, trait: openness, weight: 1}]`},
		{"duplicate id", `questions:
  - {id: a, text: x, trait: openness, weight: 1, options: [{value: 1, text: y}]}
  - {id: a, text: z, trait: openness, weight: 1, options: [{value: 1, text: y}]}`},
		{"not yaml", "questions: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`questions:
  - {id: a, text: First, trait: openness, weight: 1, options: [{value: 1, text: No}, {value: 2, text: Yes}]}
  - {id: b, text: Second, trait: neuroticism, weight: 2, options: [{value: 1, text: No}, {value: 2, text: Yes}]}
`), 0o644))

	questions, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "b", questions[1].ID)
	assert.Equal(t, 1, questions[1].Position)
	assert.Equal(t, 2.0, questions[1].Weight)
}
