package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIndices(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		count int
		want  []int
	}{
		{"plain json array", "[2,7,12]", 14, []int{2, 7, 12}},
		{"json array with whitespace", "  [ 2, 7, 12 ]\n", 14, []int{2, 7, 12}},
		{"embedded array", "Sure! Here are the indices: [2, 7, 12]. Hope that helps.", 14, []int{2, 7, 12}},
		{"json keeps out of range values", "[0, 99]", 14, []int{0, 99}},
		{"json drops fractions", "[1.5, 4]", 14, []int{4}},
		{"comma run", "I'd pick 3, 5, 9 for this respondent", 14, []int{3, 5, 9}},
		{"comma run filters range", "Choose 3, 50, 9", 14, []int{3, 9}},
		{"loose tokens", "Question 4 and then question 11", 14, []int{4, 11}},
		{"loose tokens filtered", "Try 40 or 2", 14, []int{2}},
		{"no numbers", "I cannot determine this.", 14, []int{}},
		{"empty", "", 14, []int{}},
		{"empty array falls through", "[] maybe 6", 14, []int{6}},
		{"non-numeric bracket falls through", `["a","b"] then 2, 3`, 14, []int{2, 3}},
		{"all out of range", "numbers 20, 30", 14, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseIndices(tt.raw, tt.count)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}
