package selection

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	bracketPattern = regexp.MustCompile(`\[[^\[\]]*\]`)
	csvRunPattern  = regexp.MustCompile(`\d+(?:\s*,\s*\d+)+`)
	intPattern     = regexp.MustCompile(`\d+`)
)

// ParseIndices extracts 1-based candidate indices from free-form model output.
//
// Strategies are tried in order and the first that yields at least one usable
// integer wins:
//  1. the whole trimmed text as a JSON array of numbers
//  2. the first bracketed substring as a JSON array of numbers
//  3. the first comma-separated run of integers
//  4. every integer token in the text
//
// Strategies 3 and 4 keep only values in [1, candidateCount]; the JSON
// strategies return integers as written and leave range checks to the caller.
// The result is never nil.
func ParseIndices(raw string, candidateCount int) []int {
	text := strings.TrimSpace(raw)
	if text == "" {
		return []int{}
	}

	if got := parseJSONNumbers(text); len(got) > 0 {
		return got
	}
	if m := bracketPattern.FindString(text); m != "" {
		if got := parseJSONNumbers(m); len(got) > 0 {
			return got
		}
	}
	if m := csvRunPattern.FindString(text); m != "" {
		if got := inRange(intPattern.FindAllString(m, -1), candidateCount); len(got) > 0 {
			return got
		}
	}
	if got := inRange(intPattern.FindAllString(text, -1), candidateCount); len(got) > 0 {
		return got
	}
	return []int{}
}

func parseJSONNumbers(s string) []int {
	var nums []float64
	if err := json.Unmarshal([]byte(s), &nums); err != nil {
		return nil
	}
	out := make([]int, 0, len(nums))
	for _, n := range nums {
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt32 {
			continue
		}
		out = append(out, int(n))
	}
	return out
}

func inRange(tokens []string, candidateCount int) []int {
	out := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if n >= 1 && n <= candidateCount {
			out = append(out, n)
		}
	}
	return out
}
