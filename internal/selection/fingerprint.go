package selection

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"adaptivequiz/internal/model"
)

// Fingerprint derives the cache key of a selection request. It depends only on
// the question index and the set of question:value pairs, not their order.
func Fingerprint(index int, answers []model.AnsweredQuestion) string {
	pairs := make([]string, len(answers))
	for i, a := range answers {
		pairs[i] = fmt.Sprintf("%s:%d", a.QuestionID, a.SelectedValue)
	}
	sort.Strings(pairs)

	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%s", index, strings.Join(pairs, ","))))
	return hex.EncodeToString(sum[:])
}
