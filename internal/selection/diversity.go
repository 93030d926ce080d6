package selection

import (
	"sort"

	"adaptivequiz/internal/model"
)

// DefaultMaxQuestions is the batch size returned by one selection
const DefaultMaxQuestions = 3

// SelectDiverse picks up to maxCount questions spreading across traits. Traits
// with the fewest remaining questions go first, one question each, then the
// rest is filled in catalog order. The result is deterministic and never
// repeats a question id or text.
func SelectDiverse(remaining []model.Question, maxCount int) []model.Question {
	if maxCount <= 0 {
		maxCount = DefaultMaxQuestions
	}
	if len(remaining) == 0 {
		return []model.Question{}
	}
	if maxCount > len(remaining) {
		maxCount = len(remaining)
	}

	type traitGroup struct {
		trait     model.Trait
		questions []model.Question
	}
	var groups []*traitGroup
	byTrait := make(map[model.Trait]*traitGroup)
	for _, q := range remaining {
		g, ok := byTrait[q.Trait]
		if !ok {
			g = &traitGroup{trait: q.Trait}
			byTrait[q.Trait] = g
			groups = append(groups, g)
		}
		g.questions = append(g.questions, q)
	}
	// stable: equal-sized groups keep first-appearance order
	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].questions) < len(groups[j].questions)
	})

	picked := newPicker(maxCount)
	for _, g := range groups {
		if picked.full() {
			break
		}
		for _, q := range g.questions {
			if picked.add(q) {
				break
			}
		}
	}
	picked.backfill(remaining)
	return picked.out
}

// picker accumulates a batch without duplicate ids or texts
type picker struct {
	max   int
	out   []model.Question
	ids   map[string]struct{}
	texts map[string]struct{}
}

func newPicker(max int) *picker {
	return &picker{
		max:   max,
		out:   make([]model.Question, 0, max),
		ids:   make(map[string]struct{}, max),
		texts: make(map[string]struct{}, max),
	}
}

func (p *picker) full() bool {
	return len(p.out) >= p.max
}

func (p *picker) add(q model.Question) bool {
	if p.full() {
		return false
	}
	if _, dup := p.ids[q.ID]; dup {
		return false
	}
	if _, dup := p.texts[q.Text]; dup {
		return false
	}
	p.ids[q.ID] = struct{}{}
	p.texts[q.Text] = struct{}{}
	p.out = append(p.out, q)
	return true
}

func (p *picker) backfill(candidates []model.Question) {
	for _, q := range candidates {
		if p.full() {
			return
		}
		p.add(q)
	}
}
