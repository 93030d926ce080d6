// Package scoring aggregates answers into per-trait scores.
package scoring

import "adaptivequiz/internal/model"

// Aggregate computes the weight-averaged selected value for each trait.
// Weights come from the catalog; answers to unknown questions count with
// weight 1. Traits without answers are omitted.
func Aggregate(answers []model.AnsweredQuestion, catalog []model.Question) map[model.Trait]model.TraitScore {
	weights := make(map[string]float64, len(catalog))
	for _, q := range catalog {
		weights[q.ID] = q.Weight
	}

	type acc struct {
		sum, weight float64
		count       int
	}
	byTrait := make(map[model.Trait]*acc)
	for _, a := range answers {
		w, ok := weights[a.QuestionID]
		if !ok || w <= 0 {
			w = 1
		}
		t := byTrait[a.Trait]
		if t == nil {
			t = &acc{}
			byTrait[a.Trait] = t
		}
		t.sum += float64(a.SelectedValue) * w
		t.weight += w
		t.count++
	}

	out := make(map[model.Trait]model.TraitScore, len(byTrait))
	for trait, t := range byTrait {
		out[trait] = model.TraitScore{Score: t.sum / t.weight, Count: t.count}
	}
	return out
}
