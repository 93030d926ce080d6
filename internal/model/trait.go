package model

// Trait is one of the five personality dimensions a question measures
type Trait string

const (
	TraitOpenness          Trait = "openness"
	TraitConscientiousness Trait = "conscientiousness"
	TraitExtraversion      Trait = "extraversion"
	TraitAgreeableness     Trait = "agreeableness"
	TraitNeuroticism       Trait = "neuroticism"
)

// AllTraits lists every trait in reporting order
var AllTraits = []Trait{
	TraitOpenness,
	TraitConscientiousness,
	TraitExtraversion,
	TraitAgreeableness,
	TraitNeuroticism,
}

// Valid reports whether t is a known trait
func (t Trait) Valid() bool {
	for _, known := range AllTraits {
		if t == known {
			return true
		}
	}
	return false
}
