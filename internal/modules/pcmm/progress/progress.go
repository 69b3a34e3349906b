// Package progress scores how complete a PCMM element is, blending evidence,
// assessment and planning coverage into a 0-100 integer.
package progress

import (
	"math"

	"github.com/google/uuid"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
)

type Weights struct {
	Evidence   int `yaml:"evidence" json:"evidence"`
	Assessment int `yaml:"assessment" json:"assessment"`
	Planning   int `yaml:"planning" json:"planning"`
}

func DefaultWeights() Weights {
	return Weights{Evidence: 60, Assessment: 20, Planning: 20}
}

// Features lists which sub-scores a project has switched on.
type Features struct {
	Evidence   bool
	Assessment bool
	Planning   bool
}

func FeaturesOf(spec *types.Specification) Features {
	return Features{
		Evidence:   spec.EvidenceEnabled(),
		Assessment: spec.AssessEnabled(),
		Planning:   spec.PlanningEnabled(),
	}
}

// MaxProgress is the sum of the weights of enabled features.
func MaxProgress(f Features, w Weights) int {
	total := 0
	if f.Evidence {
		total += w.Evidence
	}
	if f.Assessment {
		total += w.Assessment
	}
	if f.Planning {
		total += w.Planning
	}
	return total
}

// ElementMaxSubscore is the number of assessable units of an element: its
// subelements in default mode, the element itself in simplified mode.
func ElementMaxSubscore(element *types.Element, mode types.Mode) int {
	if element == nil {
		return 0
	}
	if mode == types.ModeSimplified {
		return 1
	}
	return len(element.Subelements)
}

// Coverage counts the units of element that at least one target points at.
func Coverage(element *types.Element, mode types.Mode, targets []types.Target) int {
	if element == nil {
		return 0
	}
	if mode == types.ModeSimplified {
		for _, t := range targets {
			if et, ok := t.(types.ElementTarget); ok && et.ElementID == element.ID {
				return 1
			}
		}
		return 0
	}
	owned := make(map[uuid.UUID]struct{}, len(element.Subelements))
	for _, s := range element.Subelements {
		owned[s.ID] = struct{}{}
	}
	seen := map[uuid.UUID]struct{}{}
	for _, t := range targets {
		st, ok := t.(types.SubelementTarget)
		if !ok {
			continue
		}
		if _, in := owned[st.SubelementID]; in {
			seen[st.SubelementID] = struct{}{}
		}
	}
	return len(seen)
}

// Part is one sub-score and its ceiling.
type Part struct {
	Score int `json:"score"`
	Max   int `json:"max"`
}

func (p Part) ratio() float64 {
	if p.Max <= 0 {
		return 0
	}
	r := float64(p.Score) / float64(p.Max)
	if r > 1 {
		return 1
	}
	if r < 0 {
		return 0
	}
	return r
}

type Parts struct {
	Evidence   Part `json:"evidence"`
	Assessment Part `json:"assessment"`
	Planning   Part `json:"planning"`
}

// Score blends the enabled parts by weight and rounds half up.
func Score(p Parts, f Features, w Weights) int {
	score := 0.0
	if f.Evidence {
		score += p.Evidence.ratio() * float64(w.Evidence)
	}
	if f.Assessment {
		score += p.Assessment.ratio() * float64(w.Assessment)
	}
	if f.Planning {
		score += p.Planning.ratio() * float64(w.Planning)
	}
	return int(math.Floor(score + 0.5))
}

// Mean is the truncated average of scores, 0 for none.
func Mean(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	return sum / len(scores)
}
