package pcmm

import "github.com/google/uuid"

// Specification is the per-project PCMM configuration assembled at request time.
type Specification struct {
	ModelID     uuid.UUID
	Elements    []*Element
	LevelColors LevelColorCatalog
	Mode        Mode
	Phases      []Phase
}

func (s *Specification) HasPhase(p Phase) bool {
	if s == nil {
		return false
	}
	for _, ph := range s.Phases {
		if ph == p {
			return true
		}
	}
	return false
}

func (s *Specification) EvidenceEnabled() bool { return s.HasPhase(PhaseEvidence) }
func (s *Specification) AssessEnabled() bool   { return s.HasPhase(PhaseAssess) }
func (s *Specification) PlanningEnabled() bool { return s.HasPhase(PhasePlanning) }
