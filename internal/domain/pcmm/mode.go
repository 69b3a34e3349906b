package pcmm

import (
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
)

// Mode says at which granularity a project is assessed. It is derived from the
// hierarchy on every read and never stored.
type Mode string

const (
	ModeDefault    Mode = "DEFAULT"
	ModeSimplified Mode = "SIMPLIFIED"
)

// DeriveMode returns ModeSimplified when every element owns levels,
// ModeDefault when none does, and a validation error for mixed hierarchies.
func DeriveMode(elements []*Element) (Mode, error) {
	withLevels, total := 0, 0
	for _, e := range elements {
		if e == nil {
			continue
		}
		total++
		if e.HasLevels() {
			withLevels++
		}
	}
	switch {
	case withLevels == 0:
		return ModeDefault, nil
	case withLevels == total:
		return ModeSimplified, nil
	default:
		return "", pkgerrors.MixedMode()
	}
}

// Phase is a PCMM feature that a project can switch on.
type Phase string

const (
	PhaseEvidence  Phase = "EVIDENCE"
	PhaseAssess    Phase = "ASSESS"
	PhasePlanning  Phase = "PLANNING"
	PhaseAggregate Phase = "AGGREGATE"
	PhaseStamp     Phase = "STAMP"
)

func (p Phase) Valid() bool {
	switch p {
	case PhaseEvidence, PhaseAssess, PhasePlanning, PhaseAggregate, PhaseStamp:
		return true
	}
	return false
}

// Option enables one phase for the deployment.
type Option struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Phase Phase     `gorm:"column:phase;not null;uniqueIndex" json:"phase"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Option) TableName() string { return "pcmm_option" }
