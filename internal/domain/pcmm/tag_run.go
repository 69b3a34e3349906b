package pcmm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	TagRunKindCreate = "create"
	TagRunKindDelete = "delete"

	TagRunStatusRunning    = "running"
	TagRunStatusSucceeded  = "succeeded"
	TagRunStatusFailed     = "failed"
	TagRunStatusRolledBack = "rolled_back"
)

// Saga steps, in execution order for their kind.
const (
	TagStepTag          = "tag"
	TagStepEvidence     = "evidence"
	TagStepAssessment   = "assessment"
	TagStepPlanning     = "planning"
	TagStepReportConfig = "report_config"
)

// TagRun is the durable "tag operation in progress" marker. A run left in
// running or failed state identifies a partially applied snapshot that the
// repair pass can roll back or finish.
type TagRun struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TagID uuid.UUID `gorm:"type:uuid;not null;index" json:"tag_id"`

	// create|delete
	Kind string `gorm:"column:kind;not null;index" json:"kind"`
	// running|succeeded|failed|rolled_back
	Status string `gorm:"column:status;not null;index" json:"status"`
	// last step that committed
	Step string `gorm:"column:step" json:"step,omitempty"`

	Detail datatypes.JSON `gorm:"column:detail;type:jsonb" json:"detail,omitempty"`
	Error  string         `gorm:"column:error;type:text" json:"error,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (TagRun) TableName() string { return "pcmm_tag_run" }
