package pcmm

import (
	"time"

	"github.com/google/uuid"
)

// ReportParameters holds report-generation settings, including the tag the
// report is currently built from. There is a single row per deployment.
type ReportParameters struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PCMMTagSelectedID *uuid.UUID `gorm:"column:pcmm_tag_selected_id;type:uuid;index" json:"pcmm_tag_selected_id,omitempty"`
	OutputPath        string     `gorm:"column:output_path" json:"output_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ReportParameters) TableName() string { return "report_parameters" }
