package pcmm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PlanningParam is a planning field definition. Only root params (no parent)
// count towards planning progress.
type PlanningParam struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ModelID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"model_id"`
	ParentID *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	Name string `gorm:"column:name;not null" json:"name"`
	Type string `gorm:"column:type;not null;default:'text'" json:"type"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PlanningParam) TableName() string { return "pcmm_planning_param" }

// PlanningQuestion is attached to an element (simplified) or a subelement (default).
type PlanningQuestion struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ElementID    *uuid.UUID `gorm:"type:uuid;index" json:"element_id,omitempty"`
	SubelementID *uuid.UUID `gorm:"type:uuid;index" json:"subelement_id,omitempty"`
	Question     string     `gorm:"column:question;type:text;not null" json:"question"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PlanningQuestion) TableName() string { return "pcmm_planning_question" }

type PlanningValue struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ParamID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"param_id"`
	ElementID    *uuid.UUID `gorm:"type:uuid;index" json:"element_id,omitempty"`
	SubelementID *uuid.UUID `gorm:"type:uuid;index" json:"subelement_id,omitempty"`
	Value        string     `gorm:"column:value;type:text" json:"value"`
	TagID        *uuid.UUID `gorm:"type:uuid;index" json:"tag_id,omitempty"`
	UserCreation string     `gorm:"column:user_creation" json:"user_creation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PlanningValue) TableName() string { return "pcmm_planning_value" }

func (v *PlanningValue) Copy() *PlanningValue {
	return &PlanningValue{
		ParamID:      v.ParamID,
		ElementID:    cloneID(v.ElementID),
		SubelementID: cloneID(v.SubelementID),
		Value:        v.Value,
		UserCreation: v.UserCreation,
	}
}

type PlanningQuestionValue struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"question_id"`
	ElementID    *uuid.UUID `gorm:"type:uuid;index" json:"element_id,omitempty"`
	SubelementID *uuid.UUID `gorm:"type:uuid;index" json:"subelement_id,omitempty"`
	Value        string     `gorm:"column:value;type:text" json:"value"`
	TagID        *uuid.UUID `gorm:"type:uuid;index" json:"tag_id,omitempty"`
	UserCreation string     `gorm:"column:user_creation" json:"user_creation,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PlanningQuestionValue) TableName() string { return "pcmm_planning_question_value" }

func (v *PlanningQuestionValue) Copy() *PlanningQuestionValue {
	return &PlanningQuestionValue{
		QuestionID:   v.QuestionID,
		ElementID:    cloneID(v.ElementID),
		SubelementID: cloneID(v.SubelementID),
		Value:        v.Value,
		UserCreation: v.UserCreation,
	}
}

// PlanningTableItem is one row of a table-typed planning param; its cell values
// are stored inline so that a tag copy duplicates them in one write.
type PlanningTableItem struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ParamID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"param_id"`
	ElementID    *uuid.UUID     `gorm:"type:uuid;index" json:"element_id,omitempty"`
	SubelementID *uuid.UUID     `gorm:"type:uuid;index" json:"subelement_id,omitempty"`
	Values       datatypes.JSON `gorm:"column:values_json;type:jsonb" json:"values,omitempty"`
	TagID        *uuid.UUID     `gorm:"type:uuid;index" json:"tag_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PlanningTableItem) TableName() string { return "pcmm_planning_table_item" }

func (it *PlanningTableItem) Copy() *PlanningTableItem {
	vals := make(datatypes.JSON, len(it.Values))
	copy(vals, it.Values)
	return &PlanningTableItem{
		ParamID:      it.ParamID,
		ElementID:    cloneID(it.ElementID),
		SubelementID: cloneID(it.SubelementID),
		Values:       vals,
	}
}
