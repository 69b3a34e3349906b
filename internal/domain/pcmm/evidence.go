package pcmm

import (
	"time"

	"github.com/google/uuid"
)

type EvidenceType string

const (
	EvidenceFile EvidenceType = "file"
	EvidenceURL  EvidenceType = "url"
)

type Evidence struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Name        string       `gorm:"column:name" json:"name"`
	Type        EvidenceType `gorm:"column:type;not null;default:'file'" json:"type"`
	Value       string       `gorm:"column:value;not null;index" json:"value"`
	Section     string       `gorm:"column:section" json:"section,omitempty"`
	Description string       `gorm:"column:description;type:text" json:"description,omitempty"`
	GeneratedID string       `gorm:"column:generated_id;index" json:"generated_id,omitempty"`

	ElementID    *uuid.UUID  `gorm:"type:uuid;index" json:"element_id,omitempty"`
	SubelementID *uuid.UUID  `gorm:"type:uuid;index" json:"subelement_id,omitempty"`
	Subelement   *Subelement `gorm:"foreignKey:SubelementID" json:"-"`

	TagID *uuid.UUID `gorm:"type:uuid;index" json:"tag_id,omitempty"`

	UserCreation string     `gorm:"column:user_creation" json:"user_creation,omitempty"`
	DateCreation time.Time  `gorm:"column:date_creation;not null" json:"date_creation"`
	DateUpdate   *time.Time `gorm:"column:date_update" json:"date_update,omitempty"`
	DateFile     *time.Time `gorm:"column:date_file" json:"date_file,omitempty"`
}

func (Evidence) TableName() string { return "pcmm_evidence" }

func (e *Evidence) Target() (Target, error) {
	t, err := TargetOf(e.ElementID, e.SubelementID)
	if err != nil {
		return nil, err
	}
	if st, ok := t.(SubelementTarget); ok && e.Subelement != nil {
		st.ElementID = e.Subelement.ElementID
		return st, nil
	}
	return t, nil
}

func (e *Evidence) SetTarget(t Target) {
	e.ElementID, e.SubelementID = targetColumns(t)
}

// Copy returns a detached duplicate with no id and no tag.
func (e *Evidence) Copy() *Evidence {
	cp := &Evidence{
		Name:         e.Name,
		Type:         e.Type,
		Value:        e.Value,
		Section:      e.Section,
		Description:  e.Description,
		GeneratedID:  e.GeneratedID,
		ElementID:    cloneID(e.ElementID),
		SubelementID: cloneID(e.SubelementID),
		UserCreation: e.UserCreation,
		DateCreation: e.DateCreation,
	}
	if e.DateUpdate != nil {
		d := *e.DateUpdate
		cp.DateUpdate = &d
	}
	if e.DateFile != nil {
		d := *e.DateFile
		cp.DateFile = &d
	}
	return cp
}
