package pcmm

import (
	"time"

	"github.com/google/uuid"
)

type Assessment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	RoleCreation string `gorm:"column:role_creation;index" json:"role_creation"`
	UserCreation string `gorm:"column:user_creation;index" json:"user_creation"`

	LevelID *uuid.UUID `gorm:"type:uuid;index" json:"level_id,omitempty"`
	Level   *Level     `gorm:"foreignKey:LevelID" json:"level,omitempty"`
	Comment string     `gorm:"column:comment;type:text" json:"comment,omitempty"`

	ElementID    *uuid.UUID  `gorm:"type:uuid;index" json:"element_id,omitempty"`
	SubelementID *uuid.UUID  `gorm:"type:uuid;index" json:"subelement_id,omitempty"`
	Subelement   *Subelement `gorm:"foreignKey:SubelementID" json:"-"`

	TagID *uuid.UUID `gorm:"type:uuid;index" json:"tag_id,omitempty"`

	DateCreation time.Time  `gorm:"column:date_creation;not null" json:"date_creation"`
	DateUpdate   *time.Time `gorm:"column:date_update" json:"date_update,omitempty"`
}

func (Assessment) TableName() string { return "pcmm_assessment" }

func (a *Assessment) Target() (Target, error) {
	t, err := TargetOf(a.ElementID, a.SubelementID)
	if err != nil {
		return nil, err
	}
	if st, ok := t.(SubelementTarget); ok && a.Subelement != nil {
		st.ElementID = a.Subelement.ElementID
		return st, nil
	}
	return t, nil
}

func (a *Assessment) SetTarget(t Target) {
	a.ElementID, a.SubelementID = targetColumns(t)
}

// Copy returns a detached duplicate with no id and no tag.
func (a *Assessment) Copy() *Assessment {
	cp := &Assessment{
		RoleCreation: a.RoleCreation,
		UserCreation: a.UserCreation,
		LevelID:      cloneID(a.LevelID),
		Comment:      a.Comment,
		ElementID:    cloneID(a.ElementID),
		SubelementID: cloneID(a.SubelementID),
		DateCreation: a.DateCreation,
	}
	if a.DateUpdate != nil {
		d := *a.DateUpdate
		cp.DateUpdate = &d
	}
	return cp
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
