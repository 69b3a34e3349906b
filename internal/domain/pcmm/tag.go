package pcmm

import (
	"time"

	"github.com/google/uuid"
)

// Tag names a frozen snapshot. Rows carrying a TagID are immutable copies.
type Tag struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Description  string    `gorm:"column:description;type:text" json:"description,omitempty"`
	DateTag      time.Time `gorm:"column:date_tag;not null;index" json:"date_tag"`
	UserCreation string    `gorm:"column:user_creation;not null" json:"user_creation"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Tag) TableName() string { return "pcmm_tag" }

// TagFilter selects rows by tag: a nil filter matches only untagged (active)
// rows, otherwise rows whose tag id equals the filter.
type TagFilter = *uuid.UUID

// MatchesTag applies the tag filter to a row's tag column.
func MatchesTag(rowTag *uuid.UUID, filter TagFilter) bool {
	if filter == nil || *filter == uuid.Nil {
		return rowTag == nil || *rowTag == uuid.Nil
	}
	return rowTag != nil && *rowTag == *filter
}
