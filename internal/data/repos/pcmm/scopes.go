package pcmm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
)

// withTag restricts q to active rows (nil filter) or to rows of one tag.
func withTag(q *gorm.DB, filter types.TagFilter) *gorm.DB {
	if filter == nil || *filter == uuid.Nil {
		return q.Where("tag_id IS NULL")
	}
	return q.Where("tag_id = ?", *filter)
}

// withTarget restricts q to rows attached to exactly the given node.
func withTarget(q *gorm.DB, t types.Target) *gorm.DB {
	switch v := t.(type) {
	case types.ElementTarget:
		return q.Where("element_id = ? AND subelement_id IS NULL", v.ElementID)
	case types.SubelementTarget:
		return q.Where("subelement_id = ?", v.SubelementID)
	default:
		return q.Where("1 = 0")
	}
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
