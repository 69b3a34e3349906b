package pcmm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type AssessmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Assessment) ([]*types.Assessment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error)
	Update(dbc dbctx.Context, row *types.Assessment) error
	Delete(dbc dbctx.Context, id uuid.UUID) error

	// ListByTag returns active rows for a nil filter, else the rows of that tag.
	ListByTag(dbc dbctx.Context, filter types.TagFilter) ([]*types.Assessment, error)
	ListByTarget(dbc dbctx.Context, t types.Target, filter types.TagFilter) ([]*types.Assessment, error)
	ListBySubelementIDs(dbc dbctx.Context, subelementIDs []uuid.UUID, filter types.TagFilter) ([]*types.Assessment, error)
	ListByElementIDs(dbc dbctx.Context, elementIDs []uuid.UUID, filter types.TagFilter) ([]*types.Assessment, error)
	// ListByElementInSubelements returns the assessments of every subelement of an element.
	ListByElementInSubelements(dbc dbctx.Context, elementID uuid.UUID, filter types.TagFilter) ([]*types.Assessment, error)

	DeleteByTagID(dbc dbctx.Context, tagID uuid.UUID) (int64, error)
	CountByTagID(dbc dbctx.Context, tagID uuid.UUID) (int64, error)
}

type assessmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return &assessmentRepo{db: db, log: baseLog.With("repo", "AssessmentRepo")}
}

func (r *assessmentRepo) Create(dbc dbctx.Context, rows []*types.Assessment) ([]*types.Assessment, error) {
	if len(rows) == 0 {
		return []*types.Assessment{}, nil
	}
	for _, a := range rows {
		ensureID(&a.ID)
	}
	if err := dbc.DB(r.db).Omit("Level", "Subelement").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *assessmentRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Assessment
	if err := r.base(dbc).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *assessmentRepo) Update(dbc dbctx.Context, row *types.Assessment) error {
	return dbc.DB(r.db).
		Model(&types.Assessment{}).
		Where("id = ?", row.ID).
		Select("level_id", "comment", "date_update", "element_id", "subelement_id").
		Updates(map[string]interface{}{
			"level_id":      row.LevelID,
			"comment":       row.Comment,
			"date_update":   row.DateUpdate,
			"element_id":    row.ElementID,
			"subelement_id": row.SubelementID,
		}).Error
}

func (r *assessmentRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Assessment{}).Error
}

func (r *assessmentRepo) ListByTag(dbc dbctx.Context, filter types.TagFilter) ([]*types.Assessment, error) {
	var out []*types.Assessment
	if err := withTag(r.base(dbc), filter).Order("date_creation ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) ListByTarget(dbc dbctx.Context, t types.Target, filter types.TagFilter) ([]*types.Assessment, error) {
	var out []*types.Assessment
	q := withTag(withTarget(r.base(dbc), t), filter)
	if err := q.Order("date_creation ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) ListBySubelementIDs(dbc dbctx.Context, subelementIDs []uuid.UUID, filter types.TagFilter) ([]*types.Assessment, error) {
	var out []*types.Assessment
	if len(subelementIDs) == 0 {
		return out, nil
	}
	q := withTag(r.base(dbc).Where("subelement_id IN ?", subelementIDs), filter)
	if err := q.Order("date_creation ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) ListByElementIDs(dbc dbctx.Context, elementIDs []uuid.UUID, filter types.TagFilter) ([]*types.Assessment, error) {
	var out []*types.Assessment
	if len(elementIDs) == 0 {
		return out, nil
	}
	q := withTag(r.base(dbc).Where("element_id IN ? AND subelement_id IS NULL", elementIDs), filter)
	if err := q.Order("date_creation ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) ListByElementInSubelements(dbc dbctx.Context, elementID uuid.UUID, filter types.TagFilter) ([]*types.Assessment, error) {
	var out []*types.Assessment
	sub := dbc.DB(r.db).Model(&types.Subelement{}).Select("id").Where("element_id = ?", elementID)
	q := withTag(r.base(dbc).Where("subelement_id IN (?)", sub), filter)
	if err := q.Order("date_creation ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *assessmentRepo) DeleteByTagID(dbc dbctx.Context, tagID uuid.UUID) (int64, error) {
	if tagID == uuid.Nil {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("tag_id = ?", tagID).Delete(&types.Assessment{})
	return res.RowsAffected, res.Error
}

func (r *assessmentRepo) CountByTagID(dbc dbctx.Context, tagID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Assessment{}).Where("tag_id = ?", tagID).Count(&n).Error
	return n, err
}

func (r *assessmentRepo) base(dbc dbctx.Context) *gorm.DB {
	return dbc.DB(r.db).Preload("Level").Preload("Subelement")
}
