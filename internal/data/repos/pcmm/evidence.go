package pcmm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type EvidenceRepo interface {
	Create(dbc dbctx.Context, rows []*types.Evidence) ([]*types.Evidence, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Evidence, error)
	Update(dbc dbctx.Context, row *types.Evidence) error
	Delete(dbc dbctx.Context, id uuid.UUID) error

	ListByTag(dbc dbctx.Context, filter types.TagFilter) ([]*types.Evidence, error)
	ListByTarget(dbc dbctx.Context, t types.Target, filter types.TagFilter) ([]*types.Evidence, error)
	ListBySubelementIDs(dbc dbctx.Context, subelementIDs []uuid.UUID, filter types.TagFilter) ([]*types.Evidence, error)
	// FindByValue returns the active rows of a node that point at value within section.
	FindByValue(dbc dbctx.Context, t types.Target, value, section string) ([]*types.Evidence, error)

	DeleteByTagID(dbc dbctx.Context, tagID uuid.UUID) (int64, error)
	CountByTagID(dbc dbctx.Context, tagID uuid.UUID) (int64, error)
}

type evidenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEvidenceRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceRepo {
	return &evidenceRepo{db: db, log: baseLog.With("repo", "EvidenceRepo")}
}

func (r *evidenceRepo) Create(dbc dbctx.Context, rows []*types.Evidence) ([]*types.Evidence, error) {
	if len(rows) == 0 {
		return []*types.Evidence{}, nil
	}
	for _, e := range rows {
		ensureID(&e.ID)
	}
	if err := dbc.DB(r.db).Omit("Subelement").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *evidenceRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Evidence, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Evidence
	if err := r.base(dbc).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *evidenceRepo) Update(dbc dbctx.Context, row *types.Evidence) error {
	return dbc.DB(r.db).
		Model(&types.Evidence{}).
		Where("id = ?", row.ID).
		Select("name", "type", "value", "section", "description", "generated_id",
			"element_id", "subelement_id", "tag_id", "date_update", "date_file").
		Updates(map[string]interface{}{
			"name":          row.Name,
			"type":          row.Type,
			"value":         row.Value,
			"section":       row.Section,
			"description":   row.Description,
			"generated_id":  row.GeneratedID,
			"element_id":    row.ElementID,
			"subelement_id": row.SubelementID,
			"tag_id":        row.TagID,
			"date_update":   row.DateUpdate,
			"date_file":     row.DateFile,
		}).Error
}

func (r *evidenceRepo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return dbc.DB(r.db).Where("id = ?", id).Delete(&types.Evidence{}).Error
}

func (r *evidenceRepo) ListByTag(dbc dbctx.Context, filter types.TagFilter) ([]*types.Evidence, error) {
	var out []*types.Evidence
	if err := withTag(r.base(dbc), filter).Order("date_creation ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *evidenceRepo) ListByTarget(dbc dbctx.Context, t types.Target, filter types.TagFilter) ([]*types.Evidence, error) {
	var out []*types.Evidence
	q := withTag(withTarget(r.base(dbc), t), filter)
	if err := q.Order("date_creation ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *evidenceRepo) ListBySubelementIDs(dbc dbctx.Context, subelementIDs []uuid.UUID, filter types.TagFilter) ([]*types.Evidence, error) {
	var out []*types.Evidence
	if len(subelementIDs) == 0 {
		return out, nil
	}
	q := withTag(r.base(dbc).Where("subelement_id IN ?", subelementIDs), filter)
	if err := q.Order("date_creation ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *evidenceRepo) FindByValue(dbc dbctx.Context, t types.Target, value, section string) ([]*types.Evidence, error) {
	var out []*types.Evidence
	q := withTag(withTarget(dbc.DB(r.db), t), nil).Where("value = ? AND section = ?", value, section)
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *evidenceRepo) DeleteByTagID(dbc dbctx.Context, tagID uuid.UUID) (int64, error) {
	if tagID == uuid.Nil {
		return 0, nil
	}
	res := dbc.DB(r.db).Where("tag_id = ?", tagID).Delete(&types.Evidence{})
	return res.RowsAffected, res.Error
}

func (r *evidenceRepo) CountByTagID(dbc dbctx.Context, tagID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.DB(r.db).Model(&types.Evidence{}).Where("tag_id = ?", tagID).Count(&n).Error
	return n, err
}

func (r *evidenceRepo) base(dbc dbctx.Context) *gorm.DB {
	return dbc.DB(r.db).Preload("Subelement")
}
