package pcmm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type TagRepo interface {
	Create(dbc dbctx.Context, tag *types.Tag) (*types.Tag, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tag, error)
	ListAll(dbc dbctx.Context) ([]*types.Tag, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// Delete removes the tag row. Deleting a missing tag is not an error.
	Delete(dbc dbctx.Context, id uuid.UUID) (int64, error)
}

type tagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo {
	return &tagRepo{db: db, log: baseLog.With("repo", "TagRepo")}
}

func (r *tagRepo) Create(dbc dbctx.Context, tag *types.Tag) (*types.Tag, error) {
	ensureID(&tag.ID)
	if err := dbc.DB(r.db).Create(tag).Error; err != nil {
		return nil, err
	}
	return tag, nil
}

func (r *tagRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Tag, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Tag
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *tagRepo) ListAll(dbc dbctx.Context) ([]*types.Tag, error) {
	var out []*types.Tag
	if err := dbc.DB(r.db).Order("date_tag DESC").Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Tag{}).Where("id = ?", id).Updates(updates).Error
}

func (r *tagRepo) Delete(dbc dbctx.Context, id uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).Where("id = ?", id).Delete(&types.Tag{})
	return res.RowsAffected, res.Error
}
