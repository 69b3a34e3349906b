package pcmm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type TagRunRepo interface {
	Create(dbc dbctx.Context, run *types.TagRun) (*types.TagRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TagRun, error)
	ListByTagID(dbc dbctx.Context, tagID uuid.UUID) ([]*types.TagRun, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	// ListByStatusBefore returns runs in one of statuses last touched before the cutoff, oldest first.
	ListByStatusBefore(dbc dbctx.Context, statuses []string, before time.Time, limit int) ([]*types.TagRun, error)
}

type tagRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTagRunRepo(db *gorm.DB, baseLog *logger.Logger) TagRunRepo {
	return &tagRunRepo{db: db, log: baseLog.With("repo", "TagRunRepo")}
}

func (r *tagRunRepo) Create(dbc dbctx.Context, run *types.TagRun) (*types.TagRun, error) {
	ensureID(&run.ID)
	if err := dbc.DB(r.db).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *tagRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.TagRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.TagRun
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *tagRunRepo) ListByTagID(dbc dbctx.Context, tagID uuid.UUID) ([]*types.TagRun, error) {
	var out []*types.TagRun
	if err := dbc.DB(r.db).Where("tag_id = ?", tagID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *tagRunRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return dbc.DB(r.db).Model(&types.TagRun{}).Where("id = ?", id).Updates(updates).Error
}

func (r *tagRunRepo) ListByStatusBefore(dbc dbctx.Context, statuses []string, before time.Time, limit int) ([]*types.TagRun, error) {
	var out []*types.TagRun
	if len(statuses) == 0 {
		return out, nil
	}
	q := dbc.DB(r.db).Where("status IN ?", statuses)
	if !before.IsZero() {
		q = q.Where("updated_at < ?", before)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("updated_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
