package pcmm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type LevelRepo interface {
	Create(dbc dbctx.Context, rows []*types.Level) ([]*types.Level, error)
	GetByElementID(dbc dbctx.Context, elementID uuid.UUID) ([]types.Level, error)
	GetBySubelementID(dbc dbctx.Context, subelementID uuid.UUID) ([]types.Level, error)
	// GetByTarget returns the levels owned by the target node, ascending by code.
	GetByTarget(dbc dbctx.Context, t types.Target) ([]types.Level, error)
}

type levelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLevelRepo(db *gorm.DB, baseLog *logger.Logger) LevelRepo {
	return &levelRepo{db: db, log: baseLog.With("repo", "LevelRepo")}
}

func (r *levelRepo) Create(dbc dbctx.Context, rows []*types.Level) ([]*types.Level, error) {
	if len(rows) == 0 {
		return []*types.Level{}, nil
	}
	for _, l := range rows {
		ensureID(&l.ID)
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *levelRepo) GetByElementID(dbc dbctx.Context, elementID uuid.UUID) ([]types.Level, error) {
	var out []types.Level
	if err := dbc.DB(r.db).Where("element_id = ?", elementID).Order("code ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *levelRepo) GetBySubelementID(dbc dbctx.Context, subelementID uuid.UUID) ([]types.Level, error) {
	var out []types.Level
	if err := dbc.DB(r.db).Where("subelement_id = ?", subelementID).Order("code ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *levelRepo) GetByTarget(dbc dbctx.Context, t types.Target) ([]types.Level, error) {
	switch v := t.(type) {
	case types.ElementTarget:
		return r.GetByElementID(dbc, v.ElementID)
	case types.SubelementTarget:
		return r.GetBySubelementID(dbc, v.SubelementID)
	default:
		return nil, nil
	}
}
