package pcmm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type SubelementRepo interface {
	Create(dbc dbctx.Context, rows []*types.Subelement) ([]*types.Subelement, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Subelement, error)
	ListByElementID(dbc dbctx.Context, elementID uuid.UUID) ([]*types.Subelement, error)
}

type subelementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubelementRepo(db *gorm.DB, baseLog *logger.Logger) SubelementRepo {
	return &subelementRepo{db: db, log: baseLog.With("repo", "SubelementRepo")}
}

func (r *subelementRepo) Create(dbc dbctx.Context, rows []*types.Subelement) ([]*types.Subelement, error) {
	if len(rows) == 0 {
		return []*types.Subelement{}, nil
	}
	for _, s := range rows {
		ensureID(&s.ID)
	}
	if err := dbc.DB(r.db).Omit("Element", "Levels").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *subelementRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Subelement, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Subelement
	err := dbc.DB(r.db).
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("code ASC") }).
		Where("id = ?", id).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *subelementRepo) ListByElementID(dbc dbctx.Context, elementID uuid.UUID) ([]*types.Subelement, error) {
	var out []*types.Subelement
	err := dbc.DB(r.db).
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("code ASC") }).
		Where("element_id = ?", elementID).
		Order("position ASC").
		Order("code ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
