package pcmm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type ElementRepo interface {
	Create(dbc dbctx.Context, rows []*types.Element) ([]*types.Element, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Element, error)
	// ListByModelID returns the full hierarchy (subelements and levels) ordered by position.
	ListByModelID(dbc dbctx.Context, modelID uuid.UUID) ([]*types.Element, error)
	// ListIDsByModelID returns element ids only, in ListByModelID order.
	ListIDsByModelID(dbc dbctx.Context, modelID uuid.UUID) ([]uuid.UUID, error)
	ListModelIDs(dbc dbctx.Context) ([]uuid.UUID, error)
}

type elementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewElementRepo(db *gorm.DB, baseLog *logger.Logger) ElementRepo {
	return &elementRepo{db: db, log: baseLog.With("repo", "ElementRepo")}
}

func (r *elementRepo) Create(dbc dbctx.Context, rows []*types.Element) ([]*types.Element, error) {
	if len(rows) == 0 {
		return []*types.Element{}, nil
	}
	for _, e := range rows {
		ensureID(&e.ID)
	}
	if err := dbc.DB(r.db).Omit("Subelements", "Levels").Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *elementRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Element, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Element
	if err := hierarchy(dbc.DB(r.db)).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *elementRepo) ListByModelID(dbc dbctx.Context, modelID uuid.UUID) ([]*types.Element, error) {
	var out []*types.Element
	err := hierarchy(dbc.DB(r.db)).
		Where("model_id = ?", modelID).
		Order("position ASC").
		Order("abbreviation ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *elementRepo) ListIDsByModelID(dbc dbctx.Context, modelID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := dbc.DB(r.db).
		Model(&types.Element{}).
		Where("model_id = ?", modelID).
		Order("position ASC").
		Order("abbreviation ASC").
		Pluck("id", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *elementRepo) ListModelIDs(dbc dbctx.Context) ([]uuid.UUID, error) {
	var out []uuid.UUID
	if err := dbc.DB(r.db).Model(&types.Element{}).Distinct().Pluck("model_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func hierarchy(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Levels", func(db *gorm.DB) *gorm.DB { return db.Order("code ASC") }).
		Preload("Subelements", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC").Order("code ASC") }).
		Preload("Subelements.Levels", func(db *gorm.DB) *gorm.DB { return db.Order("code ASC") })
}
