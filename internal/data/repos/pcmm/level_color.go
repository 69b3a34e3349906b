package pcmm

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type LevelColorRepo interface {
	// Upsert inserts colors or replaces the label of an existing code.
	Upsert(dbc dbctx.Context, rows []*types.LevelColor) ([]*types.LevelColor, error)
	ListAll(dbc dbctx.Context) ([]*types.LevelColor, error)
}

type levelColorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLevelColorRepo(db *gorm.DB, baseLog *logger.Logger) LevelColorRepo {
	return &levelColorRepo{db: db, log: baseLog.With("repo", "LevelColorRepo")}
}

func (r *levelColorRepo) Upsert(dbc dbctx.Context, rows []*types.LevelColor) ([]*types.LevelColor, error) {
	if len(rows) == 0 {
		return []*types.LevelColor{}, nil
	}
	for _, c := range rows {
		ensureID(&c.ID)
	}
	err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "fixed_color", "updated_at"}),
		}).
		Create(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *levelColorRepo) ListAll(dbc dbctx.Context) ([]*types.LevelColor, error) {
	var out []*types.LevelColor
	if err := dbc.DB(r.db).Order("code ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
