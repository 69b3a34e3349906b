package pcmm

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type OptionRepo interface {
	Enable(dbc dbctx.Context, phases []types.Phase) error
	Disable(dbc dbctx.Context, phase types.Phase) error
	ListAll(dbc dbctx.Context) ([]*types.Option, error)
}

type optionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOptionRepo(db *gorm.DB, baseLog *logger.Logger) OptionRepo {
	return &optionRepo{db: db, log: baseLog.With("repo", "OptionRepo")}
}

func (r *optionRepo) Enable(dbc dbctx.Context, phases []types.Phase) error {
	if len(phases) == 0 {
		return nil
	}
	rows := make([]*types.Option, 0, len(phases))
	for _, p := range phases {
		o := &types.Option{Phase: p}
		ensureID(&o.ID)
		rows = append(rows, o)
	}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "phase"}}, DoNothing: true}).
		Create(&rows).Error
}

func (r *optionRepo) Disable(dbc dbctx.Context, phase types.Phase) error {
	return dbc.DB(r.db).Where("phase = ?", phase).Delete(&types.Option{}).Error
}

func (r *optionRepo) ListAll(dbc dbctx.Context) ([]*types.Option, error) {
	var out []*types.Option
	if err := dbc.DB(r.db).Order("phase ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
