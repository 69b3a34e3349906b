package pcmm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type ReportParametersRepo interface {
	// Get returns the deployment's report parameters, or nil when none were saved.
	Get(dbc dbctx.Context) (*types.ReportParameters, error)
	Save(dbc dbctx.Context, row *types.ReportParameters) (*types.ReportParameters, error)
	// ClearSelectedTag unsets the selected tag when it equals tagID and reports whether it did.
	ClearSelectedTag(dbc dbctx.Context, tagID uuid.UUID) (bool, error)
}

type reportParametersRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportParametersRepo(db *gorm.DB, baseLog *logger.Logger) ReportParametersRepo {
	return &reportParametersRepo{db: db, log: baseLog.With("repo", "ReportParametersRepo")}
}

func (r *reportParametersRepo) Get(dbc dbctx.Context) (*types.ReportParameters, error) {
	var out []*types.ReportParameters
	if err := dbc.DB(r.db).Order("created_at ASC").Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *reportParametersRepo) Save(dbc dbctx.Context, row *types.ReportParameters) (*types.ReportParameters, error) {
	ensureID(&row.ID)
	if err := dbc.DB(r.db).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *reportParametersRepo) ClearSelectedTag(dbc dbctx.Context, tagID uuid.UUID) (bool, error) {
	if tagID == uuid.Nil {
		return false, nil
	}
	res := dbc.DB(r.db).
		Model(&types.ReportParameters{}).
		Where("pcmm_tag_selected_id = ?", tagID).
		Update("pcmm_tag_selected_id", nil)
	return res.RowsAffected > 0, res.Error
}
