package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/data/repos"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

// ReportConfigService holds the tag that report generation reads from.
type ReportConfigService interface {
	GetSelectedTag(ctx context.Context) (*uuid.UUID, error)
	SelectTag(ctx context.Context, tagID *uuid.UUID) error
	// ClearSelectedTagIf unsets the selection when it points at tagID.
	ClearSelectedTagIf(dbc dbctx.Context, tagID uuid.UUID) (bool, error)
}

type reportConfigService struct {
	db     *gorm.DB
	log    *logger.Logger
	params repos.ReportParametersRepo
	tags   repos.TagRepo
}

func NewReportConfigService(db *gorm.DB, baseLog *logger.Logger, params repos.ReportParametersRepo, tags repos.TagRepo) ReportConfigService {
	return &reportConfigService{
		db:     db,
		log:    baseLog.With("service", "ReportConfigService"),
		params: params,
		tags:   tags,
	}
}

func (s *reportConfigService) GetSelectedTag(ctx context.Context) (*uuid.UUID, error) {
	row, err := s.params.Get(dbctx.New(ctx))
	if err != nil {
		return nil, pkgerrors.Persistence("get report parameters", err)
	}
	if row == nil {
		return nil, nil
	}
	return row.PCMMTagSelectedID, nil
}

func (s *reportConfigService) SelectTag(ctx context.Context, tagID *uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if tagID != nil && *tagID != uuid.Nil {
			tag, err := s.tags.GetByID(dbc, *tagID)
			if err != nil {
				return pkgerrors.Persistence("get tag", err)
			}
			if tag == nil {
				return pkgerrors.Validation("tag_id", "unknown tag")
			}
		} else {
			tagID = nil
		}
		row, err := s.params.Get(dbc)
		if err != nil {
			return pkgerrors.Persistence("get report parameters", err)
		}
		if row == nil {
			row = &types.ReportParameters{}
		}
		row.PCMMTagSelectedID = tagID
		_, err = s.params.Save(dbc, row)
		return pkgerrors.Persistence("save report parameters", err)
	})
}

func (s *reportConfigService) ClearSelectedTagIf(dbc dbctx.Context, tagID uuid.UUID) (bool, error) {
	if tagID == uuid.Nil {
		return false, pkgerrors.Required("tag_id")
	}
	cleared, err := s.params.ClearSelectedTag(dbc, tagID)
	if err != nil {
		return false, pkgerrors.Persistence("clear selected tag", err)
	}
	if cleared {
		s.log.Info("cleared selected report tag", "tag_id", tagID)
	}
	return cleared, nil
}
