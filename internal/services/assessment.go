package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/data/repos"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type AddAssessmentInput struct {
	Target  types.Target `validate:"required"`
	LevelID *uuid.UUID
	Comment string
	User    string `validate:"required,max=255"`
	Role    string `validate:"required,max=255"`
}

type AssessmentService interface {
	Add(ctx context.Context, in AddAssessmentInput) (*types.Assessment, error)
	// Update changes level and comment. Only the user and role that created the
	// assessment may change it.
	Update(ctx context.Context, a *types.Assessment, user, role string) (*types.Assessment, error)
	Delete(ctx context.Context, assessmentID uuid.UUID) error

	ListActive(ctx context.Context) ([]*types.Assessment, error)
	ListByTag(ctx context.Context, tag types.TagFilter) ([]*types.Assessment, error)
	ListByTarget(ctx context.Context, t types.Target, tag types.TagFilter) ([]*types.Assessment, error)
	// ListByElementInSubelements returns the assessments of every subelement of an element.
	ListByElementInSubelements(ctx context.Context, elementID uuid.UUID, tag types.TagFilter) ([]*types.Assessment, error)
}

type assessmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	assessments repos.AssessmentRepo
	levels      repos.LevelRepo
	validate    *validator.Validate
}

func NewAssessmentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	assessments repos.AssessmentRepo,
	levels repos.LevelRepo,
) AssessmentService {
	return &assessmentService{
		db:          db,
		log:         baseLog.With("service", "AssessmentService"),
		assessments: assessments,
		levels:      levels,
		validate:    newValidator(),
	}
}

func (s *assessmentService) Add(ctx context.Context, in AddAssessmentInput) (*types.Assessment, error) {
	in.User = strings.TrimSpace(in.User)
	in.Role = strings.TrimSpace(in.Role)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	row := &types.Assessment{
		UserCreation: in.User,
		RoleCreation: in.Role,
		LevelID:      in.LevelID,
		Comment:      in.Comment,
		DateCreation: time.Now().UTC(),
	}
	row.SetTarget(in.Target)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.checkLevel(dbc, in.Target, in.LevelID); err != nil {
			return err
		}
		if _, err := s.assessments.Create(dbc, []*types.Assessment{row}); err != nil {
			return pkgerrors.Persistence("create assessment", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *assessmentService) Update(ctx context.Context, a *types.Assessment, user, role string) (*types.Assessment, error) {
	if a == nil {
		return nil, pkgerrors.Required("assessment")
	}
	if a.ID == uuid.Nil {
		return nil, pkgerrors.Required("assessment id")
	}
	user, role = strings.TrimSpace(user), strings.TrimSpace(role)
	if user == "" {
		return nil, pkgerrors.Required("user")
	}
	if role == "" {
		return nil, pkgerrors.Required("role")
	}

	var out *types.Assessment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := s.mutable(dbc, a.ID)
		if err != nil {
			return err
		}
		if row.UserCreation != user || row.RoleCreation != role {
			return pkgerrors.Validation("assessment", "can only be changed by the user and role that created it")
		}
		target, err := row.Target()
		if err != nil {
			return err
		}
		if err := s.checkLevel(dbc, target, a.LevelID); err != nil {
			return err
		}
		now := time.Now().UTC()
		row.LevelID = a.LevelID
		row.Level = nil
		row.Comment = a.Comment
		row.DateUpdate = &now
		if err := s.assessments.Update(dbc, row); err != nil {
			return pkgerrors.Persistence("update assessment", err)
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *assessmentService) Delete(ctx context.Context, assessmentID uuid.UUID) error {
	if assessmentID == uuid.Nil {
		return pkgerrors.Required("assessment id")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.mutable(dbc, assessmentID); err != nil {
			return err
		}
		if err := s.assessments.Delete(dbc, assessmentID); err != nil {
			return pkgerrors.Persistence("delete assessment", err)
		}
		return nil
	})
}

func (s *assessmentService) ListActive(ctx context.Context) ([]*types.Assessment, error) {
	return s.ListByTag(ctx, nil)
}

func (s *assessmentService) ListByTag(ctx context.Context, tag types.TagFilter) ([]*types.Assessment, error) {
	rows, err := s.assessments.ListByTag(dbctx.New(ctx), tag)
	if err != nil {
		return nil, pkgerrors.Persistence("list assessments", err)
	}
	return rows, nil
}

func (s *assessmentService) ListByTarget(ctx context.Context, t types.Target, tag types.TagFilter) ([]*types.Assessment, error) {
	if t == nil {
		return nil, pkgerrors.Required("target")
	}
	rows, err := s.assessments.ListByTarget(dbctx.New(ctx), t, tag)
	if err != nil {
		return nil, pkgerrors.Persistence("list assessments", err)
	}
	return rows, nil
}

func (s *assessmentService) ListByElementInSubelements(ctx context.Context, elementID uuid.UUID, tag types.TagFilter) ([]*types.Assessment, error) {
	if elementID == uuid.Nil {
		return nil, pkgerrors.Required("element id")
	}
	rows, err := s.assessments.ListByElementInSubelements(dbctx.New(ctx), elementID, tag)
	if err != nil {
		return nil, pkgerrors.Persistence("list assessments", err)
	}
	return rows, nil
}

func (s *assessmentService) mutable(dbc dbctx.Context, id uuid.UUID) (*types.Assessment, error) {
	row, err := s.assessments.GetByID(dbc, id)
	if err != nil {
		return nil, pkgerrors.Persistence("get assessment", err)
	}
	if row == nil {
		return nil, fmt.Errorf("assessment %s: %w", id, pkgerrors.ErrNotFound)
	}
	if row.TagID != nil {
		return nil, pkgerrors.Validation("assessment", "tagged assessment is read-only")
	}
	return row, nil
}

// checkLevel rejects a level that does not belong to the assessed node.
func (s *assessmentService) checkLevel(dbc dbctx.Context, t types.Target, levelID *uuid.UUID) error {
	if levelID == nil || *levelID == uuid.Nil {
		return nil
	}
	levels, err := s.levels.GetByTarget(dbc, t)
	if err != nil {
		return pkgerrors.Persistence("list levels", err)
	}
	for _, l := range levels {
		if l.ID == *levelID {
			return nil
		}
	}
	return pkgerrors.Validation("level", fmt.Sprintf("level %s does not belong to node %s", *levelID, t.NodeID()))
}
