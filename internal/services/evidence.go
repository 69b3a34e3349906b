package services

import (
	"context"
	"fmt"
	"net/url"
	"path"
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

type AddEvidenceInput struct {
	Target      types.Target       `validate:"required"`
	Type        types.EvidenceType `validate:"required,oneof=file url"`
	Value       string             `validate:"required"`
	Name        string             `validate:"max=255"`
	Section     string             `validate:"max=255"`
	Description string
	GeneratedID string
	User        string `validate:"required"`
	DateFile    time.Time
}

type EvidenceService interface {
	Add(ctx context.Context, in AddEvidenceInput) (*types.Evidence, error)
	Update(ctx context.Context, e *types.Evidence) (*types.Evidence, error)
	// Move reattaches active evidence to another node under a new ordering key.
	Move(ctx context.Context, evidenceID uuid.UUID, generatedID string, to types.Target) (*types.Evidence, error)
	Delete(ctx context.Context, evidenceID uuid.UUID) error

	ListActive(ctx context.Context) ([]*types.Evidence, error)
	ListByTag(ctx context.Context, tag types.TagFilter) ([]*types.Evidence, error)
	ListByTarget(ctx context.Context, t types.Target, tag types.TagFilter) ([]*types.Evidence, error)
}

type evidenceService struct {
	db       *gorm.DB
	log      *logger.Logger
	evidence repos.EvidenceRepo
	pcmm     PCMMService
	validate *validator.Validate
}

func NewEvidenceService(db *gorm.DB, baseLog *logger.Logger, evidence repos.EvidenceRepo, pcmm PCMMService) EvidenceService {
	return &evidenceService{
		db:       db,
		log:      baseLog.With("service", "EvidenceService"),
		evidence: evidence,
		pcmm:     pcmm,
		validate: newValidator(),
	}
}

func (s *evidenceService) Add(ctx context.Context, in AddEvidenceInput) (*types.Evidence, error) {
	in.Value = strings.TrimSpace(in.Value)
	in.User = strings.TrimSpace(in.User)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	row := &types.Evidence{
		Name:         strings.TrimSpace(in.Name),
		Type:         in.Type,
		Value:        in.Value,
		Section:      strings.TrimSpace(in.Section),
		Description:  in.Description,
		GeneratedID:  in.GeneratedID,
		UserCreation: in.User,
		DateCreation: time.Now().UTC(),
	}
	if !in.DateFile.IsZero() {
		d := in.DateFile.UTC()
		row.DateFile = &d
	}
	row.SetTarget(in.Target)
	if err := normalizeEvidence(row); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := s.checkDuplicate(dbc, row, in.Target); err != nil {
			return err
		}
		if _, err := s.evidence.Create(dbc, []*types.Evidence{row}); err != nil {
			return pkgerrors.Persistence("create evidence", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.pcmm.RefreshNode(ctx, in.Target); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *evidenceService) Update(ctx context.Context, e *types.Evidence) (*types.Evidence, error) {
	if e == nil {
		return nil, pkgerrors.Required("evidence")
	}
	if e.ID == uuid.Nil {
		return nil, pkgerrors.Required("evidence id")
	}
	target, err := types.TargetOf(e.ElementID, e.SubelementID)
	if err != nil {
		return nil, err
	}
	if err := normalizeEvidence(e); err != nil {
		return nil, err
	}

	touched := []types.Target{target}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := s.mutable(dbc, e.ID)
		if err != nil {
			return err
		}
		if err := s.checkDuplicate(dbc, e, target); err != nil {
			return err
		}
		now := time.Now().UTC()
		e.DateUpdate = &now
		e.TagID = nil
		if err := s.evidence.Update(dbc, e); err != nil {
			return pkgerrors.Persistence("update evidence", err)
		}
		if prev, _ := existing.Target(); prev != nil && prev.NodeID() != target.NodeID() {
			touched = append(touched, prev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.pcmm.RefreshNode(ctx, touched...); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *evidenceService) Move(ctx context.Context, evidenceID uuid.UUID, generatedID string, to types.Target) (*types.Evidence, error) {
	if evidenceID == uuid.Nil {
		return nil, pkgerrors.Required("evidence id")
	}
	if to == nil {
		return nil, pkgerrors.Required("target")
	}
	var out *types.Evidence
	touched := []types.Target{to}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := s.mutable(dbc, evidenceID)
		if err != nil {
			return err
		}
		prev, _ := row.Target()
		if prev == nil || prev.NodeID() != to.NodeID() {
			if err := s.checkDuplicate(dbc, row, to); err != nil {
				return err
			}
		}
		now := time.Now().UTC()
		row.SetTarget(to)
		row.Subelement = nil
		row.GeneratedID = generatedID
		row.DateUpdate = &now
		if err := s.evidence.Update(dbc, row); err != nil {
			return pkgerrors.Persistence("move evidence", err)
		}
		if prev != nil {
			touched = append(touched, prev)
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.pcmm.RefreshNode(ctx, touched...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *evidenceService) Delete(ctx context.Context, evidenceID uuid.UUID) error {
	if evidenceID == uuid.Nil {
		return pkgerrors.Required("evidence id")
	}
	var touched []types.Target
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := s.mutable(dbc, evidenceID)
		if err != nil {
			return err
		}
		if err := s.evidence.Delete(dbc, evidenceID); err != nil {
			return pkgerrors.Persistence("delete evidence", err)
		}
		if t, _ := row.Target(); t != nil {
			touched = append(touched, t)
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.pcmm.RefreshNode(ctx, touched...)
}

func (s *evidenceService) ListActive(ctx context.Context) ([]*types.Evidence, error) {
	return s.ListByTag(ctx, nil)
}

func (s *evidenceService) ListByTag(ctx context.Context, tag types.TagFilter) ([]*types.Evidence, error) {
	rows, err := s.evidence.ListByTag(dbctx.New(ctx), tag)
	if err != nil {
		return nil, pkgerrors.Persistence("list evidence", err)
	}
	return rows, nil
}

func (s *evidenceService) ListByTarget(ctx context.Context, t types.Target, tag types.TagFilter) ([]*types.Evidence, error) {
	if t == nil {
		return nil, pkgerrors.Required("target")
	}
	rows, err := s.evidence.ListByTarget(dbctx.New(ctx), t, tag)
	if err != nil {
		return nil, pkgerrors.Persistence("list evidence", err)
	}
	return rows, nil
}

// mutable loads an active evidence row; tagged copies cannot be edited.
func (s *evidenceService) mutable(dbc dbctx.Context, id uuid.UUID) (*types.Evidence, error) {
	row, err := s.evidence.GetByID(dbc, id)
	if err != nil {
		return nil, pkgerrors.Persistence("get evidence", err)
	}
	if row == nil {
		return nil, fmt.Errorf("evidence %s: %w", id, pkgerrors.ErrNotFound)
	}
	if row.TagID != nil {
		return nil, pkgerrors.Validation("evidence", "tagged evidence is read-only")
	}
	return row, nil
}

func (s *evidenceService) checkDuplicate(dbc dbctx.Context, e *types.Evidence, t types.Target) error {
	dups, err := s.evidence.FindByValue(dbc, t, e.Value, e.Section)
	if err != nil {
		return pkgerrors.Persistence("find duplicate evidence", err)
	}
	for _, d := range dups {
		if d.ID != e.ID {
			return pkgerrors.Validation("value", fmt.Sprintf("%q already attached to this node", e.Value))
		}
	}
	return nil
}

// normalizeEvidence checks the value against its type, switches file paths to
// forward slashes and names files after their base name when no name is given.
func normalizeEvidence(e *types.Evidence) error {
	e.Value = strings.TrimSpace(e.Value)
	if e.Value == "" {
		return pkgerrors.Required("value")
	}
	switch e.Type {
	case types.EvidenceURL:
		u, err := url.ParseRequestURI(e.Value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return pkgerrors.Validation("value", fmt.Sprintf("invalid url %q", e.Value))
		}
	case types.EvidenceFile:
		e.Value = strings.ReplaceAll(e.Value, `\`, "/")
		if strings.TrimSpace(e.Name) == "" {
			e.Name = path.Base(e.Value)
		}
	default:
		return pkgerrors.Validation("type", fmt.Sprintf("unknown evidence type %q", e.Type))
	}
	return nil
}
