package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/data/repos"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
	"github.com/yungbote/pcmm-backend/internal/platform/nodecache"
)

// PCMMService owns the hierarchy, the level catalog and the enabled phases.
type PCMMService interface {
	// LoadSpecification assembles the project configuration and derives its mode.
	LoadSpecification(ctx context.Context, modelID uuid.UUID) (*types.Specification, error)
	ListElements(ctx context.Context, modelID uuid.UUID) ([]*types.Element, error)
	GetElement(ctx context.Context, elementID uuid.UUID) (*types.Element, error)
	// EvidenceTargets lists the nodes of element's hierarchy that hold at
	// least one evidence row matching tag.
	EvidenceTargets(ctx context.Context, element *types.Element, tag types.TagFilter) ([]types.Target, error)
	// RefreshNode drops the cached root elements of the targets. Call it after
	// the writing transaction has committed.
	RefreshNode(ctx context.Context, targets ...types.Target) error

	EnablePhases(ctx context.Context, phases ...types.Phase) error
	DisablePhase(ctx context.Context, phase types.Phase) error
	ListPhases(ctx context.Context) ([]types.Phase, error)

	SaveLevelColors(ctx context.Context, colors []*types.LevelColor) error
	LevelColors(ctx context.Context) (types.LevelColorCatalog, error)
}

type pcmmService struct {
	db          *gorm.DB
	log         *logger.Logger
	elements    repos.ElementRepo
	subelements repos.SubelementRepo
	colors      repos.LevelColorRepo
	options     repos.OptionRepo
	evidence    repos.EvidenceRepo
	cache       nodecache.Cache
}

func NewPCMMService(
	db *gorm.DB,
	baseLog *logger.Logger,
	elements repos.ElementRepo,
	subelements repos.SubelementRepo,
	colors repos.LevelColorRepo,
	options repos.OptionRepo,
	evidence repos.EvidenceRepo,
	cache nodecache.Cache,
) PCMMService {
	if cache == nil {
		cache = nodecache.NewNoop()
	}
	return &pcmmService{
		db:          db,
		log:         baseLog.With("service", "PCMMService"),
		elements:    elements,
		subelements: subelements,
		colors:      colors,
		options:     options,
		evidence:    evidence,
		cache:       cache,
	}
}

func (s *pcmmService) LoadSpecification(ctx context.Context, modelID uuid.UUID) (*types.Specification, error) {
	ctx, span := tracer.Start(ctx, "pcmm.specification.load")
	var err error
	defer func() { endSpan(span, err) }()

	elements, err := s.ListElements(ctx, modelID)
	if err != nil {
		return nil, err
	}
	mode, err := types.DeriveMode(elements)
	if err != nil {
		return nil, err
	}
	catalog, err := s.LevelColors(ctx)
	if err != nil {
		return nil, err
	}
	phases, err := s.ListPhases(ctx)
	if err != nil {
		return nil, err
	}
	return &types.Specification{
		ModelID:     modelID,
		Elements:    elements,
		LevelColors: catalog,
		Mode:        mode,
		Phases:      phases,
	}, nil
}

// ListElements resolves the model's element ids and reads each hierarchy
// through the node cache.
func (s *pcmmService) ListElements(ctx context.Context, modelID uuid.UUID) ([]*types.Element, error) {
	if modelID == uuid.Nil {
		return nil, pkgerrors.Required("model_id")
	}
	ids, err := s.elements.ListIDsByModelID(dbctx.New(ctx), modelID)
	if err != nil {
		return nil, pkgerrors.Persistence("list elements", err)
	}
	out := make([]*types.Element, 0, len(ids))
	for _, id := range ids {
		n, err := s.node(ctx, id)
		if err != nil {
			if errors.Is(err, pkgerrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		e := n.Element
		out = append(out, &e)
	}
	return out, nil
}

func (s *pcmmService) GetElement(ctx context.Context, elementID uuid.UUID) (*types.Element, error) {
	if elementID == uuid.Nil {
		return nil, pkgerrors.Required("element_id")
	}
	n, err := s.node(ctx, elementID)
	if err != nil {
		return nil, err
	}
	e := n.Element
	return &e, nil
}

func (s *pcmmService) EvidenceTargets(ctx context.Context, element *types.Element, tag types.TagFilter) ([]types.Target, error) {
	if element == nil || element.ID == uuid.Nil {
		return nil, pkgerrors.Required("element")
	}
	n, err := s.node(ctx, element.ID)
	if err != nil {
		return nil, err
	}
	key := nodecache.EvidenceKey(tag)
	ids, ok := n.Evidence[key]
	if !ok {
		if ids, err = s.loadEvidenceNodes(ctx, &n.Element, tag); err != nil {
			return nil, err
		}
		if n.Evidence == nil {
			n.Evidence = map[string][]uuid.UUID{}
		}
		n.Evidence[key] = ids
		if err := s.cache.Set(ctx, n); err != nil {
			s.log.Warn("node cache write failed", "element_id", element.ID, "error", err)
		}
	}
	out := make([]types.Target, 0, len(ids))
	for _, id := range ids {
		if id == n.Element.ID {
			out = append(out, types.ElementTarget{ElementID: id})
			continue
		}
		out = append(out, types.SubelementTarget{SubelementID: id, ElementID: n.Element.ID})
	}
	return out, nil
}

// node returns the cached hierarchy of elementID, loading it on a miss.
func (s *pcmmService) node(ctx context.Context, elementID uuid.UUID) (*nodecache.Node, error) {
	if cached, err := s.cache.Get(ctx, elementID); err != nil {
		s.log.Warn("node cache read failed", "element_id", elementID, "error", err)
	} else if cached != nil {
		return cached, nil
	}
	e, err := s.elements.GetByID(dbctx.New(ctx), elementID)
	if err != nil {
		return nil, pkgerrors.Persistence("get element", err)
	}
	if e == nil {
		return nil, fmt.Errorf("element %s: %w", elementID, pkgerrors.ErrNotFound)
	}
	n := &nodecache.Node{Element: *e}
	if err := s.cache.Set(ctx, n); err != nil {
		s.log.Warn("node cache write failed", "element_id", elementID, "error", err)
	}
	return n, nil
}

// loadEvidenceNodes reads which nodes of the hierarchy hold evidence for tag,
// the element first and then its subelements in order.
func (s *pcmmService) loadEvidenceNodes(ctx context.Context, e *types.Element, tag types.TagFilter) ([]uuid.UUID, error) {
	dbc := dbctx.New(ctx)
	direct, err := s.evidence.ListByTarget(dbc, types.ForElement(e), tag)
	if err != nil {
		return nil, pkgerrors.Persistence("list element evidence", err)
	}
	ids := subelementIDsOf(e)
	var nested []*types.Evidence
	if len(ids) > 0 {
		if nested, err = s.evidence.ListBySubelementIDs(dbc, ids, tag); err != nil {
			return nil, pkgerrors.Persistence("list subelement evidence", err)
		}
	}
	held := map[uuid.UUID]bool{}
	for _, row := range append(direct, nested...) {
		t, err := row.Target()
		if err != nil {
			continue
		}
		held[t.NodeID()] = true
	}
	out := []uuid.UUID{}
	if held[e.ID] {
		out = append(out, e.ID)
	}
	for _, id := range ids {
		if held[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *pcmmService) RefreshNode(ctx context.Context, targets ...types.Target) error {
	roots := make([]uuid.UUID, 0, len(targets))
	seen := map[uuid.UUID]bool{}
	for _, t := range targets {
		if t == nil {
			return pkgerrors.Required("target")
		}
		elementID := t.RootElementID()
		if elementID == uuid.Nil {
			sub, err := s.subelements.GetByID(dbctx.New(ctx), t.NodeID())
			if err != nil {
				return pkgerrors.Persistence("get subelement", err)
			}
			if sub == nil {
				continue
			}
			elementID = sub.ElementID
		}
		if !seen[elementID] {
			seen[elementID] = true
			roots = append(roots, elementID)
		}
	}
	if len(roots) == 0 {
		return nil
	}
	if err := s.cache.Invalidate(ctx, roots...); err != nil {
		s.log.Warn("node cache invalidate failed", "element_ids", roots, "error", err)
	}
	return nil
}

func (s *pcmmService) EnablePhases(ctx context.Context, phases ...types.Phase) error {
	for _, p := range phases {
		if !p.Valid() {
			return pkgerrors.Validation("phase", fmt.Sprintf("unknown phase %q", p))
		}
	}
	if err := s.options.Enable(dbctx.New(ctx), phases); err != nil {
		return pkgerrors.Persistence("enable phases", err)
	}
	return nil
}

func (s *pcmmService) DisablePhase(ctx context.Context, phase types.Phase) error {
	if !phase.Valid() {
		return pkgerrors.Validation("phase", fmt.Sprintf("unknown phase %q", phase))
	}
	return pkgerrors.Persistence("disable phase", s.options.Disable(dbctx.New(ctx), phase))
}

func (s *pcmmService) ListPhases(ctx context.Context) ([]types.Phase, error) {
	rows, err := s.options.ListAll(dbctx.New(ctx))
	if err != nil {
		return nil, pkgerrors.Persistence("list phases", err)
	}
	out := make([]types.Phase, 0, len(rows))
	for _, o := range rows {
		if o != nil && o.Phase.Valid() {
			out = append(out, o.Phase)
		}
	}
	return out, nil
}

func (s *pcmmService) SaveLevelColors(ctx context.Context, colors []*types.LevelColor) error {
	for _, c := range colors {
		if c == nil {
			return pkgerrors.Required("level color")
		}
		if c.Name == "" {
			return pkgerrors.Required("level color name")
		}
	}
	_, err := s.colors.Upsert(dbctx.New(ctx), colors)
	return pkgerrors.Persistence("save level colors", err)
}

func (s *pcmmService) LevelColors(ctx context.Context) (types.LevelColorCatalog, error) {
	rows, err := s.colors.ListAll(dbctx.New(ctx))
	if err != nil {
		return nil, pkgerrors.Persistence("list level colors", err)
	}
	return types.NewLevelColorCatalog(rows), nil
}
