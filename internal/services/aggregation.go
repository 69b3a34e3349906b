package services

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/data/repos"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/modules/pcmm/aggregate"
	"github.com/yungbote/pcmm-backend/internal/observability"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type (
	SubelementAggregation = types.AggregationResult[*types.Subelement]
	ElementAggregation    = types.AggregationResult[*types.Element]
)

// AggregationReport is the aggregated maturity of a whole project for one tag filter.
type AggregationReport struct {
	Mode        types.Mode                          `json:"mode"`
	Subelements map[uuid.UUID]SubelementAggregation `json:"subelements,omitempty"`
	Elements    map[uuid.UUID]ElementAggregation    `json:"elements"`
	Complete    bool                                `json:"complete"`
}

type AggregationService interface {
	// AggregateItem aggregates assessments of one node against its current levels.
	AggregateItem(ctx context.Context, t types.Target, assessments []*types.Assessment, catalog types.LevelColorCatalog) (types.AggregationResult[types.Target], error)
	AggregateSubelementAssessments(ctx context.Context, spec *types.Specification, elements []*types.Element, tag types.TagFilter) (map[uuid.UUID]SubelementAggregation, error)
	// AggregateSubelements folds subelement results into their parent element,
	// resolved against the element's own levels.
	AggregateSubelements(ctx context.Context, spec *types.Specification, subResults map[uuid.UUID]SubelementAggregation) (map[uuid.UUID]ElementAggregation, error)
	// AggregateElementsDirectly aggregates assessments attached straight to elements.
	AggregateElementsDirectly(ctx context.Context, spec *types.Specification, elements []*types.Element, tag types.TagFilter) (map[uuid.UUID]ElementAggregation, error)

	// Aggregate runs the pipeline matching the project's mode.
	Aggregate(ctx context.Context, spec *types.Specification, tag types.TagFilter) (*AggregationReport, error)
	// IsCompleteAggregation reports whether every assessable node has at least one assessment.
	IsCompleteAggregation(ctx context.Context, spec *types.Specification, tag types.TagFilter) (bool, error)
}

type aggregationService struct {
	db          *gorm.DB
	log         *logger.Logger
	assessments repos.AssessmentRepo
	levels      repos.LevelRepo
	pcmm        PCMMService
}

func NewAggregationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	assessments repos.AssessmentRepo,
	levels repos.LevelRepo,
	pcmm PCMMService,
) AggregationService {
	return &aggregationService{
		db:          db,
		log:         baseLog.With("service", "AggregationService"),
		assessments: assessments,
		levels:      levels,
		pcmm:        pcmm,
	}
}

func (s *aggregationService) AggregateItem(ctx context.Context, t types.Target, assessments []*types.Assessment, catalog types.LevelColorCatalog) (types.AggregationResult[types.Target], error) {
	if t == nil {
		return types.AggregationResult[types.Target]{}, pkgerrors.Required("item")
	}
	if catalog == nil {
		return types.AggregationResult[types.Target]{}, pkgerrors.Required("level colors")
	}
	levels, err := s.levels.GetByTarget(dbctx.New(ctx), t)
	if err != nil {
		return types.AggregationResult[types.Target]{}, pkgerrors.Persistence("list levels", err)
	}
	return aggregate.Item(t, assessments, levels, catalog)
}

func (s *aggregationService) AggregateSubelementAssessments(ctx context.Context, spec *types.Specification, elements []*types.Element, tag types.TagFilter) (out map[uuid.UUID]SubelementAggregation, err error) {
	ctx, span := tracer.Start(ctx, "pcmm.aggregate.subelements.assessments")
	defer func() { endSpan(span, err) }()

	if err := checkSpec(spec); err != nil {
		return nil, err
	}
	if elements == nil {
		return nil, pkgerrors.Required("elements")
	}

	subs := make([]*types.Subelement, 0)
	for _, e := range elements {
		if e == nil {
			return nil, pkgerrors.Required("element")
		}
		for i := range e.Subelements {
			subs = append(subs, &e.Subelements[i])
		}
	}
	ids := make([]uuid.UUID, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	rows, err := s.assessments.ListBySubelementIDs(dbctx.New(ctx), ids, tag)
	if err != nil {
		return nil, pkgerrors.Persistence("list subelement assessments", err)
	}
	bySub := map[uuid.UUID][]*types.Assessment{}
	for _, a := range rows {
		if a.SubelementID != nil {
			bySub[*a.SubelementID] = append(bySub[*a.SubelementID], a)
		}
	}

	out = make(map[uuid.UUID]SubelementAggregation, len(subs))
	for _, sub := range subs {
		res, err := aggregate.Item(sub, bySub[sub.ID], sub.Levels, spec.LevelColors)
		if err != nil {
			return nil, err
		}
		out[sub.ID] = res
	}
	span.SetAttributes(attribute.Int("pcmm.subelements", len(out)))
	return out, nil
}

func (s *aggregationService) AggregateSubelements(ctx context.Context, spec *types.Specification, subResults map[uuid.UUID]SubelementAggregation) (out map[uuid.UUID]ElementAggregation, err error) {
	ctx, span := tracer.Start(ctx, "pcmm.aggregate.subelements")
	defer func() { endSpan(span, err) }()

	if subResults == nil {
		return nil, pkgerrors.Required("subelement results")
	}
	if err := checkSpec(spec); err != nil {
		return nil, err
	}

	groups := map[uuid.UUID][]aggregate.Child{}
	order := make([]uuid.UUID, 0)
	for _, r := range subResults {
		if r.Item == nil || r.Item.ElementID == uuid.Nil {
			continue
		}
		eid := r.Item.ElementID
		if _, ok := groups[eid]; !ok {
			order = append(order, eid)
		}
		groups[eid] = append(groups[eid], aggregate.ChildOf(r))
	}

	known := make(map[uuid.UUID]*types.Element, len(spec.Elements))
	for _, e := range spec.Elements {
		if e != nil {
			known[e.ID] = e
		}
	}

	dbc := dbctx.New(ctx)
	out = make(map[uuid.UUID]ElementAggregation, len(order))
	for _, eid := range order {
		elt := known[eid]
		if elt == nil {
			if elt, err = s.pcmm.GetElement(ctx, eid); err != nil {
				return nil, err
			}
		}
		levels, err := s.levels.GetByElementID(dbc, eid)
		if err != nil {
			return nil, pkgerrors.Persistence("list element levels", err)
		}
		res, err := aggregate.Parent(elt, groups[eid], levels, spec.LevelColors)
		if err != nil {
			return nil, err
		}
		out[eid] = res
	}
	return out, nil
}

func (s *aggregationService) AggregateElementsDirectly(ctx context.Context, spec *types.Specification, elements []*types.Element, tag types.TagFilter) (out map[uuid.UUID]ElementAggregation, err error) {
	ctx, span := tracer.Start(ctx, "pcmm.aggregate.elements")
	defer func() { endSpan(span, err) }()

	if err := checkSpec(spec); err != nil {
		return nil, err
	}
	if elements == nil {
		return nil, pkgerrors.Required("elements")
	}
	ids := make([]uuid.UUID, 0, len(elements))
	for _, e := range elements {
		if e == nil {
			return nil, pkgerrors.Required("element")
		}
		ids = append(ids, e.ID)
	}
	rows, err := s.assessments.ListByElementIDs(dbctx.New(ctx), ids, tag)
	if err != nil {
		return nil, pkgerrors.Persistence("list element assessments", err)
	}
	byElt := map[uuid.UUID][]*types.Assessment{}
	for _, a := range rows {
		if a.ElementID != nil {
			byElt[*a.ElementID] = append(byElt[*a.ElementID], a)
		}
	}

	out = make(map[uuid.UUID]ElementAggregation, len(elements))
	for _, e := range elements {
		res, err := aggregate.Item(e, byElt[e.ID], e.Levels, spec.LevelColors)
		if err != nil {
			return nil, err
		}
		out[e.ID] = res
	}
	return out, nil
}

func (s *aggregationService) Aggregate(ctx context.Context, spec *types.Specification, tag types.TagFilter) (*AggregationReport, error) {
	if err := checkSpec(spec); err != nil {
		return nil, err
	}
	report := &AggregationReport{Mode: spec.Mode}
	switch spec.Mode {
	case types.ModeSimplified:
		elts, err := s.AggregateElementsDirectly(ctx, spec, spec.Elements, tag)
		if err != nil {
			return nil, err
		}
		report.Elements = elts
	default:
		subs, err := s.AggregateSubelementAssessments(ctx, spec, spec.Elements, tag)
		if err != nil {
			return nil, err
		}
		elts, err := s.AggregateSubelements(ctx, spec, subs)
		if err != nil {
			return nil, err
		}
		report.Subelements = subs
		report.Elements = elts
	}
	complete, err := s.IsCompleteAggregation(ctx, spec, tag)
	if err != nil {
		return nil, err
	}
	report.Complete = complete
	observability.Current().IncAggregation(string(spec.Mode), complete)
	return report, nil
}

func (s *aggregationService) IsCompleteAggregation(ctx context.Context, spec *types.Specification, tag types.TagFilter) (bool, error) {
	if spec == nil {
		return false, pkgerrors.Required("specification")
	}
	dbc := dbctx.New(ctx)

	if spec.Mode == types.ModeSimplified {
		ids := make([]uuid.UUID, 0, len(spec.Elements))
		for _, e := range spec.Elements {
			if e != nil {
				ids = append(ids, e.ID)
			}
		}
		rows, err := s.assessments.ListByElementIDs(dbc, ids, tag)
		if err != nil {
			return false, pkgerrors.Persistence("list element assessments", err)
		}
		seen := map[uuid.UUID]bool{}
		for _, a := range rows {
			if a.ElementID != nil {
				seen[*a.ElementID] = true
			}
		}
		return len(seen) == len(ids), nil
	}

	ids := make([]uuid.UUID, 0)
	for _, e := range spec.Elements {
		if e == nil {
			continue
		}
		for _, sub := range e.Subelements {
			ids = append(ids, sub.ID)
		}
	}
	rows, err := s.assessments.ListBySubelementIDs(dbc, ids, tag)
	if err != nil {
		return false, pkgerrors.Persistence("list subelement assessments", err)
	}
	seen := map[uuid.UUID]bool{}
	for _, a := range rows {
		if a.SubelementID != nil {
			seen[*a.SubelementID] = true
		}
	}
	return len(seen) == len(ids), nil
}

func checkSpec(spec *types.Specification) error {
	if spec == nil {
		return pkgerrors.Required("specification")
	}
	if spec.LevelColors == nil {
		return pkgerrors.Required("level colors")
	}
	return nil
}
