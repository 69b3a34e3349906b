package services

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/data/repos"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/modules/pcmm/progress"
	"github.com/yungbote/pcmm-backend/internal/observability"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type ElementProgress struct {
	ElementID    uuid.UUID      `json:"element_id"`
	Abbreviation string         `json:"abbreviation,omitempty"`
	Score        int            `json:"score"`
	Parts        progress.Parts `json:"parts"`
}

type ModelProgress struct {
	ModelID  uuid.UUID         `json:"model_id"`
	Mode     types.Mode        `json:"mode"`
	Max      int               `json:"max"`
	Current  int               `json:"current"`
	Elements []ElementProgress `json:"elements"`
}

type ProgressService interface {
	// ComputeMaxProgress sums the weights of the features the project enables.
	ComputeMaxProgress(spec *types.Specification) int
	ComputeElementMaxSubscore(element *types.Element, mode types.Mode) int
	ComputeEvidenceSubscore(ctx context.Context, element *types.Element, tag types.TagFilter, mode types.Mode) (int, error)
	ComputeAssessmentSubscore(ctx context.Context, element *types.Element, tag types.TagFilter, mode types.Mode) (int, error)

	ComputeCurrentProgressByElement(ctx context.Context, element *types.Element, tag types.TagFilter, spec *types.Specification) (int, error)
	// ComputeCurrentProgress is the truncated mean of the active per-element scores.
	ComputeCurrentProgress(ctx context.Context, spec *types.Specification) (int, error)
	// Report scores every element of the project for a tag filter.
	Report(ctx context.Context, spec *types.Specification, tag types.TagFilter) (*ModelProgress, error)
}

type progressService struct {
	db          *gorm.DB
	log         *logger.Logger
	pcmm        PCMMService
	assessments repos.AssessmentRepo
	planning    PlanningService
	weights     progress.Weights
	concurrency int
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	pcmm PCMMService,
	assessments repos.AssessmentRepo,
	planning PlanningService,
	weights progress.Weights,
) ProgressService {
	if weights == (progress.Weights{}) {
		weights = progress.DefaultWeights()
	}
	return &progressService{
		db:          db,
		log:         baseLog.With("service", "ProgressService"),
		pcmm:        pcmm,
		assessments: assessments,
		planning:    planning,
		weights:     weights,
		concurrency: 4,
	}
}

func (s *progressService) ComputeMaxProgress(spec *types.Specification) int {
	return progress.MaxProgress(progress.FeaturesOf(spec), s.weights)
}

func (s *progressService) ComputeElementMaxSubscore(element *types.Element, mode types.Mode) int {
	return progress.ElementMaxSubscore(element, mode)
}

func (s *progressService) ComputeEvidenceSubscore(ctx context.Context, element *types.Element, tag types.TagFilter, mode types.Mode) (int, error) {
	if element == nil {
		return 0, pkgerrors.Required("element")
	}
	targets, err := s.pcmm.EvidenceTargets(ctx, element, tag)
	if err != nil {
		return 0, err
	}
	return progress.Coverage(element, mode, targets), nil
}

func (s *progressService) ComputeAssessmentSubscore(ctx context.Context, element *types.Element, tag types.TagFilter, mode types.Mode) (int, error) {
	if element == nil {
		return 0, pkgerrors.Required("element")
	}
	dbc := dbctx.New(ctx)
	var (
		rows []*types.Assessment
		err  error
	)
	if mode == types.ModeSimplified {
		rows, err = s.assessments.ListByTarget(dbc, types.ForElement(element), tag)
	} else {
		rows, err = s.assessments.ListByElementInSubelements(dbc, element.ID, tag)
	}
	if err != nil {
		return 0, pkgerrors.Persistence("list assessments", err)
	}
	targets := make([]types.Target, 0, len(rows))
	for _, a := range rows {
		if t, err := a.Target(); err == nil {
			targets = append(targets, t)
		}
	}
	return progress.Coverage(element, mode, targets), nil
}

func (s *progressService) ComputeCurrentProgressByElement(ctx context.Context, element *types.Element, tag types.TagFilter, spec *types.Specification) (int, error) {
	ep, err := s.elementProgress(ctx, element, tag, spec)
	if err != nil {
		return 0, err
	}
	return ep.Score, nil
}

func (s *progressService) ComputeCurrentProgress(ctx context.Context, spec *types.Specification) (int, error) {
	report, err := s.Report(ctx, spec, nil)
	if err != nil {
		return 0, err
	}
	return report.Current, nil
}

func (s *progressService) Report(ctx context.Context, spec *types.Specification, tag types.TagFilter) (out *ModelProgress, err error) {
	ctx, span := tracer.Start(ctx, "pcmm.progress.report")
	defer func() { endSpan(span, err) }()

	if spec == nil {
		return nil, pkgerrors.Required("specification")
	}
	span.SetAttributes(
		attribute.String("pcmm.model_id", spec.ModelID.String()),
		attribute.Int("pcmm.elements", len(spec.Elements)),
	)

	results := make([]ElementProgress, len(spec.Elements))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, element := range spec.Elements {
		g.Go(func() error {
			ep, err := s.elementProgress(gctx, element, tag, spec)
			if err != nil {
				return err
			}
			results[i] = *ep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make([]int, 0, len(results))
	for _, r := range results {
		scores = append(scores, r.Score)
	}
	out = &ModelProgress{
		ModelID:  spec.ModelID,
		Mode:     spec.Mode,
		Max:      s.ComputeMaxProgress(spec),
		Current:  progress.Mean(scores),
		Elements: results,
	}
	tagLabel := ""
	if tag != nil {
		tagLabel = tag.String()
	}
	observability.Current().ObserveProgress(spec.ModelID.String(), tagLabel, out.Current)
	s.log.Debug("progress computed", "model_id", spec.ModelID, "current", out.Current, "elements", len(results))
	return out, nil
}

func (s *progressService) elementProgress(ctx context.Context, element *types.Element, tag types.TagFilter, spec *types.Specification) (*ElementProgress, error) {
	if element == nil {
		return nil, pkgerrors.Required("element")
	}
	if spec == nil {
		return nil, pkgerrors.Required("specification")
	}
	features := progress.FeaturesOf(spec)
	unitMax := progress.ElementMaxSubscore(element, spec.Mode)

	var parts progress.Parts
	if features.Evidence {
		n, err := s.ComputeEvidenceSubscore(ctx, element, tag, spec.Mode)
		if err != nil {
			return nil, err
		}
		parts.Evidence = progress.Part{Score: n, Max: unitMax}
	}
	if features.Assessment {
		n, err := s.ComputeAssessmentSubscore(ctx, element, tag, spec.Mode)
		if err != nil {
			return nil, err
		}
		parts.Assessment = progress.Part{Score: n, Max: unitMax}
	}
	if features.Planning {
		n, err := s.planning.ComputeProgress(ctx, element, tag, spec.Mode)
		if err != nil {
			return nil, err
		}
		ceiling, err := s.planning.ComputeMaxProgress(ctx, element, spec.Mode)
		if err != nil {
			return nil, err
		}
		parts.Planning = progress.Part{Score: n, Max: ceiling}
	}
	return &ElementProgress{
		ElementID:    element.ID,
		Abbreviation: element.Abbreviation,
		Score:        progress.Score(parts, features, s.weights),
		Parts:        parts,
	}, nil
}

func subelementIDsOf(element *types.Element) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(element.Subelements))
	for _, sub := range element.Subelements {
		out = append(out, sub.ID)
	}
	return out
}
