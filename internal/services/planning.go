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

type PlanningService interface {
	// TagCurrent copies every active planning value, question answer and table
	// item under tag and returns how many rows it wrote.
	TagCurrent(dbc dbctx.Context, tag *types.Tag) (int64, error)
	// DeleteTagged removes every planning row of the tag.
	DeleteTagged(dbc dbctx.Context, tagID uuid.UUID) (int64, error)

	// ComputeProgress counts answered questions, filled fields and distinct
	// filled table params of an element.
	ComputeProgress(ctx context.Context, element *types.Element, tag types.TagFilter, mode types.Mode) (int, error)
	// ComputeMaxProgress counts questions plus root params, the latter once per
	// subelement in default mode.
	ComputeMaxProgress(ctx context.Context, element *types.Element, mode types.Mode) (int, error)
}

type planningService struct {
	db       *gorm.DB
	log      *logger.Logger
	planning repos.PlanningRepo
}

func NewPlanningService(db *gorm.DB, baseLog *logger.Logger, planning repos.PlanningRepo) PlanningService {
	return &planningService{
		db:       db,
		log:      baseLog.With("service", "PlanningService"),
		planning: planning,
	}
}

func (s *planningService) TagCurrent(dbc dbctx.Context, tag *types.Tag) (int64, error) {
	if tag == nil || tag.ID == uuid.Nil {
		return 0, pkgerrors.Required("tag")
	}
	var written int64

	values, err := s.planning.ListValues(dbc, nil)
	if err != nil {
		return written, pkgerrors.Persistence("list planning values", err)
	}
	if len(values) > 0 {
		copies := make([]*types.PlanningValue, 0, len(values))
		for _, v := range values {
			cp := v.Copy()
			cp.TagID = &tag.ID
			copies = append(copies, cp)
		}
		if _, err := s.planning.CreateValues(dbc, copies); err != nil {
			return written, pkgerrors.Persistence("copy planning values", err)
		}
		written += int64(len(copies))
	}

	answers, err := s.planning.ListQuestionValues(dbc, nil)
	if err != nil {
		return written, pkgerrors.Persistence("list planning answers", err)
	}
	if len(answers) > 0 {
		copies := make([]*types.PlanningQuestionValue, 0, len(answers))
		for _, v := range answers {
			cp := v.Copy()
			cp.TagID = &tag.ID
			copies = append(copies, cp)
		}
		if _, err := s.planning.CreateQuestionValues(dbc, copies); err != nil {
			return written, pkgerrors.Persistence("copy planning answers", err)
		}
		written += int64(len(copies))
	}

	items, err := s.planning.ListTableItems(dbc, nil)
	if err != nil {
		return written, pkgerrors.Persistence("list planning table items", err)
	}
	if len(items) > 0 {
		copies := make([]*types.PlanningTableItem, 0, len(items))
		for _, it := range items {
			cp := it.Copy()
			cp.TagID = &tag.ID
			copies = append(copies, cp)
		}
		if _, err := s.planning.CreateTableItems(dbc, copies); err != nil {
			return written, pkgerrors.Persistence("copy planning table items", err)
		}
		written += int64(len(copies))
	}

	s.log.Debug("planning tagged", "tag_id", tag.ID, "rows", written)
	return written, nil
}

func (s *planningService) DeleteTagged(dbc dbctx.Context, tagID uuid.UUID) (int64, error) {
	if tagID == uuid.Nil {
		return 0, pkgerrors.Required("tag_id")
	}
	n, err := s.planning.DeleteByTagID(dbc, tagID)
	if err != nil {
		return n, pkgerrors.Persistence("delete tagged planning", err)
	}
	return n, nil
}

func (s *planningService) ComputeProgress(ctx context.Context, element *types.Element, tag types.TagFilter, mode types.Mode) (int, error) {
	if element == nil {
		return 0, nil
	}
	dbc := dbctx.New(ctx)
	eltIDs, subIDs := planningNodes(element, mode)

	answers, err := s.planning.ListQuestionValuesByNodes(dbc, eltIDs, subIDs, tag)
	if err != nil {
		return 0, pkgerrors.Persistence("list planning answers", err)
	}
	values, err := s.planning.ListValuesByNodes(dbc, eltIDs, subIDs, tag)
	if err != nil {
		return 0, pkgerrors.Persistence("list planning values", err)
	}
	items, err := s.planning.ListTableItemsByNodes(dbc, eltIDs, subIDs, tag)
	if err != nil {
		return 0, pkgerrors.Persistence("list planning table items", err)
	}
	tables := map[uuid.UUID]struct{}{}
	for _, it := range items {
		tables[it.ParamID] = struct{}{}
	}
	return len(answers) + len(values) + len(tables), nil
}

func (s *planningService) ComputeMaxProgress(ctx context.Context, element *types.Element, mode types.Mode) (int, error) {
	if element == nil {
		return 0, nil
	}
	dbc := dbctx.New(ctx)
	eltIDs, subIDs := planningNodes(element, mode)

	questions, err := s.planning.CountQuestions(dbc, eltIDs, subIDs)
	if err != nil {
		return 0, pkgerrors.Persistence("count planning questions", err)
	}
	params, err := s.planning.ListRootParams(dbc, element.ModelID)
	if err != nil {
		return 0, pkgerrors.Persistence("list planning params", err)
	}
	total := int(questions)
	if mode == types.ModeSimplified {
		total += len(params)
	} else {
		total += len(element.Subelements) * len(params)
	}
	return total, nil
}

// planningNodes returns the nodes planning data hangs off: the element itself
// in simplified mode, its subelements otherwise.
func planningNodes(element *types.Element, mode types.Mode) (elementIDs, subelementIDs []uuid.UUID) {
	if mode == types.ModeSimplified {
		return []uuid.UUID{element.ID}, nil
	}
	subelementIDs = make([]uuid.UUID, 0, len(element.Subelements))
	for _, s := range element.Subelements {
		subelementIDs = append(subelementIDs, s.ID)
	}
	return nil, subelementIDs
}
