package pcmm

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

// PlanningRepo covers the planning tables. They share tag semantics with
// evidence and assessments, so a single repo owns the copy and delete paths.
type PlanningRepo interface {
	CreateParams(dbc dbctx.Context, rows []*types.PlanningParam) ([]*types.PlanningParam, error)
	ListRootParams(dbc dbctx.Context, modelID uuid.UUID) ([]*types.PlanningParam, error)

	CreateQuestions(dbc dbctx.Context, rows []*types.PlanningQuestion) ([]*types.PlanningQuestion, error)
	CountQuestions(dbc dbctx.Context, elementIDs, subelementIDs []uuid.UUID) (int64, error)

	CreateValues(dbc dbctx.Context, rows []*types.PlanningValue) ([]*types.PlanningValue, error)
	ListValues(dbc dbctx.Context, filter types.TagFilter) ([]*types.PlanningValue, error)
	ListValuesByNodes(dbc dbctx.Context, elementIDs, subelementIDs []uuid.UUID, filter types.TagFilter) ([]*types.PlanningValue, error)

	CreateQuestionValues(dbc dbctx.Context, rows []*types.PlanningQuestionValue) ([]*types.PlanningQuestionValue, error)
	ListQuestionValues(dbc dbctx.Context, filter types.TagFilter) ([]*types.PlanningQuestionValue, error)
	ListQuestionValuesByNodes(dbc dbctx.Context, elementIDs, subelementIDs []uuid.UUID, filter types.TagFilter) ([]*types.PlanningQuestionValue, error)

	CreateTableItems(dbc dbctx.Context, rows []*types.PlanningTableItem) ([]*types.PlanningTableItem, error)
	ListTableItems(dbc dbctx.Context, filter types.TagFilter) ([]*types.PlanningTableItem, error)
	ListTableItemsByNodes(dbc dbctx.Context, elementIDs, subelementIDs []uuid.UUID, filter types.TagFilter) ([]*types.PlanningTableItem, error)

	// DeleteByTagID removes every planning row of the tag and returns the count.
	DeleteByTagID(dbc dbctx.Context, tagID uuid.UUID) (int64, error)
}

type planningRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPlanningRepo(db *gorm.DB, baseLog *logger.Logger) PlanningRepo {
	return &planningRepo{db: db, log: baseLog.With("repo", "PlanningRepo")}
}

func (r *planningRepo) CreateParams(dbc dbctx.Context, rows []*types.PlanningParam) ([]*types.PlanningParam, error) {
	if len(rows) == 0 {
		return []*types.PlanningParam{}, nil
	}
	for _, p := range rows {
		ensureID(&p.ID)
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *planningRepo) ListRootParams(dbc dbctx.Context, modelID uuid.UUID) ([]*types.PlanningParam, error) {
	var out []*types.PlanningParam
	err := dbc.DB(r.db).Where("model_id = ? AND parent_id IS NULL", modelID).Order("name ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planningRepo) CreateQuestions(dbc dbctx.Context, rows []*types.PlanningQuestion) ([]*types.PlanningQuestion, error) {
	if len(rows) == 0 {
		return []*types.PlanningQuestion{}, nil
	}
	for _, q := range rows {
		ensureID(&q.ID)
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *planningRepo) CountQuestions(dbc dbctx.Context, elementIDs, subelementIDs []uuid.UUID) (int64, error) {
	var n int64
	if len(elementIDs) == 0 && len(subelementIDs) == 0 {
		return 0, nil
	}
	err := byNodes(dbc.DB(r.db).Model(&types.PlanningQuestion{}), elementIDs, subelementIDs).Count(&n).Error
	return n, err
}

func (r *planningRepo) CreateValues(dbc dbctx.Context, rows []*types.PlanningValue) ([]*types.PlanningValue, error) {
	if len(rows) == 0 {
		return []*types.PlanningValue{}, nil
	}
	for _, v := range rows {
		ensureID(&v.ID)
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *planningRepo) ListValues(dbc dbctx.Context, filter types.TagFilter) ([]*types.PlanningValue, error) {
	var out []*types.PlanningValue
	if err := withTag(dbc.DB(r.db), filter).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planningRepo) ListValuesByNodes(dbc dbctx.Context, elementIDs, subelementIDs []uuid.UUID, filter types.TagFilter) ([]*types.PlanningValue, error) {
	var out []*types.PlanningValue
	if len(elementIDs) == 0 && len(subelementIDs) == 0 {
		return out, nil
	}
	if err := withTag(byNodes(dbc.DB(r.db), elementIDs, subelementIDs), filter).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planningRepo) CreateQuestionValues(dbc dbctx.Context, rows []*types.PlanningQuestionValue) ([]*types.PlanningQuestionValue, error) {
	if len(rows) == 0 {
		return []*types.PlanningQuestionValue{}, nil
	}
	for _, v := range rows {
		ensureID(&v.ID)
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *planningRepo) ListQuestionValues(dbc dbctx.Context, filter types.TagFilter) ([]*types.PlanningQuestionValue, error) {
	var out []*types.PlanningQuestionValue
	if err := withTag(dbc.DB(r.db), filter).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planningRepo) ListQuestionValuesByNodes(dbc dbctx.Context, elementIDs, subelementIDs []uuid.UUID, filter types.TagFilter) ([]*types.PlanningQuestionValue, error) {
	var out []*types.PlanningQuestionValue
	if len(elementIDs) == 0 && len(subelementIDs) == 0 {
		return out, nil
	}
	if err := withTag(byNodes(dbc.DB(r.db), elementIDs, subelementIDs), filter).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planningRepo) CreateTableItems(dbc dbctx.Context, rows []*types.PlanningTableItem) ([]*types.PlanningTableItem, error) {
	if len(rows) == 0 {
		return []*types.PlanningTableItem{}, nil
	}
	for _, it := range rows {
		ensureID(&it.ID)
	}
	if err := dbc.DB(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *planningRepo) ListTableItems(dbc dbctx.Context, filter types.TagFilter) ([]*types.PlanningTableItem, error) {
	var out []*types.PlanningTableItem
	if err := withTag(dbc.DB(r.db), filter).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planningRepo) ListTableItemsByNodes(dbc dbctx.Context, elementIDs, subelementIDs []uuid.UUID, filter types.TagFilter) ([]*types.PlanningTableItem, error) {
	var out []*types.PlanningTableItem
	if len(elementIDs) == 0 && len(subelementIDs) == 0 {
		return out, nil
	}
	if err := withTag(byNodes(dbc.DB(r.db), elementIDs, subelementIDs), filter).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *planningRepo) DeleteByTagID(dbc dbctx.Context, tagID uuid.UUID) (int64, error) {
	if tagID == uuid.Nil {
		return 0, nil
	}
	var total int64
	for _, model := range []interface{}{&types.PlanningValue{}, &types.PlanningQuestionValue{}, &types.PlanningTableItem{}} {
		res := dbc.DB(r.db).Where("tag_id = ?", tagID).Delete(model)
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
	}
	return total, nil
}

// byNodes matches rows attached to any of the elements directly or to any of the subelements.
func byNodes(q *gorm.DB, elementIDs, subelementIDs []uuid.UUID) *gorm.DB {
	switch {
	case len(elementIDs) > 0 && len(subelementIDs) > 0:
		return q.Where("(element_id IN ? AND subelement_id IS NULL) OR subelement_id IN ?", elementIDs, subelementIDs)
	case len(elementIDs) > 0:
		return q.Where("element_id IN ? AND subelement_id IS NULL", elementIDs)
	default:
		return q.Where("subelement_id IN ?", subelementIDs)
	}
}
