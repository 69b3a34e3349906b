package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/data/repos"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/observability"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
	"github.com/yungbote/pcmm-backend/internal/platform/ctxutil"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type CreateTagInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	User        string `json:"user" validate:"required,max=255"`
	Description string `json:"description" validate:"max=4000"`
}

// RepairResult lists the runs a repair pass settled.
type RepairResult struct {
	RolledBack []uuid.UUID `json:"rolled_back"`
	Resumed    []uuid.UUID `json:"resumed"`
	Failed     []uuid.UUID `json:"failed"`
}

// TagService freezes and deletes snapshots of the active evidence, assessments
// and planning data. Each step commits on its own; a TagRun row records how
// far an operation got so that Repair can settle interrupted ones.
type TagService interface {
	CreateTag(ctx context.Context, in CreateTagInput) (*types.Tag, error)
	DeleteTag(ctx context.Context, tagID uuid.UUID) error

	ListTags(ctx context.Context) ([]*types.Tag, error)
	GetTag(ctx context.Context, tagID uuid.UUID) (*types.Tag, error)
	UpdateTag(ctx context.Context, tagID uuid.UUID, name, description string) (*types.Tag, error)
	ListRuns(ctx context.Context, tagID uuid.UUID) ([]*types.TagRun, error)

	// Repair rolls back create runs and finishes delete runs that stopped
	// before succeeding and have not moved for olderThan.
	Repair(ctx context.Context, olderThan time.Duration) (*RepairResult, error)
}

// RunHeartbeat is how often an in-flight run touches its row. Repair only
// settles runs untouched for longer than its olderThan, so olderThan must
// stay well above it when several processes share a database.
const RunHeartbeat = 20 * time.Second

type tagStep struct {
	name string
	run  func(dbc dbctx.Context) (int64, error)
	// after runs once the step's transaction has committed.
	after func(ctx context.Context)
}

type tagService struct {
	db          *gorm.DB
	log         *logger.Logger
	tags        repos.TagRepo
	runs        repos.TagRunRepo
	evidence    repos.EvidenceRepo
	assessments repos.AssessmentRepo

	planning PlanningService
	report   ReportConfigService
	pcmm     PCMMService

	validate *validator.Validate
	// one create/delete/repair at a time per instance
	mu        sync.Mutex
	now       func() time.Time
	heartbeat time.Duration
}

func NewTagService(
	db *gorm.DB,
	baseLog *logger.Logger,
	tags repos.TagRepo,
	runs repos.TagRunRepo,
	evidence repos.EvidenceRepo,
	assessments repos.AssessmentRepo,
	planning PlanningService,
	report ReportConfigService,
	pcmm PCMMService,
) TagService {
	return &tagService{
		db:          db,
		log:         baseLog.With("service", "TagService"),
		tags:        tags,
		runs:        runs,
		evidence:    evidence,
		assessments: assessments,
		planning:    planning,
		report:      report,
		pcmm:        pcmm,
		validate:    newValidator(),
		now:         func() time.Time { return time.Now().UTC() },
		heartbeat:   RunHeartbeat,
	}
}

func (s *tagService) CreateTag(ctx context.Context, in CreateTagInput) (tag *types.Tag, err error) {
	in.Name = strings.TrimSpace(in.Name)
	in.User = strings.TrimSpace(in.User)
	in.Description = strings.TrimSpace(in.Description)
	if err := validateStruct(s.validate, in); err != nil {
		return nil, err
	}
	if !s.mu.TryLock() {
		return nil, pkgerrors.ErrTagInProgress
	}
	defer s.mu.Unlock()

	// Once started, a snapshot runs to completion even if the caller goes away.
	ctx, span := tracer.Start(context.WithoutCancel(ctx), "pcmm.tag.create")
	defer func() { endSpan(span, err) }()

	tag = &types.Tag{
		Name:         in.Name,
		Description:  in.Description,
		DateTag:      s.now(),
		UserCreation: in.User,
	}
	run := &types.TagRun{
		Kind:   types.TagRunKindCreate,
		Status: types.TagRunStatusRunning,
		Step:   types.TagStepTag,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := s.tags.Create(dbc, tag); err != nil {
			return pkgerrors.Persistence("create tag", err)
		}
		run.TagID = tag.ID
		if _, err := s.runs.Create(dbc, run); err != nil {
			return pkgerrors.Persistence("create tag run", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("pcmm.tag_id", tag.ID.String()))

	var tagged []types.Target
	steps := []tagStep{
		{
			name: types.TagStepEvidence,
			run: func(dbc dbctx.Context) (n int64, err error) {
				n, tagged, err = s.tagEvidence(dbc, tag)
				return n, err
			},
			after: func(ctx context.Context) { s.refresh(ctx, tagged) },
		},
		{name: types.TagStepAssessment, run: func(dbc dbctx.Context) (int64, error) { return s.tagAssessments(dbc, tag) }},
		{name: types.TagStepPlanning, run: func(dbc dbctx.Context) (int64, error) { return s.planning.TagCurrent(dbc, tag) }},
	}
	if err = s.runSteps(ctx, run, steps); err != nil {
		return nil, err
	}
	s.log.Info("tag created", append(ctxutil.LogFields(ctx), "tag_id", tag.ID, "name", tag.Name, "user", tag.UserCreation)...)
	return tag, nil
}

func (s *tagService) DeleteTag(ctx context.Context, tagID uuid.UUID) (err error) {
	if tagID == uuid.Nil {
		return pkgerrors.Required("tag")
	}
	if !s.mu.TryLock() {
		return pkgerrors.ErrTagInProgress
	}
	defer s.mu.Unlock()

	ctx, span := tracer.Start(context.WithoutCancel(ctx), "pcmm.tag.delete")
	defer func() { endSpan(span, err) }()
	span.SetAttributes(attribute.String("pcmm.tag_id", tagID.String()))

	tag, err := s.tags.GetByID(dbctx.New(ctx), tagID)
	if err != nil {
		return pkgerrors.Persistence("get tag", err)
	}
	if tag == nil {
		return fmt.Errorf("tag %s: %w", tagID, pkgerrors.ErrNotFound)
	}
	run := &types.TagRun{
		TagID:  tagID,
		Kind:   types.TagRunKindDelete,
		Status: types.TagRunStatusRunning,
	}
	if _, err = s.runs.Create(dbctx.New(ctx), run); err != nil {
		return pkgerrors.Persistence("create tag run", err)
	}
	if err = s.runSteps(ctx, run, s.deleteSteps(tagID)); err != nil {
		return err
	}
	s.log.Info("tag deleted", append(ctxutil.LogFields(ctx), "tag_id", tagID, "name", tag.Name)...)
	return nil
}

func (s *tagService) ListTags(ctx context.Context) ([]*types.Tag, error) {
	rows, err := s.tags.ListAll(dbctx.New(ctx))
	if err != nil {
		return nil, pkgerrors.Persistence("list tags", err)
	}
	return rows, nil
}

func (s *tagService) GetTag(ctx context.Context, tagID uuid.UUID) (*types.Tag, error) {
	if tagID == uuid.Nil {
		return nil, pkgerrors.Required("tag")
	}
	tag, err := s.tags.GetByID(dbctx.New(ctx), tagID)
	if err != nil {
		return nil, pkgerrors.Persistence("get tag", err)
	}
	if tag == nil {
		return nil, fmt.Errorf("tag %s: %w", tagID, pkgerrors.ErrNotFound)
	}
	return tag, nil
}

// UpdateTag renames a tag or changes its description. The tagged rows stay untouched.
func (s *tagService) UpdateTag(ctx context.Context, tagID uuid.UUID, name, description string) (*types.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.Required("name")
	}
	tag, err := s.GetTag(ctx, tagID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"name":        name,
		"description": strings.TrimSpace(description),
		"updated_at":  s.now(),
	}
	if err := s.tags.UpdateFields(dbctx.New(ctx), tagID, updates); err != nil {
		return nil, pkgerrors.Persistence("update tag", err)
	}
	tag.Name = name
	tag.Description = strings.TrimSpace(description)
	return tag, nil
}

func (s *tagService) ListRuns(ctx context.Context, tagID uuid.UUID) ([]*types.TagRun, error) {
	if tagID == uuid.Nil {
		return nil, pkgerrors.Required("tag")
	}
	rows, err := s.runs.ListByTagID(dbctx.New(ctx), tagID)
	if err != nil {
		return nil, pkgerrors.Persistence("list tag runs", err)
	}
	return rows, nil
}

func (s *tagService) Repair(ctx context.Context, olderThan time.Duration) (res *RepairResult, err error) {
	if !s.mu.TryLock() {
		return nil, pkgerrors.ErrTagInProgress
	}
	defer s.mu.Unlock()

	ctx, span := tracer.Start(context.WithoutCancel(ctx), "pcmm.tag.repair")
	defer func() { endSpan(span, err) }()

	var before time.Time
	if olderThan > 0 {
		before = s.now().Add(-olderThan)
	}
	pending, err := s.runs.ListByStatusBefore(
		dbctx.New(ctx),
		[]string{types.TagRunStatusRunning, types.TagRunStatusFailed},
		before,
		100,
	)
	if err != nil {
		return nil, pkgerrors.Persistence("list pending tag runs", err)
	}

	res = &RepairResult{RolledBack: []uuid.UUID{}, Resumed: []uuid.UUID{}, Failed: []uuid.UUID{}}
	for _, run := range pending {
		if run == nil || run.TagID == uuid.Nil {
			continue
		}
		status := types.TagRunStatusSucceeded
		if run.Kind == types.TagRunKindCreate {
			status = types.TagRunStatusRolledBack
		}
		if rerr := s.settle(ctx, run, status); rerr != nil {
			s.log.Error("tag repair failed", "run_id", run.ID, "tag_id", run.TagID, "kind", run.Kind, "error", rerr)
			res.Failed = append(res.Failed, run.ID)
			observability.Current().IncTagRepair("failed")
			continue
		}
		observability.Current().IncTagRepair(status)
		if status == types.TagRunStatusRolledBack {
			res.RolledBack = append(res.RolledBack, run.ID)
		} else {
			res.Resumed = append(res.Resumed, run.ID)
		}
	}
	span.SetAttributes(
		attribute.Int("pcmm.rolled_back", len(res.RolledBack)),
		attribute.Int("pcmm.resumed", len(res.Resumed)),
	)
	if len(res.Failed) > 0 {
		err = fmt.Errorf("%d tag runs could not be repaired", len(res.Failed))
		return res, err
	}
	return res, nil
}

// settle runs the delete cascade for the run's tag and closes the run with status.
func (s *tagService) settle(ctx context.Context, run *types.TagRun, status string) error {
	s.log.Warn("repairing tag run", "run_id", run.ID, "tag_id", run.TagID, "kind", run.Kind, "step", run.Step, "status", run.Status)
	stop := s.keepAlive(ctx, run.ID)
	defer stop()
	counts := decodeCounts(run.Detail)
	for _, step := range s.deleteSteps(run.TagID) {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			n, err := step.run(dbctx.Context{Ctx: ctx, Tx: tx})
			if err != nil {
				return err
			}
			counts["repair_"+step.name] = n
			return nil
		})
		if err != nil {
			s.markFailed(ctx, run, step.name, err)
			return wrapStep(step.name, err)
		}
		if step.after != nil {
			step.after(ctx)
		}
	}
	return pkgerrors.Persistence("close tag run", s.runs.UpdateFields(dbctx.New(ctx), run.ID, map[string]interface{}{
		"status": status,
		"detail": encodeCounts(counts),
		"error":  "",
	}))
}

func (s *tagService) deleteSteps(tagID uuid.UUID) []tagStep {
	var dropped []types.Target
	return []tagStep{
		{
			name: types.TagStepEvidence,
			run: func(dbc dbctx.Context) (int64, error) {
				rows, err := s.evidence.ListByTag(dbc, &tagID)
				if err != nil {
					return 0, pkgerrors.Persistence("list tagged evidence", err)
				}
				dropped = distinctTargets(rows)
				n, err := s.evidence.DeleteByTagID(dbc, tagID)
				return n, pkgerrors.Persistence("delete tagged evidence", err)
			},
			after: func(ctx context.Context) { s.refresh(ctx, dropped) },
		},
		{name: types.TagStepAssessment, run: func(dbc dbctx.Context) (int64, error) {
			n, err := s.assessments.DeleteByTagID(dbc, tagID)
			return n, pkgerrors.Persistence("delete tagged assessments", err)
		}},
		{name: types.TagStepPlanning, run: func(dbc dbctx.Context) (int64, error) {
			return s.planning.DeleteTagged(dbc, tagID)
		}},
		{name: types.TagStepReportConfig, run: func(dbc dbctx.Context) (int64, error) {
			cleared, err := s.report.ClearSelectedTagIf(dbc, tagID)
			if cleared {
				return 1, err
			}
			return 0, err
		}},
		{name: types.TagStepTag, run: func(dbc dbctx.Context) (int64, error) {
			n, err := s.tags.Delete(dbc, tagID)
			return n, pkgerrors.Persistence("delete tag", err)
		}},
	}
}

// runSteps commits each step together with the run's progress marker. The
// first failing step marks the run failed and stops the operation.
func (s *tagService) runSteps(ctx context.Context, run *types.TagRun, steps []tagStep) error {
	stop := s.keepAlive(ctx, run.ID)
	defer stop()
	counts := decodeCounts(run.Detail)
	for _, step := range steps {
		stepCtx, span := tracer.Start(ctx, "pcmm.tag.step."+step.name)
		span.SetAttributes(attribute.String("pcmm.tag_id", run.TagID.String()), attribute.String("pcmm.kind", run.Kind))

		var n int64
		started := time.Now()
		err := s.db.WithContext(stepCtx).Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: stepCtx, Tx: tx}
			var err error
			if n, err = step.run(dbc); err != nil {
				return err
			}
			counts[step.name] = n
			return s.runs.UpdateFields(dbc, run.ID, map[string]interface{}{
				"step":   step.name,
				"detail": encodeCounts(counts),
			})
		})
		endSpan(span, err)
		if err != nil {
			observability.Current().ObserveTagStep(run.Kind, step.name, "error", time.Since(started))
			delete(counts, step.name)
			s.markFailed(ctx, run, step.name, err)
			return wrapStep(step.name, err)
		}
		observability.Current().ObserveTagStep(run.Kind, step.name, "ok", time.Since(started))
		if step.after != nil {
			step.after(ctx)
		}
		run.Step = step.name
		s.log.Debug("tag step done", "tag_id", run.TagID, "kind", run.Kind, "step", step.name, "rows", n)
	}
	run.Status = types.TagRunStatusSucceeded
	run.Detail = encodeCounts(counts)
	observability.Current().IncTagRun(run.Kind, run.Status)
	return pkgerrors.Persistence("close tag run", s.runs.UpdateFields(dbctx.New(ctx), run.ID, map[string]interface{}{
		"status": types.TagRunStatusSucceeded,
		"detail": run.Detail,
	}))
}

func (s *tagService) markFailed(ctx context.Context, run *types.TagRun, step string, cause error) {
	s.log.Error("tag step failed", append(ctxutil.LogFields(ctx), "tag_id", run.TagID, "kind", run.Kind, "step", step, "error", cause)...)
	run.Status = types.TagRunStatusFailed
	run.Error = fmt.Sprintf("%s: %v", step, cause)
	observability.Current().IncTagRun(run.Kind, run.Status)
	if err := s.runs.UpdateFields(dbctx.New(ctx), run.ID, map[string]interface{}{
		"status": types.TagRunStatusFailed,
		"error":  run.Error,
	}); err != nil {
		s.log.Error("tag run status update failed", "run_id", run.ID, "error", err)
	}
}

// keepAlive touches the run's updated_at every heartbeat until stop is called,
// so that Repair in another process does not take the run for abandoned.
func (s *tagService) keepAlive(ctx context.Context, runID uuid.UUID) (stop func()) {
	if s.heartbeat <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(s.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.runs.UpdateFields(dbctx.New(ctx), runID, map[string]interface{}{"updated_at": s.now()}); err != nil && ctx.Err() == nil {
					s.log.Warn("tag run heartbeat failed", "run_id", runID, "error", err)
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// refresh drops the cached hierarchies of targets. Failures are logged only.
func (s *tagService) refresh(ctx context.Context, targets []types.Target) {
	if len(targets) == 0 {
		return
	}
	if err := s.pcmm.RefreshNode(ctx, targets...); err != nil {
		s.log.Warn("node refresh failed", "targets", len(targets), "error", err)
	}
}

// tagEvidence copies every active evidence row under tag and returns the
// nodes that now hold tagged evidence.
func (s *tagService) tagEvidence(dbc dbctx.Context, tag *types.Tag) (int64, []types.Target, error) {
	rows, err := s.evidence.ListByTag(dbc, nil)
	if err != nil {
		return 0, nil, pkgerrors.Persistence("list active evidence", err)
	}
	var n int64
	for _, e := range rows {
		cp := e.Copy()
		cp.TagID = &tag.ID
		if _, err := s.evidence.Create(dbc, []*types.Evidence{cp}); err != nil {
			return n, nil, pkgerrors.Persistence("copy evidence", err)
		}
		n++
	}
	return n, distinctTargets(rows), nil
}

func distinctTargets(rows []*types.Evidence) []types.Target {
	seen := map[uuid.UUID]bool{}
	var out []types.Target
	for _, e := range rows {
		t, err := e.Target()
		if err != nil || seen[t.NodeID()] {
			continue
		}
		seen[t.NodeID()] = true
		out = append(out, t)
	}
	return out
}

// tagAssessments copies every active assessment under tag.
func (s *tagService) tagAssessments(dbc dbctx.Context, tag *types.Tag) (int64, error) {
	rows, err := s.assessments.ListByTag(dbc, nil)
	if err != nil {
		return 0, pkgerrors.Persistence("list active assessments", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	copies := make([]*types.Assessment, 0, len(rows))
	for _, a := range rows {
		cp := a.Copy()
		cp.TagID = &tag.ID
		copies = append(copies, cp)
	}
	if _, err := s.assessments.Create(dbc, copies); err != nil {
		return 0, pkgerrors.Persistence("copy assessments", err)
	}
	return int64(len(copies)), nil
}

func wrapStep(step string, err error) error {
	if pkgerrors.IsValidation(err) || pkgerrors.IsPersistence(err) || errors.Is(err, pkgerrors.ErrNotFound) {
		return err
	}
	return pkgerrors.Persistence("tag step "+step, err)
}

func encodeCounts(counts map[string]int64) datatypes.JSON {
	raw, _ := json.Marshal(counts)
	return datatypes.JSON(raw)
}

func decodeCounts(raw datatypes.JSON) map[string]int64 {
	out := map[string]int64{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &out)
	}
	return out
}
