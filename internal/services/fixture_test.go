package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/data/repos"
	"github.com/yungbote/pcmm-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/modules/pcmm/progress"
	"github.com/yungbote/pcmm-backend/internal/platform/nodecache"
)

// stack wires every PCMM service onto one migrated test database. Services
// open their own transactions, so fixtures are written straight to db.
type stack struct {
	db    *gorm.DB
	cache nodecache.Cache

	tagRepo        repos.TagRepo
	tagRunRepo     repos.TagRunRepo
	evidenceRepo   repos.EvidenceRepo
	assessmentRepo repos.AssessmentRepo
	planningRepo   repos.PlanningRepo
	reportRepo     repos.ReportParametersRepo

	pcmm        PCMMService
	planning    PlanningService
	report      ReportConfigService
	evidence    EvidenceService
	assessments AssessmentService
	aggregation AggregationService
	progress    ProgressService
	tags        TagService
}

func newStack(t *testing.T, wrapPlanning func(PlanningService) PlanningService) *stack {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	s := &stack{
		db:             db,
		cache:          nodecache.NewMemory(),
		tagRepo:        repos.NewTagRepo(db, log),
		tagRunRepo:     repos.NewTagRunRepo(db, log),
		evidenceRepo:   repos.NewEvidenceRepo(db, log),
		assessmentRepo: repos.NewAssessmentRepo(db, log),
		planningRepo:   repos.NewPlanningRepo(db, log),
		reportRepo:     repos.NewReportParametersRepo(db, log),
	}
	levels := repos.NewLevelRepo(db, log)

	s.pcmm = NewPCMMService(db, log,
		repos.NewElementRepo(db, log),
		repos.NewSubelementRepo(db, log),
		repos.NewLevelColorRepo(db, log),
		repos.NewOptionRepo(db, log),
		s.evidenceRepo,
		s.cache,
	)
	s.planning = NewPlanningService(db, log, s.planningRepo)
	if wrapPlanning != nil {
		s.planning = wrapPlanning(s.planning)
	}
	s.report = NewReportConfigService(db, log, s.reportRepo, s.tagRepo)
	s.evidence = NewEvidenceService(db, log, s.evidenceRepo, s.pcmm)
	s.assessments = NewAssessmentService(db, log, s.assessmentRepo, levels)
	s.aggregation = NewAggregationService(db, log, s.assessmentRepo, levels, s.pcmm)
	s.progress = NewProgressService(db, log, s.pcmm, s.assessmentRepo, s.planning, progress.DefaultWeights())
	s.tags = NewTagService(db, log, s.tagRepo, s.tagRunRepo, s.evidenceRepo, s.assessmentRepo, s.planning, s.report, s.pcmm)
	return s
}

// project is a two-element default-mode hierarchy:
//
//	RGF: RGF1, RGF2 (levels 0..3 each)
//	PMMF: PMMF1 (levels 0..3)
type project struct {
	modelID uuid.UUID
	rgf     *types.Element
	pmmf    *types.Element
	rgf1    *types.Subelement
	rgf2    *types.Subelement
	pmmf1   *types.Subelement
	levels  map[uuid.UUID][]types.Level
}

func seedProject(t *testing.T, ctx context.Context, db *gorm.DB) *project {
	t.Helper()
	p := &project{modelID: uuid.New(), levels: map[uuid.UUID][]types.Level{}}
	p.rgf = testutil.SeedElement(t, ctx, db, p.modelID, "RGF", 0)
	p.pmmf = testutil.SeedElement(t, ctx, db, p.modelID, "PMMF", 1)
	p.rgf1 = testutil.SeedSubelement(t, ctx, db, p.rgf.ID, "RGF1", 0)
	p.rgf2 = testutil.SeedSubelement(t, ctx, db, p.rgf.ID, "RGF2", 1)
	p.pmmf1 = testutil.SeedSubelement(t, ctx, db, p.pmmf.ID, "PMMF1", 0)
	for _, sub := range []*types.Subelement{p.rgf1, p.rgf2, p.pmmf1} {
		p.levels[sub.ID] = testutil.SeedLevels(t, ctx, db, types.ForSubelement(sub), 0, 1, 2, 3)
	}
	for code, name := range map[int]string{0: "none", 1: "low", 2: "medium", 3: "high"} {
		testutil.SeedLevelColor(t, ctx, db, code, name)
	}
	testutil.SeedOptions(t, ctx, db, types.PhaseEvidence, types.PhaseAssess, types.PhasePlanning)
	return p
}

func (p *project) level(sub *types.Subelement, code int) *types.Level {
	for i, l := range p.levels[sub.ID] {
		if l.Code == code {
			return &p.levels[sub.ID][i]
		}
	}
	return nil
}

func countRows(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count %T: %v", model, err)
	}
	return n
}
