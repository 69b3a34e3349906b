package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/platform/logger"
	"github.com/yungbote/pcmm-backend/internal/platform/nodecache"
	"github.com/yungbote/pcmm-backend/internal/services"
)

type Services struct {
	PCMM         services.PCMMService
	Planning     services.PlanningService
	ReportConfig services.ReportConfigService
	Evidence     services.EvidenceService
	Assessment   services.AssessmentService
	Aggregation  services.AggregationService
	Progress     services.ProgressService
	Tag          services.TagService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, cache nodecache.Cache) Services {
	log.Info("Wiring services...")
	pcmm := services.NewPCMMService(db, log, r.Element, r.Subelement, r.LevelColor, r.Option, r.Evidence, cache)
	planning := services.NewPlanningService(db, log, r.Planning)
	report := services.NewReportConfigService(db, log, r.ReportParameters, r.Tag)

	return Services{
		PCMM:         pcmm,
		Planning:     planning,
		ReportConfig: report,
		Evidence:     services.NewEvidenceService(db, log, r.Evidence, pcmm),
		Assessment:   services.NewAssessmentService(db, log, r.Assessment, r.Level),
		Aggregation:  services.NewAggregationService(db, log, r.Assessment, r.Level, pcmm),
		Progress:     services.NewProgressService(db, log, pcmm, r.Assessment, planning, cfg.Progress),
		Tag:          services.NewTagService(db, log, r.Tag, r.TagRun, r.Evidence, r.Assessment, planning, report, pcmm),
	}
}
