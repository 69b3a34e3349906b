package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/data/repos/pcmm"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type ElementRepo = pcmm.ElementRepo
type SubelementRepo = pcmm.SubelementRepo
type LevelRepo = pcmm.LevelRepo
type LevelColorRepo = pcmm.LevelColorRepo
type OptionRepo = pcmm.OptionRepo

type TagRepo = pcmm.TagRepo
type TagRunRepo = pcmm.TagRunRepo
type AssessmentRepo = pcmm.AssessmentRepo
type EvidenceRepo = pcmm.EvidenceRepo
type PlanningRepo = pcmm.PlanningRepo
type ReportParametersRepo = pcmm.ReportParametersRepo

func NewElementRepo(db *gorm.DB, baseLog *logger.Logger) ElementRepo {
	return pcmm.NewElementRepo(db, baseLog)
}
func NewSubelementRepo(db *gorm.DB, baseLog *logger.Logger) SubelementRepo {
	return pcmm.NewSubelementRepo(db, baseLog)
}
func NewLevelRepo(db *gorm.DB, baseLog *logger.Logger) LevelRepo {
	return pcmm.NewLevelRepo(db, baseLog)
}
func NewLevelColorRepo(db *gorm.DB, baseLog *logger.Logger) LevelColorRepo {
	return pcmm.NewLevelColorRepo(db, baseLog)
}
func NewOptionRepo(db *gorm.DB, baseLog *logger.Logger) OptionRepo {
	return pcmm.NewOptionRepo(db, baseLog)
}

func NewTagRepo(db *gorm.DB, baseLog *logger.Logger) TagRepo { return pcmm.NewTagRepo(db, baseLog) }
func NewTagRunRepo(db *gorm.DB, baseLog *logger.Logger) TagRunRepo {
	return pcmm.NewTagRunRepo(db, baseLog)
}
func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return pcmm.NewAssessmentRepo(db, baseLog)
}
func NewEvidenceRepo(db *gorm.DB, baseLog *logger.Logger) EvidenceRepo {
	return pcmm.NewEvidenceRepo(db, baseLog)
}
func NewPlanningRepo(db *gorm.DB, baseLog *logger.Logger) PlanningRepo {
	return pcmm.NewPlanningRepo(db, baseLog)
}
func NewReportParametersRepo(db *gorm.DB, baseLog *logger.Logger) ReportParametersRepo {
	return pcmm.NewReportParametersRepo(db, baseLog)
}
