package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/data/repos"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

type Repos struct {
	Element    repos.ElementRepo
	Subelement repos.SubelementRepo
	Level      repos.LevelRepo
	LevelColor repos.LevelColorRepo
	Option     repos.OptionRepo

	Tag              repos.TagRepo
	TagRun           repos.TagRunRepo
	Assessment       repos.AssessmentRepo
	Evidence         repos.EvidenceRepo
	Planning         repos.PlanningRepo
	ReportParameters repos.ReportParametersRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Element:    repos.NewElementRepo(db, log),
		Subelement: repos.NewSubelementRepo(db, log),
		Level:      repos.NewLevelRepo(db, log),
		LevelColor: repos.NewLevelColorRepo(db, log),
		Option:     repos.NewOptionRepo(db, log),

		Tag:              repos.NewTagRepo(db, log),
		TagRun:           repos.NewTagRunRepo(db, log),
		Assessment:       repos.NewAssessmentRepo(db, log),
		Evidence:         repos.NewEvidenceRepo(db, log),
		Planning:         repos.NewPlanningRepo(db, log),
		ReportParameters: repos.NewReportParametersRepo(db, log),
	}
}
