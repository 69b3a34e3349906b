package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/pcmm-backend/internal/domain/pcmm"
)

// Models lists every persisted entity in migration order.
func Models() []interface{} {
	return []interface{}{
		// =========================
		// Hierarchy + level catalog
		// =========================
		&pcmm.Element{},
		&pcmm.Subelement{},
		&pcmm.Level{},
		&pcmm.LevelColor{},
		&pcmm.Option{},

		// =========================
		// Assessed data (active + tagged copies)
		// =========================
		&pcmm.Tag{},
		&pcmm.Assessment{},
		&pcmm.Evidence{},

		// =========================
		// Planning
		// =========================
		&pcmm.PlanningParam{},
		&pcmm.PlanningQuestion{},
		&pcmm.PlanningValue{},
		&pcmm.PlanningQuestionValue{},
		&pcmm.PlanningTableItem{},

		// =========================
		// Report + saga bookkeeping
		// =========================
		&pcmm.ReportParameters{},
		&pcmm.TagRun{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// EnsureIndexes adds composite indexes that gorm tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{"idx_pcmm_evidence_node_tag", `CREATE INDEX IF NOT EXISTS idx_pcmm_evidence_node_tag ON pcmm_evidence(element_id, subelement_id, tag_id);`},
		{"idx_pcmm_assessment_node_tag", `CREATE INDEX IF NOT EXISTS idx_pcmm_assessment_node_tag ON pcmm_assessment(element_id, subelement_id, tag_id);`},
		{"idx_pcmm_tag_run_status", `CREATE INDEX IF NOT EXISTS idx_pcmm_tag_run_status ON pcmm_tag_run(status, updated_at);`},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}
