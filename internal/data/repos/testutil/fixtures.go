package testutil

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
)

func SeedElement(tb testing.TB, ctx context.Context, tx *gorm.DB, modelID uuid.UUID, abbrev string, position int) *types.Element {
	tb.Helper()
	e := &types.Element{
		ID:           uuid.New(),
		ModelID:      modelID,
		Name:         "element " + abbrev,
		Abbreviation: abbrev,
		Position:     position,
	}
	if err := tx.WithContext(ctx).Omit("Subelements", "Levels").Create(e).Error; err != nil {
		tb.Fatalf("seed element: %v", err)
	}
	return e
}

func SeedSubelement(tb testing.TB, ctx context.Context, tx *gorm.DB, elementID uuid.UUID, code string, position int) *types.Subelement {
	tb.Helper()
	s := &types.Subelement{
		ID:        uuid.New(),
		ElementID: elementID,
		Code:      code,
		Name:      "subelement " + code,
		Position:  position,
	}
	if err := tx.WithContext(ctx).Omit("Element", "Levels").Create(s).Error; err != nil {
		tb.Fatalf("seed subelement: %v", err)
	}
	return s
}

// SeedLevels attaches one level per code to the target node.
func SeedLevels(tb testing.TB, ctx context.Context, tx *gorm.DB, t types.Target, codes ...int) []types.Level {
	tb.Helper()
	out := make([]types.Level, 0, len(codes))
	for _, code := range codes {
		l := types.Level{ID: uuid.New(), Code: code, Name: "L" + strconv.Itoa(code)}
		switch v := t.(type) {
		case types.ElementTarget:
			l.ElementID = PtrUUID(v.ElementID)
		case types.SubelementTarget:
			l.SubelementID = PtrUUID(v.SubelementID)
		}
		if err := tx.WithContext(ctx).Create(&l).Error; err != nil {
			tb.Fatalf("seed level: %v", err)
		}
		out = append(out, l)
	}
	return out
}

func SeedLevelColor(tb testing.TB, ctx context.Context, tx *gorm.DB, code int, name string) *types.LevelColor {
	tb.Helper()
	c := &types.LevelColor{ID: uuid.New(), Code: code, Name: name}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed level color: %v", err)
	}
	return c
}

func SeedOptions(tb testing.TB, ctx context.Context, tx *gorm.DB, phases ...types.Phase) {
	tb.Helper()
	for _, p := range phases {
		if err := tx.WithContext(ctx).Create(&types.Option{ID: uuid.New(), Phase: p}).Error; err != nil {
			tb.Fatalf("seed option: %v", err)
		}
	}
}

func SeedAssessment(tb testing.TB, ctx context.Context, tx *gorm.DB, t types.Target, level *types.Level, user string) *types.Assessment {
	tb.Helper()
	a := &types.Assessment{
		ID:           uuid.New(),
		RoleCreation: "analyst",
		UserCreation: user,
		Comment:      "assessed by " + user,
		DateCreation: time.Now().UTC(),
	}
	if level != nil {
		a.LevelID = PtrUUID(level.ID)
	}
	a.SetTarget(t)
	if err := tx.WithContext(ctx).Omit("Level", "Subelement").Create(a).Error; err != nil {
		tb.Fatalf("seed assessment: %v", err)
	}
	return a
}

func SeedEvidence(tb testing.TB, ctx context.Context, tx *gorm.DB, t types.Target, path string) *types.Evidence {
	tb.Helper()
	e := &types.Evidence{
		ID:           uuid.New(),
		Name:         path,
		Type:         types.EvidenceFile,
		Value:        path,
		UserCreation: "seed",
		DateCreation: time.Now().UTC(),
	}
	e.SetTarget(t)
	if err := tx.WithContext(ctx).Omit("Subelement").Create(e).Error; err != nil {
		tb.Fatalf("seed evidence: %v", err)
	}
	return e
}

func SeedTag(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Tag {
	tb.Helper()
	tag := &types.Tag{ID: uuid.New(), Name: name, DateTag: time.Now().UTC(), UserCreation: "seed"}
	if err := tx.WithContext(ctx).Create(tag).Error; err != nil {
		tb.Fatalf("seed tag: %v", err)
	}
	return tag
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

