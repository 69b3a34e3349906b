package pcmm

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/pcmm-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
)

func TestElementRepoHierarchy(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	elements := NewElementRepo(db, log)
	levels := NewLevelRepo(db, log)

	modelID := uuid.New()
	second := testutil.SeedElement(t, ctx, tx, modelID, "B", 1)
	first := testutil.SeedElement(t, ctx, tx, modelID, "A", 0)
	testutil.SeedElement(t, ctx, tx, uuid.New(), "OTHER", 0)
	subB := testutil.SeedSubelement(t, ctx, tx, first.ID, "A2", 1)
	subA := testutil.SeedSubelement(t, ctx, tx, first.ID, "A1", 0)
	testutil.SeedLevels(t, ctx, tx, types.ForSubelement(subA), 3, 1, 2)
	testutil.SeedLevels(t, ctx, tx, types.ForElement(second), 0, 4)

	rows, err := elements.ListByModelID(dbc, modelID)
	if err != nil {
		t.Fatalf("ListByModelID: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != first.ID || rows[1].ID != second.ID {
		t.Fatalf("ListByModelID: expected [A B], got %v", rows)
	}
	if len(rows[0].Subelements) != 2 || rows[0].Subelements[0].ID != subA.ID || rows[0].Subelements[1].ID != subB.ID {
		t.Fatalf("ListByModelID: subelements out of order: %+v", rows[0].Subelements)
	}
	codes := []int{}
	for _, l := range rows[0].Subelements[0].Levels {
		codes = append(codes, l.Code)
	}
	if len(codes) != 3 || codes[0] != 1 || codes[2] != 3 {
		t.Fatalf("ListByModelID: expected levels ascending, got %v", codes)
	}
	if !rows[1].HasLevels() || rows[0].HasLevels() {
		t.Fatalf("HasLevels: unexpected %v/%v", rows[0].HasLevels(), rows[1].HasLevels())
	}

	elementIDs, err := elements.ListIDsByModelID(dbc, modelID)
	if err != nil || len(elementIDs) != 2 || elementIDs[0] != first.ID || elementIDs[1] != second.ID {
		t.Fatalf("ListIDsByModelID: err=%v ids=%v", err, elementIDs)
	}

	byTarget, err := levels.GetByTarget(dbc, types.ForElement(second))
	if err != nil || len(byTarget) != 2 || byTarget[0].Code != 0 {
		t.Fatalf("GetByTarget: err=%v levels=%v", err, byTarget)
	}

	ids, err := elements.ListModelIDs(dbc)
	if err != nil || len(ids) != 2 {
		t.Fatalf("ListModelIDs: err=%v ids=%v", err, ids)
	}
}
