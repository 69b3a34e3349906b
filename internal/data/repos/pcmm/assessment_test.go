package pcmm

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pcmm-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
)

func TestAssessmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewAssessmentRepo(db, testutil.Logger(t))

	modelID := uuid.New()
	elt := testutil.SeedElement(t, ctx, tx, modelID, "RGF", 0)
	sub1 := testutil.SeedSubelement(t, ctx, tx, elt.ID, "RGF1", 0)
	sub2 := testutil.SeedSubelement(t, ctx, tx, elt.ID, "RGF2", 1)
	levels := testutil.SeedLevels(t, ctx, tx, types.ForSubelement(sub1), 1, 2, 3)
	tag := testutil.SeedTag(t, ctx, tx, "v1")

	active := testutil.SeedAssessment(t, ctx, tx, types.ForSubelement(sub1), &levels[1], "alice")
	testutil.SeedAssessment(t, ctx, tx, types.ForSubelement(sub2), nil, "bob")

	tagged := active.Copy()
	tagged.TagID = &tag.ID
	if _, err := repo.Create(dbc, []*types.Assessment{tagged}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if tagged.ID == uuid.Nil || tagged.ID == active.ID {
		t.Fatalf("Create: expected fresh id, got %v", tagged.ID)
	}

	got, err := repo.GetByID(dbc, active.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.Level == nil || got.Level.Code != 2 {
		t.Fatalf("GetByID: expected preloaded level 2, got %+v", got)
	}
	target, err := got.Target()
	if err != nil {
		t.Fatalf("Target: %v", err)
	}
	if target.RootElementID() != elt.ID {
		t.Fatalf("Target: expected root %v, got %v", elt.ID, target.RootElementID())
	}

	activeRows, err := repo.ListByTag(dbc, nil)
	if err != nil || len(activeRows) != 2 {
		t.Fatalf("ListByTag(active): err=%v len=%d", err, len(activeRows))
	}
	tagRows, err := repo.ListByTag(dbc, &tag.ID)
	if err != nil || len(tagRows) != 1 || tagRows[0].ID != tagged.ID {
		t.Fatalf("ListByTag(tag): err=%v rows=%v", err, tagRows)
	}

	inSubs, err := repo.ListByElementInSubelements(dbc, elt.ID, nil)
	if err != nil || len(inSubs) != 2 {
		t.Fatalf("ListByElementInSubelements: err=%v len=%d", err, len(inSubs))
	}
	bySub, err := repo.ListByTarget(dbc, types.ForSubelement(sub2), nil)
	if err != nil || len(bySub) != 1 {
		t.Fatalf("ListByTarget: err=%v len=%d", err, len(bySub))
	}

	now := time.Now().UTC()
	got.Comment = "updated"
	got.DateUpdate = &now
	if err := repo.Update(dbc, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	reloaded, _ := repo.GetByID(dbc, active.ID)
	if reloaded.Comment != "updated" || reloaded.DateUpdate == nil {
		t.Fatalf("Update: not persisted: %+v", reloaded)
	}

	n, err := repo.DeleteByTagID(dbc, tag.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteByTagID: err=%v n=%d", err, n)
	}
	if cnt, _ := repo.CountByTagID(dbc, tag.ID); cnt != 0 {
		t.Fatalf("CountByTagID: expected 0, got %d", cnt)
	}
	// Active rows are untouched by a tag delete.
	if rows, _ := repo.ListByTag(dbc, nil); len(rows) != 2 {
		t.Fatalf("active rows after tag delete: expected 2, got %d", len(rows))
	}
}
