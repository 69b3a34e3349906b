package pcmm

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/pcmm-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/pkg/dbctx"
)

func TestEvidenceRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewEvidenceRepo(db, testutil.Logger(t))

	elt := testutil.SeedElement(t, ctx, tx, uuid.New(), "PMMF", 0)
	sub := testutil.SeedSubelement(t, ctx, tx, elt.ID, "PMMF1", 0)
	tag := testutil.SeedTag(t, ctx, tx, "baseline")

	onElt := testutil.SeedEvidence(t, ctx, tx, types.ForElement(elt), "docs/a.pdf")
	onSub := testutil.SeedEvidence(t, ctx, tx, types.ForSubelement(sub), "docs/b.pdf")

	// An element-level query must not pick up evidence of its subelements.
	rows, err := repo.ListByTarget(dbc, types.ForElement(elt), nil)
	if err != nil || len(rows) != 1 || rows[0].ID != onElt.ID {
		t.Fatalf("ListByTarget(element): err=%v rows=%v", err, rows)
	}

	dups, err := repo.FindByValue(dbc, types.ForSubelement(sub), "docs/b.pdf", "")
	if err != nil || len(dups) != 1 {
		t.Fatalf("FindByValue: err=%v len=%d", err, len(dups))
	}
	if dups, _ := repo.FindByValue(dbc, types.ForElement(elt), "docs/b.pdf", ""); len(dups) != 0 {
		t.Fatalf("FindByValue: expected no match on other node, got %d", len(dups))
	}

	cp := onSub.Copy()
	cp.TagID = &tag.ID
	if _, err := repo.Create(dbc, []*types.Evidence{cp}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n, _ := repo.CountByTagID(dbc, tag.ID); n != 1 {
		t.Fatalf("CountByTagID: expected 1, got %d", n)
	}
	bySubs, err := repo.ListBySubelementIDs(dbc, []uuid.UUID{sub.ID}, &tag.ID)
	if err != nil || len(bySubs) != 1 || bySubs[0].ID != cp.ID {
		t.Fatalf("ListBySubelementIDs: err=%v rows=%v", err, bySubs)
	}

	onElt.SetTarget(types.ForSubelement(sub))
	onElt.GeneratedID = "gen-1"
	if err := repo.Update(dbc, onElt); err != nil {
		t.Fatalf("Update: %v", err)
	}
	moved, _ := repo.GetByID(dbc, onElt.ID)
	if moved.ElementID != nil || moved.SubelementID == nil || *moved.SubelementID != sub.ID {
		t.Fatalf("Update: expected move to subelement, got %+v", moved)
	}

	if n, err := repo.DeleteByTagID(dbc, tag.ID); err != nil || n != 1 {
		t.Fatalf("DeleteByTagID: err=%v n=%d", err, n)
	}
	if n, err := repo.DeleteByTagID(dbc, tag.ID); err != nil || n != 0 {
		t.Fatalf("DeleteByTagID (repeat): err=%v n=%d", err, n)
	}
}
