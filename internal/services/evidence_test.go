package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
)

func TestEvidenceServiceAdd(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)

	if _, err := s.pcmm.GetElement(ctx, p.rgf.ID); err != nil {
		t.Fatalf("GetElement: %v", err)
	}
	row, err := s.evidence.Add(ctx, AddEvidenceInput{
		Target:  types.ForSubelement(p.rgf1),
		Type:    types.EvidenceFile,
		Value:   `project\docs\verification.pdf`,
		Section: "2.1",
		User:    "alice",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if row.Value != "project/docs/verification.pdf" {
		t.Fatalf("Add: path not normalized: %q", row.Value)
	}
	if row.Name != "verification.pdf" {
		t.Fatalf("Add: name not derived from path: %q", row.Name)
	}
	if row.TagID != nil || row.DateCreation.IsZero() {
		t.Fatalf("Add: unexpected row %+v", row)
	}
	if cached, _ := s.cache.Get(ctx, p.rgf.ID); cached != nil {
		t.Fatalf("Add: parent element must be refreshed")
	}

	_, err = s.evidence.Add(ctx, AddEvidenceInput{
		Target:  types.ForSubelement(p.rgf1),
		Type:    types.EvidenceFile,
		Value:   "project/docs/verification.pdf",
		Section: "2.1",
		User:    "bob",
	})
	if !pkgerrors.IsValidation(err) {
		t.Fatalf("Add(duplicate): expected validation error, got %v", err)
	}
	if _, err := s.evidence.Add(ctx, AddEvidenceInput{
		Target:  types.ForSubelement(p.rgf2),
		Type:    types.EvidenceFile,
		Value:   "project/docs/verification.pdf",
		Section: "2.1",
		User:    "bob",
	}); err != nil {
		t.Fatalf("Add(same path, other node): %v", err)
	}
}

func TestEvidenceServiceAddValidation(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)
	target := types.ForElement(p.rgf)

	cases := []struct {
		name string
		in   AddEvidenceInput
	}{
		{name: "no target", in: AddEvidenceInput{Type: types.EvidenceFile, Value: "a.pdf", User: "alice"}},
		{name: "no value", in: AddEvidenceInput{Target: target, Type: types.EvidenceFile, Value: "  ", User: "alice"}},
		{name: "no user", in: AddEvidenceInput{Target: target, Type: types.EvidenceFile, Value: "a.pdf"}},
		{name: "unknown type", in: AddEvidenceInput{Target: target, Type: "blob", Value: "a.pdf", User: "alice"}},
		{name: "bad url", in: AddEvidenceInput{Target: target, Type: types.EvidenceURL, Value: "not a url", User: "alice"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.evidence.Add(ctx, tc.in); !pkgerrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	row, err := s.evidence.Add(ctx, AddEvidenceInput{Target: target, Type: types.EvidenceURL, Value: "https://example.org/report", Name: "report", User: "alice"})
	if err != nil {
		t.Fatalf("Add(url): %v", err)
	}
	if row.Value != "https://example.org/report" || row.Name != "report" {
		t.Fatalf("Add(url): unexpected %+v", row)
	}
}

func TestEvidenceServiceMoveUpdateDelete(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)

	row, err := s.evidence.Add(ctx, AddEvidenceInput{
		Target: types.ForSubelement(p.rgf1),
		Type:   types.EvidenceFile,
		Value:  "mesh.png",
		User:   "alice",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := s.pcmm.GetElement(ctx, p.pmmf.ID); err != nil {
		t.Fatalf("GetElement: %v", err)
	}
	moved, err := s.evidence.Move(ctx, row.ID, "3", types.ForSubelement(p.pmmf1))
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if moved.SubelementID == nil || *moved.SubelementID != p.pmmf1.ID || moved.GeneratedID != "3" {
		t.Fatalf("Move: unexpected %+v", moved)
	}
	if cached, _ := s.cache.Get(ctx, p.pmmf.ID); cached != nil {
		t.Fatalf("Move: new parent must be refreshed")
	}
	rows, err := s.evidence.ListByTarget(ctx, types.ForSubelement(p.rgf1), nil)
	if err != nil || len(rows) != 0 {
		t.Fatalf("old node: err=%v len=%d", err, len(rows))
	}

	moved.Description = "converged mesh"
	if _, err := s.evidence.Update(ctx, moved); err != nil {
		t.Fatalf("Update: %v", err)
	}
	rows, err = s.evidence.ListByTarget(ctx, types.ForSubelement(p.pmmf1), nil)
	if err != nil || len(rows) != 1 || rows[0].Description != "converged mesh" || rows[0].DateUpdate == nil {
		t.Fatalf("Update: err=%v rows=%+v", err, rows)
	}

	tag, err := s.tags.CreateTag(ctx, CreateTagInput{Name: "v1", User: "alice"})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	frozen, err := s.evidence.ListByTag(ctx, &tag.ID)
	if err != nil || len(frozen) != 1 {
		t.Fatalf("ListByTag: err=%v len=%d", err, len(frozen))
	}
	if _, err := s.evidence.Move(ctx, frozen[0].ID, "1", types.ForSubelement(p.rgf1)); !pkgerrors.IsValidation(err) {
		t.Fatalf("Move(tagged): expected validation error, got %v", err)
	}

	if err := s.evidence.Delete(ctx, row.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	active, err := s.evidence.ListActive(ctx)
	if err != nil || len(active) != 0 {
		t.Fatalf("ListActive: err=%v len=%d", err, len(active))
	}
	if err := s.evidence.Delete(ctx, uuid.New()); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("Delete(unknown): expected ErrNotFound, got %v", err)
	}
	if n := countRows(t, s.db, &types.Evidence{}, "tag_id = ?", tag.ID); n != 1 {
		t.Fatalf("tagged copy must survive active delete, got %d", n)
	}
}
