package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/pcmm-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
)

func TestAssessmentServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)

	added, err := s.assessments.Add(ctx, AddAssessmentInput{
		Target:  types.ForSubelement(p.rgf1),
		LevelID: testutil.PtrUUID(p.level(p.rgf1, 1).ID),
		Comment: "first pass",
		User:    "alice",
		Role:    "analyst",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if added.DateCreation.IsZero() || added.TagID != nil {
		t.Fatalf("Add: unexpected %+v", added)
	}

	change := *added
	change.LevelID = testutil.PtrUUID(p.level(p.rgf1, 2).ID)
	if _, err := s.assessments.Update(ctx, &change, "bob", "analyst"); !pkgerrors.IsValidation(err) {
		t.Fatalf("Update(other user): expected validation error, got %v", err)
	}
	if _, err := s.assessments.Update(ctx, &change, "alice", "reviewer"); !pkgerrors.IsValidation(err) {
		t.Fatalf("Update(other role): expected validation error, got %v", err)
	}
	updated, err := s.assessments.Update(ctx, &change, "alice", "analyst")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.DateUpdate == nil {
		t.Fatalf("Update: expected date_update to be set")
	}

	rows, err := s.assessments.ListByElementInSubelements(ctx, p.rgf.ID, nil)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByElementInSubelements: err=%v len=%d", err, len(rows))
	}
	if rows[0].Level == nil || rows[0].Level.Code != 2 {
		t.Fatalf("ListByElementInSubelements: expected level 2, got %+v", rows[0].Level)
	}

	if err := s.assessments.Delete(ctx, added.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	active, err := s.assessments.ListActive(ctx)
	if err != nil || len(active) != 0 {
		t.Fatalf("ListActive: err=%v len=%d", err, len(active))
	}
}

func TestAssessmentServiceValidation(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)
	target := types.ForSubelement(p.rgf1)

	cases := []struct {
		name string
		in   AddAssessmentInput
	}{
		{name: "no target", in: AddAssessmentInput{User: "alice", Role: "analyst"}},
		{name: "no user", in: AddAssessmentInput{Target: target, Role: "analyst"}},
		{name: "no role", in: AddAssessmentInput{Target: target, User: "alice"}},
		{name: "level of another node", in: AddAssessmentInput{
			Target:  target,
			LevelID: testutil.PtrUUID(p.level(p.rgf2, 1).ID),
			User:    "alice",
			Role:    "analyst",
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.assessments.Add(ctx, tc.in); !pkgerrors.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if _, err := s.assessments.Update(ctx, &types.Assessment{}, "alice", "analyst"); !pkgerrors.IsValidation(err) {
		t.Fatalf("Update(no id): expected validation error, got %v", err)
	}
	if err := s.assessments.Delete(ctx, uuid.Nil); !pkgerrors.IsValidation(err) {
		t.Fatalf("Delete(nil): expected validation error, got %v", err)
	}
}
