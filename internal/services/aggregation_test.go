package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/pcmm-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	pkgerrors "github.com/yungbote/pcmm-backend/internal/pkg/errors"
)

func TestAggregationServiceDefaultMode(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)

	testutil.SeedAssessment(t, ctx, s.db, types.ForSubelement(p.rgf1), p.level(p.rgf1, 1), "alice")
	testutil.SeedAssessment(t, ctx, s.db, types.ForSubelement(p.rgf1), p.level(p.rgf1, 2), "bob")
	testutil.SeedAssessment(t, ctx, s.db, types.ForSubelement(p.rgf2), p.level(p.rgf2, 3), "alice")

	spec, err := s.pcmm.LoadSpecification(ctx, p.modelID)
	if err != nil {
		t.Fatalf("LoadSpecification: %v", err)
	}
	if spec.Mode != types.ModeDefault {
		t.Fatalf("mode: want=%s got=%s", types.ModeDefault, spec.Mode)
	}
	// element levels are read at aggregation time, not from the loaded hierarchy
	testutil.SeedLevels(t, ctx, s.db, types.ForElement(p.rgf), 0, 1, 2, 3)

	subs, err := s.aggregation.AggregateSubelementAssessments(ctx, spec, spec.Elements, nil)
	if err != nil {
		t.Fatalf("AggregateSubelementAssessments: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("subelement results: want=3 got=%d", len(subs))
	}
	rgf1 := subs[p.rgf1.ID]
	if rgf1.Level == nil || rgf1.Level.Code != 2 || rgf1.Level.Name != "medium" {
		t.Fatalf("RGF1: expected ceil(1.5)=2 medium, got %+v", rgf1.Level)
	}
	if len(rgf1.Comments) != 2 {
		t.Fatalf("RGF1 comments: %q", rgf1.Comments)
	}
	if subs[p.pmmf1.ID].Level != nil {
		t.Fatalf("PMMF1: expected nil level without assessments, got %+v", subs[p.pmmf1.ID].Level)
	}

	elts, err := s.aggregation.AggregateSubelements(ctx, spec, subs)
	if err != nil {
		t.Fatalf("AggregateSubelements: %v", err)
	}
	rgf := elts[p.rgf.ID]
	if rgf.Level == nil || rgf.Level.Code != 3 || rgf.Level.Name != "high" {
		t.Fatalf("RGF: expected ceil((2+3)/2)=3 high, got %+v", rgf.Level)
	}
	if rgf.Item == nil || rgf.Item.ID != p.rgf.ID {
		t.Fatalf("RGF: wrong item %+v", rgf.Item)
	}
	if pmmf, ok := elts[p.pmmf.ID]; !ok || pmmf.Level != nil {
		t.Fatalf("PMMF: expected present with nil level, got %+v ok=%v", pmmf.Level, ok)
	}

	report, err := s.aggregation.Aggregate(ctx, spec, nil)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if report.Complete {
		t.Fatalf("Aggregate: PMMF1 has no assessment, aggregation must be incomplete")
	}
	if report.Elements[p.rgf.ID].Level.Code != 3 {
		t.Fatalf("Aggregate: unexpected RGF level %+v", report.Elements[p.rgf.ID].Level)
	}
}

func TestAggregationServiceSimplifiedMode(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	modelID := uuid.New()
	a := testutil.SeedElement(t, ctx, s.db, modelID, "A", 0)
	b := testutil.SeedElement(t, ctx, s.db, modelID, "B", 1)
	aLevels := testutil.SeedLevels(t, ctx, s.db, types.ForElement(a), 2, 4)
	testutil.SeedLevels(t, ctx, s.db, types.ForElement(b), 1, 2)
	testutil.SeedLevelColor(t, ctx, s.db, 3, "three")

	testutil.SeedAssessment(t, ctx, s.db, types.ForElement(a), &aLevels[0], "alice")
	testutil.SeedAssessment(t, ctx, s.db, types.ForElement(a), &aLevels[1], "bob")

	spec, err := s.pcmm.LoadSpecification(ctx, modelID)
	if err != nil {
		t.Fatalf("LoadSpecification: %v", err)
	}
	if spec.Mode != types.ModeSimplified {
		t.Fatalf("mode: want=%s got=%s", types.ModeSimplified, spec.Mode)
	}

	report, err := s.aggregation.Aggregate(ctx, spec, nil)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	got := report.Elements[a.ID]
	if got.Level == nil || got.Level.Code != 3 || got.Level.Name != "three" {
		t.Fatalf("A: expected raw ceiled code 3 labelled three, got %+v", got.Level)
	}
	if got.Matched == nil || got.Matched.Code != 2 {
		t.Fatalf("A: expected matched level 2, got %+v", got.Matched)
	}
	if report.Elements[b.ID].Level != nil {
		t.Fatalf("B: expected nil level, got %+v", report.Elements[b.ID].Level)
	}
	if report.Subelements != nil {
		t.Fatalf("simplified report must not carry subelement results")
	}
	if report.Complete {
		t.Fatalf("B has no assessment, aggregation must be incomplete")
	}
}

func TestAggregationServiceTagFilter(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)
	for _, sub := range []*types.Subelement{p.rgf1, p.rgf2, p.pmmf1} {
		testutil.SeedAssessment(t, ctx, s.db, types.ForSubelement(sub), p.level(sub, 1), "alice")
	}

	tag, err := s.tags.CreateTag(ctx, CreateTagInput{Name: "v1", User: "alice"})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	testutil.SeedAssessment(t, ctx, s.db, types.ForSubelement(p.rgf1), p.level(p.rgf1, 3), "bob")

	spec, err := s.pcmm.LoadSpecification(ctx, p.modelID)
	if err != nil {
		t.Fatalf("LoadSpecification: %v", err)
	}
	frozen, err := s.aggregation.AggregateSubelementAssessments(ctx, spec, spec.Elements, &tag.ID)
	if err != nil {
		t.Fatalf("AggregateSubelementAssessments(tag): %v", err)
	}
	if lvl := frozen[p.rgf1.ID].Level; lvl == nil || lvl.Code != 1 {
		t.Fatalf("tagged RGF1: expected 1, got %+v", lvl)
	}
	live, err := s.aggregation.AggregateSubelementAssessments(ctx, spec, spec.Elements, nil)
	if err != nil {
		t.Fatalf("AggregateSubelementAssessments(active): %v", err)
	}
	if lvl := live[p.rgf1.ID].Level; lvl == nil || lvl.Code != 2 {
		t.Fatalf("active RGF1: expected ceil(4/2)=2, got %+v", lvl)
	}

	complete, err := s.aggregation.IsCompleteAggregation(ctx, spec, &tag.ID)
	if err != nil {
		t.Fatalf("IsCompleteAggregation: %v", err)
	}
	if !complete {
		t.Fatalf("every subelement is assessed in the tag")
	}
}

func TestAggregationServiceAggregateItem(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)

	spec, err := s.pcmm.LoadSpecification(ctx, p.modelID)
	if err != nil {
		t.Fatalf("LoadSpecification: %v", err)
	}
	target := types.ForSubelement(p.rgf2)
	in := []*types.Assessment{
		{Level: p.level(p.rgf2, 3), Comment: "<em>solid</em>"},
		{Level: p.level(p.rgf2, 2)},
	}
	got, err := s.aggregation.AggregateItem(ctx, target, in, spec.LevelColors)
	if err != nil {
		t.Fatalf("AggregateItem: %v", err)
	}
	if got.Level == nil || got.Level.Code != 3 || got.Item.NodeID() != p.rgf2.ID {
		t.Fatalf("AggregateItem: unexpected %+v", got)
	}
	if got.Comments[0] != "solid" {
		t.Fatalf("AggregateItem: comment not cleared: %q", got.Comments[0])
	}
}

func TestAggregationServiceValidation(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	spec := &types.Specification{LevelColors: types.LevelColorCatalog{}}

	if _, err := s.aggregation.AggregateSubelementAssessments(ctx, nil, []*types.Element{}, nil); !pkgerrors.IsValidation(err) {
		t.Fatalf("nil spec: expected validation error, got %v", err)
	}
	if _, err := s.aggregation.AggregateSubelementAssessments(ctx, &types.Specification{}, []*types.Element{}, nil); !pkgerrors.IsValidation(err) {
		t.Fatalf("nil level colors: expected validation error, got %v", err)
	}
	if _, err := s.aggregation.AggregateSubelementAssessments(ctx, spec, nil, nil); !pkgerrors.IsValidation(err) {
		t.Fatalf("nil elements: expected validation error, got %v", err)
	}
	if _, err := s.aggregation.AggregateSubelements(ctx, spec, nil); !pkgerrors.IsValidation(err) {
		t.Fatalf("nil child results: expected validation error, got %v", err)
	}
	if _, err := s.aggregation.AggregateElementsDirectly(ctx, spec, nil, nil); !pkgerrors.IsValidation(err) {
		t.Fatalf("nil elements: expected validation error, got %v", err)
	}
	if _, err := s.aggregation.AggregateItem(ctx, nil, nil, spec.LevelColors); !pkgerrors.IsValidation(err) {
		t.Fatalf("nil item: expected validation error, got %v", err)
	}
}
