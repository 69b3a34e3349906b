package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pcmm-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/platform/nodecache"
)

// watchedCache reports every invalidation before passing it on.
type watchedCache struct {
	nodecache.Cache
	onInvalidate func(elementIDs []uuid.UUID)
}

func (c *watchedCache) Invalidate(ctx context.Context, elementIDs ...uuid.UUID) error {
	c.onInvalidate(elementIDs)
	return c.Cache.Invalidate(ctx, elementIDs...)
}

func TestPCMMServiceServesHierarchyFromCache(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)

	elements, err := s.pcmm.ListElements(ctx, p.modelID)
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if len(elements) != 2 || elements[0].ID != p.rgf.ID || elements[1].ID != p.pmmf.ID {
		t.Fatalf("ListElements: unexpected order %+v", elements)
	}
	if len(elements[0].Subelements) != 2 || len(elements[0].Subelements[0].Levels) != 4 {
		t.Fatalf("ListElements: hierarchy not assembled %+v", elements[0])
	}
	if n, _ := s.cache.Get(ctx, p.rgf.ID); n == nil {
		t.Fatalf("ListElements: hierarchy not cached")
	}

	if err := s.db.Model(&types.Element{}).Where("id = ?", p.rgf.ID).Update("name", "renamed").Error; err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := s.pcmm.GetElement(ctx, p.rgf.ID)
	if err != nil {
		t.Fatalf("GetElement: %v", err)
	}
	if got.Name == "renamed" {
		t.Fatalf("GetElement: expected the cached hierarchy before a refresh")
	}

	if err := s.pcmm.RefreshNode(ctx, types.SubelementTarget{SubelementID: p.rgf1.ID}); err != nil {
		t.Fatalf("RefreshNode: %v", err)
	}
	got, err = s.pcmm.GetElement(ctx, p.rgf.ID)
	if err != nil {
		t.Fatalf("GetElement: %v", err)
	}
	if got.Name != "renamed" {
		t.Fatalf("GetElement after refresh: got name %q", got.Name)
	}
}

func TestPCMMServiceEvidenceTargetsFollowWrites(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)

	spec, err := s.pcmm.LoadSpecification(ctx, p.modelID)
	if err != nil {
		t.Fatalf("LoadSpecification: %v", err)
	}
	rgf := spec.Elements[0]
	subscore := func(tag types.TagFilter) int {
		t.Helper()
		n, err := s.progress.ComputeEvidenceSubscore(ctx, rgf, tag, spec.Mode)
		if err != nil {
			t.Fatalf("ComputeEvidenceSubscore: %v", err)
		}
		return n
	}

	if got := subscore(nil); got != 0 {
		t.Fatalf("empty project: want=0 got=%d", got)
	}
	node, _ := s.cache.Get(ctx, p.rgf.ID)
	if node == nil {
		t.Fatalf("evidence presence not cached")
	}
	if ids, ok := node.Evidence[nodecache.ActiveKey]; !ok || len(ids) != 0 {
		t.Fatalf("cached active evidence: ok=%v ids=%v", ok, ids)
	}

	// written behind the services' back, so the cached answer stands
	testutil.SeedEvidence(t, ctx, s.db, types.ForSubelement(p.rgf1), "docs/rgf1/side.pdf")
	if got := subscore(nil); got != 0 {
		t.Fatalf("expected the cached subscore, got %d", got)
	}

	row, err := s.evidence.Add(ctx, AddEvidenceInput{
		Target: types.ForSubelement(p.rgf2),
		Type:   types.EvidenceFile,
		Value:  "docs/rgf2/report.pdf",
		User:   "alice",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := subscore(nil); got != 2 {
		t.Fatalf("after Add: want=2 got=%d", got)
	}

	tag, err := s.tags.CreateTag(ctx, CreateTagInput{Name: "v1", User: "alice"})
	if err != nil {
		t.Fatalf("CreateTag: %v", err)
	}
	if got := subscore(&tag.ID); got != 2 {
		t.Fatalf("tagged: want=2 got=%d", got)
	}

	if err := s.evidence.Delete(ctx, row.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := subscore(nil); got != 1 {
		t.Fatalf("after Delete: want=1 got=%d", got)
	}
	if got := subscore(&tag.ID); got != 2 {
		t.Fatalf("tagged after active Delete: want=2 got=%d", got)
	}

	if err := s.tags.DeleteTag(ctx, tag.ID); err != nil {
		t.Fatalf("DeleteTag: %v", err)
	}
	if got := subscore(&tag.ID); got != 0 {
		t.Fatalf("deleted tag: want=0 got=%d", got)
	}
}

func TestPCMMServiceRefreshRunsAfterCommit(t *testing.T) {
	ctx := context.Background()
	s := newStack(t, nil)
	p := seedProject(t, ctx, s.db)

	// Each invalidation records the active evidence count a fresh reader sees.
	// The test database has a single connection, so a read issued while the
	// writer's transaction is still open times out and records -1.
	var seen []int64
	svc := s.pcmm.(*pcmmService)
	svc.cache = &watchedCache{Cache: svc.cache, onInvalidate: func([]uuid.UUID) {
		readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		var n int64
		if err := s.db.WithContext(readCtx).Model(&types.Evidence{}).Where("tag_id IS NULL").Count(&n).Error; err != nil {
			n = -1
		}
		seen = append(seen, n)
	}}
	last := func(op string, want int64) {
		t.Helper()
		if len(seen) == 0 {
			t.Fatalf("%s: no invalidation", op)
		}
		if got := seen[len(seen)-1]; got != want {
			t.Fatalf("%s: reader at invalidation saw %d active rows, want %d", op, got, want)
		}
	}

	row, err := s.evidence.Add(ctx, AddEvidenceInput{
		Target: types.ForSubelement(p.rgf1),
		Type:   types.EvidenceFile,
		Value:  "mesh.png",
		User:   "alice",
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	last("Add", 1)

	if _, err := s.evidence.Move(ctx, row.ID, "", types.ForSubelement(p.pmmf1)); err != nil {
		t.Fatalf("Move: %v", err)
	}
	last("Move", 1)

	if err := s.evidence.Delete(ctx, row.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	last("Delete", 0)
}
