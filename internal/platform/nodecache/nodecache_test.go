package nodecache

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
	"github.com/yungbote/pcmm-backend/internal/platform/logger"
)

func exercise(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()
	sub := uuid.New()
	n := &Node{
		Element: types.Element{ID: uuid.New(), Name: "Code verification", Abbreviation: "CVER",
			Subelements: []types.Subelement{{ID: sub, Code: "CVER1"}}},
		Evidence: map[string][]uuid.UUID{ActiveKey: {sub}},
	}
	other := &Node{Element: types.Element{ID: uuid.New(), Abbreviation: "SVER"}}

	if got, err := c.Get(ctx, n.Element.ID); err != nil || got != nil {
		t.Fatalf("Get before Set: got=%v err=%v", got, err)
	}
	if err := c.Set(ctx, n); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, other); err != nil {
		t.Fatalf("Set(other): %v", err)
	}
	got, err := c.Get(ctx, n.Element.ID)
	if err != nil || got == nil || got.Element.Abbreviation != "CVER" || len(got.Element.Subelements) != 1 {
		t.Fatalf("Get after Set: got=%+v err=%v", got, err)
	}
	if ids := got.Evidence[ActiveKey]; len(ids) != 1 || ids[0] != sub {
		t.Fatalf("Get after Set: evidence=%v", got.Evidence)
	}
	if err := c.Invalidate(ctx, n.Element.ID, other.Element.ID); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	for _, id := range []uuid.UUID{n.Element.ID, other.Element.ID} {
		if got, _ := c.Get(ctx, id); got != nil {
			t.Fatalf("Get after Invalidate: expected miss, got %+v", got)
		}
	}
	if err := c.Invalidate(ctx, n.Element.ID); err != nil {
		t.Fatalf("Invalidate (missing): %v", err)
	}
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()
	n := &Node{
		Element:  types.Element{ID: uuid.New(), Subelements: []types.Subelement{{ID: uuid.New(), Code: "RGF1"}}},
		Evidence: map[string][]uuid.UUID{},
	}
	if err := c.Set(ctx, n); err != nil {
		t.Fatalf("Set: %v", err)
	}
	n.Evidence[ActiveKey] = []uuid.UUID{uuid.New()}

	got, _ := c.Get(ctx, n.Element.ID)
	if _, ok := got.Evidence[ActiveKey]; ok {
		t.Fatalf("cached node changed through the caller's map")
	}
	got.Evidence["x"] = nil
	got.Element.Subelements[0].Code = "changed"
	again, _ := c.Get(ctx, n.Element.ID)
	if _, ok := again.Evidence["x"]; ok {
		t.Fatalf("cached node changed through a returned map")
	}
	if again.Element.Subelements[0].Code != "RGF1" {
		t.Fatalf("cached node changed through a returned subelement")
	}
}

func TestEvidenceKey(t *testing.T) {
	id := uuid.New()
	nilID := uuid.Nil
	if got := EvidenceKey(nil); got != ActiveKey {
		t.Fatalf("EvidenceKey(nil) = %q", got)
	}
	if got := EvidenceKey(&nilID); got != ActiveKey {
		t.Fatalf("EvidenceKey(nil uuid) = %q", got)
	}
	if got := EvidenceKey(&id); got != id.String() {
		t.Fatalf("EvidenceKey(tag) = %q", got)
	}
}

func TestMemoryCache(t *testing.T) {
	exercise(t, NewMemory())
}

func TestNoopCacheNeverHits(t *testing.T) {
	c := NewNoop()
	n := &Node{Element: types.Element{ID: uuid.New()}}
	_ = c.Set(context.Background(), n)
	if got, _ := c.Get(context.Background(), n.Element.ID); got != nil {
		t.Fatalf("expected miss, got %+v", got)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis cache tests")
	}
	c, err := NewRedis(logger.Nop(), RedisConfig{Addr: addr, Prefix: "pcmm:test:" + uuid.NewString()})
	if err != nil {
		t.Fatalf("NewRedis: %v", err)
	}
	defer c.Close()
	exercise(t, c)
}
