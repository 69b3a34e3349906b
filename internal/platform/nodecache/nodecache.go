// Package nodecache caches assembled element hierarchies (element, its
// subelements and their levels) together with which nodes of the hierarchy
// hold evidence, per tag filter. Writers that change a node invalidate its
// root element once their transaction has committed.
package nodecache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
)

// ActiveKey is the evidence key of untagged rows.
const ActiveKey = "active"

// Node is one cached root element. Evidence maps an evidence key (ActiveKey or
// a tag id) to the ids of the element or subelements holding at least one
// evidence row under that filter. A missing key means "not loaded yet".
type Node struct {
	Element  types.Element          `json:"element"`
	Evidence map[string][]uuid.UUID `json:"evidence,omitempty"`
}

// EvidenceKey maps a tag filter to its key in Node.Evidence.
func EvidenceKey(tag types.TagFilter) string {
	if tag == nil || *tag == uuid.Nil {
		return ActiveKey
	}
	return tag.String()
}

func (n *Node) clone() *Node {
	out := &Node{Element: n.Element}
	out.Element.Levels = append([]types.Level(nil), n.Element.Levels...)
	if n.Element.Subelements != nil {
		out.Element.Subelements = make([]types.Subelement, len(n.Element.Subelements))
		for i, sub := range n.Element.Subelements {
			sub.Levels = append([]types.Level(nil), sub.Levels...)
			out.Element.Subelements[i] = sub
		}
	}
	if n.Evidence != nil {
		out.Evidence = make(map[string][]uuid.UUID, len(n.Evidence))
		for k, ids := range n.Evidence {
			out.Evidence[k] = append([]uuid.UUID(nil), ids...)
		}
	}
	return out
}

type Cache interface {
	// Get returns the cached node, or nil on a miss.
	Get(ctx context.Context, elementID uuid.UUID) (*Node, error)
	Set(ctx context.Context, n *Node) error
	// Invalidate drops the cached nodes. Missing entries are not an error.
	Invalidate(ctx context.Context, elementIDs ...uuid.UUID) error
	Close() error
}

type memoryCache struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Node
}

// NewMemory returns a process-local cache.
func NewMemory() Cache {
	return &memoryCache{items: map[uuid.UUID]*Node{}}
}

func (c *memoryCache) Get(_ context.Context, elementID uuid.UUID) (*Node, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n, ok := c.items[elementID]
	if !ok {
		return nil, nil
	}
	return n.clone(), nil
}

func (c *memoryCache) Set(_ context.Context, n *Node) error {
	if n == nil || n.Element.ID == uuid.Nil {
		return nil
	}
	c.mu.Lock()
	c.items[n.Element.ID] = n.clone()
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, elementIDs ...uuid.UUID) error {
	c.mu.Lock()
	for _, id := range elementIDs {
		delete(c.items, id)
	}
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Close() error { return nil }

type noopCache struct{}

// NewNoop returns a cache that never hits.
func NewNoop() Cache { return noopCache{} }

func (noopCache) Get(context.Context, uuid.UUID) (*Node, error)  { return nil, nil }
func (noopCache) Set(context.Context, *Node) error               { return nil }
func (noopCache) Invalidate(context.Context, ...uuid.UUID) error { return nil }
func (noopCache) Close() error                                   { return nil }
