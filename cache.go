package lambdakit

import (
	"container/list"
	"context"
	"sync"
)

// ProgramCache is an LRU cache of built programs keyed by source text.
// Programs are immutable, so one entry can back any number of sessions.
// It is safe for concurrent use.
type ProgramCache struct {
	cap  int
	ll   *list.List
	m    map[cacheKey]*list.Element
	mu   sync.Mutex
	hits int
}

// strict の有無でビルド結果が変わりうるのでキーに含める。
type cacheKey struct {
	src    string
	strict bool
}

type cacheEntry struct {
	key  cacheKey
	prog *Program
}

// NewProgramCache creates a cache with a fixed capacity.
func NewProgramCache(capacity int) *ProgramCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &ProgramCache{
		cap: capacity,
		ll:  list.New(),
		m:   make(map[cacheKey]*list.Element),
	}
}

// Get returns the program built from src, if present.
func (c *ProgramCache) Get(src string, strict bool) (*Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.m[cacheKey{src, strict}]; ok {
		c.ll.MoveToFront(ele)
		c.hits++
		prog := ele.Value.(*cacheEntry).prog
		return prog, prog != nil
	}
	return nil, false
}

// Put inserts or replaces the program for its source.
func (c *ProgramCache) Put(prog *Program, strict bool) {
	if prog == nil {
		return
	}
	key := cacheKey{prog.Source, strict}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.m[key]; ok {
		c.ll.MoveToFront(ele)
		ele.Value.(*cacheEntry).prog = prog
		return
	}
	ele := c.ll.PushFront(&cacheEntry{key: key, prog: prog})
	c.m[key] = ele
	if c.ll.Len() > c.cap {
		c.evict()
	}
}

// Build returns the cached program for src or builds and caches it.
// Failed builds are not cached. Two callers racing on the same source may
// both build; the last one wins.
func (c *ProgramCache) Build(ctx context.Context, src string, opts Options) (*Program, error) {
	if prog, ok := c.Get(src, opts.Strict); ok {
		return prog, nil
	}
	prog, err := Build(ctx, src, opts)
	if err != nil {
		return nil, err
	}
	c.Put(prog, opts.Strict)
	return prog, nil
}

// Len returns the number of cached programs.
func (c *ProgramCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Hits counts successful lookups.
func (c *ProgramCache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

func (c *ProgramCache) evict() {
	ele := c.ll.Back()
	if ele == nil {
		return
	}
	c.ll.Remove(ele)
	delete(c.m, ele.Value.(*cacheEntry).key)
}
