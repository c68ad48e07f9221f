package checklist

import (
	"context"
	"log/slog"
	"sync"

	"github.com/spboyer/pwaudit/internal/cache"
	"github.com/spboyer/pwaudit/internal/manifest"
	"golang.org/x/sync/singleflight"
)

// Store persists checklists across runs. *cache.Cache implements it.
type Store interface {
	Get(key string, v any) bool
	Put(key string, v any) error
}

// DeriveFunc computes a checklist for an artifact.
type DeriveFunc func(*manifest.Artifact) (*Checklist, error)

// Computer hands out checklists, deriving each distinct artifact at most once
// per Computer. Returned checklists are shared and must not be modified.
type Computer struct {
	derive DeriveFunc
	store  Store

	mu    sync.Mutex
	memo  map[string]*Checklist
	group singleflight.Group
}

// ComputerOption configures a Computer.
type ComputerOption func(*Computer)

// WithStore backs the Computer with a persistent store.
func WithStore(s Store) ComputerOption {
	return func(c *Computer) { c.store = s }
}

// WithDeriveFunc replaces Derive, mainly for tests.
func WithDeriveFunc(fn DeriveFunc) ComputerOption {
	return func(c *Computer) { c.derive = fn }
}

// NewComputer creates a Computer that uses Derive unless told otherwise.
func NewComputer(opts ...ComputerOption) *Computer {
	c := &Computer{
		derive: Derive,
		memo:   make(map[string]*Checklist),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Checklist returns the checklist for art. Concurrent calls for the same
// artifact share one derivation. Derivation errors are returned unchanged and
// are not memoized.
func (c *Computer) Checklist(ctx context.Context, art *manifest.Artifact) (*Checklist, error) {
	key := cache.Key(art)

	c.mu.Lock()
	cl, ok := c.memo[key]
	c.mu.Unlock()
	if ok {
		return cl, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		return c.compute(key, art)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Checklist), nil
	}
}

func (c *Computer) compute(key string, art *manifest.Artifact) (*Checklist, error) {
	c.mu.Lock()
	cl, ok := c.memo[key]
	c.mu.Unlock()
	if ok {
		return cl, nil
	}

	if c.store != nil {
		var stored Checklist
		if c.store.Get(key, &stored) {
			slog.Debug("Checklist cache hit", "key", key)
			c.remember(key, &stored)
			return &stored, nil
		}
	}

	slog.Debug("Deriving checklist", "key", key)
	cl, err := c.derive(art)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.Put(key, cl); err != nil {
			slog.Warn("Failed to cache checklist", "key", key, "error", err)
		}
	}
	c.remember(key, cl)
	return cl, nil
}

func (c *Computer) remember(key string, cl *Checklist) {
	c.mu.Lock()
	c.memo[key] = cl
	c.mu.Unlock()
}
