// Package mirror keeps an owner-scoped, read-only view of the catalog and
// pushes every new version of it to subscribers.
package mirror

import (
	"context"
	"strings"
	"sync"
	"time"

	"shelfpos/internal/domain"
	applog "shelfpos/internal/log"
	"shelfpos/internal/metrics"
	"shelfpos/internal/port"
)

// Snapshot is an immutable view. Callers must not modify the slices.
type Snapshot struct {
	Owner    string
	Loaded   bool
	Items    []domain.Item
	Brands   []domain.Brand
	Revision uint64
}

// Item looks an item up by id.
func (s Snapshot) Item(id string) (domain.Item, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return domain.Item{}, false
}

// ByBrand keeps the items of one brand, matched case-insensitively. A blank
// name returns s unchanged. Brands are left whole.
func (s Snapshot) ByBrand(name string) Snapshot {
	name = strings.TrimSpace(name)
	if name == "" {
		return s
	}
	out := s
	out.Items = make([]domain.Item, 0, len(s.Items))
	for _, it := range s.Items {
		if strings.EqualFold(it.Brand(), name) {
			out.Items = append(out.Items, it)
		}
	}
	return out
}

type subscriber struct {
	id int
	fn func(Snapshot)
}

type Mirror struct {
	src     port.CatalogSource
	metrics *metrics.Metrics

	mu     sync.RWMutex
	snaps  map[string]Snapshot
	subs   map[string][]subscriber
	nextID int
	rev    uint64
}

func New(src port.CatalogSource, m *metrics.Metrics) *Mirror {
	return &Mirror{
		src:     src,
		metrics: m,
		snaps:   map[string]Snapshot{},
		subs:    map[string][]subscriber{},
	}
}

// Snapshot never fails: an owner that was never loaded yields an empty, unloaded view.
func (m *Mirror) Snapshot(owner string) Snapshot {
	if owner == "" {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.snaps[owner]; ok {
		return s
	}
	return Snapshot{Owner: owner}
}

func (m *Mirror) Item(owner, id string) (domain.Item, bool) {
	return m.Snapshot(owner).Item(id)
}

// Subscribe registers fn for every new snapshot of owner. fn is called right away
// when a snapshot is already loaded. The returned func unregisters it.
func (m *Mirror) Subscribe(owner string, fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.subs[owner] = append(m.subs[owner], subscriber{id: id, fn: fn})
	current, loaded := m.snaps[owner]
	m.mu.Unlock()

	if loaded {
		fn(current)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			list := m.subs[owner]
			for i, s := range list {
				if s.id == id {
					m.subs[owner] = append(list[:i:i], list[i+1:]...)
					break
				}
			}
			if len(m.subs[owner]) == 0 {
				delete(m.subs, owner)
			}
		})
	}
}

// Refresh reloads owner from the store and notifies subscribers. On error the
// previous snapshot is kept.
func (m *Mirror) Refresh(ctx context.Context, owner string) error {
	if owner == "" {
		return nil
	}
	items, err := m.src.ListItems(ctx, owner)
	if err != nil {
		m.metrics.MirrorRefresh(false)
		return err
	}
	brands, err := m.src.ListBrands(ctx, owner)
	if err != nil {
		m.metrics.MirrorRefresh(false)
		return err
	}
	m.metrics.MirrorRefresh(true)

	m.mu.Lock()
	m.rev++
	snap := Snapshot{Owner: owner, Loaded: true, Items: items, Brands: brands, Revision: m.rev}
	m.snaps[owner] = snap
	subs := append([]subscriber(nil), m.subs[owner]...)
	m.mu.Unlock()

	for _, s := range subs {
		s.fn(snap)
	}
	return nil
}

// Run polls every owner with a cached snapshot or a subscriber until ctx is done,
// so writes made by other processes show up.
func (m *Mirror) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, owner := range m.owners() {
				if err := m.Refresh(ctx, owner); err != nil && ctx.Err() == nil {
					applog.Error(nil, "mirror.refresh", err, map[string]any{"owner": owner})
				}
			}
		}
	}
}

func (m *Mirror) owners() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for o := range m.snaps {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	for o := range m.subs {
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return out
}
