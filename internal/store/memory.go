package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spigell/job-matcher/internal/posting"
)

// Memory keeps postings in a map guarded by a mutex.
type Memory struct {
	mu    sync.RWMutex
	items map[string]*posting.Posting
	now   func() time.Time
	// persist runs under the write lock after every mutation.
	persist func(items []*posting.Posting) error
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]*posting.Posting),
		now:   time.Now,
	}
}

func (m *Memory) Upsert(_ context.Context, p *posting.Posting) (bool, error) {
	if err := ValidateNew(p); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[p.ID]; ok {
		return false, nil
	}

	stored := p.Clone()
	stored.Normalize(m.now())
	m.items[p.ID] = stored

	if err := m.save(); err != nil {
		delete(m.items, p.ID)
		return false, err
	}

	return true, nil
}

func (m *Memory) ListAll(_ context.Context) ([]*posting.Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.snapshot(), nil
}

func (m *Memory) SetStatus(_ context.Context, id string, status posting.Status) (bool, error) {
	if err := ValidateStatus(status); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[id]
	if !ok {
		return false, nil
	}

	previous := p.Status
	p.Status = status

	if err := m.save(); err != nil {
		p.Status = previous
		return false, err
	}

	return true, nil
}

func (m *Memory) GetByID(_ context.Context, id string) (*posting.Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *Memory) Close() error { return nil }

// snapshot copies the postings ordered by ID. Callers hold the lock.
func (m *Memory) snapshot() []*posting.Posting {
	out := make([]*posting.Posting, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Memory) save() error {
	if m.persist == nil {
		return nil
	}
	return m.persist(m.snapshot())
}
