package ride

import (
	"context"
	"sort"
	"sync"
	"time"

	"ryde/internal/types"
)

// memStore is an in-process Store with the same compare-and-set semantics as the database stores.
type memStore struct {
	mu    sync.Mutex
	rides map[types.ID]*Ride
	err   error
}

func newMemStore() *memStore {
	return &memStore{rides: make(map[types.ID]*Ride)}
}

func (m *memStore) Create(_ context.Context, r *Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rides[r.ID] = r.Clone()
	return nil
}

func (m *memStore) Get(_ context.Context, id types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (m *memStore) Transition(_ context.Context, t Transition) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rides[t.ID]
	if !ok || r.Status != t.From || r.Version != t.Version {
		return nil, ErrConflict
	}
	r.Status = t.To
	r.Version++
	if t.DriverID != nil {
		d := *t.DriverID
		r.DriverID = &d
	}
	r.OTP = nil
	r.UpdatedAt = time.Now().UTC()
	return r.Clone(), nil
}

func (m *memStore) SetChallenge(_ context.Context, id types.ID, status Status, version int, c Challenge) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rides[id]
	if !ok || r.Status != status || r.Version != version {
		return nil, ErrConflict
	}
	r.OTP = &c
	r.Version++
	r.UpdatedAt = time.Now().UTC()
	return r.Clone(), nil
}

func (m *memStore) ListByRider(_ context.Context, riderID types.ID, limit int) ([]*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []*Ride
	for _, r := range m.rides {
		if r.RiderID == riderID {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
