// README: In-memory test doubles for the dispatch service's storage contracts.
package ride

import (
	"context"
	"sync"
	"time"

	"glide/internal/modules/driver"
	"glide/internal/modules/pairing"
	"glide/internal/types"
)

// memStore implements Store and PairingSource behind one mutex so service
// tests exercise the same check-then-write races the SQL store guards
// against.
type memStore struct {
	mu       sync.Mutex
	rides    map[types.ID]*Ride
	names    map[types.ID]string
	pairings map[types.ID]*pairing.Pairing
}

func newMemStore() *memStore {
	return &memStore{
		rides:    make(map[types.ID]*Ride),
		names:    make(map[types.ID]string),
		pairings: make(map[types.ID]*pairing.Pairing),
	}
}

func (m *memStore) addUser(id types.ID, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.names[id] = name
}

func (m *memStore) addPairing(p pairing.Pairing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairings[p.ID] = &p
}

func (m *memStore) pairingStatus(id types.ID) pairing.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pairings[id].Status
}

func (m *memStore) CreateIfNoActive(_ context.Context, r *Ride) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.rides {
		if existing.RiderID != r.RiderID || IsTerminal(existing.Status) {
			continue
		}
		if r.ScheduledAt == nil && existing.ScheduledAt == nil {
			return false, nil
		}
		if r.ScheduledAt != nil && existing.ScheduledAt != nil && existing.ScheduledAt.Equal(*r.ScheduledAt) {
			return false, nil
		}
	}
	cp := *r
	m.rides[r.ID] = &cp
	return true, nil
}

func (m *memStore) GetByID(_ context.Context, id types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) GetByIDForRider(_ context.Context, id, riderID types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok || r.RiderID != riderID {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) GetByIDForDriver(_ context.Context, id, driverID types.ID) (*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok || r.DriverID == nil || *r.DriverID != driverID {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memStore) GetDetail(_ context.Context, id types.ID) (*Detail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok {
		return nil, ErrNotFound
	}
	d := &Detail{Ride: *r, RiderName: m.names[r.RiderID]}
	if r.DriverID != nil {
		name := m.names[*r.DriverID]
		d.DriverName = &name
	}
	return d, nil
}

func (m *memStore) AssignDriver(_ context.Context, id, driverID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok || r.Status != StatusRequested || r.DriverID != nil {
		return false, nil
	}
	r.DriverID = &driverID
	r.Status = StatusAssigned
	r.UpdatedAt = time.Now()
	return true, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id types.ID, from, to Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rides[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	if to == StatusCompleted {
		r.PaymentStatus = PaymentPaid
	}
	r.UpdatedAt = time.Now()
	return true, nil
}

func (m *memStore) FindDueScheduled(_ context.Context, now time.Time) ([]*Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*Ride
	for _, r := range m.rides {
		if r.Type != TypeScheduled || r.Status != StatusRequested || r.ScheduledAt == nil {
			continue
		}
		if !r.ScheduledAt.After(now) {
			cp := *r
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (m *memStore) CreateOfflinePaired(_ context.Context, r *Ride, pairingID types.ID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pairings[pairingID]
	if !ok || p.Status != pairing.StatusActive || !p.ExpiresAt.After(time.Now()) {
		return false, nil
	}
	p.Status = pairing.StatusUsed
	cp := *r
	m.rides[r.ID] = &cp
	return true, nil
}

func (m *memStore) FindActiveByCode(_ context.Context, code string, now time.Time) (*pairing.Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *pairing.Pairing
	for _, p := range m.pairings {
		if p.Code != code || p.Status != pairing.StatusActive || p.ExpiresAt.Before(now) {
			continue
		}
		if best == nil || p.CreatedAt.After(best.CreatedAt) {
			best = p
		}
	}
	if best == nil {
		return nil, pairing.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

// fakeDrivers serves a fixed candidate list, applying the same freshness
// filter the SQL store would.
type fakeDrivers struct {
	mu   sync.Mutex
	list []driver.Driver
}

func (f *fakeDrivers) FreshOnline(_ context.Context, since time.Time) ([]driver.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var fresh []driver.Driver
	for _, d := range f.list {
		if d.Live(since) {
			fresh = append(fresh, d)
		}
	}
	return fresh, nil
}
