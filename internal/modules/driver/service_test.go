package driver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"glide/internal/types"
)

type fakeStore struct {
	mu      sync.Mutex
	drivers map[types.ID]*Driver
}

func newFakeStore(ids ...types.ID) *fakeStore {
	f := &fakeStore{drivers: make(map[types.ID]*Driver)}
	for _, id := range ids {
		f.drivers[id] = &Driver{UserID: id}
	}
	return f
}

func (f *fakeStore) GetByUserID(_ context.Context, userID types.ID) (*Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeStore) SetOnline(_ context.Context, userID types.ID, online bool, at time.Time) (*Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[userID]
	if !ok {
		return nil, ErrNotFound
	}
	d.Online = online
	d.LastPingAt = &at
	cp := *d
	return &cp, nil
}

func (f *fakeStore) SetLocation(_ context.Context, userID types.ID, pos types.Point, at time.Time) (*Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[userID]
	if !ok {
		return nil, ErrNotFound
	}
	d.Location = &pos
	d.LastPingAt = &at
	cp := *d
	return &cp, nil
}

func (f *fakeStore) FreshOnline(_ context.Context, since time.Time) ([]Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Driver
	for _, d := range f.drivers {
		if d.Live(since) {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeStore) Nearby(_ context.Context, _ types.Point, _ float64) ([]types.ID, error) {
	return nil, nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore("drv-1", "drv-2")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(store, log), store
}

func TestUpdateStatus(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	d, err := svc.UpdateStatus(ctx, UpdateStatusCommand{UserID: "drv-1", Online: true})
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if !d.Online {
		t.Error("expected driver online")
	}
	if d.LastPingAt == nil {
		t.Error("expected last ping stamped")
	}

	d, err = svc.UpdateStatus(ctx, UpdateStatusCommand{UserID: "drv-1", Online: false})
	if err != nil {
		t.Fatalf("UpdateStatus offline: %v", err)
	}
	if d.Online {
		t.Error("expected driver offline")
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{Online: true}); !errors.Is(err, ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), UpdateStatusCommand{UserID: "ghost", Online: true}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateLocation(t *testing.T) {
	svc, _ := newTestService()
	pos := types.Point{Lat: 25.0330, Lng: 121.5654}

	d, err := svc.UpdateLocation(context.Background(), UpdateLocationCommand{UserID: "drv-1", Position: pos})
	if err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	if d.Location == nil || *d.Location != pos {
		t.Errorf("location = %v, want %v", d.Location, pos)
	}
	if d.LastPingAt == nil {
		t.Error("expected last ping stamped")
	}
}

func TestUpdateLocationValidation(t *testing.T) {
	svc, _ := newTestService()
	cases := []struct {
		name string
		cmd  UpdateLocationCommand
	}{
		{"missing user id", UpdateLocationCommand{Position: types.Point{Lat: 25, Lng: 121}}},
		{"latitude out of range", UpdateLocationCommand{UserID: "drv-1", Position: types.Point{Lat: 90.5, Lng: 121}}},
		{"longitude out of range", UpdateLocationCommand{UserID: "drv-1", Position: types.Point{Lat: 25, Lng: 180.5}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.UpdateLocation(context.Background(), tc.cmd); !errors.Is(err, ErrBadRequest) {
				t.Errorf("err = %v, want ErrBadRequest", err)
			}
		})
	}
}

func TestNearbyValidation(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.Nearby(context.Background(), types.Point{Lat: 91, Lng: 0}, 5); !errors.Is(err, ErrBadRequest) {
		t.Errorf("bad point: err = %v, want ErrBadRequest", err)
	}
	if _, err := svc.Nearby(context.Background(), types.Point{Lat: 25, Lng: 121}, 0); !errors.Is(err, ErrBadRequest) {
		t.Errorf("zero radius: err = %v, want ErrBadRequest", err)
	}
}

func TestFreshOnlineFiltersStaleDrivers(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	pos := types.Point{Lat: 25.0330, Lng: 121.5654}

	if _, err := svc.UpdateStatus(ctx, UpdateStatusCommand{UserID: "drv-1", Online: true}); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := svc.UpdateLocation(ctx, UpdateLocationCommand{UserID: "drv-1", Position: pos}); err != nil {
		t.Fatalf("UpdateLocation: %v", err)
	}
	// drv-2 is online but last reported outside the window
	old := time.Now().Add(-time.Hour)
	store.mu.Lock()
	store.drivers["drv-2"].Online = true
	store.drivers["drv-2"].Location = &pos
	store.drivers["drv-2"].LastPingAt = &old
	store.mu.Unlock()

	fresh, err := svc.FreshOnline(ctx, time.Now().Add(-3*time.Minute))
	if err != nil {
		t.Fatalf("FreshOnline: %v", err)
	}
	if len(fresh) != 1 || fresh[0].UserID != "drv-1" {
		t.Errorf("fresh = %v, want only drv-1", fresh)
	}
}
