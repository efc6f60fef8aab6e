package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smartwaste/bin-registry/internal/dtos"
	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-repositories"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

// Kandy is inland, so the time-zone lookup is unambiguous.
const (
	kandyLat = 7.2906
	kandyLng = 80.6337
)

type stubLocator struct {
	coords models.Coordinates
	err    error
	delay  time.Duration
}

func (s stubLocator) Locate(ctx context.Context, _ string) (models.Coordinates, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return models.Coordinates{}, ctx.Err()
	}
	return s.coords, s.err
}

type stubResolver struct {
	address string
	err     error
	calls   int
	mu      sync.Mutex
}

func (s *stubResolver) ResolveAddress(context.Context, models.Coordinates) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.address, s.err
}

type recordingNotifier struct {
	ch chan *models.Bin
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{ch: make(chan *models.Bin, 4)}
}

func (n *recordingNotifier) NotifyRegistered(_ context.Context, b *models.Bin) {
	n.ch <- b
}

// failingCreateRepo rejects every insert.
type failingCreateRepo struct {
	*repositories.MemoryBinRepository
}

func (failingCreateRepo) Create(context.Context, *models.Bin) error {
	return errors.New("connection refused")
}

func newTestBinService(repo repositories.BinRepository, notifier RegistrationNotifier) *BinService {
	loc := NewLocationService(stubLocator{}, nil, time.Second)
	sched := NewScheduleService(repo, nil, false)
	return NewBinService(repo, loc, sched, notifier)
}

func validRegistration() dtos.RegisterBinRequest {
	return dtos.RegisterBinRequest{
		OwnerName:    "Kandy Municipal Council",
		ResidentName: "Nimal Perera",
		Contact:      models.Contact{Phone: "+94 77 123 4567", Email: "nimal@example.com"},
		BinType:      models.BinTypeGeneral,
		Coordinates:  &dtos.CoordinatesInput{Lat: utils.Ptr(kandyLat), Lng: utils.Ptr(kandyLng)},
	}
}
