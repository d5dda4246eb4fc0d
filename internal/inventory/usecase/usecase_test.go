package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/events"
	"github.com/ardhix/warehouse-ledger/internal/inventory/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

type fakeStore struct {
	mu      sync.Mutex
	records map[string]*model.InventoryRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*model.InventoryRecord)}
}

func recKey(code, location string) string { return code + "|" + location }

func (s *fakeStore) seed(code, location string, qty int, status model.InventoryStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[recKey(code, location)] = &model.InventoryRecord{
		ID: code + "-" + location, Code: code, Name: code, Unit: "pcs",
		Location: location, Quantity: qty, Status: status,
	}
}

func (s *fakeStore) Get(ctx context.Context, code, location string) (*model.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recKey(code, location)]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return rec, nil
}

func (s *fakeStore) FindByCode(ctx context.Context, code string) ([]model.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.InventoryRecord
	for _, rec := range s.records {
		if rec.Code == code {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *fakeStore) FindAll(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.InventoryRecord
	for _, rec := range s.records {
		if filters.Status != "" && string(rec.Status) != filters.Status {
			continue
		}
		out = append(out, *rec)
	}
	return out, len(out), nil
}

func (s *fakeStore) SetStatus(ctx context.Context, code, location string, status model.InventoryStatus) (*model.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recKey(code, location)]
	if !ok {
		return nil, fmt.Errorf("%w: %s at %s", apperr.ErrNotFound, code, location)
	}
	rec.Status = status
	cp := *rec
	return &cp, nil
}

func (s *fakeStore) ActiveItems(ctx context.Context) ([]model.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.InventoryRecord
	for _, rec := range s.records {
		if rec.Status == model.InventoryActive {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(ctx context.Context, ev events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

func (b *recordingBus) Subscribe() (<-chan events.Event, func()) {
	ch := make(chan events.Event)
	close(ch)
	return ch, func() {}
}

func TestArchive(t *testing.T) {
	store := newFakeStore()
	store.seed("SP-01", "A1-01", 7, model.InventoryActive)
	bus := &recordingBus{}
	uc := NewInventoryUseCase(store, bus, zap.NewNop())

	admin := auth.Actor{ID: "u-admin", Name: "Admin", Role: auth.RoleAdmin}
	rec, err := uc.Archive(context.Background(), admin, "SP-01", "A1-01")
	require.NoError(t, err)
	assert.Equal(t, model.InventoryArchived, rec.Status)

	// Archiving hides the record, it does not zero it.
	assert.Equal(t, 7, rec.Quantity)

	require.Len(t, bus.events, 1)
	assert.Equal(t, events.KindInventoryLifecycle, bus.events[0].Kind)

	rec, err = uc.Unarchive(context.Background(), admin, "SP-01", "A1-01")
	require.NoError(t, err)
	assert.Equal(t, model.InventoryActive, rec.Status)
}

func TestArchive_RequiresAdmin(t *testing.T) {
	store := newFakeStore()
	store.seed("SP-01", "A1-01", 7, model.InventoryActive)
	bus := &recordingBus{}
	uc := NewInventoryUseCase(store, bus, zap.NewNop())

	staff := auth.Actor{ID: "u-staff", Name: "Staff", Role: auth.RoleStaff}
	_, err := uc.Archive(context.Background(), staff, "SP-01", "A1-01")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Empty(t, bus.events)
}

func TestArchive_UnknownRecord(t *testing.T) {
	uc := NewInventoryUseCase(newFakeStore(), &recordingBus{}, zap.NewNop())

	admin := auth.Actor{ID: "u-admin", Name: "Admin", Role: auth.RoleAdmin}
	_, err := uc.Archive(context.Background(), admin, "NOPE", "A1-01")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestList_FilterByStatus(t *testing.T) {
	store := newFakeStore()
	store.seed("SP-01", "A1-01", 7, model.InventoryActive)
	store.seed("SP-02", "A1-02", 0, model.InventoryArchived)
	uc := NewInventoryUseCase(store, &recordingBus{}, zap.NewNop())

	items, total, err := uc.List(context.Background(), &dto.InventoryFilters{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "SP-01", items[0].Code)
}
