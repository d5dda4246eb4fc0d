package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
	invdto "github.com/ardhix/warehouse-ledger/internal/inventory/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

type fakeKV struct {
	data map[string][]byte
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string][]byte)}
}

func (kv *fakeKV) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := kv.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (kv *fakeKV) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	kv.data[key] = raw
	return nil
}

type fakeStore struct {
	records     []model.InventoryRecord
	findByCodes int
}

func (s *fakeStore) Get(ctx context.Context, code, location string) (*model.InventoryRecord, error) {
	for i := range s.records {
		if s.records[i].Code == code && s.records[i].Location == location {
			return &s.records[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s at %s", apperr.ErrNotFound, code, location)
}

func (s *fakeStore) FindByCode(ctx context.Context, code string) ([]model.InventoryRecord, error) {
	s.findByCodes++
	var out []model.InventoryRecord
	for _, rec := range s.records {
		if rec.Code == code {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakeStore) FindAll(ctx context.Context, filters *invdto.InventoryFilters) ([]model.InventoryRecord, int, error) {
	return s.records, len(s.records), nil
}

func (s *fakeStore) SetStatus(ctx context.Context, code, location string, status model.InventoryStatus) (*model.InventoryRecord, error) {
	rec, err := s.Get(ctx, code, location)
	if err != nil {
		return nil, err
	}
	rec.Status = status
	return rec, nil
}

func (s *fakeStore) ActiveItems(ctx context.Context) ([]model.InventoryRecord, error) {
	var out []model.InventoryRecord
	for _, rec := range s.records {
		if rec.Status == model.InventoryActive {
			out = append(out, rec)
		}
	}
	return out, nil
}

func TestGet_ReadThrough(t *testing.T) {
	kv := newFakeKV()
	store := &fakeStore{records: []model.InventoryRecord{
		{Code: "SP-01", Name: "Spare Part 01", Unit: "pcs", Location: "A1-01",
			Status: model.InventoryActive, UpdatedAt: time.Now()},
	}}
	repo := NewRedisRepository(kv, store, zap.NewNop())

	item, err := repo.Get(context.Background(), "SP-01")
	require.NoError(t, err)
	assert.Equal(t, "Spare Part 01", item.Name)
	assert.Equal(t, 1, store.findByCodes)

	// Second read is served from the cache.
	item, err = repo.Get(context.Background(), "SP-01")
	require.NoError(t, err)
	assert.Equal(t, "Spare Part 01", item.Name)
	assert.Equal(t, 1, store.findByCodes)
}

func TestGet_PrefersLatestActiveRecord(t *testing.T) {
	now := time.Now()
	kv := newFakeKV()
	store := &fakeStore{records: []model.InventoryRecord{
		{Code: "SP-01", Name: "Spare Part 01", Location: "A1-01",
			Status: model.InventoryActive, UpdatedAt: now.Add(-time.Hour)},
		{Code: "SP-01", Name: "Spare Part 01 rev B", Location: "B2-02",
			Status: model.InventoryActive, UpdatedAt: now},
		{Code: "SP-01", Name: "old", Location: "C3-03",
			Status: model.InventoryArchived, UpdatedAt: now.Add(time.Hour)},
	}}
	repo := NewRedisRepository(kv, store, zap.NewNop())

	item, err := repo.Get(context.Background(), "SP-01")
	require.NoError(t, err)
	assert.Equal(t, "Spare Part 01 rev B", item.Name)
	assert.Equal(t, "B2-02", item.LastLocation)
}

func TestGet_UnknownCode(t *testing.T) {
	repo := NewRedisRepository(newFakeKV(), &fakeStore{}, zap.NewNop())

	_, err := repo.Get(context.Background(), "NOPE")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUpsert_OverwritesExisting(t *testing.T) {
	kv := newFakeKV()
	repo := NewRedisRepository(kv, &fakeStore{}, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, Item{Code: "SP-01", Name: "v1", LastLocation: "A1-01"}))
	require.NoError(t, repo.Upsert(ctx, Item{Code: "SP-01", Name: "v2", LastLocation: "B2-02"}))

	item, err := repo.Get(ctx, "SP-01")
	require.NoError(t, err)
	assert.Equal(t, "v2", item.Name)
	assert.Equal(t, "B2-02", item.LastLocation)
}

func TestRebuild(t *testing.T) {
	now := time.Now()
	kv := newFakeKV()
	store := &fakeStore{records: []model.InventoryRecord{
		{Code: "SP-01", Name: "Spare Part 01", Location: "A1-01",
			Status: model.InventoryActive, UpdatedAt: now.Add(-time.Minute)},
		{Code: "SP-01", Name: "Spare Part 01", Location: "B2-02",
			Status: model.InventoryActive, UpdatedAt: now},
		{Code: "SP-02", Name: "Spare Part 02", Location: "A1-02",
			Status: model.InventoryActive, UpdatedAt: now},
		{Code: "SP-03", Name: "gone", Location: "A1-03",
			Status: model.InventoryArchived, UpdatedAt: now},
	}}
	repo := NewRedisRepository(kv, store, zap.NewNop())

	count, err := repo.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Later record wins, so the last location reflects the newest row.
	item, err := repo.Get(context.Background(), "SP-01")
	require.NoError(t, err)
	assert.Equal(t, "B2-02", item.LastLocation)

	// Archived codes do not enter the cache.
	_, err = repo.Get(context.Background(), "SP-03")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
