package catalog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
	"github.com/ardhix/warehouse-ledger/internal/inventory"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

const keyPrefix = "catalog:item:"

// KV is the subset of the redis client the catalog needs.
type KV interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error
}

type redisRepository struct {
	kv     KV
	store  inventory.Store
	logger *zap.Logger
}

func NewRedisRepository(kv KV, store inventory.Store, log *zap.Logger) Repository {
	return &redisRepository{kv: kv, store: store, logger: log}
}

func (r *redisRepository) Get(ctx context.Context, code string) (*Item, error) {
	var item Item
	hit, err := r.kv.GetJSON(ctx, keyPrefix+code, &item)
	if err != nil {
		return nil, err
	}
	if hit {
		return &item, nil
	}

	// Miss: fall back to the store, preferring the most recent active record.
	recs, err := r.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	var latest *model.InventoryRecord
	for i := range recs {
		rec := &recs[i]
		if rec.Status != model.InventoryActive {
			continue
		}
		if latest == nil || rec.UpdatedAt.After(latest.UpdatedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: item code %s", apperr.ErrNotFound, code)
	}

	item = fromRecord(latest)
	if err := r.Upsert(ctx, item); err != nil {
		r.logger.Warn("catalog upsert after miss failed", zap.String("code", code), zap.Error(err))
	}
	return &item, nil
}

func (r *redisRepository) Upsert(ctx context.Context, item Item) error {
	// No TTL: entries are never removed automatically.
	return r.kv.SetJSON(ctx, keyPrefix+item.Code, item, 0)
}

func (r *redisRepository) Rebuild(ctx context.Context) (int, error) {
	recs, err := r.store.ActiveItems(ctx)
	if err != nil {
		return 0, err
	}

	// ActiveItems is ordered by updated_at, so later writes win and
	// LastLocation ends up at the most recently touched location.
	seen := map[string]bool{}
	for i := range recs {
		item := fromRecord(&recs[i])
		if err := r.Upsert(ctx, item); err != nil {
			return 0, err
		}
		seen[item.Code] = true
	}
	return len(seen), nil
}

func fromRecord(rec *model.InventoryRecord) Item {
	return Item{
		Code:         rec.Code,
		Name:         rec.Name,
		Unit:         rec.Unit,
		Category:     rec.Category,
		LastLocation: rec.Location,
	}
}
