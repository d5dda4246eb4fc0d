package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/events"
	"github.com/ardhix/warehouse-ledger/internal/inventory"
	"github.com/ardhix/warehouse-ledger/internal/inventory/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

type inventoryUseCase struct {
	store  inventory.Store
	bus    events.Bus
	logger *zap.Logger
}

func NewInventoryUseCase(store inventory.Store, bus events.Bus, log *zap.Logger) inventory.UseCase {
	return &inventoryUseCase{store: store, bus: bus, logger: log}
}

func (uc *inventoryUseCase) List(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryRecord, int, error) {
	return uc.store.FindAll(ctx, filters)
}

func (uc *inventoryUseCase) GetByCode(ctx context.Context, code string) ([]model.InventoryRecord, error) {
	return uc.store.FindByCode(ctx, code)
}

func (uc *inventoryUseCase) Archive(ctx context.Context, actor auth.Actor, code, location string) (*model.InventoryRecord, error) {
	return uc.setStatus(ctx, actor, code, location, model.InventoryArchived)
}

func (uc *inventoryUseCase) Unarchive(ctx context.Context, actor auth.Actor, code, location string) (*model.InventoryRecord, error) {
	return uc.setStatus(ctx, actor, code, location, model.InventoryActive)
}

func (uc *inventoryUseCase) setStatus(ctx context.Context, actor auth.Actor, code, location string, status model.InventoryStatus) (*model.InventoryRecord, error) {
	if err := auth.Authorize(auth.OpArchiveInventory, actor.Role); err != nil {
		return nil, err
	}

	rec, err := uc.store.SetStatus(ctx, code, location, status)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("inventory lifecycle change",
		zap.String("code", code),
		zap.String("location", location),
		zap.String("status", string(status)),
		zap.String("actor_id", actor.ID),
	)
	uc.bus.Publish(ctx, events.Event{Kind: events.KindInventoryLifecycle, Codes: []string{code}})

	return rec, nil
}
