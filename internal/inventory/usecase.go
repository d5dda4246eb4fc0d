package inventory

import (
	"context"

	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/inventory/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

type UseCase interface {
	List(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryRecord, int, error)
	GetByCode(ctx context.Context, code string) ([]model.InventoryRecord, error)
	Archive(ctx context.Context, actor auth.Actor, code, location string) (*model.InventoryRecord, error)
	Unarchive(ctx context.Context, actor auth.Actor, code, location string) (*model.InventoryRecord, error)
}
