package inventory

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ardhix/warehouse-ledger/internal/inventory/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

// Movement is one signed inventory effect derived from a ledger line.
type Movement struct {
	Code     string
	Location string
	Delta    int
	Meta     model.ItemMeta
}

type Store interface {
	Get(ctx context.Context, code, location string) (*model.InventoryRecord, error)
	FindByCode(ctx context.Context, code string) ([]model.InventoryRecord, error)
	FindAll(ctx context.Context, filters *dto.InventoryFilters) ([]model.InventoryRecord, int, error)
	SetStatus(ctx context.Context, code, location string, status model.InventoryStatus) (*model.InventoryRecord, error)

	// ActiveItems feeds catalog rebuilds; archived rows are excluded.
	ActiveItems(ctx context.Context) ([]model.InventoryRecord, error)
}

// TxApplier applies movements inside a caller-owned transaction so that one
// ledger commit is exactly one database transaction. Decrements that would
// drive a quantity negative fail the whole transaction.
type TxApplier interface {
	ApplyMovementTx(ctx context.Context, tx *sqlx.Tx, m Movement) (*model.InventoryRecord, error)
}
