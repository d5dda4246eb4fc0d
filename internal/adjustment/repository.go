package adjustment

import (
	"context"
	"time"

	"github.com/ardhix/warehouse-ledger/internal/adjustment/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

// Resolution records who resolved a request and when.
type Resolution struct {
	ResolvedByID   string
	ResolvedByName string
	ResolvedAt     time.Time
}

// EntryBuilder constructs the ledger entry recorded on approval, once the
// authoritative previous quantity and item metadata are known inside the
// approval transaction.
type EntryBuilder func(req *model.AdjustmentRequest, previous int, meta model.ItemMeta) *model.TransactionEntry

type Repository interface {
	Create(ctx context.Context, req *model.AdjustmentRequest) error
	GetByID(ctx context.Context, id string) (*model.AdjustmentRequest, error)
	FindAll(ctx context.Context, filters *dto.RequestFilters) ([]model.AdjustmentRequest, int, error)

	// Reject flips pending -> rejected. A request already terminal fails
	// with AlreadyResolved.
	Reject(ctx context.Context, id string, res Resolution) (*model.AdjustmentRequest, error)

	// Approve flips pending -> approved, applies the quantity delta, and
	// appends the ledger entry built by buildEntry, all in one transaction.
	Approve(ctx context.Context, id string, res Resolution, buildEntry EntryBuilder) (*model.AdjustmentRequest, *model.TransactionEntry, error)
}
