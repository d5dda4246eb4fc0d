package ledger

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/ardhix/warehouse-ledger/internal/inventory"
	"github.com/ardhix/warehouse-ledger/internal/ledger/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

// Effect binds one inventory movement to the entry line that caused it.
type Effect struct {
	LineIndex int
	Movement  inventory.Movement
}

type Repository interface {
	// CommitEntry persists the entry with its lines and applies every effect
	// in one transaction: all of them land or none does.
	CommitEntry(ctx context.Context, entry *model.TransactionEntry, effects []Effect) error

	GetEntry(ctx context.Context, id string) (*model.TransactionEntry, error)
	ListEntries(ctx context.Context, filters *dto.EntryFilters) ([]model.TransactionEntry, int, error)

	// ResolveLine flips a line's qc status from->to, records the acting
	// inspector and, when effect is non-nil, applies the inventory movement
	// in the same transaction. The transition fails when the line is not in
	// the from status.
	ResolveLine(ctx context.Context, entryID, lineID string, from, to model.QCStatus, qcBy string, effect *inventory.Movement) (*model.TransactionEntry, error)
}

// TxWriter lets sibling workflows (adjustment approval) append a ledger entry
// inside their own transaction.
type TxWriter interface {
	InsertEntryTx(ctx context.Context, tx *sqlx.Tx, entry *model.TransactionEntry) error
}

// StockReader is the authoritative read used to fill line metadata and
// compute adjustment deltas. Never a cached projection.
type StockReader interface {
	Get(ctx context.Context, code, location string) (*model.InventoryRecord, error)
}
