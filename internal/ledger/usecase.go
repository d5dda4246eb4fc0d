package ledger

import (
	"context"
	"time"

	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/ledger/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

type UseCase interface {
	CommitImport(ctx context.Context, actor auth.Actor, input *dto.ImportInput) (*model.TransactionEntry, error)
	CommitExport(ctx context.Context, actor auth.Actor, input *dto.ExportInput) (*model.TransactionEntry, error)
	CommitTransfer(ctx context.Context, actor auth.Actor, input *dto.TransferInput) (*model.TransactionEntry, error)
	CommitAdjust(ctx context.Context, actor auth.Actor, input *dto.AdjustInput) (*model.TransactionEntry, error)

	PassLine(ctx context.Context, actor auth.Actor, entryID, lineID string) (*model.TransactionEntry, error)
	FailLine(ctx context.Context, actor auth.Actor, entryID, lineID string) (*model.TransactionEntry, error)
	MarkLineReplaced(ctx context.Context, actor auth.Actor, entryID, lineID string) (*model.TransactionEntry, error)

	GetEntry(ctx context.Context, id string) (*model.TransactionEntry, error)
	ListEntries(ctx context.Context, filters *dto.EntryFilters) ([]model.TransactionEntry, int, error)
}

// Locker serializes commits touching the same stock key across instances.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}
