package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/catalog"
	"github.com/ardhix/warehouse-ledger/internal/events"
	"github.com/ardhix/warehouse-ledger/internal/inventory"
	"github.com/ardhix/warehouse-ledger/internal/ledger"
	"github.com/ardhix/warehouse-ledger/internal/ledger/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

const (
	lockTTL      = 5 * time.Second
	lockAttempts = 3
	lockBackoff  = 100 * time.Millisecond
)

type ledgerUseCase struct {
	repo    ledger.Repository
	stock   ledger.StockReader
	locker  ledger.Locker
	catalog catalog.Repository
	bus     events.Bus
	logger  *zap.Logger
}

func NewLedgerUseCase(repo ledger.Repository, stock ledger.StockReader, locker ledger.Locker, cat catalog.Repository, bus events.Bus, log *zap.Logger) ledger.UseCase {
	return &ledgerUseCase{
		repo:    repo,
		stock:   stock,
		locker:  locker,
		catalog: cat,
		bus:     bus,
		logger:  log,
	}
}

func (uc *ledgerUseCase) CommitImport(ctx context.Context, actor auth.Actor, input *dto.ImportInput) (*model.TransactionEntry, error) {
	if err := auth.Authorize(auth.OpCommitImport, actor.Role); err != nil {
		return nil, err
	}
	if input.Supplier == "" {
		return nil, apperr.Validation("supplier", "required")
	}
	if len(input.Lines) == 0 {
		return nil, apperr.Validation("lines", "at least one line item required")
	}

	entry := newEntry(model.TransactionImport, actor)
	entry.Supplier = &input.Supplier

	for i, ln := range input.Lines {
		if ln.Code == "" {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].code", i), "required")
		}
		if ln.Name == "" {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].name", i), "required")
		}
		if ln.Location == "" {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].location", i), "required")
		}
		if ln.Quantity <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].quantity", i), "must be positive")
		}

		pending := model.QCPending
		entry.Items = append(entry.Items, model.LineItem{
			ID:       uuid.New().String(),
			EntryID:  entry.ID,
			Position: i,
			Code:     ln.Code,
			Name:     ln.Name,
			Quantity: ln.Quantity,
			Unit:     ln.Unit,
			Category: ln.Category,
			Location: ln.Location,
			QCStatus: &pending,
		})
	}

	// Received lines carry no inventory effect until QC passes them.
	if err := uc.repo.CommitEntry(ctx, entry, nil); err != nil {
		return nil, err
	}

	uc.upsertCatalog(ctx, entry.Items)
	uc.publishCommit(ctx, events.KindEntryCommitted, entry)
	return entry, nil
}

func (uc *ledgerUseCase) CommitExport(ctx context.Context, actor auth.Actor, input *dto.ExportInput) (*model.TransactionEntry, error) {
	if err := auth.Authorize(auth.OpCommitExport, actor.Role); err != nil {
		return nil, err
	}
	if input.Recipient == "" {
		return nil, apperr.Validation("recipient", "required")
	}
	if len(input.Lines) == 0 {
		return nil, apperr.Validation("lines", "at least one line item required")
	}

	entry := newEntry(model.TransactionExport, actor)
	entry.Recipient = &input.Recipient

	var effects []ledger.Effect
	for i, ln := range input.Lines {
		if ln.Code == "" {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].code", i), "required")
		}
		if ln.Location == "" {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].location", i), "required")
		}
		if ln.Quantity <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].quantity", i), "must be positive")
		}

		rec, err := uc.stock.Get(ctx, ln.Code, ln.Location)
		if err != nil {
			return nil, err
		}

		entry.Items = append(entry.Items, model.LineItem{
			ID:       uuid.New().String(),
			EntryID:  entry.ID,
			Position: i,
			Code:     ln.Code,
			Name:     rec.Name,
			Quantity: ln.Quantity,
			Unit:     rec.Unit,
			Category: rec.Category,
			Location: ln.Location,
		})
		effects = append(effects, ledger.Effect{
			LineIndex: i,
			Movement: inventory.Movement{
				Code:     ln.Code,
				Location: ln.Location,
				Delta:    -ln.Quantity,
				Meta:     model.ItemMeta{Name: rec.Name, Unit: rec.Unit, Category: rec.Category},
			},
		})
	}

	err := uc.withLocks(ctx, effectKeys(effects), func() error {
		return uc.repo.CommitEntry(ctx, entry, effects)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidQuantity) {
			return nil, fmt.Errorf("%w: %v", apperr.ErrInsufficientStock, err)
		}
		return nil, err
	}

	uc.publishCommit(ctx, events.KindEntryCommitted, entry)
	return entry, nil
}

func (uc *ledgerUseCase) CommitTransfer(ctx context.Context, actor auth.Actor, input *dto.TransferInput) (*model.TransactionEntry, error) {
	if err := auth.Authorize(auth.OpCommitTransfer, actor.Role); err != nil {
		return nil, err
	}
	if input.FromLocation == "" {
		return nil, apperr.Validation("from_location", "required")
	}
	if input.ToLocation == "" {
		return nil, apperr.Validation("to_location", "required")
	}
	if input.FromLocation == input.ToLocation {
		return nil, apperr.Validation("to_location", "must differ from from_location")
	}
	if len(input.Lines) == 0 {
		return nil, apperr.Validation("lines", "at least one line item required")
	}

	entry := newEntry(model.TransactionTransfer, actor)
	entry.FromLocation = &input.FromLocation
	entry.ToLocation = &input.ToLocation

	var effects []ledger.Effect
	for i, ln := range input.Lines {
		if ln.Code == "" {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].code", i), "required")
		}
		if ln.Quantity <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].quantity", i), "must be positive")
		}

		rec, err := uc.stock.Get(ctx, ln.Code, input.FromLocation)
		if err != nil {
			return nil, err
		}

		to := input.ToLocation
		entry.Items = append(entry.Items, model.LineItem{
			ID:         uuid.New().String(),
			EntryID:    entry.ID,
			Position:   i,
			Code:       ln.Code,
			Name:       rec.Name,
			Quantity:   ln.Quantity,
			Unit:       rec.Unit,
			Category:   rec.Category,
			Location:   input.FromLocation,
			ToLocation: &to,
		})

		meta := model.ItemMeta{Name: rec.Name, Unit: rec.Unit, Category: rec.Category}
		effects = append(effects,
			ledger.Effect{LineIndex: i, Movement: inventory.Movement{
				Code: ln.Code, Location: input.FromLocation, Delta: -ln.Quantity, Meta: meta,
			}},
			ledger.Effect{LineIndex: i, Movement: inventory.Movement{
				Code: ln.Code, Location: input.ToLocation, Delta: ln.Quantity, Meta: meta,
			}},
		)
	}

	err := uc.withLocks(ctx, effectKeys(effects), func() error {
		return uc.repo.CommitEntry(ctx, entry, effects)
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalidQuantity) {
			return nil, fmt.Errorf("%w: %v", apperr.ErrInsufficientStock, err)
		}
		return nil, err
	}

	uc.publishCommit(ctx, events.KindEntryCommitted, entry)
	return entry, nil
}

func (uc *ledgerUseCase) CommitAdjust(ctx context.Context, actor auth.Actor, input *dto.AdjustInput) (*model.TransactionEntry, error) {
	if err := auth.Authorize(auth.OpCommitAdjust, actor.Role); err != nil {
		return nil, err
	}
	if input.Reason == "" {
		return nil, apperr.Validation("reason", "required")
	}
	if len(input.Lines) == 0 {
		return nil, apperr.Validation("lines", "at least one line item required")
	}

	subtype := model.AdjustDirect
	entry := newEntry(model.TransactionAdjust, actor)
	entry.Subtype = &subtype
	entry.Reason = &input.Reason

	var effects []ledger.Effect
	for i, ln := range input.Lines {
		if ln.Code == "" {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].code", i), "required")
		}
		if ln.Location == "" {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].location", i), "required")
		}
		if ln.Delta == 0 {
			return nil, apperr.Validation(fmt.Sprintf("lines[%d].delta", i), "must be nonzero")
		}

		meta := model.ItemMeta{Name: ln.Name, Unit: ln.Unit, Category: ln.Category}
		rec, err := uc.stock.Get(ctx, ln.Code, ln.Location)
		switch {
		case err == nil:
			meta = model.ItemMeta{Name: rec.Name, Unit: rec.Unit, Category: rec.Category}
		case errors.Is(err, apperr.ErrNotFound) && ln.Delta > 0:
			// Positive adjustment may seed a new record from caller metadata.
		default:
			return nil, err
		}

		entry.Items = append(entry.Items, model.LineItem{
			ID:       uuid.New().String(),
			EntryID:  entry.ID,
			Position: i,
			Code:     ln.Code,
			Name:     meta.Name,
			Quantity: ln.Delta,
			Unit:     meta.Unit,
			Category: meta.Category,
			Location: ln.Location,
		})
		effects = append(effects, ledger.Effect{
			LineIndex: i,
			Movement: inventory.Movement{
				Code: ln.Code, Location: ln.Location, Delta: ln.Delta, Meta: meta,
			},
		})
	}

	err := uc.withLocks(ctx, effectKeys(effects), func() error {
		return uc.repo.CommitEntry(ctx, entry, effects)
	})
	if err != nil {
		return nil, err
	}

	uc.upsertCatalog(ctx, entry.Items)
	uc.publishCommit(ctx, events.KindEntryCommitted, entry)
	return entry, nil
}

func (uc *ledgerUseCase) PassLine(ctx context.Context, actor auth.Actor, entryID, lineID string) (*model.TransactionEntry, error) {
	return uc.resolveLine(ctx, actor, entryID, lineID, model.QCPending, model.QCPassed, true)
}

func (uc *ledgerUseCase) FailLine(ctx context.Context, actor auth.Actor, entryID, lineID string) (*model.TransactionEntry, error) {
	return uc.resolveLine(ctx, actor, entryID, lineID, model.QCPending, model.QCFailed, false)
}

func (uc *ledgerUseCase) MarkLineReplaced(ctx context.Context, actor auth.Actor, entryID, lineID string) (*model.TransactionEntry, error) {
	// Bookkeeping only: the replacement quantity arrives through a fresh
	// import entry and its own QC pass.
	return uc.resolveLine(ctx, actor, entryID, lineID, model.QCFailed, model.QCReplaced, false)
}

func (uc *ledgerUseCase) resolveLine(ctx context.Context, actor auth.Actor, entryID, lineID string, from, to model.QCStatus, applyStock bool) (*model.TransactionEntry, error) {
	if err := auth.Authorize(auth.OpResolveQC, actor.Role); err != nil {
		return nil, err
	}

	entry, err := uc.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Type != model.TransactionImport {
		return nil, apperr.Validation("entry", "qc transitions apply to import entries only")
	}

	var line *model.LineItem
	for i := range entry.Items {
		if entry.Items[i].ID == lineID {
			line = &entry.Items[i]
			break
		}
	}
	if line == nil {
		return nil, fmt.Errorf("%w: line %s on entry %s", apperr.ErrNotFound, lineID, entryID)
	}

	var effect *inventory.Movement
	keys := []string{}
	if applyStock {
		effect = &inventory.Movement{
			Code:     line.Code,
			Location: line.Location,
			Delta:    line.Quantity,
			Meta:     model.ItemMeta{Name: line.Name, Unit: line.Unit, Category: line.Category},
		}
		keys = append(keys, stockKey(line.Code, line.Location))
	}

	var updated *model.TransactionEntry
	err = uc.withLocks(ctx, keys, func() error {
		var rErr error
		updated, rErr = uc.repo.ResolveLine(ctx, entryID, lineID, from, to, actor.ID, effect)
		return rErr
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("qc line resolved",
		zap.String("entry_id", entryID),
		zap.String("line_id", lineID),
		zap.String("to", string(to)),
		zap.String("qc_by", actor.ID),
	)
	uc.bus.Publish(ctx, events.Event{Kind: events.KindQCResolved, EntryID: entryID, Codes: []string{line.Code}})
	return updated, nil
}

func (uc *ledgerUseCase) GetEntry(ctx context.Context, id string) (*model.TransactionEntry, error) {
	return uc.repo.GetEntry(ctx, id)
}

func (uc *ledgerUseCase) ListEntries(ctx context.Context, filters *dto.EntryFilters) ([]model.TransactionEntry, int, error) {
	return uc.repo.ListEntries(ctx, filters)
}

func newEntry(t model.TransactionType, actor auth.Actor) *model.TransactionEntry {
	return &model.TransactionEntry{
		ID:        uuid.New().String(),
		Type:      t,
		ActorID:   actor.ID,
		ActorName: actor.Name,
		CreatedAt: time.Now(),
	}
}

func stockKey(code, location string) string {
	return fmt.Sprintf("lock:stock:%s:%s", code, location)
}

func effectKeys(effects []ledger.Effect) []string {
	seen := map[string]bool{}
	var keys []string
	for _, ef := range effects {
		k := stockKey(ef.Movement.Code, ef.Movement.Location)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

// withLocks serializes the commit against other writers of the same stock
// keys. Keys are taken in sorted order so two commits touching the same pair
// cannot deadlock; exhausted retries surface as Conflict.
func (uc *ledgerUseCase) withLocks(ctx context.Context, keys []string, fn func() error) error {
	if len(keys) == 0 {
		return fn()
	}
	sort.Strings(keys)

	value := uuid.New().String()
	held := make([]string, 0, len(keys))
	defer func() {
		for _, key := range held {
			if err := uc.locker.ReleaseLock(ctx, key, value); err != nil {
				uc.logger.Warn("failed to release stock lock", zap.String("key", key), zap.Error(err))
			}
		}
	}()

	for _, key := range keys {
		acquired := false
		for i := 0; i < lockAttempts; i++ {
			ok, err := uc.locker.AcquireLock(ctx, key, value, lockTTL)
			if err != nil {
				uc.logger.Error("failed to acquire stock lock", zap.String("key", key), zap.Error(err))
			}
			if ok {
				acquired = true
				break
			}
			time.Sleep(lockBackoff)
		}
		if !acquired {
			return fmt.Errorf("%w: stock key %s is contended", apperr.ErrConflict, key)
		}
		held = append(held, key)
	}

	return fn()
}

func (uc *ledgerUseCase) upsertCatalog(ctx context.Context, items []model.LineItem) {
	if uc.catalog == nil {
		return
	}
	for _, it := range items {
		err := uc.catalog.Upsert(ctx, catalog.Item{
			Code:         it.Code,
			Name:         it.Name,
			Unit:         it.Unit,
			Category:     it.Category,
			LastLocation: it.Location,
		})
		if err != nil {
			uc.logger.Warn("catalog upsert failed", zap.String("code", it.Code), zap.Error(err))
		}
	}
}

func (uc *ledgerUseCase) publishCommit(ctx context.Context, kind events.Kind, entry *model.TransactionEntry) {
	codes := make([]string, 0, len(entry.Items))
	for _, it := range entry.Items {
		codes = append(codes, it.Code)
	}
	uc.bus.Publish(ctx, events.Event{Kind: kind, EntryID: entry.ID, Codes: codes})
	uc.logger.Info("ledger entry committed",
		zap.String("entry_id", entry.ID),
		zap.String("type", string(entry.Type)),
		zap.Int("lines", len(entry.Items)),
		zap.String("actor_id", entry.ActorID),
	)
}
