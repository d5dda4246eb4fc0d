package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/adjustment"
	"github.com/ardhix/warehouse-ledger/internal/adjustment/dto"
	"github.com/ardhix/warehouse-ledger/internal/apperr"
	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/events"
	"github.com/ardhix/warehouse-ledger/internal/ledger"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

const (
	lockTTL      = 5 * time.Second
	lockAttempts = 3
	lockBackoff  = 100 * time.Millisecond
)

type adjustmentUseCase struct {
	repo   adjustment.Repository
	locker ledger.Locker
	bus    events.Bus
	logger *zap.Logger
}

func NewAdjustmentUseCase(repo adjustment.Repository, locker ledger.Locker, bus events.Bus, log *zap.Logger) adjustment.UseCase {
	return &adjustmentUseCase{repo: repo, locker: locker, bus: bus, logger: log}
}

func (uc *adjustmentUseCase) CreateRequest(ctx context.Context, actor auth.Actor, input *dto.CreateRequestInput) (*model.AdjustmentRequest, error) {
	if err := auth.Authorize(auth.OpCreateAdjustment, actor.Role); err != nil {
		return nil, err
	}
	if input.ItemCode == "" {
		return nil, apperr.Validation("item_code", "required")
	}
	if input.Location == "" {
		return nil, apperr.Validation("location", "required")
	}
	if input.ProposedQuantity < 0 {
		return nil, apperr.Validation("proposed_quantity", "must not be negative")
	}
	if input.Reason == "" {
		return nil, apperr.Validation("reason", "required")
	}

	req := &model.AdjustmentRequest{
		ID:               uuid.New().String(),
		ItemCode:         input.ItemCode,
		Location:         input.Location,
		ProposedQuantity: input.ProposedQuantity,
		Reason:           input.Reason,
		Status:           model.AdjustmentPending,
		RequestedByID:    actor.ID,
		RequestedByName:  actor.Name,
		CreatedAt:        time.Now(),
	}
	if err := uc.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	uc.logger.Info("adjustment requested",
		zap.String("request_id", req.ID),
		zap.String("code", req.ItemCode),
		zap.String("location", req.Location),
		zap.Int("proposed", req.ProposedQuantity),
		zap.String("requested_by", actor.ID),
	)
	return req, nil
}

// Approve resolves the request and, in the same transaction, applies the
// delta and records the adjust/requested ledger entry. A requester approving
// their own request is permitted.
func (uc *adjustmentUseCase) Approve(ctx context.Context, actor auth.Actor, id string) (*model.AdjustmentRequest, *model.TransactionEntry, error) {
	if err := auth.Authorize(auth.OpResolveAdjustment, actor.Role); err != nil {
		return nil, nil, err
	}

	pending, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	res := adjustment.Resolution{
		ResolvedByID:   actor.ID,
		ResolvedByName: actor.Name,
		ResolvedAt:     time.Now(),
	}

	var req *model.AdjustmentRequest
	var entry *model.TransactionEntry
	err = uc.withLock(ctx, stockKey(pending.ItemCode, pending.Location), func() error {
		var aErr error
		req, entry, aErr = uc.repo.Approve(ctx, id, res, buildApprovalEntry(actor, res.ResolvedAt))
		return aErr
	})
	if err != nil {
		return nil, nil, err
	}

	uc.logger.Info("adjustment approved",
		zap.String("request_id", req.ID),
		zap.String("entry_id", entry.ID),
		zap.String("resolved_by", actor.ID),
	)
	uc.bus.Publish(ctx, events.Event{
		Kind:    events.KindAdjustmentResolved,
		EntryID: entry.ID,
		Codes:   []string{req.ItemCode},
	})
	return req, entry, nil
}

func (uc *adjustmentUseCase) Reject(ctx context.Context, actor auth.Actor, id string) (*model.AdjustmentRequest, error) {
	if err := auth.Authorize(auth.OpResolveAdjustment, actor.Role); err != nil {
		return nil, err
	}

	req, err := uc.repo.Reject(ctx, id, adjustment.Resolution{
		ResolvedByID:   actor.ID,
		ResolvedByName: actor.Name,
		ResolvedAt:     time.Now(),
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("adjustment rejected",
		zap.String("request_id", req.ID),
		zap.String("resolved_by", actor.ID),
	)
	uc.bus.Publish(ctx, events.Event{
		Kind:  events.KindAdjustmentResolved,
		Codes: []string{req.ItemCode},
	})
	return req, nil
}

func (uc *adjustmentUseCase) GetRequest(ctx context.Context, id string) (*model.AdjustmentRequest, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *adjustmentUseCase) ListRequests(ctx context.Context, filters *dto.RequestFilters) ([]model.AdjustmentRequest, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func buildApprovalEntry(resolver auth.Actor, at time.Time) adjustment.EntryBuilder {
	return func(req *model.AdjustmentRequest, previous int, meta model.ItemMeta) *model.TransactionEntry {
		subtype := model.AdjustRequested
		reason := req.Reason
		prev := previous
		newQ := req.ProposedQuantity
		requestedByID := req.RequestedByID
		requestedByName := req.RequestedByName

		entry := &model.TransactionEntry{
			ID:               uuid.New().String(),
			Type:             model.TransactionAdjust,
			Subtype:          &subtype,
			ActorID:          resolver.ID,
			ActorName:        resolver.Name,
			CreatedAt:        at,
			Reason:           &reason,
			PreviousQuantity: &prev,
			NewQuantity:      &newQ,
			RequestedByID:    &requestedByID,
			RequestedByName:  &requestedByName,
		}
		entry.Items = []model.LineItem{{
			ID:       uuid.New().String(),
			EntryID:  entry.ID,
			Position: 0,
			Code:     req.ItemCode,
			Name:     meta.Name,
			Quantity: newQ - prev,
			Unit:     meta.Unit,
			Category: meta.Category,
			Location: req.Location,
		}}
		return entry
	}
}

func stockKey(code, location string) string {
	return fmt.Sprintf("lock:stock:%s:%s", code, location)
}

func (uc *adjustmentUseCase) withLock(ctx context.Context, key string, fn func() error) error {
	value := uuid.New().String()
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
	defer func() {
		if err := uc.locker.ReleaseLock(ctx, key, value); err != nil {
			uc.logger.Warn("failed to release stock lock", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn()
}
