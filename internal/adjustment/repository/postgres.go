package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ardhix/warehouse-ledger/internal/adjustment"
	"github.com/ardhix/warehouse-ledger/internal/adjustment/dto"
	"github.com/ardhix/warehouse-ledger/internal/apperr"
	"github.com/ardhix/warehouse-ledger/internal/inventory"
	"github.com/ardhix/warehouse-ledger/internal/ledger"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

type PGRepository struct {
	DB     *sqlx.DB
	Inv    inventory.TxApplier
	Ledger ledger.TxWriter
}

func NewPGRepository(db *sqlx.DB, inv inventory.TxApplier, lw ledger.TxWriter) *PGRepository {
	return &PGRepository{DB: db, Inv: inv, Ledger: lw}
}

func (r *PGRepository) Create(ctx context.Context, req *model.AdjustmentRequest) error {
	_, err := r.DB.NamedExecContext(ctx, `
        INSERT INTO adjustment_requests (
            id, item_code, location, proposed_quantity, reason, status,
            requested_by_id, requested_by_name, created_at
        )
        VALUES (
            :id, :item_code, :location, :proposed_quantity, :reason, :status,
            :requested_by_id, :requested_by_name, :created_at
        )`, req)
	return err
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*model.AdjustmentRequest, error) {
	var req model.AdjustmentRequest
	err := r.DB.GetContext(ctx, &req, `SELECT * FROM adjustment_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: adjustment request %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.RequestFilters) ([]model.AdjustmentRequest, int, error) {
	var items []model.AdjustmentRequest
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.Code != "" {
		conditions = append(conditions, "item_code = :code")
		args["code"] = f.Code
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM adjustment_requests" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM adjustment_requests" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) Reject(ctx context.Context, id string, res adjustment.Resolution) (*model.AdjustmentRequest, error) {
	var req model.AdjustmentRequest
	err := r.DB.GetContext(ctx, &req, `
        UPDATE adjustment_requests
        SET status = $1, resolved_by_id = $2, resolved_by_name = $3, resolved_at = $4
        WHERE id = $5 AND status = $6
        RETURNING *`,
		model.AdjustmentRejected, res.ResolvedByID, res.ResolvedByName, res.ResolvedAt,
		id, model.AdjustmentPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyResolveFailure(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Approve is the one place a request turns into stock: status flip, quantity
// delta, and ledger entry land in a single transaction.
func (r *PGRepository) Approve(ctx context.Context, id string, res adjustment.Resolution, buildEntry adjustment.EntryBuilder) (*model.AdjustmentRequest, *model.TransactionEntry, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var req model.AdjustmentRequest
	err = tx.GetContext(ctx, &req, `
        UPDATE adjustment_requests
        SET status = $1, resolved_by_id = $2, resolved_by_name = $3, resolved_at = $4
        WHERE id = $5 AND status = $6
        RETURNING *`,
		model.AdjustmentApproved, res.ResolvedByID, res.ResolvedByName, res.ResolvedAt,
		id, model.AdjustmentPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, r.classifyResolveFailure(ctx, id)
	}
	if err != nil {
		return nil, nil, err
	}

	// Authoritative previous quantity, locked for the rest of the commit.
	previous := 0
	meta := model.ItemMeta{}
	var rec model.InventoryRecord
	err = tx.GetContext(ctx, &rec, `
        SELECT * FROM inventory WHERE code = $1 AND location = $2 FOR UPDATE`,
		req.ItemCode, req.Location)
	switch {
	case err == nil:
		previous = rec.Quantity
		meta = model.ItemMeta{Name: rec.Name, Unit: rec.Unit, Category: rec.Category}
	case errors.Is(err, sql.ErrNoRows):
		// First stock for this code at this location arrives via approval.
	default:
		return nil, nil, err
	}

	if delta := req.ProposedQuantity - previous; delta != 0 {
		_, err = r.Inv.ApplyMovementTx(ctx, tx, inventory.Movement{
			Code:     req.ItemCode,
			Location: req.Location,
			Delta:    delta,
			Meta:     meta,
		})
		if err != nil {
			return nil, nil, err
		}
	}

	entry := buildEntry(&req, previous, meta)
	if err := r.Ledger.InsertEntryTx(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &req, entry, nil
}

func (r *PGRepository) classifyResolveFailure(ctx context.Context, id string) error {
	var req model.AdjustmentRequest
	err := r.DB.GetContext(ctx, &req, `SELECT * FROM adjustment_requests WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: adjustment request %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: request is already %s", apperr.ErrAlreadyResolved, req.Status)
}
