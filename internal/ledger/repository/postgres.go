package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
	"github.com/ardhix/warehouse-ledger/internal/inventory"
	"github.com/ardhix/warehouse-ledger/internal/ledger"
	"github.com/ardhix/warehouse-ledger/internal/ledger/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

const insertEntryQuery = `
    INSERT INTO transactions (
        id, type, subtype, actor_id, actor_name, created_at,
        supplier, recipient, from_location, to_location, reason,
        previous_quantity, new_quantity, requested_by_id, requested_by_name
    )
    VALUES (
        :id, :type, :subtype, :actor_id, :actor_name, :created_at,
        :supplier, :recipient, :from_location, :to_location, :reason,
        :previous_quantity, :new_quantity, :requested_by_id, :requested_by_name
    )`

const insertItemQuery = `
    INSERT INTO transaction_items (
        id, entry_id, position, code, name, quantity, unit, category,
        location, to_location, qc_status, qc_by
    )
    VALUES (
        :id, :entry_id, :position, :code, :name, :quantity, :unit, :category,
        :location, :to_location, :qc_status, :qc_by
    )`

type PGRepository struct {
	DB  *sqlx.DB
	Inv inventory.TxApplier
}

func NewPGRepository(db *sqlx.DB, inv inventory.TxApplier) *PGRepository {
	return &PGRepository{DB: db, Inv: inv}
}

// InsertEntryTx writes the entry row and its lines inside a caller-owned
// transaction. Used by CommitEntry and by the adjustment approval path.
func (r *PGRepository) InsertEntryTx(ctx context.Context, tx *sqlx.Tx, entry *model.TransactionEntry) error {
	if _, err := tx.NamedExecContext(ctx, insertEntryQuery, entry); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	for i := range entry.Items {
		entry.Items[i].EntryID = entry.ID
		if _, err := tx.NamedExecContext(ctx, insertItemQuery, &entry.Items[i]); err != nil {
			return fmt.Errorf("insert line %d: %w", i, err)
		}
	}
	return nil
}

func (r *PGRepository) CommitEntry(ctx context.Context, entry *model.TransactionEntry, effects []ledger.Effect) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := r.InsertEntryTx(ctx, tx, entry); err != nil {
		return err
	}

	for _, ef := range effects {
		if _, err := r.Inv.ApplyMovementTx(ctx, tx, ef.Movement); err != nil {
			return fmt.Errorf("line %d: %w", ef.LineIndex, err)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) GetEntry(ctx context.Context, id string) (*model.TransactionEntry, error) {
	var entry model.TransactionEntry
	err := r.DB.GetContext(ctx, &entry, `SELECT * FROM transactions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: transaction %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	err = r.DB.SelectContext(ctx, &entry.Items,
		`SELECT * FROM transaction_items WHERE entry_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *PGRepository) ListEntries(ctx context.Context, f *dto.EntryFilters) ([]model.TransactionEntry, int, error) {
	var entries []model.TransactionEntry
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Type != "" {
		conditions = append(conditions, "type = :type")
		args["type"] = f.Type
	}
	if f.Subtype != "" {
		conditions = append(conditions, "subtype = :subtype")
		args["subtype"] = f.Subtype
	}
	if f.ActorID != "" {
		conditions = append(conditions, "actor_id = :actor_id")
		args["actor_id"] = f.ActorID
	}
	if f.Code != "" {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM transaction_items ti WHERE ti.entry_id = transactions.id AND ti.code = :code)")
		args["code"] = f.Code
	}
	if f.Since != nil {
		conditions = append(conditions, "created_at >= :since")
		args["since"] = *f.Since
	}
	if f.Until != nil {
		conditions = append(conditions, "created_at <= :until")
		args["until"] = *f.Until
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM transactions" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM transactions" + whereClause + " ORDER BY created_at DESC"
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

	if err := nstmt.SelectContext(ctx, &entries, args); err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, entries); err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

func (r *PGRepository) attachItems(ctx context.Context, entries []model.TransactionEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	byID := make(map[string]*model.TransactionEntry, len(entries))
	for i := range entries {
		ids[i] = entries[i].ID
		byID[entries[i].ID] = &entries[i]
	}

	query, args, err := sqlx.In(
		`SELECT * FROM transaction_items WHERE entry_id IN (?) ORDER BY position`, ids)
	if err != nil {
		return err
	}
	query = r.DB.Rebind(query)

	var items []model.LineItem
	if err := r.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return err
	}
	for _, it := range items {
		if e, ok := byID[it.EntryID]; ok {
			e.Items = append(e.Items, it)
		}
	}
	return nil
}

func (r *PGRepository) ResolveLine(ctx context.Context, entryID, lineID string, from, to model.QCStatus, qcBy string, effect *inventory.Movement) (*model.TransactionEntry, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var line model.LineItem
	err = tx.GetContext(ctx, &line, `
        UPDATE transaction_items SET qc_status = $1, qc_by = $2
        WHERE id = $3 AND entry_id = $4 AND qc_status = $5
        RETURNING *`,
		to, qcBy, lineID, entryID, from)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.classifyResolveFailure(ctx, tx, entryID, lineID, to)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve line: %w", err)
	}

	if effect != nil {
		if _, err := r.Inv.ApplyMovementTx(ctx, tx, *effect); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return r.GetEntry(ctx, entryID)
}

// classifyResolveFailure distinguishes a missing line, a terminal line, and
// an illegal transition after the guarded update matched nothing.
func (r *PGRepository) classifyResolveFailure(ctx context.Context, tx *sqlx.Tx, entryID, lineID string, attempted model.QCStatus) error {
	var current model.LineItem
	err := tx.GetContext(ctx, &current,
		`SELECT * FROM transaction_items WHERE id = $1 AND entry_id = $2`, lineID, entryID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: line %s on entry %s", apperr.ErrNotFound, lineID, entryID)
	}
	if err != nil {
		return err
	}
	if current.QCStatus != nil && current.QCStatus.Terminal() {
		return fmt.Errorf("%w: line is already %s", apperr.ErrAlreadyResolved, *current.QCStatus)
	}
	status := model.QCStatus("")
	if current.QCStatus != nil {
		status = *current.QCStatus
	}
	return apperr.Validation("qc_status", fmt.Sprintf("cannot move line from %s to %s", status, attempted))
}
