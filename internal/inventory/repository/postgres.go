package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
	"github.com/ardhix/warehouse-ledger/internal/inventory"
	"github.com/ardhix/warehouse-ledger/internal/inventory/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

type PGStore struct {
	DB *sqlx.DB
}

func NewPGStore(db *sqlx.DB) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Get(ctx context.Context, code, location string) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := s.DB.GetContext(ctx, &rec,
		`SELECT * FROM inventory WHERE code = $1 AND location = $2`, code, location)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PGStore) FindByCode(ctx context.Context, code string) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := s.DB.SelectContext(ctx, &recs,
		`SELECT * FROM inventory WHERE code = $1 ORDER BY location`, code)
	return recs, err
}

func (s *PGStore) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.InventoryRecord, int, error) {
	var items []model.InventoryRecord
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Code != "" {
		conditions = append(conditions, "code = :code")
		args["code"] = f.Code
	}
	if f.Search != "" {
		conditions = append(conditions, "name ILIKE :search")
		args["search"] = "%" + f.Search + "%"
	}
	if f.Category != "" {
		conditions = append(conditions, "category = :category")
		args["category"] = f.Category
	}
	if f.Location != "" {
		conditions = append(conditions, "location = :location")
		args["location"] = f.Location
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM inventory" + whereClause
	rows, err := s.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM inventory" + whereClause + " ORDER BY code, location"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		offset := (page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := s.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (s *PGStore) SetStatus(ctx context.Context, code, location string, status model.InventoryStatus) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := s.DB.GetContext(ctx, &rec, `
        UPDATE inventory SET status = $1, updated_at = $2
        WHERE code = $3 AND location = $4
        RETURNING *`,
		status, time.Now(), code, location)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PGStore) ActiveItems(ctx context.Context) ([]model.InventoryRecord, error) {
	var recs []model.InventoryRecord
	err := s.DB.SelectContext(ctx, &recs,
		`SELECT * FROM inventory WHERE status = $1 ORDER BY updated_at`, model.InventoryActive)
	return recs, err
}

// ApplyMovementTx applies one signed movement inside tx. Increments create
// the row when absent, seeding metadata from the movement; decrements rely on
// a conditional UPDATE so two racing overdrafts cannot both pass.
func (s *PGStore) ApplyMovementTx(ctx context.Context, tx *sqlx.Tx, m inventory.Movement) (*model.InventoryRecord, error) {
	now := time.Now()

	if m.Delta == 0 {
		rec, err := getTx(ctx, tx, m.Code, m.Location)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return rec, err
	}

	if m.Delta > 0 {
		var rec model.InventoryRecord
		err := tx.GetContext(ctx, &rec, `
            INSERT INTO inventory (id, code, name, unit, category, location, quantity, status, created_at, updated_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
            ON CONFLICT (code, location) DO UPDATE SET
                quantity = inventory.quantity + EXCLUDED.quantity,
                updated_at = EXCLUDED.updated_at
            RETURNING *`,
			uuid.New().String(), m.Code, m.Meta.Name, m.Meta.Unit, m.Meta.Category,
			m.Location, m.Delta, model.InventoryActive, now)
		if err != nil {
			return nil, fmt.Errorf("apply increment: %w", err)
		}
		return &rec, nil
	}

	var rec model.InventoryRecord
	err := tx.GetContext(ctx, &rec, `
        UPDATE inventory SET quantity = quantity - $1, updated_at = $2
        WHERE code = $3 AND location = $4 AND quantity >= $1
        RETURNING *`,
		-m.Delta, now, m.Code, m.Location)
	if errors.Is(err, sql.ErrNoRows) {
		// Either the row does not exist or the guard rejected the overdraft.
		if _, lookupErr := getTx(ctx, tx, m.Code, m.Location); errors.Is(lookupErr, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s at %s", apperr.ErrNotFound, m.Code, m.Location)
		}
		return nil, fmt.Errorf("%w: %s at %s", apperr.ErrInvalidQuantity, m.Code, m.Location)
	}
	if err != nil {
		return nil, fmt.Errorf("apply decrement: %w", err)
	}
	return &rec, nil
}

func getTx(ctx context.Context, tx *sqlx.Tx, code, location string) (*model.InventoryRecord, error) {
	var rec model.InventoryRecord
	err := tx.GetContext(ctx, &rec,
		`SELECT * FROM inventory WHERE code = $1 AND location = $2`, code, location)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
