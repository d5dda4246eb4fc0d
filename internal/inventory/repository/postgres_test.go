package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
	"github.com/ardhix/warehouse-ledger/internal/inventory"
	"github.com/ardhix/warehouse-ledger/internal/inventory/dto"
	"github.com/ardhix/warehouse-ledger/internal/model"
)

// openTestDB connects using TEST_DATABASE_DSN and skips when it is unset. The
// schema from migrations/ must already be applied.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set, skipping database test")
	}
	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func applyMovement(t *testing.T, store *PGStore, m inventory.Movement) (*model.InventoryRecord, error) {
	t.Helper()
	tx, err := store.DB.Beginx()
	require.NoError(t, err)

	rec, err := store.ApplyMovementTx(context.Background(), tx, m)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	require.NoError(t, tx.Commit())
	return rec, nil
}

func cleanupCode(t *testing.T, db *sqlx.DB, code string) {
	t.Cleanup(func() {
		db.Exec(`DELETE FROM inventory WHERE code = $1`, code)
	})
}

func TestApplyMovementTx_IncrementCreatesRow(t *testing.T) {
	db := openTestDB(t)
	store := NewPGStore(db)
	code := "it-" + uuid.New().String()[:8]
	cleanupCode(t, db, code)

	rec, err := applyMovement(t, store, inventory.Movement{
		Code: code, Location: "A1-01", Delta: 10,
		Meta: model.ItemMeta{Name: "Test Part", Unit: "pcs", Category: "spare"},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, rec.Quantity)
	assert.Equal(t, model.InventoryActive, rec.Status)
	assert.Equal(t, "Test Part", rec.Name)

	// Second increment accumulates on the same row.
	rec, err = applyMovement(t, store, inventory.Movement{Code: code, Location: "A1-01", Delta: 5})
	require.NoError(t, err)
	assert.Equal(t, 15, rec.Quantity)
}

func TestApplyMovementTx_DecrementGuard(t *testing.T) {
	db := openTestDB(t)
	store := NewPGStore(db)
	code := "it-" + uuid.New().String()[:8]
	cleanupCode(t, db, code)

	_, err := applyMovement(t, store, inventory.Movement{
		Code: code, Location: "A1-01", Delta: 10,
		Meta: model.ItemMeta{Name: "Test Part", Unit: "pcs"},
	})
	require.NoError(t, err)

	rec, err := applyMovement(t, store, inventory.Movement{Code: code, Location: "A1-01", Delta: -4})
	require.NoError(t, err)
	assert.Equal(t, 6, rec.Quantity)

	_, err = applyMovement(t, store, inventory.Movement{Code: code, Location: "A1-01", Delta: -7})
	require.ErrorIs(t, err, apperr.ErrInvalidQuantity)

	// The rejected overdraft left the quantity intact.
	got, err := store.Get(context.Background(), code, "A1-01")
	require.NoError(t, err)
	assert.Equal(t, 6, got.Quantity)
}

func TestApplyMovementTx_DecrementMissingRow(t *testing.T) {
	db := openTestDB(t)
	store := NewPGStore(db)
	code := "it-" + uuid.New().String()[:8]

	_, err := applyMovement(t, store, inventory.Movement{Code: code, Location: "A1-01", Delta: -1})
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSetStatusAndFilters(t *testing.T) {
	db := openTestDB(t)
	store := NewPGStore(db)
	ctx := context.Background()
	code := "it-" + uuid.New().String()[:8]
	cleanupCode(t, db, code)

	_, err := applyMovement(t, store, inventory.Movement{
		Code: code, Location: "A1-01", Delta: 3,
		Meta: model.ItemMeta{Name: "Archivable Part", Unit: "pcs", Category: "spare"},
	})
	require.NoError(t, err)

	rec, err := store.SetStatus(ctx, code, "A1-01", model.InventoryArchived)
	require.NoError(t, err)
	assert.Equal(t, model.InventoryArchived, rec.Status)

	items, total, err := store.FindAll(ctx, &dto.InventoryFilters{Code: code, Status: "archived"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, code, items[0].Code)

	// Archived rows keep their quantity; archiving is not an adjustment.
	assert.Equal(t, 3, items[0].Quantity)

	_, err = store.SetStatus(ctx, code, "nowhere", model.InventoryArchived)
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
