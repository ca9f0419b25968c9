package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/headphones_shop/internal/models"
	"github.com/Skotchmaster/headphones_shop/internal/testdb"
)

func countItems(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.CartItem{}).Count(&n).Error)
	return n
}

func TestAddItem_CreatesSessionAndMerges(t *testing.T) {
	db := testdb.New(t)
	r := New(db)
	ctx := context.Background()
	p := testdb.SeedProduct(t, db, "studio", 199.99, 5)

	lines, err := r.AddItem(ctx, "browser-a", p.ID, 1)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	lines, err = r.AddItem(ctx, "browser-a", p.ID, 2)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, "studio", lines[0].Name)
	assert.InDelta(t, 199.99, lines[0].Price, 0.001)
	assert.Equal(t, 5, lines[0].StockQuantity)
	assert.Equal(t, p.ImageURL, lines[0].ImageURL)

	var sessions int64
	require.NoError(t, db.Model(&models.CartSession{}).Count(&sessions).Error)
	assert.EqualValues(t, 1, sessions)
}

func TestMergeLine_SingleUpsert(t *testing.T) {
	db := testdb.New(t)
	p := testdb.SeedProduct(t, db, "studio", 50, 5)
	session := models.CartSession{UserIdentifier: "browser-a"}
	require.NoError(t, db.Create(&session).Error)

	stmt := mergeLine(db.Session(&gorm.Session{DryRun: true}), session.ID, p.ID, 1).Statement
	sql := stmt.SQL.String()
	assert.Contains(t, sql, "ON CONFLICT")
	assert.Contains(t, sql, "DO UPDATE SET")
	assert.Contains(t, sql, "cart_items.quantity + excluded.quantity")

	// A line written by another request in between is merged, not duplicated.
	require.NoError(t, db.Create(&models.CartItem{SessionID: session.ID, ProductID: p.ID, Quantity: 2}).Error)
	require.NoError(t, mergeLine(db, session.ID, p.ID, 3).Error)

	var item models.CartItem
	require.NoError(t, db.Where("session_id = ? AND product_id = ?", session.ID, p.ID).First(&item).Error)
	assert.Equal(t, 5, item.Quantity)
	assert.EqualValues(t, 1, countItems(t, db))
}

func TestAddItem_UnknownProduct(t *testing.T) {
	db := testdb.New(t)
	r := New(db)

	_, err := r.AddItem(context.Background(), "browser-a", 999, 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var sessions int64
	require.NoError(t, db.Model(&models.CartSession{}).Count(&sessions).Error)
	assert.Zero(t, sessions, "session creation must roll back with the failed add")
}

func TestScopedMutations_RejectForeignItems(t *testing.T) {
	db := testdb.New(t)
	r := New(db)
	ctx := context.Background()
	p := testdb.SeedProduct(t, db, "buds", 49.5, 10)

	lines, err := r.AddItem(ctx, "owner", p.ID, 2)
	require.NoError(t, err)
	itemID := lines[0].CartItemID
	before := countItems(t, db)

	_, err = r.UpdateItem(ctx, "intruder", itemID, 9)
	assert.ErrorIs(t, err, ErrNotOwned)

	_, err = r.RemoveItem(ctx, "intruder", itemID)
	assert.ErrorIs(t, err, ErrNotOwned)

	_, err = r.RemoveItem(ctx, "owner", itemID+100)
	assert.ErrorIs(t, err, ErrNotOwned)

	assert.Equal(t, before, countItems(t, db))
	owned, err := r.Snapshot(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, 2, owned[0].Quantity)
}

func TestUpdateAndRemove(t *testing.T) {
	db := testdb.New(t)
	r := New(db)
	ctx := context.Background()
	a := testdb.SeedProduct(t, db, "over-ear", 120, 3)
	b := testdb.SeedProduct(t, db, "in-ear", 30, 3)

	_, err := r.AddItem(ctx, "s1", a.ID, 1)
	require.NoError(t, err)
	lines, err := r.AddItem(ctx, "s1", b.ID, 1)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	lines, err = r.UpdateItem(ctx, "s1", lines[0].CartItemID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, lines[0].Quantity)

	lines, err = r.RemoveItem(ctx, "s1", lines[0].CartItemID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, b.ID, lines[0].ProductID)
}

func TestClear(t *testing.T) {
	db := testdb.New(t)
	r := New(db)
	ctx := context.Background()

	for i, name := range []string{"one", "two", "three"} {
		p := testdb.SeedProduct(t, db, name, float64(10*(i+1)), 5)
		_, err := r.AddItem(ctx, "clear-me", p.ID, 1)
		require.NoError(t, err)
	}
	other := testdb.SeedProduct(t, db, "kept", 1, 1)
	_, err := r.AddItem(ctx, "someone-else", other.ID, 1)
	require.NoError(t, err)

	removed, err := r.Clear(ctx, "clear-me")
	require.NoError(t, err)
	assert.EqualValues(t, 3, removed)

	lines, err := r.Snapshot(ctx, "clear-me")
	require.NoError(t, err)
	assert.Empty(t, lines)
	assert.EqualValues(t, 1, countItems(t, db))

	removed, err = r.Clear(ctx, "never-seen")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestSnapshot_UnknownSessionIsEmptyNotNil(t *testing.T) {
	r := New(testdb.New(t))

	lines, err := r.Snapshot(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)
}

func TestFindCartSession(t *testing.T) {
	db := testdb.New(t)
	r := New(db)
	p := testdb.SeedProduct(t, db, "x", 1, 1)

	_, err := r.FindCartSession(context.Background(), "s")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	_, err = r.AddItem(context.Background(), "s", p.ID, 1)
	require.NoError(t, err)
	s, err := r.FindCartSession(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, "s", s.UserIdentifier)
}
