package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/karimsaleh/freshbasket-backend/pkg/enums"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	carts := `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	cartItems := `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  image TEXT,
  selling_method TEXT NOT NULL,
  price NUMERIC NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 1,
  weight_kg NUMERIC,
  locked INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(carts).Error)
	require.NoError(t, db.Exec(cartItems).Error)
	return db
}

func TestUserRepositoryRoundTrip(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewUserRepository(db)

	userID := uuid.New()
	owner := Owner{UserID: &userID}
	weight := 0.5

	lines := []Line{
		{
			ProductID:     uuid.New(),
			ProductName:   "Bananas (bunch)",
			SellingMethod: enums.SellingMethodUnit,
			Price:         decimal.NewFromInt(30),
			Quantity:      2,
		},
		{
			ProductID:     uuid.New(),
			ProductName:   "Tomatoes",
			SellingMethod: enums.SellingMethodWeightCustom,
			Price:         decimal.NewFromInt(40),
			WeightKg:      &weight,
		},
	}
	require.NoError(t, repo.Replace(context.Background(), owner, lines))

	snapshot, err := repo.Get(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 2)
	assert.True(t, snapshot.Total.Equal(decimal.NewFromInt(80)), "total %s", snapshot.Total)
}

func TestUserRepositoryReplaceIsLastWriteWins(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewUserRepository(db)

	userID := uuid.New()
	owner := Owner{UserID: &userID}

	first := []Line{{
		ProductID:     uuid.New(),
		ProductName:   "Milk",
		SellingMethod: enums.SellingMethodUnit,
		Price:         decimal.NewFromInt(55),
		Quantity:      1,
	}}
	second := []Line{{
		ProductID:     uuid.New(),
		ProductName:   "Eggs",
		SellingMethod: enums.SellingMethodUnit,
		Price:         decimal.NewFromInt(90),
		Quantity:      2,
	}}

	require.NoError(t, repo.Replace(context.Background(), owner, first))
	require.NoError(t, repo.Replace(context.Background(), owner, second))

	snapshot, err := repo.Get(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, snapshot.Lines, 1)
	assert.Equal(t, "Eggs", snapshot.Lines[0].ProductName)
}

func TestUserRepositoryMissingCartReadsEmpty(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewUserRepository(db)

	userID := uuid.New()
	snapshot, err := repo.Get(context.Background(), Owner{UserID: &userID})
	require.NoError(t, err)
	assert.True(t, snapshot.IsEmpty())
}

func TestUserRepositoryClear(t *testing.T) {
	db := setupCartTestDB(t)
	repo := NewUserRepository(db)

	userID := uuid.New()
	owner := Owner{UserID: &userID}
	require.NoError(t, repo.Replace(context.Background(), owner, []Line{{
		ProductID:     uuid.New(),
		ProductName:   "Rice",
		SellingMethod: enums.SellingMethodUnit,
		Price:         decimal.NewFromInt(70),
		Quantity:      1,
	}}))

	require.NoError(t, repo.Clear(context.Background(), owner))

	snapshot, err := repo.Get(context.Background(), owner)
	require.NoError(t, err)
	assert.True(t, snapshot.IsEmpty())

	var count int64
	require.NoError(t, db.Table("cart_items").Count(&count).Error)
	assert.Zero(t, count)
}
