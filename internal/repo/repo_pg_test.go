package repo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/Skotchmaster/product_rating/internal/db"
	"github.com/Skotchmaster/product_rating/internal/models"
)

// setupPostgres starts a throwaway postgres container. Set CATALOG_PG_TESTS=1
// to run; docker is required.
func setupPostgres(t *testing.T) *GormRepo {
	t.Helper()
	if os.Getenv("CATALOG_PG_TESTS") != "1" {
		t.Skip("set CATALOG_PG_TESTS=1 to run postgres tests")
	}
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("catalog"),
		postgres.WithUsername("catalog"),
		postgres.WithPassword("catalog"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pg.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))
	return &GormRepo{DB: gdb}
}

func TestPostgres_ConstraintsAndAverage(t *testing.T) {
	r := setupPostgres(t)
	ctx := context.Background()

	u := &models.User{Email: "a@example.com", Password: "x", IsActive: true}
	require.NoError(t, r.CreateUser(ctx, u))
	p := &models.Product{Name: "Tea", Price: decimal.RequireFromString("12345.67")}
	require.NoError(t, r.CreateProduct(ctx, p))

	err := r.CreateProduct(ctx, &models.Product{Name: "Tea", Price: decimal.NewFromInt(1)})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	require.NoError(t, r.CreateRating(ctx, &models.Rating{UserID: u.ID, ProductID: p.ID, Rating: 5}))
	err = r.CreateRating(ctx, &models.Rating{UserID: u.ID, ProductID: p.ID, Rating: 4})
	assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey), "got %v", err)

	v := &models.User{Email: "b@example.com", Password: "x", IsActive: true}
	require.NoError(t, r.CreateUser(ctx, v))
	require.NoError(t, r.CreateRating(ctx, &models.Rating{UserID: v.ID, ProductID: p.ID, Rating: 4}))

	avg, err := r.AverageRating(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, avg.Valid)
	assert.InDelta(t, 4.5, avg.Float64, 1e-9)

	got, err := r.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "12345.67", got.Price.StringFixed(2))

	// the foreign key cascades even without the explicit delete
	require.NoError(t, r.DB.Exec("DELETE FROM products WHERE id = ?", p.ID).Error)
	var left int64
	require.NoError(t, r.DB.Model(&models.Rating{}).Where("product_id = ?", p.ID).Count(&left).Error)
	assert.Zero(t, left)
}
