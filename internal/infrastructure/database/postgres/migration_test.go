package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/infrastructure/database/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func TestRunAutoMigrationsCreatesSchema(t *testing.T) {
	db := setupTestDB(t)
	m := postgres.NewMigration(db)

	require.NoError(t, m.RunAutoMigrations())

	for _, table := range []string{
		"users", "categories", "products", "product_reviews",
		"carts", "cart_items", "orders", "order_items",
	} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
}

func TestSeedInitialDataIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	m := postgres.NewMigration(db)
	require.NoError(t, m.RunAutoMigrations())

	require.NoError(t, m.SeedInitialData())
	require.NoError(t, m.SeedInitialData())

	var admins int64
	db.Model(&user.User{}).Where("is_admin = ?", true).Count(&admins)
	assert.Equal(t, int64(1), admins)

	var categories int64
	db.Model(&product.Category{}).Count(&categories)
	assert.Equal(t, int64(4), categories)

	var products int64
	db.Model(&product.Product{}).Count(&products)
	assert.Equal(t, int64(3), products)
}

func TestDropAllTables(t *testing.T) {
	db := setupTestDB(t)
	m := postgres.NewMigration(db)
	require.NoError(t, m.RunAutoMigrations())

	require.NoError(t, m.DropAllTables())

	assert.False(t, db.Migrator().HasTable("users"))
	assert.False(t, db.Migrator().HasTable("orders"))
	assert.False(t, db.Migrator().HasTable("cart_items"))
}

func TestConnectionHealthAndStats(t *testing.T) {
	db := setupTestDB(t)
	conn := &postgres.Connection{DB: db}

	require.NoError(t, conn.Health())

	stats, err := conn.Stats()
	require.NoError(t, err)
	assert.Contains(t, stats, "open_connections")
	assert.Contains(t, stats, "in_use")
	assert.Contains(t, stats, "idle")
}
