package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const migrationsDir = "migrations"

func readMigration(t *testing.T, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(migrationsDir, name))
	require.NoError(t, err)
	return string(raw)
}

func TestMigrationsDirValidates(t *testing.T) {
	require.NoError(t, ValidateDir(migrationsDir))
}

func TestCreateOrdersMigration(t *testing.T) {
	sql := readMigration(t, "20250815093000_create_orders.sql")

	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS orders")
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS order_items")

	// reference joins orders to gateway transactions and must never collide
	assert.Contains(t, sql, "CONSTRAINT orders_reference_unique UNIQUE (reference)")

	// only the three lifecycle states are storable
	assert.Contains(t, sql, "CHECK (status IN ('created', 'completed', 'failed'))")
	assert.Contains(t, sql, "status TEXT NOT NULL DEFAULT 'created'")

	// money columns stay fixed-point
	assert.Contains(t, sql, "subtotal NUMERIC(12,2) NOT NULL")
	assert.Contains(t, sql, "total NUMERIC(12,2) NOT NULL")
	assert.Contains(t, sql, "price NUMERIC(12,2) NOT NULL")

	assert.Contains(t, sql, "REFERENCES orders (id) ON DELETE CASCADE")
	assert.Contains(t, sql, "CHECK (quantity > 0)")

	down := sql[strings.Index(sql, "-- +goose Down"):]
	assert.Contains(t, down, "DROP TABLE IF EXISTS order_items")
	assert.Contains(t, down, "DROP TABLE IF EXISTS orders")
}
