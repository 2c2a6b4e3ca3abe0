package migration

import (
	"io"
	"testing"

	"github.com/hydrospark/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := NewSource(migrations.FS)
	require.NoError(t, err)
	defer src.Close()

	versions, err := Versions(src)
	require.NoError(t, err)
	require.NotEmpty(t, versions)
	assert.Equal(t, uint(1), versions[0])

	t.Run("every version has up and down scripts", func(t *testing.T) {
		for _, v := range versions {
			up, _, err := src.ReadUp(v)
			require.NoError(t, err, "up %d", v)
			_ = up.Close()
			down, _, err := src.ReadDown(v)
			require.NoError(t, err, "down %d", v)
			_ = down.Close()
		}
	})

	t.Run("initial schema creates the engine tables", func(t *testing.T) {
		up, _, err := src.ReadUp(1)
		require.NoError(t, err)
		defer up.Close()
		body, err := io.ReadAll(up)
		require.NoError(t, err)
		for _, table := range []string{"customers", "usage_records", "anomalies", "bills"} {
			assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table)
		}
		assert.Contains(t, string(body), "uq_bill_customer_period_start")
	})

	t.Run("billing cursor column follows the initial schema", func(t *testing.T) {
		require.Contains(t, versions, uint(2))
		up, _, err := src.ReadUp(2)
		require.NoError(t, err)
		defer up.Close()
		body, err := io.ReadAll(up)
		require.NoError(t, err)
		assert.Contains(t, string(body), "skipped_through")
	})

	t.Run("listing matches the source", func(t *testing.T) {
		names, err := ListMigrations(migrations.FS)
		require.NoError(t, err)
		assert.Len(t, names, len(versions))
	})
}
