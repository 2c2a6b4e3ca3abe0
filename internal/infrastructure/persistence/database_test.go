package persistence

import (
	"testing"

	"github.com/hydrospark/backend/internal/infrastructure/config"
	"github.com/hydrospark/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

func TestOpen(t *testing.T) {
	cfg := &config.DatabaseConfig{MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: 5, ConnMaxIdleTime: 5}

	t.Run("opens and reports pool stats", func(t *testing.T) {
		db, err := open(sqlite.Open(":memory:"), cfg, Options{LogLevel: "silent"}, zap.NewNop())
		require.NoError(t, err)
		defer db.Close()

		assert.NoError(t, db.Ping())
		stats, err := db.Stats()
		require.NoError(t, err)
		assert.Equal(t, 1, stats.MaxOpenConnections)
	})

	t.Run("registers tracing callbacks when enabled", func(t *testing.T) {
		tracing := telemetry.DefaultDBTracingConfig()
		tracing.Enabled = true
		tracing.DBSystem = "sqlite"

		db, err := open(sqlite.Open(":memory:"), cfg, Options{Tracing: tracing}, zap.NewNop())
		require.NoError(t, err)
		defer db.Close()

		assert.NotNil(t, db.DB.Callback().Query().Get("otel_timing:after_query"))
	})
}
