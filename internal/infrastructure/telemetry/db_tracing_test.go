package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type tracedRow struct {
	ID   int
	Name string
}

func TestRegisterDBTracing(t *testing.T) {
	t.Run("disabled leaves db untouched", func(t *testing.T) {
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		require.NoError(t, err)
		require.NoError(t, RegisterDBTracing(db, DefaultDBTracingConfig(), zap.NewNop()))
		assert.Nil(t, db.Callback().Query().Get("otel_timing:after_query"))
	})

	t.Run("enabled emits spans for queries", func(t *testing.T) {
		recorder := withRecorder(t)
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		require.NoError(t, err)

		cfg := DefaultDBTracingConfig()
		cfg.Enabled = true
		cfg.DBSystem = "sqlite"
		require.NoError(t, RegisterDBTracing(db, cfg, zap.NewNop()))
		require.NoError(t, db.AutoMigrate(&tracedRow{}))

		ctx, span := StartServiceSpan(context.Background(), "test", "query")
		require.NoError(t, db.WithContext(ctx).Create(&tracedRow{ID: 1, Name: "a"}).Error)
		var rows []tracedRow
		require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
		span.End()

		assert.Len(t, rows, 1)
		assert.Greater(t, len(recorder.Ended()), 1)
	})
}
