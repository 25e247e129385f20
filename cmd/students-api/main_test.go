package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage/memory"
	"github.com/aanand-mishra/student-records-api/internal/storage/sqlite"
)

func TestOpenStorage(t *testing.T) {
	ctx := context.Background()

	store, err := openStorage(ctx, &config.Config{Storage: config.Storage{Driver: config.DriverMemory}})
	require.NoError(t, err)
	assert.IsType(t, &memory.Memory{}, store)

	store, err = openStorage(ctx, &config.Config{Storage: config.Storage{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "db", "students.db"),
	}})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.SQLite{}, store)
	require.NoError(t, store.Close(ctx))

	_, err = openStorage(ctx, &config.Config{Storage: config.Storage{Driver: "redis"}})
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	ctx := context.Background()

	assert.False(t, setupLogger("prod").Enabled(ctx, slog.LevelDebug))
	assert.True(t, setupLogger("staging").Enabled(ctx, slog.LevelDebug))
	assert.True(t, setupLogger("dev").Enabled(ctx, slog.LevelDebug))
}
