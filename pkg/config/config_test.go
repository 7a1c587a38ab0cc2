package config

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TX_MAX_WAIT_MS", "")
	t.Setenv("TX_TIMEOUT_MS", "")
	t.Setenv("TX_ISOLATION_LEVEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Transaction.MaxWait)
	assert.Equal(t, 5*time.Second, cfg.Transaction.Timeout)
	assert.Equal(t, "", cfg.Transaction.IsolationLevel)
	assert.Equal(t, "http://localhost:8108", cfg.Typesense.URL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password= dbname=patient_survey sslmode=disable",
		cfg.Database.DatabaseDSN(),
	)
}

func TestLoad_DatabaseURLOverride(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://survey:secret@db:5432/survey?sslmode=require")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://survey:secret@db:5432/survey?sslmode=require", cfg.Database.DatabaseDSN())
}

func TestLoad_TransactionSettings(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TX_MAX_WAIT_MS", "500")
	t.Setenv("TX_TIMEOUT_MS", "1500")
	t.Setenv("TX_ISOLATION_LEVEL", "Serializable")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Transaction.MaxWait)
	assert.Equal(t, 1500*time.Millisecond, cfg.Transaction.Timeout)
	assert.Equal(t, "Serializable", cfg.Transaction.IsolationLevel)
}

func TestLoad_RejectsUnknownIsolationLevel(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("TX_ISOLATION_LEVEL", "Snapshot")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_IsolationLevelSpellings(t *testing.T) {
	for _, level := range []string{"READ_COMMITTED", "read committed", "Repeatable-Read", "serializable"} {
		t.Run(level, func(t *testing.T) {
			t.Setenv("APP_ENV", "production")
			t.Setenv("TX_ISOLATION_LEVEL", level)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, level, cfg.Transaction.IsolationLevel)
		})
	}
}

func TestParseIsolationLevel(t *testing.T) {
	tests := []struct {
		in   string
		want sql.IsolationLevel
	}{
		{"", sql.LevelDefault},
		{"READ_UNCOMMITTED", sql.LevelReadUncommitted},
		{"read committed", sql.LevelReadCommitted},
		{"RepeatableRead", sql.LevelRepeatableRead},
		{" Serializable ", sql.LevelSerializable},
	}
	for _, tt := range tests {
		got, err := ParseIsolationLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseIsolationLevel("snapshot")
	assert.Error(t, err)
}
