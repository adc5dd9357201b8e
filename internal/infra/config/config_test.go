package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaults(t *testing.T) {
	t.Setenv("STORAGE_MODE", "")
	cfg, err := source{file: map[string]string{}}.build()
	require.NoError(t, err)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.False(t, cfg.SymmetricPrepBuffer)
	assert.Equal(t, 2*time.Minute, cfg.ReturnPollMaxWait)
	assert.Equal(t, 24*time.Hour, cfg.HostResponseWindow)
	assert.Equal(t, 30*time.Minute, cfg.PaymentWindow)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, 100, cfg.SweepBatchSize)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.True(t, cfg.Dev())
}

func TestFileOverlayLosesToEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rentnow.toml")
	body := `
http_addr = ":9090"
prep_buffer_symmetric = true
kafka_brokers = ["k1:9092", "k2:9092"]
sweep_batch_size = 25
payment_window = "45m"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("PAYMENT_WINDOW", "10m")

	src, err := newSource(path)
	require.NoError(t, err)
	cfg, err := src.build()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.True(t, cfg.SymmetricPrepBuffer)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 25, cfg.SweepBatchSize)
	assert.Equal(t, 10*time.Minute, cfg.PaymentWindow)
}

func TestBuildRejects(t *testing.T) {
	cases := []struct {
		name string
		file map[string]string
	}{
		{"bad duration", map[string]string{"RETURN_POLL_MAX_WAIT": "soon"}},
		{"bad bool", map[string]string{"PREP_BUFFER_SYMMETRIC": "maybe"}},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}},
		{"unknown storage", map[string]string{"STORAGE_MODE": "sqlite"}},
		{"postgres without dsn", map[string]string{"STORAGE_MODE": "postgres"}},
		{"zero batch", map[string]string{"SWEEP_BATCH_SIZE": "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := source{file: tc.file}.build()
			assert.Error(t, err)
		})
	}
}

func TestPostgresRequiresBackingServices(t *testing.T) {
	file := map[string]string{
		"STORAGE_MODE": "postgres",
		"POSTGRES_DSN": "postgres://localhost/rentnow",
		"MONGO_URI":    "mongodb://localhost:27017",
	}
	_, err := source{file: file}.build()
	assert.ErrorIs(t, err, ErrMissingValue)

	file["KAFKA_BROKERS"] = "localhost:9092"
	cfg, err := source{file: file}.build()
	require.NoError(t, err)
	assert.Equal(t, "payments.events", cfg.PaymentEventsTopic)
}
