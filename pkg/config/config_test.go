package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFile("")

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, "postgres", cfg.Search.Provider)
	assert.Equal(t, 256, cfg.Search.QueryMaxLength)
	assert.Equal(t, 500, cfg.Search.MaxResults)
	assert.Equal(t, "@every 15m", cfg.Search.SuggestionRefreshCron)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.OTelEnabled)
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "8181"
search:
  provider: postgres_fts
  query_max_length: 128
`), 0o644))

	cfg, err := LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, "8181", cfg.Server.Port)
	assert.Equal(t, "postgres_fts", cfg.Search.Provider)
	assert.Equal(t, 128, cfg.Search.QueryMaxLength)
	// Unset keys keep their defaults
	assert.Equal(t, 500, cfg.Search.MaxResults)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  provider: postgres_fts\n"), 0o644))

	t.Setenv("SEARCH_PROVIDER", "postgres_trigram")
	t.Setenv("SEARCH_MAX_RESULTS", "100")

	cfg, err := LoadFile(path)

	require.NoError(t, err)
	assert.Equal(t, "postgres_trigram", cfg.Search.Provider)
	assert.Equal(t, 100, cfg.Search.MaxResults)
}

func TestLoadRejectsInvalidProvider(t *testing.T) {
	t.Setenv("SEARCH_PROVIDER", "elasticsearch")

	_, err := LoadFile("")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search provider")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidatePortsMustDiffer(t *testing.T) {
	cfg := defaults()
	cfg.Server.HealthPort = cfg.Server.Port

	assert.Error(t, cfg.Validate())
}

func TestValidateOTelRequiresEndpoint(t *testing.T) {
	cfg := defaults()
	cfg.Observability.OTelEnabled = true
	cfg.Observability.OTelEndpoint = ""

	assert.Error(t, cfg.Validate())
}

func TestReplicaURLList(t *testing.T) {
	db := DatabaseConfig{ReplicaURLs: " postgres://a , ,postgres://b"}
	assert.Equal(t, []string{"postgres://a", "postgres://b"}, db.ReplicaURLList())

	assert.Nil(t, (&DatabaseConfig{}).ReplicaURLList())
}

func TestWatchReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  provider: postgres\n"), 0o644))

	reloaded := make(chan *Config, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, path, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		}, nil)
	}()

	// Give the watcher a moment to register before writing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("search:\n  provider: postgres_fts\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "postgres_fts", cfg.Search.Provider)
	case <-ctx.Done():
		t.Fatal("configuration reload never observed")
	}

	cancel()
	<-done
}

func TestWatchSkipsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search:\n  provider: postgres\n"), 0o644))

	errs := make(chan error, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		_ = Watch(ctx, path,
			func(*Config) { t.Error("invalid configuration must not be delivered") },
			func(err error) {
				select {
				case errs <- err:
				default:
				}
			})
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("search:\n  provider: elasticsearch\n"), 0o644))

	select {
	case err := <-errs:
		assert.Error(t, err)
	case <-ctx.Done():
		t.Fatal("validation error never observed")
	}
}
