package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "INGEST_STRICT", "INGEST_SIMPLIFY", "COORD_PRECISION", "NEO4J_URI"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()

	assert.Equal(t, DriverNeo4j, cfg.Store.Driver)
	assert.Equal(t, "bolt://localhost:7687", cfg.Store.Neo4j.URI)
	assert.True(t, cfg.Ingest.Strict)
	assert.True(t, cfg.Ingest.Simplify)
	assert.Zero(t, cfg.Ingest.CoordPrecision)
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/graph.db")
	t.Setenv("INGEST_STRICT", "false")
	t.Setenv("COORD_PRECISION", "7")
	t.Setenv("NEO4J_MAX_POOL_SIZE", "not-a-number")

	cfg := FromEnv()
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/graph.db", cfg.Store.SQLite.Path)
	assert.False(t, cfg.Ingest.Strict)
	assert.Equal(t, 7, cfg.Ingest.CoordPrecision)
	assert.Equal(t, 50, cfg.Store.Neo4j.MaxPoolSize)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	t.Setenv("STORE_DRIVER", "neo4j")
	t.Setenv("NEO4J_USER", "from-env")

	path := filepath.Join(t.TempDir(), "linegraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  driver: postgres
  postgres:
    host: pg
    name: roads
ingest:
  strict: false
  coord_precision: 6
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "pg", cfg.Store.Postgres.Host)
	assert.Equal(t, "roads", cfg.Store.Postgres.Name)
	assert.Equal(t, "from-env", cfg.Store.Neo4j.User)
	assert.False(t, cfg.Ingest.Strict)
	assert.Equal(t, 6, cfg.Ingest.CoordPrecision)
	assert.Contains(t, cfg.Store.Postgres.DSN(), "host=pg")
	assert.Contains(t, cfg.Store.Postgres.DSN(), "dbname=roads")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORE_DRIVER", "oracle")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrUnknownDriver)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("COORD_PRECISION", "16")
	_, err = Load("")
	assert.Error(t, err)

	t.Setenv("COORD_PRECISION", "")
	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRead_DefersValidation(t *testing.T) {
	t.Setenv("STORE_DRIVER", "bogus")

	cfg, err := Read("")
	require.NoError(t, err)
	assert.Equal(t, "bogus", cfg.Store.Driver)
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownDriver)

	cfg.Store.Driver = DriverMemory
	assert.NoError(t, cfg.Validate())
}
