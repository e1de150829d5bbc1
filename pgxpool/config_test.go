package pgxpool

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearPGEnv(t *testing.T) {
	vars := []string{"PGHOST", "PGPORT", "PGDATABASE", "PGUSER", "PGPASSWORD"}
	saved := make(map[string]string, len(vars))
	for _, v := range vars {
		saved[v] = os.Getenv(v)
		os.Unsetenv(v)
	}
	t.Cleanup(func() {
		for k, v := range saved {
			if v != "" {
				os.Setenv(k, v)
			}
		}
	})
}

func TestParseConfigDefaults(t *testing.T) {
	clearPGEnv(t)

	cfg, err := ParseConfig("")
	require.NoError(t, err)
	require.EqualValues(t, 2, cfg.MinConns)
	require.EqualValues(t, 8, cfg.MaxConns)
	require.Equal(t, "localhost", cfg.ConnConfig.Host)
}

func TestParseConfigPoolOptionsFromDSN(t *testing.T) {
	clearPGEnv(t)

	cfg, err := ParseConfig("host=db.internal pool_min_conns=1 pool_max_conns=5 pool_max_conn_idle_time=10s pool_query_timeout=2s")
	require.NoError(t, err)
	require.Equal(t, "db.internal", cfg.ConnConfig.Host)
	require.EqualValues(t, 1, cfg.MinConns)
	require.EqualValues(t, 5, cfg.MaxConns)
	require.Equal(t, 10_000_000_000, int(cfg.MaxConnIdleTime))
	require.Equal(t, 2_000_000_000, int(cfg.QueryTimeout))

	// Pool-specific keys must not leak into the connection's own runtime
	// parameters (they would otherwise be sent as bogus startup options).
	_, leaked := cfg.ConnConfig.RuntimeParams["pool_min_conns"]
	require.False(t, leaked)
}

func TestParseConfigMaxConnsClampedToMin(t *testing.T) {
	clearPGEnv(t)

	cfg, err := ParseConfig("pool_min_conns=10 pool_max_conns=2")
	require.NoError(t, err)
	require.EqualValues(t, 10, cfg.MinConns)
	require.EqualValues(t, 10, cfg.MaxConns)
}

func TestParseConfigRejectsInvalidMaxConns(t *testing.T) {
	clearPGEnv(t)

	_, err := ParseConfig("pool_max_conns=0")
	require.Error(t, err)
}
