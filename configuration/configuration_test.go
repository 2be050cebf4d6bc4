package configuration

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	yml := `
log:
  level: debug
  formatter: json
database:
  path: /var/lib/imagedb/metadata.db
  busytimeout: 10s
  pool:
    maxopen: 4
    maxidle: 2
    maxlifetime: 1h
`
	config, err := Parse(strings.NewReader(yml))
	require.NoError(t, err)

	require.Equal(t, "debug", config.Log.Level)
	require.Equal(t, "json", config.Log.Formatter)
	require.Equal(t, "/var/lib/imagedb/metadata.db", config.Database.Path)
	require.Equal(t, 10*time.Second, config.Database.BusyTimeout)
	require.Equal(t, "wal", config.Database.JournalMode)
	require.Equal(t, 4, config.Database.Pool.MaxOpen)
	require.Equal(t, 2, config.Database.Pool.MaxIdle)
	require.Equal(t, time.Hour, config.Database.Pool.MaxLifetime)
}

func TestParse_Defaults(t *testing.T) {
	yml := `
database:
  path: metadata.db
`
	config, err := Parse(strings.NewReader(yml))
	require.NoError(t, err)

	require.Equal(t, "info", config.Log.Level)
	require.Equal(t, "text", config.Log.Formatter)
	require.Equal(t, 5*time.Second, config.Database.BusyTimeout)
	require.Equal(t, "wal", config.Database.JournalMode)
}

func TestParse_EnvOverride(t *testing.T) {
	t.Setenv("IMAGEDB_LOG_LEVEL", "warn")
	t.Setenv("IMAGEDB_DATABASE_PATH", "/tmp/override.db")

	yml := `
log:
  level: debug
database:
  path: metadata.db
`
	config, err := Parse(strings.NewReader(yml))
	require.NoError(t, err)

	require.Equal(t, "warn", config.Log.Level)
	require.Equal(t, "/tmp/override.db", config.Database.Path)
}

func TestParse_ValidationErrors(t *testing.T) {
	yml := `
log:
  level: shout
  formatter: yaml
database:
  journalmode: rollforward
`
	_, err := Parse(strings.NewReader(yml))
	require.Error(t, err)

	require.ErrorContains(t, err, "database.path is required")
	require.ErrorContains(t, err, `database.journalmode "rollforward" is not a valid journal mode`)
	require.ErrorContains(t, err, `log.level "shout" is not a valid level`)
	require.ErrorContains(t, err, `log.formatter "yaml" is not a valid formatter`)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse(strings.NewReader("log: ["))
	require.Error(t, err)
	require.ErrorContains(t, err, "reading configuration")
}
