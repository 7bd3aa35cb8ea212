package db

import (
	"path/filepath"
	"testing"

	"github.com/sarahckohl/mousechase/config"
	dbsqlite "github.com/sarahckohl/mousechase/db/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLite(t *testing.T) {
	gdb, err := Open(config.DatabaseConfig{Mode: ModeSQLite, SQLitePath: filepath.Join(t.TempDir(), "t.db")})
	require.NoError(t, err)
	require.NoError(t, gdb.Exec("CREATE TABLE t (id INTEGER)").Error)
}

func TestOpen_Memory(t *testing.T) {
	gdb, err := Open(config.DatabaseConfig{Mode: ModeSQLite, SQLitePath: dbsqlite.MemoryPath})
	require.NoError(t, err)
	require.NoError(t, gdb.Exec("CREATE TABLE t (id INTEGER)").Error)
	require.NoError(t, gdb.Exec("INSERT INTO t VALUES (1)").Error)
	var n int64
	require.NoError(t, gdb.Raw("SELECT COUNT(*) FROM t").Scan(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestOpen_NoneAndUnknown(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Mode: ModeNone})
	assert.ErrorIs(t, err, ErrDisabled)
	_, err = Open(config.DatabaseConfig{Mode: "embedded_xml"})
	assert.Error(t, err)
}
