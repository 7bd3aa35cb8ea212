package db

import (
	"errors"
	"fmt"

	"github.com/sarahckohl/mousechase/config"
	dbmysql "github.com/sarahckohl/mousechase/db/mysql"
	dbsqlite "github.com/sarahckohl/mousechase/db/sqlite"
	"gorm.io/gorm"
)

const (
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
	ModeNone   = "none"
)

// ErrDisabled is returned by Open when persistence is turned off.
var ErrDisabled = errors.New("db: persistence disabled")

// Open returns a *gorm.DB for the configured database mode.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, cfg.MySQLMaxOpen, cfg.MySQLMaxIdle, cfg.MySQLMaxLife)
	case ModeNone:
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
