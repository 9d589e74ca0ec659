package db

import (
	"fmt"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Handle struct {
	DB   *gorm.DB
	Path string // sqlite file path, empty for server backends
}

// OpenAt opens the default sqlite database inside dir.
func OpenAt(dir string) (*Handle, error) {
	dbPath := filepath.Join(dir, "sheinstock.db")
	gdb, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return &Handle{DB: gdb, Path: dbPath}, nil
}

// Open selects the backend by driver name. sqlite takes a file path as DSN,
// mysql/postgres take a full DSN.
func Open(driver, dsn string) (*Handle, error) {
	var dial gorm.Dialector
	switch driver {
	case "", "sqlite":
		dial = sqlite.Open(dsn)
	case "mysql":
		dial = mysql.Open(dsn)
	case "postgres":
		dial = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
	gdb, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, err
	}
	h := &Handle{DB: gdb}
	if driver == "" || driver == "sqlite" {
		h.Path = dsn
	}
	return h, nil
}
