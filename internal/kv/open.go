package kv

import (
	"context"
	"fmt"
	"path/filepath"
)

// Drivers accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Options selects and configures a store driver.
type Options struct {
	Driver     string
	Dir        string // file/sqlite location when Path is empty
	Path       string
	DSN        string // postgres/redis connection URL
	Passphrase string // non-empty enables at-rest sealing
}

// Open constructs the configured store.
func Open(ctx context.Context, o Options) (StoreCloser, error) {
	dir := o.Dir
	if dir == "" {
		dir = DefaultDir()
	}

	var (
		st  StoreCloser
		err error
	)
	switch o.Driver {
	case DriverMemory:
		st = NewMemory()
	case DriverFile, "":
		p := o.Path
		if p == "" {
			p = filepath.Join(dir, FileName)
		}
		st = NewFile(p)
	case DriverSQLite:
		p := o.Path
		if p == "" {
			p = filepath.Join(dir, "store.db")
		}
		st, err = OpenSQLite(ctx, p)
	case DriverPostgres:
		if o.DSN == "" {
			return nil, fmt.Errorf("store driver %q requires a DSN", o.Driver)
		}
		st, err = OpenPostgres(ctx, o.DSN)
	case DriverRedis:
		if o.DSN == "" {
			return nil, fmt.Errorf("store driver %q requires a DSN", o.Driver)
		}
		st, err = OpenRedis(ctx, o.DSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", o.Driver)
	}
	if err != nil {
		return nil, err
	}

	if o.Passphrase != "" {
		return NewSealed(st, o.Passphrase), nil
	}
	return st, nil
}
