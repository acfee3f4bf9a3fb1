// Package store selects the persistence backend from configuration.
package store

import (
	"context"
	"fmt"

	"sitepunch.app/sitepunch/account"
	"sitepunch.app/sitepunch/admin"
	"sitepunch.app/sitepunch/config"
	"sitepunch.app/sitepunch/core"
	"sitepunch.app/sitepunch/store/memstore"
	"sitepunch.app/sitepunch/store/mongostore"
	"sitepunch.app/sitepunch/store/mysqlstore"
	"sitepunch.app/sitepunch/timeclock"
)

// Backend is everything the services need from a store, plus its lifecycle.
// The entry point opens one Backend, injects it, and closes it on shutdown.
type Backend interface {
	timeclock.Store
	account.Directory
	admin.Store

	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Backend = (*memstore.Store)(nil)
	_ Backend = (*mysqlstore.Store)(nil)
	_ Backend = (*mongostore.Store)(nil)
)

func Open(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return mysqlstore.Open(cfg.DSN, cfg.MaxConnections, core.ParseLogLevel(cfg.LogLevel))
	case config.DriverMongo:
		return mongostore.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverMemory:
		return memstore.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
