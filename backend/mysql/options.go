package mysql

import (
	"github.com/cschleiden/swf-workers/backend"
	"github.com/cschleiden/swf-workers/internal/sqlstore"
)

type options struct {
	BackendOptions []backend.BackendOption

	sqlstore.Options

	// ApplyMigrations automatically applies database migrations on startup.
	ApplyMigrations bool
}

type option func(*options)

// WithApplyMigrations automatically applies database migrations on startup.
func WithApplyMigrations(applyMigrations bool) option {
	return func(o *options) {
		o.ApplyMigrations = applyMigrations
	}
}

// WithBackendOptions allows to pass generic backend options.
func WithBackendOptions(opts ...backend.BackendOption) option {
	return func(o *options) {
		o.BackendOptions = append(o.BackendOptions, opts...)
	}
}

// WithStoreOptions overrides the store's queue polling and update retry settings.
func WithStoreOptions(storeOptions sqlstore.Options) option {
	return func(o *options) {
		o.Options = storeOptions
	}
}
