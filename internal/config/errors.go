package config

import "errors"

var (
	// ErrInvalidDatabaseURL is returned when the postgres driver is selected without a DSN
	ErrInvalidDatabaseURL = errors.New("invalid database URL")

	// ErrInvalidTableName is returned when REPOSITORY_TABLE is not a plain identifier
	ErrInvalidTableName = errors.New("invalid repository table name")

	// ErrInvalidStoreDriver is returned for an unknown STORE_DRIVER
	ErrInvalidStoreDriver = errors.New("invalid store driver")

	// ErrInvalidUpstream is returned for a bad upstream base URL or timeout
	ErrInvalidUpstream = errors.New("invalid upstream configuration")

	// ErrInvalidTTL is returned when the cache TTL is not positive
	ErrInvalidTTL = errors.New("invalid cache TTL")

	// ErrInvalidServer is returned for bad port, rate limit or shutdown settings
	ErrInvalidServer = errors.New("invalid server configuration")

	// ErrInvalidLogging is returned for an unknown log level or format
	ErrInvalidLogging = errors.New("invalid logging configuration")
)
