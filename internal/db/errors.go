package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound        = errors.New("db: key not found")
	ErrCollectionNotFound = errors.New("db: collection not found")
	ErrCollectionExists   = errors.New("db: collection already exists")
	ErrInvalidPoint       = errors.New("db: invalid point")
)

// Op constants name the backend operation for error context.
const (
	OpCreateCollection = "create_collection"
	OpDropCollection   = "drop_collection"
	OpCollectionInfo   = "collection_info"
	OpUpsert           = "upsert"
	OpDelete           = "delete"
	OpSearch           = "search"
	OpGet              = "get"
	OpSet              = "set"
	OpPublish          = "publish"
	OpSubscribe        = "subscribe"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
