package db

import (
	"context"
	"time"
)

// Store is the vector index facade every backend implements (qdrant, redis, milvus, memory).
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	CollectionManager
	PointStore
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CollectionManager provides collection lifecycle operations.
type CollectionManager interface {
	// RecreateCollection drops the collection if present and creates it empty.
	RecreateCollection(ctx context.Context, spec *CollectionSpec) error
	DropCollection(ctx context.Context, name string) error
	CollectionExists(ctx context.Context, name string) (bool, error)
}

// PointStore provides point writes.
type PointStore interface {
	// Upsert writes points, replacing any point with the same id.
	Upsert(ctx context.Context, collection string, points []Point) error
	// Delete removes points by id. Missing ids are ignored.
	Delete(ctx context.Context, collection string, ids []string) error
}

// Searcher provides filtered nearest-neighbor search.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// KVStore provides simple key-value operations (embedding cache).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Publisher sends messages to a pub/sub channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message []byte) error
}

// MessageHandler receives one pub/sub message.
type MessageHandler func(channel string, message []byte)

// Subscriber blocks delivering messages from channels until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, channels []string, fn MessageHandler) error
}
