package milvus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Schema field names shared by every collection.
const (
	idField      = "id"
	vectorField  = "embedding"
	payloadField = "payload"

	idMaxLen = 64
)

// Config holds connection parameters for a Milvus store.
type Config struct {
	Address  string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// Store implements db.Store on Milvus 2.x. Each collection holds a VarChar primary key,
// a float vector and the payload as a JSON field; filters compile to JSON path expressions.
type Store struct {
	client *milvusclient.Client

	mu      sync.RWMutex
	metrics map[string]db.DistanceMetric
}

// NewStore connects to Milvus.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("address is required")
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}
	return &Store{client: c, metrics: make(map[string]db.DistanceMetric)}, nil
}

// Ping lists collections as a cheap liveness probe.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.ListCollections(ctx, milvusclient.NewListCollectionOption()); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() {
	_ = s.client.Close(context.Background())
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) metricOf(collection string) db.DistanceMetric {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if m, ok := s.metrics[collection]; ok {
		return m
	}
	return db.DistanceCosine
}

func (s *Store) setMetric(collection string, m db.DistanceMetric) {
	s.mu.Lock()
	s.metrics[collection] = m
	s.mu.Unlock()
}
