package qdrant

import (
	"context"
	"fmt"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/kailas-cloud/vecmatch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Qdrant store.
type Config struct {
	Addr   string // host:port of the gRPC endpoint (6334)
	APIKey string
}

// Store implements db.Store over the Qdrant gRPC API.
// Payload filtering is schemaless, so CollectionSpec.FilterFields only get keyword indexes.
type Store struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	service     pb.QdrantClient
	apiKey      string
}

// NewStore dials Qdrant. The connection is lazy; use WaitForReady to block until it answers.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("addr is required")
	}
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Store{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		service:     pb.NewQdrantClient(conn),
		apiKey:      cfg.APIKey,
	}, nil
}

// newStoreWithClients builds a store over prepared clients, used by tests.
func newStoreWithClients(c pb.CollectionsClient, p pb.PointsClient, q pb.QdrantClient) *Store {
	return &Store{collections: c, points: p, service: q}
}

// Ping calls the Qdrant health check.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.service.HealthCheck(s.auth(ctx), &pb.HealthCheckRequest{}); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases the gRPC connection.
func (s *Store) Close() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
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

func (s *Store) auth(ctx context.Context) context.Context {
	if s.apiKey == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "api-key", s.apiKey)
}

// wrap maps gRPC status codes onto db sentinels.
func wrap(op string, err error) error {
	if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
		return &db.Error{Op: op, Err: fmt.Errorf("%w: %s", db.ErrCollectionNotFound, st.Message())}
	}
	return &db.Error{Op: op, Err: err}
}
