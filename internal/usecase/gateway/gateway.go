package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/db"
	"github.com/kailas-cloud/vecmatch/internal/domain"
	domcol "github.com/kailas-cloud/vecmatch/internal/domain/collection"
	"github.com/kailas-cloud/vecmatch/internal/domain/point"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/filter"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/result"
	"github.com/kailas-cloud/vecmatch/internal/logger"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
)

// Gateway is bound to a single collection. Backend failures are wrapped in domain.ErrStorage
// and never retried.
type Gateway struct {
	store   Store
	coll    domcol.Collection
	timeout time.Duration

	hnswM  int
	hnswEF int
}

// New creates a gateway for one collection. A zero timeout disables the per-call deadline.
func New(store Store, coll domcol.Collection, timeout time.Duration) *Gateway {
	return &Gateway{store: store, coll: coll, timeout: timeout}
}

// WithHNSW sets index build parameters for backends that accept them. Zero keeps backend defaults.
func (g *Gateway) WithHNSW(m, efConstruct int) *Gateway {
	g.hnswM, g.hnswEF = m, efConstruct
	return g
}

// Name returns the collection name.
func (g *Gateway) Name() string { return g.coll.Name() }

// Collection returns the collection definition.
func (g *Gateway) Collection() domcol.Collection { return g.coll }

// CreateCollection drops and recreates the collection empty.
func (g *Gateway) CreateCollection(ctx context.Context) error {
	spec := &db.CollectionSpec{
		Name:         g.coll.Name(),
		Dimension:    g.coll.Dimension(),
		Distance:     toMetric(g.coll.Distance()),
		Algorithm:    db.VectorHNSW,
		M:            g.hnswM,
		EFConstruct:  g.hnswEF,
		FilterFields: g.coll.FilterFields(),
	}
	return g.call(ctx, "create_collection", func(ctx context.Context) error {
		return g.store.RecreateCollection(ctx, spec)
	})
}

// Upsert writes parallel ids, vectors and payloads. Ids must be UUIDs and every vector must
// match the collection dimension. An empty batch is logged and ignored.
func (g *Gateway) Upsert(ctx context.Context, ids []string, vectors [][]float32, payloads []map[string]any) error {
	if len(vectors) == 0 {
		logger.FromContext(ctx).Warn("no valid embeddings to add",
			zap.String("collection", g.coll.Name()))
		return nil
	}

	for i, v := range vectors {
		if len(v) != g.coll.Dimension() {
			return fmt.Errorf("%w: point [%d]: %w", domain.ErrStorage, i,
				domain.NewDimMismatch(g.coll.Dimension(), len(v)))
		}
	}

	points, err := point.NewBatch(ids, vectors, payloads)
	if err != nil {
		return err
	}

	rows := make([]db.Point, len(points))
	for i, p := range points {
		rows[i] = db.Point{ID: p.ID(), Vector: p.Vector(), Payload: p.Payload()}
	}

	return g.call(ctx, "upsert", func(ctx context.Context) error {
		return g.store.Upsert(ctx, g.coll.Name(), rows)
	})
}

// Delete removes points by id. Ids that are not stored are ignored.
func (g *Gateway) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	canonical := make([]string, len(ids))
	for i, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return fmt.Errorf("%w: %q", domain.ErrInvalidPointID, id)
		}
		canonical[i] = parsed.String()
	}

	return g.call(ctx, "delete", func(ctx context.Context) error {
		return g.store.Delete(ctx, g.coll.Name(), canonical)
	})
}

// Search returns the limit nearest points whose payload equals every key of filters.
func (g *Gateway) Search(
	ctx context.Context, vector []float32, limit int, filters map[string]any,
) ([]result.Result, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("top_k must be positive: %w", domain.ErrInvalidQuery)
	}
	if len(vector) != g.coll.Dimension() {
		return nil, fmt.Errorf("query vector: %w", domain.NewDimMismatch(g.coll.Dimension(), len(vector)))
	}
	expr, err := filter.AllOf(filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	var res *db.SearchResult
	err = g.call(ctx, "search", func(ctx context.Context) error {
		var err error
		res, err = g.store.SearchKNN(ctx, &db.KNNQuery{
			Collection: g.coll.Name(),
			Filters:    expr,
			Vector:     vector,
			K:          limit,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]result.Result, 0, len(res.Entries))
	for _, e := range res.Entries {
		out = append(out, result.New(e.ID, e.Score, e.Payload))
	}
	return out, nil
}

func (g *Gateway) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	metrics.GatewayOperationDuration.WithLabelValues(g.coll.Name(), op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayErrorsTotal.WithLabelValues(g.coll.Name(), op).Inc()
		return fmt.Errorf("%w: %s %s: %w", domain.ErrStorage, op, g.coll.Name(), err)
	}
	return nil
}

func toMetric(d domcol.Distance) db.DistanceMetric {
	switch d {
	case domcol.DistanceDot:
		return db.DistanceIP
	case domcol.DistanceEuclid:
		return db.DistanceL2
	default:
		return db.DistanceCosine
	}
}
