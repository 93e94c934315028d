package vecmatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/db"
	dbMemory "github.com/kailas-cloud/vecmatch/internal/db/memory"
	dbMilvus "github.com/kailas-cloud/vecmatch/internal/db/milvus"
	dbQdrant "github.com/kailas-cloud/vecmatch/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/vecmatch/internal/db/redis"
	"github.com/kailas-cloud/vecmatch/internal/domain"
	domcol "github.com/kailas-cloud/vecmatch/internal/domain/collection"
	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/result"
	assembleruc "github.com/kailas-cloud/vecmatch/internal/usecase/assembler"
	embeddinguc "github.com/kailas-cloud/vecmatch/internal/usecase/embedding"
	encoderuc "github.com/kailas-cloud/vecmatch/internal/usecase/encoder"
	gatewayuc "github.com/kailas-cloud/vecmatch/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/vecmatch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/vecmatch/internal/usecase/ingest"
	scoringuc "github.com/kailas-cloud/vecmatch/internal/usecase/scoring"
)

const defaultReadinessTimeout = 10 * time.Second

// Внутренние интерфейсы для подмены в тестах.
type ingestUseCase interface {
	Embed(ctx context.Context, entityType string, sections, metadata map[string]any) (*assembleruc.Assembled, error)
}

type assemblerUseCase interface {
	AssembleBatch(ctx context.Context, entityType string, sections map[string][]*string) (map[string][][]float32, error)
	Query(ctx context.Context, text string) ([]float32, error)
}

type scoringUseCase interface {
	Direct(ctx context.Context, collection string, vector []float32, section string, topK int,
		metadata map[string]any) ([]result.Result, error)
	TaskBased(ctx context.Context, jobTasks, resume map[string][]float32) (map[string][]result.Result, error)
	Fuzzy(ctx context.Context, collection string, vector []float32, topK int, threshold float64) ([]result.Result, error)
}

type gateway interface {
	CreateCollection(ctx context.Context) error
	Upsert(ctx context.Context, ids []string, vectors [][]float32, payloads []map[string]any) error
	Delete(ctx context.Context, ids []string) error
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}

// Client is the vecmatch SDK entry point.
type Client struct {
	store      db.Store
	ingestSvc  ingestUseCase
	asmSvc     assemblerUseCase
	scoringSvc scoringUseCase
	healthSvc  healthUseCase
	gateways   map[entity.Type]gateway
	obs        *observer
}

// New creates a Client and connects to the vector store.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: domcol.DefaultDimension,
		distance:         DistanceCosine,
		batchSize:        assembleruc.DefaultBatchSize,
		minBatchSize:     1,
		fuzzyOverFetch:   1,
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("vecmatch: vector store required (use WithQdrant, WithRedis, WithMilvus or WithMemory)")
	}

	store, err := createStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("vecmatch: vector store not ready: %w", err)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		store.Close()
		return nil, err
	}

	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(ctx context.Context, cfg *clientConfig) (db.Store, error) {
	if cfg.driver != driverMemory && len(cfg.addrs) == 0 {
		return nil, errors.New("vecmatch: vector store address required")
	}
	switch cfg.driver {
	case driverQdrant:
		s, err := dbQdrant.NewStore(dbQdrant.Config{Addr: cfg.addrs[0], APIKey: cfg.apiKey})
		if err != nil {
			return nil, fmt.Errorf("vecmatch: create qdrant store: %w", err)
		}
		return s, nil
	case driverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, fmt.Errorf("vecmatch: create redis store: %w", err)
		}
		return s, nil
	case driverMilvus:
		s, err := dbMilvus.NewStore(ctx, dbMilvus.Config{
			Address:  cfg.addrs[0],
			Username: cfg.username,
			Password: cfg.password,
			Database: cfg.database,
			Timeout:  cfg.timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("vecmatch: create milvus store: %w", err)
		}
		return s, nil
	case driverMemory:
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("vecmatch: unknown driver %q", cfg.driver)
	}
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	// SDK пишет логи через slog в observer, внутренние сервисы молчат
	nop := zap.NewNop()

	base := embeddinguc.NewInstrumentedEmbedder(adaptEmbedder(cfg.embedder), "sdk", "", nop)
	var releaser encoderuc.MemoryReleaser
	if r, ok := cfg.embedder.(MemoryReleaser); ok {
		releaser = r
	}
	encCfg := encoderuc.Config{Timeout: cfg.timeout}
	docEnc := encoderuc.New(domain.NewInstructionEmbedder(base, cfg.docInstruction), releaser, encCfg, nop)
	queryEnc := encoderuc.New(domain.NewInstructionEmbedder(base, cfg.queryInstruction), releaser, encCfg, nop)
	asm := assembleruc.New(docEnc, cfg.batchSize).
		WithMinBatchSize(cfg.minBatchSize).
		WithQueryEncoder(queryEnc)

	gateways := make(map[entity.Type]gateway, len(entity.All()))
	searchers := make(map[string]scoringuc.Searcher, len(entity.All()))
	upserters := make(map[entity.Type]ingestuc.Upserter, len(entity.All()))
	for _, et := range entity.All() {
		coll, err := domcol.New(et.Collection(), cfg.vectorDimensions, domcol.Distance(cfg.distance), cfg.filterFields)
		if err != nil {
			return nil, fmt.Errorf("vecmatch: %s collection: %w", et, err)
		}
		g := gatewayuc.New(store, coll, cfg.timeout).WithHNSW(cfg.hnswM, cfg.hnswEFConstruct)
		gateways[et] = g
		searchers[g.Name()] = g
		upserters[et] = g
	}

	return &Client{
		store:      store,
		ingestSvc:  ingestuc.New(asm, ingestuc.NewLocalForwarder(upserters)),
		asmSvc:     asm,
		scoringSvc: scoringuc.New(searchers).WithFuzzyOverFetch(cfg.fuzzyOverFetch),
		healthSvc:  healthuc.New(store, nil),
		gateways:   gateways,
		obs:        obs,
	}, nil
}

// Close releases the underlying database connection.
func (c *Client) Close() {
	c.store.Close()
}

// CreateCollections drops and recreates the résumé and job collections empty.
func (c *Client) CreateCollections(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("create_collections", start, err) }()

	for _, et := range entity.All() {
		if err = c.gateways[et].CreateCollection(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Health checks the vector store.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}

func (c *Client) resolve(e Entity) (entity.Type, gateway, error) {
	et, err := entity.Parse(string(e))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", domain.ErrInvalidEntity, err)
	}
	return et, c.gateways[et], nil
}
