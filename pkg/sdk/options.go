package vecmatch

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

const (
	driverQdrant = "qdrant"
	driverRedis  = "redis"
	driverMilvus = "milvus"
	driverMemory = "memory"
)

type clientConfig struct {
	driver   string
	addrs    []string
	username string
	password string
	apiKey   string
	database string

	embedder         Embedder
	docInstruction   string
	queryInstruction string
	vectorDimensions int
	distance         Distance
	hnswM            int
	hnswEFConstruct  int
	batchSize        int
	minBatchSize     int
	timeout          time.Duration
	fuzzyOverFetch   int
	readinessTimeout time.Duration
	filterFields     []string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithQdrant stores vectors in Qdrant over gRPC.
func WithQdrant(addr, apiKey string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverQdrant
		c.addrs = []string{addr}
		c.apiKey = apiKey
	})
}

// WithRedis stores vectors in Redis or Valkey with the search module loaded.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithMilvus stores vectors in Milvus.
func WithMilvus(addr, username, password, database string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMilvus
		c.addrs = []string{addr}
		c.username = username
		c.password = password
		c.database = database
	})
}

// WithMemory keeps vectors in process. Nothing survives Close.
func WithMemory() Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = driverMemory
		c.addrs = nil
	})
}

// WithEmbedder sets the text embedding provider. Without it every encode fails
// and only the vector-level operations (Add, Search, FuzzySearch) are usable.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithInstructions prepends model instructions to documents and queries,
// e.g. "passage: " and "query: " for E5-style models.
func WithInstructions(document, query string) Option {
	return optionFunc(func(c *clientConfig) {
		c.docInstruction = document
		c.queryInstruction = query
	})
}

// WithVectorDimensions sets the collection dimension. Defaults to 768.
func WithVectorDimensions(dim int) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorDimensions = dim
	})
}

// WithDistance sets the collection metric. Defaults to cosine.
func WithDistance(d Distance) Option {
	return optionFunc(func(c *clientConfig) {
		c.distance = d
	})
}

// WithHNSW configures HNSW index parameters (M and EF construction).
func WithHNSW(m, efConstruct int) Option {
	return optionFunc(func(c *clientConfig) {
		c.hnswM = m
		c.hnswEFConstruct = efConstruct
	})
}

// WithBatchSize sets the initial and minimum encoder batch sizes. Defaults: 16 and 1.
func WithBatchSize(initial, minimum int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = initial
		c.minBatchSize = minimum
	})
}

// WithTimeout bounds every provider and storage call. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithFuzzyOverFetch makes FuzzySearch fetch topK*factor candidates before thresholding.
func WithFuzzyOverFetch(factor int) Option {
	return optionFunc(func(c *clientConfig) {
		c.fuzzyOverFetch = factor
	})
}

// WithFilterFields declares payload keys the backend should index for filtering.
// The section key is always indexed.
func WithFilterFields(keys ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.filterFields = append(c.filterFields, keys...)
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
