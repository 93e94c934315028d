package assembler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/domain"
	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
	"github.com/kailas-cloud/vecmatch/internal/logger"
)

// DefaultBatchSize is the initial batch size for section batches.
const DefaultBatchSize = 16

// Assembled holds one point per successfully encoded section.
// IDs, Vectors and Payloads are parallel; Embeddings is keyed by section name.
type Assembled struct {
	EntityType entity.Type
	EntityID   string
	IDs        []string
	Vectors    [][]float32
	Payloads   []map[string]any
	Embeddings map[string][]float32
}

// Len returns the number of assembled points.
func (a *Assembled) Len() int { return len(a.IDs) }

// Service builds section points from entity text.
type Service struct {
	enc          Encoder
	query        Encoder
	batchSize    int
	minBatchSize int
}

// New creates an assembler. A non-positive batchSize falls back to DefaultBatchSize.
func New(enc Encoder, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Service{enc: enc, query: enc, batchSize: batchSize, minBatchSize: 1}
}

// WithMinBatchSize sets the floor the encoder may shrink a section batch to.
func (s *Service) WithMinBatchSize(n int) *Service {
	if n > 0 && n <= s.batchSize {
		s.minBatchSize = n
	}
	return s
}

// WithQueryEncoder sets a separate encoder for free-text queries (e.g. with a query instruction).
func (s *Service) WithQueryEncoder(enc Encoder) *Service {
	if enc != nil {
		s.query = enc
	}
	return s
}

// Assemble encodes every section of one entity and pairs each vector with a fresh point id
// and a payload of metadata plus the section name. Sections that fail to encode are omitted.
func (s *Service) Assemble(
	ctx context.Context, entityType string, sections map[string]any, metadata map[string]any,
) (*Assembled, error) {
	et, err := parseRequest(entityType, len(sections))
	if err != nil {
		return nil, err
	}

	out := &Assembled{
		EntityType: et,
		EntityID:   et.IDFrom(metadata),
		Embeddings: make(map[string][]float32, len(sections)),
	}

	for _, name := range sortedKeys(sections) {
		vec := s.enc.EncodeOne(ctx, Stringify(sections[name]))
		if vec == nil {
			logger.FromContext(ctx).Warn("section not encoded, skipping",
				zap.String("entity_type", string(et)),
				zap.String("entity_id", out.EntityID),
				zap.String("section", name),
			)
			continue
		}

		payload := make(map[string]any, len(metadata)+1)
		for k, v := range metadata {
			payload[k] = v
		}
		payload[entity.SectionField] = name

		out.IDs = append(out.IDs, uuid.New().String())
		out.Vectors = append(out.Vectors, vec)
		out.Payloads = append(out.Payloads, payload)
		out.Embeddings[name] = vec
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return out, nil
}

// AssembleBatch encodes lists of texts per section without persisting anything.
// Null entries are dropped before encoding; failed items come back as nil vectors.
func (s *Service) AssembleBatch(
	ctx context.Context, entityType string, sections map[string][]*string,
) (map[string][][]float32, error) {
	if _, err := parseRequest(entityType, len(sections)); err != nil {
		return nil, err
	}

	out := make(map[string][][]float32, len(sections))
	for _, name := range sortedKeys(sections) {
		texts := make([]string, 0, len(sections[name]))
		for _, t := range sections[name] {
			if t != nil {
				texts = append(texts, *t)
			}
		}

		vectors, err := s.enc.EncodeMany(ctx, texts, s.batchSize, s.minBatchSize)
		if err != nil {
			return nil, fmt.Errorf("encode section %q: %w", name, err)
		}
		out[name] = vectors
	}
	return out, nil
}

// Query encodes a free-text query.
func (s *Service) Query(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("query_text is required: %w", domain.ErrInvalidQuery)
	}
	vec := s.query.EncodeOne(ctx, text)
	if vec == nil {
		return nil, domain.ErrEncodeFailed
	}
	return vec, nil
}

func parseRequest(entityType string, sections int) (entity.Type, error) {
	if entityType == "" || sections == 0 {
		return "", fmt.Errorf("'entity_type' and 'sections' are required: %w", domain.ErrInvalidEntity)
	}
	et, err := entity.Parse(entityType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidEntity, err)
	}
	return et, nil
}

// Stringify renders a section value as encoder input.
// Lists of strings are joined line by line; other composites are rendered as JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case fmt.Stringer:
		return t.String()
	case []string:
		return strings.Join(t, "\n")
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return marshalOrSprint(v)
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		return marshalOrSprint(v)
	default:
		return fmt.Sprint(v)
	}
}

func marshalOrSprint(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
