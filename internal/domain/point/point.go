package point

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/vecmatch/internal/domain"
)

// Point is a stored (id, vector, payload) triple.
type Point struct {
	id      string
	vector  []float32
	payload map[string]any
}

// New validates the id and creates a Point. The id is normalized to canonical UUID form.
func New(id string, vector []float32, payload map[string]any) (Point, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q", domain.ErrInvalidPointID, id)
	}
	if len(vector) == 0 {
		return Point{}, fmt.Errorf("point %s: empty vector", id)
	}
	return Point{id: parsed.String(), vector: vector, payload: payload}, nil
}

// NewBatch zips parallel ids, vectors and payloads into points.
// A nil payloads slice is treated as empty payloads for every point.
func NewBatch(ids []string, vectors [][]float32, payloads []map[string]any) ([]Point, error) {
	if len(ids) != len(vectors) || (payloads != nil && len(payloads) != len(vectors)) {
		return nil, fmt.Errorf("%w: ids=%d vectors=%d payloads=%d",
			domain.ErrLengthMismatch, len(ids), len(vectors), len(payloads))
	}

	points := make([]Point, 0, len(ids))
	for i := range ids {
		var payload map[string]any
		if payloads != nil {
			payload = payloads[i]
		}
		p, err := New(ids[i], vectors[i], payload)
		if err != nil {
			return nil, fmt.Errorf("point [%d]: %w", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// ID returns the canonical UUID string.
func (p Point) ID() string { return p.id }

// Vector returns the embedding.
func (p Point) Vector() []float32 { return p.vector }

// Payload returns the metadata attached to the point.
func (p Point) Payload() map[string]any { return p.payload }

// Dimension returns the vector length.
func (p Point) Dimension() int { return len(p.vector) }
