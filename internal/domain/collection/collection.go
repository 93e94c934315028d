package collection

import (
	"fmt"
	"regexp"
)

var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// DefaultDimension matches all-mpnet-base-v2 and nomic-embed-text.
const DefaultDimension = 768

// Distance is the similarity metric of a collection.
type Distance string

const (
	// DistanceCosine scores by cosine similarity (higher is closer).
	DistanceCosine Distance = "cosine"
	// DistanceDot scores by inner product.
	DistanceDot Distance = "dot"
	// DistanceEuclid scores by L2 distance.
	DistanceEuclid Distance = "euclid"
)

// IsValid checks if the distance metric is supported.
func (d Distance) IsValid() bool {
	return d == DistanceCosine || d == DistanceDot || d == DistanceEuclid
}

// Collection is a named, fixed-dimension partition of the vector index (immutable value object).
type Collection struct {
	name         string
	dimension    int
	distance     Distance
	filterFields []string
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name is required")
	}
	if len(name) > 64 {
		return fmt.Errorf("collection name too long (max 64)")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("collection name must be alphanumeric with underscores and hyphens")
	}
	return nil
}

// New validates and creates a Collection.
// filterFields lists the payload keys that backends with a fixed schema (Redis FT) must index;
// "section" is always included.
func New(name string, dimension int, distance Distance, filterFields []string) (Collection, error) {
	if err := validateName(name); err != nil {
		return Collection{}, err
	}
	if dimension <= 0 {
		return Collection{}, fmt.Errorf("vector dimension must be positive")
	}
	if distance == "" {
		distance = DistanceCosine
	}
	if !distance.IsValid() {
		return Collection{}, fmt.Errorf("invalid distance metric: %q", distance)
	}

	fields := []string{"section"}
	seen := map[string]bool{"section": true}
	for _, f := range filterFields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		fields = append(fields, f)
	}

	return Collection{name: name, dimension: dimension, distance: distance, filterFields: fields}, nil
}

// Name returns the collection name.
func (c Collection) Name() string { return c.name }

// Dimension returns the fixed vector dimension.
func (c Collection) Dimension() int { return c.dimension }

// Distance returns the similarity metric.
func (c Collection) Distance() Distance { return c.distance }

// FilterFields returns the payload keys that must be filterable.
func (c Collection) FilterFields() []string { return c.filterFields }
