package db

import (
	"errors"
	"strconv"
)

// DistanceMetric is the vector similarity metric of a collection.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm selects the ANN index algorithm where the backend lets us choose.
type VectorAlgorithm string

const (
	// VectorHNSW uses the HNSW algorithm.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat uses brute-force search.
	VectorFlat VectorAlgorithm = "FLAT"
)

// CollectionSpec is a backend-neutral collection definition.
type CollectionSpec struct {
	Name      string
	Dimension int
	Distance  DistanceMetric

	Algorithm   VectorAlgorithm
	M           int // HNSW max edges per node (default 16)
	EFConstruct int // HNSW build-time candidate list (default 200)

	// FilterFields are payload keys that must be filterable. Schema-bound backends
	// (Redis FT, Milvus scalar index) index exactly these; schemaless ones ignore them.
	FilterFields []string
}

// Validate checks that the spec is well-formed.
func (c *CollectionSpec) Validate() error {
	if c.Name == "" {
		return errors.New("collection name is required")
	}
	if !IsValidIdentifier(c.Name) {
		return errors.New("collection name contains invalid characters")
	}
	if c.Dimension <= 0 {
		return errors.New("collection requires positive dimension")
	}
	switch c.Distance {
	case "", DistanceCosine, DistanceIP, DistanceL2:
	default:
		return errors.New("unknown distance metric: " + string(c.Distance))
	}

	seen := make(map[string]bool, len(c.FilterFields))
	for i, f := range c.FilterFields {
		if !IsValidIdentifier(f) {
			return errors.New("invalid filter field at index " + strconv.Itoa(i))
		}
		if seen[f] {
			return errors.New("duplicate filter field: " + f)
		}
		seen[f] = true
	}
	return nil
}

// Metric returns the distance metric, defaulting to cosine.
func (c *CollectionSpec) Metric() DistanceMetric {
	if c.Distance == "" {
		return DistanceCosine
	}
	return c.Distance
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
