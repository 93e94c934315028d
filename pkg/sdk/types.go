package vecmatch

import (
	domcol "github.com/kailas-cloud/vecmatch/internal/domain/collection"
	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
	"github.com/kailas-cloud/vecmatch/internal/domain/search/result"
)

// Entity is the kind of record being matched.
type Entity string

// Entity constants.
const (
	EntityResume Entity = Entity(entity.TypeResume)
	EntityJob    Entity = Entity(entity.TypeJob)
)

// Distance is the collection similarity metric.
type Distance string

// Distance constants.
const (
	DistanceCosine Distance = Distance(domcol.DistanceCosine)
	DistanceDot    Distance = Distance(domcol.DistanceDot)
	DistanceEuclid Distance = Distance(domcol.DistanceEuclid)
)

// DefaultWeights are the section weights the matcher uses when none are given.
var DefaultWeights = map[string]float64{
	"skills":     0.7,
	"experience": 0.2,
	"education":  0.1,
}

// Result is one search hit. Higher Score is closer for every metric.
type Result struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// Section returns the section name stored with the point.
func (r Result) Section() string {
	s, _ := r.Payload[entity.SectionField].(string)
	return s
}

// Embedded is the outcome of Embed: one stored point per encoded section.
type Embedded struct {
	EntityID   string
	PointIDs   []string
	Embeddings map[string][]float32
	Tokens     int
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

func toResults(in []result.Result) []Result {
	out := make([]Result, len(in))
	for i, r := range in {
		out[i] = Result{ID: r.ID(), Score: r.Score(), Payload: r.Payload()}
	}
	return out
}
