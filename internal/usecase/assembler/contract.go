package assembler

import "context"

// Encoder turns texts into vectors. A nil vector marks a text that could not be encoded.
type Encoder interface {
	EncodeMany(ctx context.Context, texts []string, initialBatchSize, minBatchSize int) ([][]float32, error)
	EncodeOne(ctx context.Context, text string) []float32
}
