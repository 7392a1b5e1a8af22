package domain

import "context"

// Classifier is the loaded-model capability injected into the pipelines.
// Implementations must be safe for concurrent use.
type Classifier interface {
	Predict(ctx context.Context, text string) (Sentiment, error)
	// PredictBatch classifies all texts in one model call; len(out) == len(texts).
	PredictBatch(ctx context.Context, texts []string) ([]Sentiment, error)
	// Classes returns the class vocabulary in encoder order.
	Classes() []Sentiment
	// ID identifies the loaded artifacts (used to scope cached results).
	ID() string
}

// ArtifactStore returns serialized model artifacts by name.
type ArtifactStore interface {
	Open(ctx context.Context, name string) ([]byte, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
