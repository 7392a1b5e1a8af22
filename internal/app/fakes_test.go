package app_test

import (
	"context"
	"strings"
	"sync"

	"review_sentiment/internal/domain"
)

// stubClassifier labels texts containing "bad" or "hate" as negative.
type stubClassifier struct {
	mu         sync.Mutex
	calls      int
	batchSizes []int
}

func (s *stubClassifier) label(t string) domain.Sentiment {
	l := strings.ToLower(t)
	if strings.Contains(l, "bad") || strings.Contains(l, "hate") {
		return domain.Negative
	}
	return domain.Positive
}

func (s *stubClassifier) Predict(ctx context.Context, text string) (domain.Sentiment, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.label(text), nil
}

func (s *stubClassifier) PredictBatch(ctx context.Context, texts []string) ([]domain.Sentiment, error) {
	s.mu.Lock()
	s.calls++
	s.batchSizes = append(s.batchSizes, len(texts))
	s.mu.Unlock()
	out := make([]domain.Sentiment, len(texts))
	for i, t := range texts {
		out[i] = s.label(t)
	}
	return out, nil
}

func (s *stubClassifier) Classes() []domain.Sentiment { return domain.KnownSentiments }
func (s *stubClassifier) ID() string                  { return "stub" }

type fakeCache struct {
	store  map[string]*domain.Batch
	gets   int
	dels   []string
	getErr error
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.gets++
	if c.getErr != nil {
		return false, c.getErr
	}
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	*dst.(*domain.Batch) = *v
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]*domain.Batch{}
	}
	c.store[key] = v.(*domain.Batch)
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func ptr[T any](v T) *T { return &v }

func ctxBG() context.Context { return context.Background() }
