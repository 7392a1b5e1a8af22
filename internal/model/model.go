package model

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"review_sentiment/internal/adapters/observability"
	"review_sentiment/internal/domain"
)

// Artifact names inside an ArtifactStore.
type Names struct {
	Vectorizer string
	Classifier string
	Encoder    string
}

var DefaultNames = Names{
	Vectorizer: "tfidf_vectorizer.json",
	Classifier: "logistic_regression.json",
	Encoder:    "label_encoder.json",
}

// Model composes the three artifacts into a domain.Classifier. It is immutable after Load.
type Model struct {
	vec     *Vectorizer
	clf     *LogisticRegression
	enc     *LabelEncoder
	classes []domain.Sentiment
	id      string
}

// Load reads and validates all three artifacts. Any failure is fatal for the caller.
func Load(ctx context.Context, store domain.ArtifactStore, names Names) (*Model, error) {
	raw := make(map[string][]byte, 3)
	for _, n := range []string{names.Vectorizer, names.Classifier, names.Encoder} {
		b, err := store.Open(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("load artifact %s: %w", n, err)
		}
		raw[n] = b
	}

	vec, err := ParseVectorizer(raw[names.Vectorizer])
	if err != nil {
		return nil, err
	}
	clf, err := ParseClassifier(raw[names.Classifier])
	if err != nil {
		return nil, err
	}
	enc, err := ParseEncoder(raw[names.Encoder])
	if err != nil {
		return nil, err
	}

	h := sha1.New()
	for _, n := range []string{names.Vectorizer, names.Classifier, names.Encoder} {
		h.Write(raw[n])
	}
	return New(vec, clf, enc, hex.EncodeToString(h.Sum(nil))[:12])
}

// New checks the artifacts against each other and the known sentiment vocabulary.
func New(vec *Vectorizer, clf *LogisticRegression, enc *LabelEncoder, id string) (*Model, error) {
	if vec.Features() != clf.Features() {
		return nil, fmt.Errorf("vectorizer has %d features, classifier expects %d", vec.Features(), clf.Features())
	}
	if len(enc.Classes()) != len(domain.KnownSentiments) {
		return nil, fmt.Errorf("label encoder has %d classes, want %d", len(enc.Classes()), len(domain.KnownSentiments))
	}
	classes := make([]domain.Sentiment, 0, len(enc.Classes()))
	for _, c := range enc.Classes() {
		s := domain.Sentiment(c)
		if !s.Valid() {
			return nil, &domain.UnknownLabelError{Label: c}
		}
		classes = append(classes, s)
	}
	if _, err := enc.InverseTransform(clf.Classes()); err != nil {
		return nil, fmt.Errorf("classifier ids do not match label encoder: %w", err)
	}
	return &Model{vec: vec, clf: clf, enc: enc, classes: classes, id: id}, nil
}

func (m *Model) ID() string                  { return m.id }
func (m *Model) Classes() []domain.Sentiment { return m.classes }

func (m *Model) Predict(ctx context.Context, text string) (domain.Sentiment, error) {
	out, err := m.PredictBatch(ctx, []string{text})
	if err != nil {
		return "", err
	}
	return out[0], nil
}

func (m *Model) PredictBatch(ctx context.Context, texts []string) ([]domain.Sentiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	ids := m.clf.Predict(m.vec.Transform(texts))
	labels, err := m.enc.InverseTransform(ids)
	if err != nil {
		return nil, err
	}
	observability.ObserveInference("local", len(texts), time.Since(start))

	out := make([]domain.Sentiment, len(labels))
	for i, l := range labels {
		out[i] = domain.Sentiment(l)
	}
	return out, nil
}
