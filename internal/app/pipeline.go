package app

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"review_sentiment/internal/adapters/observability"
	"review_sentiment/internal/domain"
)

// ManualInput is a single review typed in by a user.
type ManualInput struct {
	Name       string
	StarRating int
	Date       string // YYYY-MM-DD, empty = today
	Time       string // HH:MM, empty = now
	Text       string
}

// PipelineService runs single and batch classification with an injected classifier.
// It holds no per-request state; the cache is optional.
type PipelineService struct {
	clf      domain.Classifier
	cache    domain.Cache
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
}

func NewPipelineService(clf domain.Classifier, cache domain.Cache, ttl time.Duration, loc *time.Location) *PipelineService {
	if loc == nil {
		loc = time.UTC
	}
	return &PipelineService{clf: clf, cache: cache, cacheTTL: ttl, loc: loc, now: time.Now}
}

func (s *PipelineService) Classifier() domain.Classifier { return s.clf }

func (s *PipelineService) Location() *time.Location { return s.loc }

// PredictOne classifies one manually entered review.
func (s *PipelineService) PredictOne(ctx context.Context, in ManualInput) (domain.LabeledReview, error) {
	if strings.TrimSpace(in.Text) == "" {
		return domain.LabeledReview{}, domain.ErrEmptyReview
	}
	if in.StarRating < 1 || in.StarRating > 5 {
		return domain.LabeledReview{}, domain.ErrInvalidRating
	}
	ts, err := s.manualTimestamp(in.Date, in.Time)
	if err != nil {
		return domain.LabeledReview{}, err
	}

	label, err := s.clf.Predict(ctx, in.Text)
	if err != nil {
		return domain.LabeledReview{}, fmt.Errorf("predict: %w", err)
	}
	observability.ObservePrediction("single", string(label))

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = domain.DefaultName
	}
	return domain.LabeledReview{
		Review: domain.Review{
			Name:       name,
			StarRating: in.StarRating,
			Date:       &ts,
			Text:       in.Text,
		},
		Predicted: label,
	}, nil
}

func (s *PipelineService) manualTimestamp(day, clock string) (time.Time, error) {
	now := s.now().In(s.loc)
	d := now
	if day = strings.TrimSpace(day); day != "" {
		t, err := time.ParseInLocation("2006-01-02", day, s.loc)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", day)
		}
		d = t
	}
	hh, mm := now.Hour(), now.Minute()
	if clock = strings.TrimSpace(clock); clock != "" {
		t, err := time.Parse("15:04", clock)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid time %q: want HH:MM", clock)
		}
		hh, mm = t.Hour(), t.Minute()
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, 0, 0, s.loc), nil
}

// RunBatch parses and labels a CSV upload. The result is all-or-nothing: on any
// error no rows are returned. Identical uploads are served from the cache.
func (s *PipelineService) RunBatch(ctx context.Context, r io.Reader) (*domain.Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	key := s.batchKey(data)
	if s.cache != nil {
		var cached domain.Batch
		if ok, err := s.cache.Get(ctx, key, &cached); err != nil {
			// an undecodable entry would fail every re-filter until it expires
			log.Warn().Err(err).Str("key", key).Msg("batch cache read failed, evicting")
			if err := s.cache.Del(ctx, key); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("batch cache evict failed")
			}
		} else if ok {
			return &cached, nil
		}
	}

	b, err := s.labelBatch(ctx, data)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, b, int(s.cacheTTL.Seconds())); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("batch cache write failed")
		}
	}
	return b, nil
}

func (s *PipelineService) labelBatch(ctx context.Context, data []byte) (*domain.Batch, error) {
	header, recs, err := readTable(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if missing := missingColumns(header); len(missing) > 0 {
		return nil, &domain.MissingColumnsError{Missing: missing}
	}

	reviews := make([]domain.Review, len(recs))
	texts := make([]string, len(recs))
	for i, rec := range recs {
		rv, err := mapRow(header, rec, s.loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		reviews[i] = rv
		texts[i] = rv.Text
	}

	// one model call for the whole upload
	var labels []domain.Sentiment
	if len(texts) > 0 {
		labels, err = s.clf.PredictBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("predict: %w", err)
		}
		if len(labels) != len(texts) {
			return nil, fmt.Errorf("predict: %d labels for %d reviews", len(labels), len(texts))
		}
	}

	b := &domain.Batch{
		Header:   header,
		Rows:     make([]domain.LabeledReview, len(reviews)),
		ModelID:  s.clf.ID(),
		HasTruth: hasColumn(header, domain.ColTruth),
	}
	for i, rv := range reviews {
		b.Rows[i] = domain.LabeledReview{Review: rv, Predicted: labels[i]}
		observability.ObservePrediction("batch", string(labels[i]))
	}
	return b, nil
}

func (s *PipelineService) batchKey(data []byte) string {
	sum := sha1.Sum(data)
	return fmt.Sprintf("batch:%s:%s:%s", s.clf.ID(), s.loc.String(), hex.EncodeToString(sum[:]))
}

func hasColumn(header []string, col string) bool {
	for _, h := range header {
		if h == col {
			return true
		}
	}
	return false
}
