package app_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"review_sentiment/internal/app"
	"review_sentiment/internal/domain"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func row(date *time.Time, s domain.Sentiment) domain.LabeledReview {
	return domain.LabeledReview{Review: domain.Review{Date: date}, Predicted: s}
}

func TestBounds(t *testing.T) {
	rows := []domain.LabeledReview{
		row(ptr(time.Date(2024, 1, 5, 23, 59, 0, 0, time.UTC)), domain.Positive),
		row(nil, domain.Positive),
		row(ptr(time.Date(2024, 1, 2, 6, 0, 0, 0, time.UTC)), domain.Negative),
	}
	b, ok := app.Bounds(rows)
	assert.True(t, ok)
	assert.Equal(t, day(2024, 1, 2), b.Start)
	assert.Equal(t, day(2024, 1, 5), b.End)

	_, ok = app.Bounds([]domain.LabeledReview{row(nil, domain.Positive)})
	assert.False(t, ok)
}

func TestFilter_InclusiveBounds(t *testing.T) {
	rows := []domain.LabeledReview{
		row(ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), domain.Positive),
		row(ptr(time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)), domain.Positive),
		row(ptr(time.Date(2024, 1, 3, 23, 59, 59, 0, time.UTC)), domain.Negative),
		row(ptr(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)), domain.Negative),
	}
	got := app.Filter(rows, domain.BatchFilter{Start: ptr(day(2024, 1, 2)), End: ptr(day(2024, 1, 3))})
	assert.Len(t, got, 2)
	assert.Equal(t, rows[1], got[0])
	assert.Equal(t, rows[2], got[1])
}

func TestFilter_DefaultsToObservedRange(t *testing.T) {
	rows := []domain.LabeledReview{
		row(ptr(day(2024, 1, 1)), domain.Positive),
		row(ptr(day(2024, 3, 1)), domain.Negative),
		row(nil, domain.Negative),
	}
	got := app.Filter(rows, domain.BatchFilter{})
	assert.Len(t, got, 2, "rows without a date are excluded")
}

func TestFilter_InvertedRangeIsEmpty(t *testing.T) {
	rows := []domain.LabeledReview{row(ptr(day(2024, 1, 2)), domain.Positive)}
	got := app.Filter(rows, domain.BatchFilter{Start: ptr(day(2024, 1, 3)), End: ptr(day(2024, 1, 1))})
	assert.Empty(t, got)
}

func TestFilter_SentimentPartitionsTheSet(t *testing.T) {
	var rows []domain.LabeledReview
	for i := 0; i < 30; i++ {
		s := domain.Positive
		if i%3 == 0 {
			s = domain.Negative
		}
		rows = append(rows, row(ptr(day(2024, 2, i%28+1)), s))
	}
	all := app.Filter(rows, domain.BatchFilter{Sentiment: domain.FilterAll})
	pos := app.Filter(rows, domain.BatchFilter{Sentiment: domain.FilterPositive})
	neg := app.Filter(rows, domain.BatchFilter{Sentiment: domain.FilterNegative})

	assert.Len(t, all, len(rows))
	assert.Equal(t, len(all), len(pos)+len(neg))
	for _, r := range pos {
		assert.Equal(t, domain.Positive, r.Predicted)
	}
	for _, r := range neg {
		assert.Equal(t, domain.Negative, r.Predicted)
	}
}

func TestFilter_HundredRowsFortyBeforeStart(t *testing.T) {
	var rows []domain.LabeledReview
	for i := 0; i < 100; i++ {
		d := day(2024, 6, 10)
		if i < 40 {
			d = day(2024, 5, 1+i%30)
		}
		s := domain.Positive
		if i%4 == 0 {
			s = domain.Negative
		}
		rows = append(rows, row(ptr(d), s))
	}
	got := app.Filter(rows, domain.BatchFilter{Start: ptr(day(2024, 6, 1))})
	assert.Len(t, got, 60)

	sum := 0
	for _, c := range app.Distribution(got, domain.KnownSentiments) {
		sum += c.Count
	}
	assert.Equal(t, 60, sum)
}
