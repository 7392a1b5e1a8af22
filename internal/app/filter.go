package app

import (
	"time"

	"review_sentiment/internal/domain"
)

// dateOf drops the clock and zone, keeping the calendar date the value was written with.
func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Bounds returns the earliest and latest calendar dates among rows with a date.
// ok is false when no row has a usable date.
func Bounds(rows []domain.LabeledReview) (domain.DateRange, bool) {
	var r domain.DateRange
	found := false
	for _, row := range rows {
		if row.Date == nil {
			continue
		}
		d := dateOf(*row.Date)
		if !found || d.Before(r.Start) {
			r.Start = d
		}
		if !found || d.After(r.End) {
			r.End = d
		}
		found = true
	}
	return r, found
}

// Filter applies the inclusive date range, then the sentiment filter.
// Unset bounds default to the observed min/max. Rows without a date never match.
// An inverted range yields an empty result.
func Filter(rows []domain.LabeledReview, f domain.BatchFilter) []domain.LabeledReview {
	bounds, ok := Bounds(rows)
	if !ok {
		return []domain.LabeledReview{}
	}
	start, end := bounds.Start, bounds.End
	if f.Start != nil {
		start = dateOf(*f.Start)
	}
	if f.End != nil {
		end = dateOf(*f.End)
	}

	out := make([]domain.LabeledReview, 0, len(rows))
	for _, row := range rows {
		if row.Date == nil {
			continue
		}
		d := dateOf(*row.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		if !f.Sentiment.Match(row.Predicted) {
			continue
		}
		out = append(out, row)
	}
	return out
}
