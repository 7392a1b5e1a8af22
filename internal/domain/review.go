package domain

import "time"

// DefaultName is used for manual reviews submitted without an author.
const DefaultName = "Anonim"

// Required input columns of an uploaded batch, in canonical order.
const (
	ColName       = "name"
	ColStarRating = "star_rating"
	ColDate       = "date"
	ColReview     = "review"
	ColPredicted  = "predicted_sentiment"
	ColTruth      = "true_sentiment"
)

var RequiredColumns = []string{ColName, ColStarRating, ColDate, ColReview}

type Review struct {
	Name       string            `json:"name"`
	StarRating int               `json:"star_rating,omitempty"` // 0 = absent (batch rows only)
	Date       *time.Time        `json:"date,omitempty"`        // nil when missing or unparseable
	Text       string            `json:"review"`
	Extra      map[string]string `json:"extra,omitempty"` // non-required input columns, by header
}

type LabeledReview struct {
	Review
	Predicted Sentiment `json:"predicted_sentiment"`
}

// Batch is a fully labeled upload. Rows keep input order.
type Batch struct {
	Header   []string        `json:"header"`
	Rows     []LabeledReview `json:"rows"`
	HasTruth bool            `json:"has_truth"`
	ModelID  string          `json:"model_id"`
}

// Truth returns the ground-truth column, or nil when the upload has none.
func (b *Batch) Truth() []string {
	if !b.HasTruth {
		return nil
	}
	out := make([]string, len(b.Rows))
	for i, r := range b.Rows {
		out[i] = r.Extra[ColTruth]
	}
	return out
}

func (b *Batch) Predicted() []Sentiment {
	out := make([]Sentiment, len(b.Rows))
	for i, r := range b.Rows {
		out[i] = r.Predicted
	}
	return out
}
