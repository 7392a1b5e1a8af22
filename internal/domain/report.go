package domain

import "time"

// SentimentCount is one bar/slice of a distribution chart.
type SentimentCount struct {
	Sentiment Sentiment `json:"sentiment"`
	Label     string    `json:"label"`
	Count     int       `json:"count"`
	Percent   float64   `json:"percent"`
	Color     string    `json:"color"`
}

type ClassMetrics struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

type EvaluationReport struct {
	Classes     []string       `json:"classes"`
	Matrix      [][]int        `json:"confusion_matrix"` // rows: truth, cols: predicted
	PerClass    []ClassMetrics `json:"per_class"`
	Accuracy    float64        `json:"accuracy"`
	MacroAvg    ClassMetrics   `json:"macro_avg"`
	WeightedAvg ClassMetrics   `json:"weighted_avg"`
	Summary     string         `json:"summary"`
}

// DateRange is an inclusive calendar-date interval. Zero values mean "unset".
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type BatchFilter struct {
	Start     *time.Time
	End       *time.Time
	Sentiment SentimentFilter
}
