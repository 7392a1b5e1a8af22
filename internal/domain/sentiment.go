package domain

import (
	"fmt"
	"strings"
)

type Sentiment string

const (
	Positive Sentiment = "positive"
	Negative Sentiment = "negative"
)

// KnownSentiments is the full class vocabulary a loaded model must match.
var KnownSentiments = []Sentiment{Negative, Positive}

func (s Sentiment) Valid() bool { return s == Positive || s == Negative }

// Display returns the user-facing label.
func (s Sentiment) Display() string {
	switch s {
	case Positive:
		return "Positif"
	case Negative:
		return "Negatif"
	}
	return string(s)
}

// Color is the chart colour for the class.
func (s Sentiment) Color() string {
	switch s {
	case Positive:
		return "blue"
	case Negative:
		return "red"
	}
	return "gray"
}

type SentimentFilter string

const (
	FilterAll      SentimentFilter = "all"
	FilterPositive SentimentFilter = "positive"
	FilterNegative SentimentFilter = "negative"
)

// ParseSentimentFilter accepts internal tokens and display names ("Semua", "Positif", "Negatif").
func ParseSentimentFilter(s string) (SentimentFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all", "semua":
		return FilterAll, nil
	case "positive", "positif":
		return FilterPositive, nil
	case "negative", "negatif":
		return FilterNegative, nil
	}
	return "", fmt.Errorf("unknown sentiment filter %q", s)
}

func (f SentimentFilter) Match(s Sentiment) bool {
	switch f {
	case FilterPositive:
		return s == Positive
	case FilterNegative:
		return s == Negative
	}
	return true
}
