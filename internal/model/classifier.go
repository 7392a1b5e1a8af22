package model

import (
	"encoding/json"
	"fmt"
)

type classifierFile struct {
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// LogisticRegression is a linear classifier over TF-IDF rows.
// A single coefficient row is the binary case: classes[1] when the decision value is positive.
type LogisticRegression struct {
	classes   []int
	coef      [][]float64
	intercept []float64
}

func ParseClassifier(b []byte) (*LogisticRegression, error) {
	var f classifierFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode classifier: %w", err)
	}
	if len(f.Classes) < 2 {
		return nil, fmt.Errorf("classifier: need at least 2 classes, got %d", len(f.Classes))
	}
	rows := len(f.Classes)
	if rows == 2 {
		rows = 1
	}
	if len(f.Coef) != rows || len(f.Intercept) != rows {
		return nil, fmt.Errorf("classifier: %d classes need %d coef rows and intercepts, got %d/%d",
			len(f.Classes), rows, len(f.Coef), len(f.Intercept))
	}
	width := len(f.Coef[0])
	for i, r := range f.Coef {
		if len(r) != width {
			return nil, fmt.Errorf("classifier: coef row %d has width %d, want %d", i, len(r), width)
		}
	}
	return &LogisticRegression{classes: f.Classes, coef: f.Coef, intercept: f.Intercept}, nil
}

func (m *LogisticRegression) Features() int { return len(m.coef[0]) }

func (m *LogisticRegression) Classes() []int { return m.classes }

func (m *LogisticRegression) Predict(rows []Vector) []int {
	out := make([]int, len(rows))
	for i, x := range rows {
		out[i] = m.predictOne(x)
	}
	return out
}

func (m *LogisticRegression) predictOne(x Vector) int {
	if len(m.coef) == 1 {
		if m.decision(0, x) > 0 {
			return m.classes[1]
		}
		return m.classes[0]
	}
	best, bestScore := 0, m.decision(0, x)
	for k := 1; k < len(m.coef); k++ {
		if s := m.decision(k, x); s > bestScore {
			best, bestScore = k, s
		}
	}
	return m.classes[best]
}

func (m *LogisticRegression) decision(k int, x Vector) float64 {
	s := m.intercept[k]
	w := m.coef[k]
	for idx, v := range x {
		s += w[idx] * v
	}
	return s
}
