package model

import (
	"encoding/json"
	"fmt"

	"review_sentiment/internal/domain"
)

type encoderFile struct {
	Classes []string `json:"classes"`
}

// LabelEncoder maps class names to classifier ids (their index) and back.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

func ParseEncoder(b []byte) (*LabelEncoder, error) {
	var f encoderFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode label encoder: %w", err)
	}
	return NewLabelEncoder(f.Classes)
}

func NewLabelEncoder(classes []string) (*LabelEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("label encoder: no classes")
	}
	idx := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("label encoder: duplicate class %q", c)
		}
		idx[c] = i
	}
	return &LabelEncoder{classes: classes, index: idx}, nil
}

func (e *LabelEncoder) Classes() []string { return e.classes }

func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	out := make([]int, len(labels))
	for i, l := range labels {
		id, ok := e.index[l]
		if !ok {
			return nil, &domain.UnknownLabelError{Label: l}
		}
		out[i] = id
	}
	return out, nil
}

func (e *LabelEncoder) InverseTransform(ids []int) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		if id < 0 || id >= len(e.classes) {
			return nil, fmt.Errorf("label encoder: id %d out of range", id)
		}
		out[i] = e.classes[id]
	}
	return out, nil
}
