package app

import (
	"fmt"
	"sort"
	"strings"

	"review_sentiment/internal/domain"
)

// Distribution counts predicted labels, largest first. Classes with no rows are omitted.
func Distribution(rows []domain.LabeledReview, classes []domain.Sentiment) []domain.SentimentCount {
	counts := map[domain.Sentiment]int{}
	for _, r := range rows {
		counts[r.Predicted]++
	}
	rank := make(map[domain.Sentiment]int, len(classes))
	for i, c := range classes {
		rank[c] = i
	}

	out := make([]domain.SentimentCount, 0, len(counts))
	for s, n := range counts {
		out = append(out, domain.SentimentCount{
			Sentiment: s,
			Label:     s.Display(),
			Count:     n,
			Percent:   100 * float64(n) / float64(len(rows)),
			Color:     s.Color(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return rank[out[i].Sentiment] < rank[out[j].Sentiment]
	})
	return out
}

// Evaluate compares ground truth with predictions over the given class order.
// Ground-truth labels outside that order are an error.
func Evaluate(classes []domain.Sentiment, truth []string, predicted []domain.Sentiment) (*domain.EvaluationReport, error) {
	if len(truth) != len(predicted) {
		return nil, fmt.Errorf("evaluate: %d truth labels for %d predictions", len(truth), len(predicted))
	}
	idx := make(map[string]int, len(classes))
	names := make([]string, len(classes))
	for i, c := range classes {
		idx[string(c)] = i
		names[i] = string(c)
	}

	k := len(classes)
	m := make([][]int, k)
	for i := range m {
		m[i] = make([]int, k)
	}
	for i := range truth {
		t, ok := idx[strings.TrimSpace(truth[i])]
		if !ok {
			return nil, &domain.UnknownLabelError{Label: truth[i]}
		}
		p, ok := idx[string(predicted[i])]
		if !ok {
			return nil, &domain.UnknownLabelError{Label: string(predicted[i])}
		}
		m[t][p]++
	}

	rep := &domain.EvaluationReport{Classes: names, Matrix: m}
	total, correct := 0, 0
	var macro, weighted domain.ClassMetrics
	for c := 0; c < k; c++ {
		tp := m[c][c]
		support, predictedN := 0, 0
		for j := 0; j < k; j++ {
			support += m[c][j]
			predictedN += m[j][c]
		}
		cm := domain.ClassMetrics{
			Class:     names[c],
			Precision: ratio(tp, predictedN),
			Recall:    ratio(tp, support),
			Support:   support,
		}
		cm.F1 = f1(cm.Precision, cm.Recall)
		rep.PerClass = append(rep.PerClass, cm)

		total += support
		correct += tp
		macro.Precision += cm.Precision / float64(k)
		macro.Recall += cm.Recall / float64(k)
		macro.F1 += cm.F1 / float64(k)
		weighted.Precision += cm.Precision * float64(support)
		weighted.Recall += cm.Recall * float64(support)
		weighted.F1 += cm.F1 * float64(support)
	}
	if total > 0 {
		weighted.Precision /= float64(total)
		weighted.Recall /= float64(total)
		weighted.F1 /= float64(total)
	}
	macro.Class, macro.Support = "macro avg", total
	weighted.Class, weighted.Support = "weighted avg", total
	rep.MacroAvg, rep.WeightedAvg = macro, weighted
	rep.Accuracy = ratio(correct, total)
	rep.Summary = formatReport(rep)
	return rep, nil
}

// zero division yields 0
func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func f1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// formatReport renders the usual precision/recall/f1-score/support text table.
func formatReport(r *domain.EvaluationReport) string {
	width := len("weighted avg")
	for _, c := range r.Classes {
		width = max(width, len(c))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s ", width, "")
	for _, h := range []string{"precision", "recall", "f1-score", "support"} {
		fmt.Fprintf(&b, " %9s", h)
	}
	b.WriteString("\n\n")

	row := func(m domain.ClassMetrics) {
		fmt.Fprintf(&b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, m.Class, m.Precision, m.Recall, m.F1, m.Support)
	}
	for _, m := range r.PerClass {
		row(m)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s  %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	row(r.MacroAvg)
	row(r.WeightedAvg)
	return b.String()
}

// BatchReport is everything the presentation layer shows for one filtered upload.
type BatchReport struct {
	Total        int                      `json:"total"`
	Filtered     int                      `json:"filtered"`
	Bounds       *domain.DateRange        `json:"bounds,omitempty"`
	Rows         []domain.LabeledReview   `json:"rows"`
	Distribution []domain.SentimentCount  `json:"distribution"`
	Evaluation   *domain.EvaluationReport `json:"evaluation,omitempty"`
}

// Report filters a labeled batch and aggregates it. Evaluation runs over the whole
// upload and only when it carries a true_sentiment column.
func (s *PipelineService) Report(b *domain.Batch, f domain.BatchFilter) (*BatchReport, error) {
	rows := Filter(b.Rows, f)
	rep := &BatchReport{
		Total:        len(b.Rows),
		Filtered:     len(rows),
		Rows:         rows,
		Distribution: Distribution(rows, s.clf.Classes()),
	}
	if bounds, ok := Bounds(b.Rows); ok {
		rep.Bounds = &bounds
	}
	if b.HasTruth {
		ev, err := Evaluate(s.clf.Classes(), b.Truth(), b.Predicted())
		if err != nil {
			return nil, err
		}
		rep.Evaluation = ev
	}
	return rep, nil
}
