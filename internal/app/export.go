package app

import (
	"encoding/csv"
	"io"

	"review_sentiment/internal/domain"
)

// exportHeader keeps the input column order and appends predicted_sentiment
// unless the upload already had that column.
func exportHeader(header []string) []string {
	out := append([]string(nil), header...)
	if !hasColumn(out, domain.ColPredicted) {
		out = append(out, domain.ColPredicted)
	}
	return out
}

// WriteBatchCSV writes rows in the upload's shape plus the predicted label. No index column.
func WriteBatchCSV(w io.Writer, header []string, rows []domain.LabeledReview) error {
	return writeCSV(w, exportHeader(header), rows, exportDateLayout)
}

// WriteSingleCSV writes the one-row table for a manually classified review.
func WriteSingleCSV(w io.Writer, row domain.LabeledReview) error {
	return writeCSV(w, exportHeader(domain.RequiredColumns), []domain.LabeledReview{row}, manualDateLayout)
}

func writeCSV(w io.Writer, header []string, rows []domain.LabeledReview, layout string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for _, r := range rows {
		for i, col := range header {
			switch col {
			case domain.ColName:
				rec[i] = r.Name
			case domain.ColStarRating:
				rec[i] = formatRating(r.StarRating)
			case domain.ColDate:
				rec[i] = formatDate(r.Date, layout)
			case domain.ColReview:
				rec[i] = r.Text
			case domain.ColPredicted:
				rec[i] = string(r.Predicted)
			default:
				rec[i] = r.Extra[col]
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
