package app

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"review_sentiment/internal/domain"
)

// Layouts tried, in order, when parsing the date column.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"02 Jan 2006 15:04",
	"02 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

const (
	exportDateLayout = "2006-01-02 15:04:05"
	manualDateLayout = "2006-01-02 15:04"
)

// parseDate returns nil for empty or unrecognised values instead of failing the batch.
func parseDate(s string, loc *time.Location) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, l := range dateLayouts {
		if t, err := time.ParseInLocation(l, s, loc); err == nil {
			return &t
		}
	}
	return nil
}

// parseRating accepts "4" and "4.0"; empty means absent (0).
func parseRating(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := cast.ToIntE(s); err == nil {
		return n, nil
	}
	f, err := cast.ToFloat64E(s)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid star_rating %q", s)
	}
	return int(f), nil
}

func formatRating(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatDate(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}

// readTable parses a CSV upload into its header and rows. Short rows are padded
// with empty cells; rows longer than the header are an error.
func readTable(r io.Reader) ([]string, [][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, domain.ErrEmptyFile
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	header := records[0]
	rows := records[1:]
	for i, rec := range rows {
		switch {
		case len(rec) > len(header):
			return nil, nil, fmt.Errorf("line %d: expected %d fields, saw %d", i+2, len(header), len(rec))
		case len(rec) < len(header):
			padded := make([]string, len(header))
			copy(padded, rec)
			rows[i] = padded
		}
	}
	return header, rows, nil
}

func missingColumns(header []string) []string {
	have := make(map[string]struct{}, len(header))
	for _, h := range header {
		have[h] = struct{}{}
	}
	var missing []string
	for _, c := range domain.RequiredColumns {
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// mapRow turns one CSV record into a Review. Unknown columns land in Extra.
func mapRow(header, rec []string, loc *time.Location) (domain.Review, error) {
	var rv domain.Review
	for i, col := range header {
		v := rec[i]
		switch col {
		case domain.ColName:
			rv.Name = v
		case domain.ColStarRating:
			n, err := parseRating(v)
			if err != nil {
				return rv, err
			}
			rv.StarRating = n
		case domain.ColDate:
			rv.Date = parseDate(v, loc)
		case domain.ColReview:
			rv.Text = v // missing cells are already ""
		case domain.ColPredicted:
			// recomputed on every run
		default:
			if rv.Extra == nil {
				rv.Extra = make(map[string]string, len(header)-len(domain.RequiredColumns))
			}
			rv.Extra[col] = v
		}
	}
	return rv, nil
}
