package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"

	"review_sentiment/internal/adapters/observability"
	"review_sentiment/internal/app"
	"review_sentiment/internal/domain"
)

type Handlers struct {
	P         *app.PipelineService
	MaxUpload int64
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type predictRequest struct {
	Name       string `json:"name"`
	StarRating int    `json:"star_rating"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Review     string `json:"review"`
}

type predictResponse struct {
	domain.LabeledReview
	Display string `json:"display"`
}

type classifyRequest struct {
	Texts []string `json:"texts"`
}

type modelResponse struct {
	ID      string             `json:"id"`
	Classes []domain.Sentiment `json:"classes"`
	Display map[string]string  `json:"display"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/model", h.model)
	s.mux.Post("/v1/classify", h.classify)
	s.mux.Post("/v1/reviews/predict", h.predict)
	s.mux.Post("/v1/reviews/batch", h.batch)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func wantsCSV(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "csv")
}

func csvHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) model(w http.ResponseWriter, r *http.Request) {
	clf := h.P.Classifier()
	resp := modelResponse{ID: clf.ID(), Classes: clf.Classes(), Display: map[string]string{}}
	for _, c := range resp.Classes {
		resp.Display[string(c)] = c.Display()
	}
	body, err := json.Marshal(resp)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Encode failed", err.Error())
		return
	}
	sum := sha1.Sum(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

// classify is the raw model contract used by remote clients: texts in, labels out.
func (h *Handlers) classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, h.MaxUpload)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	labels, err := h.P.Classifier().PredictBatch(r.Context(), req.Texts)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Prediction failed", err.Error())
		return
	}
	if labels == nil {
		labels = []domain.Sentiment{}
	}
	writeJSON(w, map[string]any{"labels": labels})
}

func (h *Handlers) predict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid body", err.Error())
		return
	}
	out, err := h.P.PredictOne(r.Context(), app.ManualInput{
		Name:       req.Name,
		StarRating: req.StarRating,
		Date:       req.Date,
		Time:       req.Time,
		Text:       req.Review,
	})
	switch {
	case errors.Is(err, domain.ErrEmptyReview):
		writeProblem(w, http.StatusUnprocessableEntity, "Empty review", "Please fill in the review first.")
		return
	case errors.Is(err, domain.ErrInvalidRating):
		writeProblem(w, http.StatusBadRequest, "Invalid star rating", err.Error())
		return
	case err != nil:
		writeProblem(w, http.StatusBadRequest, "Prediction failed", err.Error())
		return
	}

	if wantsCSV(r) {
		csvHeaders(w, "predicted_review.csv")
		if err := app.WriteSingleCSV(w, out); err != nil {
			log.Error().Err(err).Msg("write single CSV failed")
		}
		return
	}
	writeJSON(w, predictResponse{LabeledReview: out, Display: out.Predicted.Display()})
}

func (h *Handlers) batch(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r, h.P.Location())
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid filter", err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Missing file", "multipart field \"file\" is required: "+err.Error())
		return
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Unreadable file", err.Error())
		return
	}
	if !isTextual(mt) {
		writeProblem(w, http.StatusUnsupportedMediaType, "Unsupported file type", "expected a CSV file, got "+mt.String())
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		writeProblem(w, http.StatusBadRequest, "Unreadable file", err.Error())
		return
	}

	start := time.Now()
	b, err := h.P.RunBatch(r.Context(), f)
	if err != nil {
		observability.ObserveBatchFailure(err)
		var mc *domain.MissingColumnsError
		if errors.As(err, &mc) {
			writeProblem(w, http.StatusUnprocessableEntity, "Missing columns", err.Error())
			return
		}
		writeProblem(w, http.StatusBadRequest, "Batch failed", "error while reading file: "+err.Error())
		return
	}
	rep, err := h.P.Report(b, filter)
	if err != nil {
		observability.ObserveBatchFailure(err)
		writeProblem(w, http.StatusBadRequest, "Batch failed", "error while reading file: "+err.Error())
		return
	}
	log.Info().
		Str("file", hdr.Filename).
		Str("size", humanize.Bytes(uint64(hdr.Size))).
		Int("rows", rep.Total).
		Int("filtered", rep.Filtered).
		Dur("took", time.Since(start)).
		Msg("batch classified")

	if wantsCSV(r) {
		csvHeaders(w, "predicted_reviews.csv")
		if err := app.WriteBatchCSV(w, b.Header, rep.Rows); err != nil {
			log.Error().Err(err).Msg("write batch CSV failed")
		}
		return
	}
	writeJSON(w, rep)
}

// isTextual accepts any text/* type mimetype may report for CSV content.
func isTextual(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			return true
		}
	}
	return false
}

func parseFilter(r *http.Request, loc *time.Location) (domain.BatchFilter, error) {
	q := r.URL.Query()
	var f domain.BatchFilter
	var err error
	if f.Sentiment, err = domain.ParseSentimentFilter(q.Get("sentiment")); err != nil {
		return f, err
	}
	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"start", &f.Start}, {"end", &f.End}} {
		v := q.Get(p.key)
		if v == "" {
			continue
		}
		t, err := time.ParseInLocation("2006-01-02", v, loc)
		if err != nil {
			return f, fmt.Errorf("%s must be YYYY-MM-DD", p.key)
		}
		*p.dst = &t
	}
	return f, nil
}
