package httpserver_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	server "review_sentiment/internal/adapters/http_server"
	"review_sentiment/internal/app"
	"review_sentiment/internal/domain"
)

type keywordClassifier struct{ calls int }

func (k *keywordClassifier) label(t string) domain.Sentiment {
	if strings.Contains(strings.ToLower(t), "bad") {
		return domain.Negative
	}
	return domain.Positive
}

func (k *keywordClassifier) Predict(_ context.Context, t string) (domain.Sentiment, error) {
	k.calls++
	return k.label(t), nil
}

func (k *keywordClassifier) PredictBatch(_ context.Context, ts []string) ([]domain.Sentiment, error) {
	k.calls++
	out := make([]domain.Sentiment, len(ts))
	for i, t := range ts {
		out[i] = k.label(t)
	}
	return out, nil
}

func (k *keywordClassifier) Classes() []domain.Sentiment { return domain.KnownSentiments }
func (k *keywordClassifier) ID() string                  { return "kw" }

func newTestServer(t *testing.T) (*httptest.Server, *keywordClassifier) {
	t.Helper()
	clf := &keywordClassifier{}
	p := app.NewPipelineService(clf, nil, 0, time.UTC)
	s := server.New(5 * time.Second)
	s.MountHandlers(&server.Handlers{P: p, MaxUpload: 1 << 20})
	ts := httptest.NewServer(s.Mux())
	t.Cleanup(ts.Close)
	return ts, clf
}

func upload(t *testing.T, url, filename string, content []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	res, err := http.Post(url, mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Body.Close() })
	return res
}

const sampleCSV = "name,star_rating,date,review,true_sentiment\n" +
	"ana,5,2024-01-01 10:00:00,great app,positive\n" +
	"budi,1,2024-01-05 11:00:00,bad update,negative\n" +
	"cici,4,2024-01-10 12:00:00,love it,negative\n"

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t)
	res, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestModelInfo(t *testing.T) {
	ts, _ := newTestServer(t)
	res, err := http.Get(ts.URL + "/v1/model")
	require.NoError(t, err)
	defer res.Body.Close()

	var body struct {
		ID      string            `json:"id"`
		Classes []string          `json:"classes"`
		Display map[string]string `json:"display"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "kw", body.ID)
	assert.Equal(t, []string{"negative", "positive"}, body.Classes)
	assert.Equal(t, "Positif", body.Display["positive"])

	etag := res.Header.Get("ETag")
	require.NotEmpty(t, etag)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/v1/model", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	res2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res2.Body.Close()
	assert.Equal(t, http.StatusNotModified, res2.StatusCode)
}

func TestPredict_JSON(t *testing.T) {
	ts, _ := newTestServer(t)
	res, err := http.Post(ts.URL+"/v1/reviews/predict", "application/json",
		strings.NewReader(`{"star_rating":5,"date":"2024-03-01","time":"08:30","review":"This app is great"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "positive", body["predicted_sentiment"])
	assert.Equal(t, "Positif", body["display"])
	assert.Equal(t, domain.DefaultName, body["name"])
}

func TestPredict_CSV(t *testing.T) {
	ts, _ := newTestServer(t)
	res, err := http.Post(ts.URL+"/v1/reviews/predict?format=csv", "application/json",
		strings.NewReader(`{"name":"dina","star_rating":2,"date":"2024-03-01","time":"08:30","review":"bad"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.Header.Get("Content-Disposition"), "attachment")

	recs, err := csv.NewReader(res.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"name", "star_rating", "date", "review", "predicted_sentiment"}, recs[0])
	assert.Equal(t, []string{"dina", "2", "2024-03-01 08:30", "bad", "negative"}, recs[1])
}

func TestPredict_Errors(t *testing.T) {
	ts, clf := newTestServer(t)
	cases := []struct {
		name   string
		body   string
		status int
	}{
		{"empty review", `{"star_rating":3,"review":"   "}`, http.StatusUnprocessableEntity},
		{"rating out of range", `{"star_rating":9,"review":"ok"}`, http.StatusBadRequest},
		{"malformed json", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := http.Post(ts.URL+"/v1/reviews/predict", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			defer res.Body.Close()
			assert.Equal(t, tc.status, res.StatusCode)
			assert.Equal(t, "application/problem+json", res.Header.Get("Content-Type"))
		})
	}
	assert.Zero(t, clf.calls)
}

func TestBatch_JSONWithFilters(t *testing.T) {
	ts, clf := newTestServer(t)
	res := upload(t, ts.URL+"/v1/reviews/batch?start=2024-01-02&end=2024-01-10&sentiment=positif", "reviews.csv", []byte(sampleCSV))
	require.Equal(t, http.StatusOK, res.StatusCode)

	var rep app.BatchReport
	require.NoError(t, json.NewDecoder(res.Body).Decode(&rep))
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 1, rep.Filtered)
	require.Len(t, rep.Rows, 1)
	assert.Equal(t, "cici", rep.Rows[0].Name)
	require.Len(t, rep.Distribution, 1)
	assert.Equal(t, 1, rep.Distribution[0].Count)
	require.NotNil(t, rep.Evaluation)
	assert.InDelta(t, 2.0/3.0, rep.Evaluation.Accuracy, 1e-9)
	assert.Equal(t, 1, clf.calls)
}

func TestBatch_CSVExport(t *testing.T) {
	ts, _ := newTestServer(t)
	res := upload(t, ts.URL+"/v1/reviews/batch?format=csv", "reviews.csv", []byte(sampleCSV))
	require.Equal(t, http.StatusOK, res.StatusCode)

	recs, err := csv.NewReader(res.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"name", "star_rating", "date", "review", "true_sentiment", "predicted_sentiment"}, recs[0])
	assert.Equal(t, "negative", recs[2][5])
}

func TestBatch_Errors(t *testing.T) {
	ts, _ := newTestServer(t)

	res := upload(t, ts.URL+"/v1/reviews/batch", "reviews.csv", []byte("name,review\nana,great\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	res = upload(t, ts.URL+"/v1/reviews/batch", "reviews.csv", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
	res = upload(t, ts.URL+"/v1/reviews/batch", "reviews.csv", png)
	assert.Equal(t, http.StatusUnsupportedMediaType, res.StatusCode)

	res = upload(t, ts.URL+"/v1/reviews/batch?start=01-02-2024", "reviews.csv", []byte(sampleCSV))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = upload(t, ts.URL+"/v1/reviews/batch?sentiment=neutral", "reviews.csv", []byte(sampleCSV))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestClassify_RawContract(t *testing.T) {
	ts, _ := newTestServer(t)
	res, err := http.Post(ts.URL+"/v1/classify", "application/json", strings.NewReader(`{"texts":["great","bad"]}`))
	require.NoError(t, err)
	defer res.Body.Close()

	var body struct {
		Labels []string `json:"labels"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, []string{"positive", "negative"}, body.Labels)
}
