// Package remote implements domain.Classifier against a model server over HTTP.
// The server contract is GET {base}/v1/model and POST {base}/v1/classify, as served
// by this service's own API.
package remote

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"review_sentiment/internal/adapters/observability"
	"review_sentiment/internal/domain"
)

const service = "classifier"

var (
	ErrUnauthorized = errors.New("classifier: unauthorized")
	ErrBadResponse  = errors.New("classifier: bad response")
)

type modelInfo struct {
	ID      string             `json:"id"`
	Classes []domain.Sentiment `json:"classes"`
}

type classifyRequest struct {
	Texts []string `json:"texts"`
}

type classifyResponse struct {
	Labels []domain.Sentiment `json:"labels"`
}

type Client struct {
	base    string
	hc      *http.Client
	key     string
	rl      *rate.Limiter
	id      string
	classes []domain.Sentiment
}

// New fetches the remote class vocabulary; an unreachable or inconsistent server is an error.
func New(ctx context.Context, base, key string, rps int, timeout time.Duration) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("classifier base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}

	var info modelInfo
	if err := c.do(ctx, http.MethodGet, "/v1/model", nil, &info); err != nil {
		return nil, fmt.Errorf("fetch model info: %w", err)
	}
	if len(info.Classes) != len(domain.KnownSentiments) {
		return nil, fmt.Errorf("%w: %d classes", ErrBadResponse, len(info.Classes))
	}
	for _, s := range info.Classes {
		if !s.Valid() {
			return nil, &domain.UnknownLabelError{Label: string(s)}
		}
	}
	c.id = "remote:" + info.ID
	c.classes = info.Classes
	return c, nil
}

func (c *Client) ID() string                  { return c.id }
func (c *Client) Classes() []domain.Sentiment { return c.classes }

func (c *Client) Predict(ctx context.Context, text string) (domain.Sentiment, error) {
	out, err := c.PredictBatch(ctx, []string{text})
	if err != nil {
		return "", err
	}
	return out[0], nil
}

func (c *Client) PredictBatch(ctx context.Context, texts []string) ([]domain.Sentiment, error) {
	start := time.Now()
	var out classifyResponse
	if err := c.do(ctx, http.MethodPost, "/v1/classify", classifyRequest{Texts: texts}, &out); err != nil {
		return nil, err
	}
	if len(out.Labels) != len(texts) {
		return nil, fmt.Errorf("%w: %d labels for %d texts", ErrBadResponse, len(out.Labels), len(texts))
	}
	for _, l := range out.Labels {
		if !l.Valid() {
			return nil, &domain.UnknownLabelError{Label: string(l)}
		}
	}
	observability.ObserveInference("remote", len(texts), time.Since(start))
	return out.Labels, nil
}

// do sends a request with client-side rate limiting and retries, decoding JSON into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var body []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = b
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(body))
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "review-sentiment/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			observability.ObserveExternal(service, path, 0, time.Since(start))
			lastErr = err
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal(service, path, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("%w: %v", ErrBadResponse, err)
			}
			return nil

		case http.StatusUnauthorized, http.StatusForbidden:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
