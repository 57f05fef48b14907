// Package classify maps meal photos to food categories through an external
// model server, and reads capture time from photo metadata.
package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/quatton/qwell/pkg/kv"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qmetrics"
	"golang.org/x/time/rate"
)

const kvPrefixResult = "classify:"

var ErrNotConfigured = errors.New("classifier endpoint not configured")

// Classifier resolves an image, given by a URL the classifier can fetch, to a
// food category id.
type Classifier interface {
	Classify(ctx context.Context, imageURL string) (int, error)
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
	// RPS bounds outgoing calls per second. Zero disables the limit.
	RPS float64
}

// HTTPClassifier calls a model server that answers
// POST {endpoint}?image_url=... with {"category_id": N}.
type HTTPClassifier struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

func NewHTTPClassifier(cfg Config) *HTTPClassifier {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClassifier{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(limit, 1),
	}
}

type predictResponse struct {
	CategoryID *int `json:"category_id"`
}

func (c *HTTPClassifier) Classify(ctx context.Context, imageURL string) (int, error) {
	if c.endpoint == "" {
		return 0, qerr.New(qerr.CodeUpstream, ErrNotConfigured)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, qerr.New(qerr.CodeUpstream, fmt.Errorf("classifier rate limit: %w", err))
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return 0, qerr.New(qerr.CodeUpstream, fmt.Errorf("invalid classifier endpoint: %w", err))
	}
	q := u.Query()
	q.Set("image_url", imageURL)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return 0, qerr.New(qerr.CodeUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, qerr.New(qerr.CodeUpstream, fmt.Errorf("classifier request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, qerr.Newf(qerr.CodeUpstream, "classifier returned status %d: %s", resp.StatusCode, body)
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, qerr.New(qerr.CodeUpstream, fmt.Errorf("decode classifier response: %w", err))
	}
	if out.CategoryID == nil {
		return 0, qerr.Newf(qerr.CodeUpstream, "classifier response has no category_id")
	}
	return *out.CategoryID, nil
}

// Service puts a result cache keyed by image content digest in front of a
// Classifier, so re-uploading the same photo does not call the model again.
type Service struct {
	classifier Classifier
	cache      kv.Store
	ttl        time.Duration
	metrics    *qmetrics.Metrics
	logger     *qlog.Logger
}

func NewService(c Classifier, cache kv.Store, ttl time.Duration, m *qmetrics.Metrics, logger *qlog.Logger) *Service {
	return &Service{classifier: c, cache: cache, ttl: ttl, metrics: m, logger: logger}
}

// Classify returns the category for the image with the given content digest,
// fetching it through imageURL on a cache miss.
func (s *Service) Classify(ctx context.Context, digest, imageURL string) (int, error) {
	key := kvPrefixResult + digest
	if raw, err := s.cache.Get(ctx, key); err == nil {
		if id, err := strconv.Atoi(string(raw)); err == nil {
			s.metrics.ClassifierCalls.WithLabelValues("cache_hit").Inc()
			return id, nil
		}
	} else if !errors.Is(err, kv.ErrNotFound) {
		s.logger.Warn("classifier cache read failed", "error", err)
	}

	id, err := s.classifier.Classify(ctx, imageURL)
	if err != nil {
		s.metrics.ClassifierCalls.WithLabelValues("error").Inc()
		return 0, err
	}
	s.metrics.ClassifierCalls.WithLabelValues("ok").Inc()

	if err := s.cache.Set(ctx, key, []byte(strconv.Itoa(id)), s.ttl); err != nil {
		s.logger.Warn("classifier cache write failed", "error", err)
	}
	return id, nil
}
