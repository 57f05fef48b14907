package classify

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/quatton/qwell/pkg/kv"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qmetrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClassifier(t *testing.T) {
	var gotURL, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotURL = r.URL.Query().Get("image_url")
		_, _ = w.Write([]byte(`{"category_id": 12}`))
	}))
	defer srv.Close()

	c := NewHTTPClassifier(Config{Endpoint: srv.URL + "/predict_url/", Timeout: time.Second})
	id, err := c.Classify(context.Background(), "https://bucket.example.com/meals/a.jpg?X-Amz-Signature=abc")
	require.NoError(t, err)
	assert.Equal(t, 12, id)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "https://bucket.example.com/meals/a.jpg?X-Amz-Signature=abc", gotURL)
}

func TestHTTPClassifierFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { http.Error(w, "boom", http.StatusInternalServerError) }},
		{"missing category", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{}`)) }},
		{"bad json", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`nope`)) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := NewHTTPClassifier(Config{Endpoint: srv.URL}).Classify(context.Background(), "u")
			assert.True(t, qerr.IsCode(err, qerr.CodeUpstream), "got %v", err)
		})
	}
}

func TestHTTPClassifierTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewHTTPClassifier(Config{Endpoint: srv.URL, Timeout: 50 * time.Millisecond}).Classify(context.Background(), "u")
	assert.True(t, qerr.IsCode(err, qerr.CodeUpstream))
}

func TestHTTPClassifierNotConfigured(t *testing.T) {
	_, err := NewHTTPClassifier(Config{}).Classify(context.Background(), "u")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

type countingClassifier struct {
	calls atomic.Int32
	id    int
	err   error
}

func (c *countingClassifier) Classify(context.Context, string) (int, error) {
	c.calls.Add(1)
	return c.id, c.err
}

func TestServiceCachesByDigest(t *testing.T) {
	inner := &countingClassifier{id: 4}
	m := qmetrics.New()
	svc := NewService(inner, kv.NewMemoryStore(), time.Hour, m, qlog.NewDiscard())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, err := svc.Classify(ctx, "sha-1", "https://example.com/presigned-"+string(rune('a'+i)))
		require.NoError(t, err)
		assert.Equal(t, 4, id)
	}
	assert.EqualValues(t, 1, inner.calls.Load())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ClassifierCalls.WithLabelValues("cache_hit")))

	_, err := svc.Classify(ctx, "sha-2", "https://example.com/other")
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestServiceDoesNotCacheFailures(t *testing.T) {
	inner := &countingClassifier{err: qerr.New(qerr.CodeUpstream, errors.New("down"))}
	svc := NewService(inner, kv.NewMemoryStore(), time.Hour, qmetrics.New(), qlog.NewDiscard())

	for i := 0; i < 2; i++ {
		_, err := svc.Classify(context.Background(), "sha-1", "u")
		assert.True(t, qerr.IsCode(err, qerr.CodeUpstream))
	}
	assert.EqualValues(t, 2, inner.calls.Load())
}

func TestCaptureTimeWithoutExif(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))

	_, ok := CaptureTime(buf.Bytes())
	assert.False(t, ok)

	_, ok = CaptureTime([]byte("not an image"))
	assert.False(t, ok)
}
