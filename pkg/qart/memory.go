package qart

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// MemoryStore keeps objects in process memory. Presigned URLs point at a
// fake host and are only meaningful to tests and local development.
type MemoryStore struct {
	mu      sync.Mutex
	bucket  string
	objects map[string]memObject
}

type memObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

func NewMemoryStore(bucket string) *MemoryStore {
	return &MemoryStore{bucket: bucket, objects: map[string]memObject{}}
}

func (s *MemoryStore) Upload(_ context.Context, key string, reader io.Reader, _ int64, contentType string, metadata map[string]string) (*Object, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = memObject{data: buf.Bytes(), contentType: contentType, metadata: metadata}
	return &Object{Key: key, Bucket: s.bucket, Size: int64(buf.Len()), ContentType: contentType, Metadata: metadata}, nil
}

func (s *MemoryStore) GetPresignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return "", ErrNotFound
	}
	return fmt.Sprintf("http://objects.local/%s/%s?expires=%d", s.bucket, key, int(expiry.Seconds())), nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

func (s *MemoryStore) EnsureBucket(context.Context) error { return nil }

// Has reports whether key is stored.
func (s *MemoryStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

// Len is the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

var _ Store = (*MemoryStore)(nil)
