package qart

import (
	"context"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Store implements Store using MinIO/S3-compatible storage.
type S3Store struct {
	client *minio.Client
	bucket string
	region string
}

// S3Config holds configuration for S3-compatible storage.
type S3Config struct {
	Endpoint  string // host:port (e.g., "localhost:9000")
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// NewS3Store creates a new S3Store with the given configuration.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, ErrBucketMissing
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &S3Store{
		client: client,
		bucket: cfg.Bucket,
		region: cfg.Region,
	}, nil
}

func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{
		Region: s.region,
	})
}

func (s *S3Store) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string, metadata map[string]string) (*Object, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return nil, err
	}

	return &Object{
		Key:         info.Key,
		Bucket:      info.Bucket,
		Size:        info.Size,
		ContentType: contentType,
		Metadata:    metadata,
	}, nil
}

func (s *S3Store) GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return "", ErrNotFound
		}
		return "", err
	}
	return u.String(), nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return nil
	}
	return err
}

// Ensure S3Store implements Store.
var _ Store = (*S3Store)(nil)
