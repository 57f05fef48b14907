package qart

import "errors"

var (
	ErrNotFound      = errors.New("object not found")
	ErrBucketMissing = errors.New("bucket is not configured")
)
