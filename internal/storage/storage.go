// Package storage downloads document bytes from the platform's object
// storage service.
package storage

import (
	"context"
	"errors"
)

// ErrObjectNotFound is returned when the requested object does not exist
// in the given bucket.
var ErrObjectNotFound = errors.New("object not found")

// Object is a downloaded storage object.
type Object struct {
	Data        []byte
	ContentType string
	Size        int64
}

// Client downloads objects from tenant storage buckets.
type Client interface {
	Download(ctx context.Context, bucket, path string) (Object, error)
}
