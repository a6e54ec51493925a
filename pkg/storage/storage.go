// Package storage uploads local media files to remote object storage and
// reports transfer progress. Two drivers are provided: a Cloudinary-style
// preset endpoint and S3 (with MinIO support for local development).
package storage

import (
	"context"
	"io"
	"strings"
)

// ProgressFunc receives upload progress as a percentage in [0,100]. Values are
// monotonically non-decreasing across a single upload.
type ProgressFunc func(percent float64)

type Uploader interface {
	Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string, progress ProgressFunc) (string, error)
}

// Remover is implemented by drivers that can delete an uploaded object again.
// The publish rollback uses it so a failed publish does not strand the blob.
type Remover interface {
	DeleteFile(ctx context.Context, key string) error
}

// ThumbnailURL derives a still-frame thumbnail from a delivery URL using the
// fixed path transformation (first frame, jpg) instead of a separate request.
func ThumbnailURL(mediaURL string) string {
	return strings.Replace(mediaURL, "/upload/", "/upload/f_jpg,so_0/", 1)
}
