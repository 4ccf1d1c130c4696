package imagegen

import (
	"context"
	"fmt"
	"mime"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/fpang/ai-slide-generator/internal/s3util"
)

// PresignExpiry is how long slide image links stay valid.
const PresignExpiry = 7 * 24 * time.Hour

// S3Sink uploads images to a bucket and hands back presigned GET URLs.
type S3Sink struct {
	client  s3util.PutObjectAPI
	presign s3util.PresignGetAPI
	bucket  string
	prefix  string
	now     func() time.Time
}

// NewS3Sink creates a sink writing under prefix (for example "slides").
func NewS3Sink(client s3util.PutObjectAPI, presign s3util.PresignGetAPI, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, presign: presign, bucket: bucket, prefix: prefix, now: time.Now}
}

// Put stores data as <prefix>/<yyyy-mm-dd>/<uuid><ext>.
func (s *S3Sink) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	key := path.Join(s.prefix, s.now().UTC().Format("2006-01-02"), uuid.NewString()+extensionFor(contentType))
	if err := s3util.PutBytes(ctx, s.client, s.bucket, key, contentType, data); err != nil {
		return "", err
	}
	url, err := s3util.GeneratePresignedURL(ctx, s.presign, s.bucket, key, PresignExpiry)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return url, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
