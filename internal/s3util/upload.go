// Package s3util provides the S3 helpers used to publish generated slide
// images.
package s3util

import (
	"bytes"
	"context"
	"fmt"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// projectTag is the URL-encoded S3 object tagging string for cost allocation.
const projectTag = "Project=ai-slide-generator"

// ProjectTagging returns a pointer to the URL-encoded S3 object tagging string.
func ProjectTagging() *string {
	t := projectTag
	return &t
}

// PutObjectAPI is the subset of *s3.Client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PresignGetAPI is the subset of *s3.PresignClient used for download links.
type PresignGetAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// PutBytes uploads data under key with the project cost-allocation tag.
func PutBytes(ctx context.Context, client PutObjectAPI, bucket, key, contentType string, data []byte) error {
	log.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Int("bytes", len(data)).
		Msg("Uploading to S3")

	_, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(data),
		ContentType: &contentType,
		Tagging:     ProjectTagging(),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s: %w", key, err)
	}
	return nil
}

// GeneratePresignedURL creates a pre-signed GET URL for an S3 object.
func GeneratePresignedURL(ctx context.Context, presignClient PresignGetAPI, bucket, key string, expiry time.Duration) (string, error) {
	result, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket, Key: &key,
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", fmt.Errorf("presign GetObject: %w", err)
	}
	return result.URL, nil
}
