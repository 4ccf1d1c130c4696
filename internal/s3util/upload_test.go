package s3util

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

type fakePresigner struct {
	expires time.Duration
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL:    "https://" + *in.Bucket + ".s3.amazonaws.com/" + *in.Key + "?sig=1",
		Method: http.MethodGet,
	}, nil
}

func TestPutBytes(t *testing.T) {
	f := &fakeS3{}
	if err := PutBytes(context.Background(), f, "bucket", "slides/a.jpg", "image/jpeg", []byte("img")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *f.input.Key != "slides/a.jpg" || *f.input.ContentType != "image/jpeg" {
		t.Errorf("unexpected input key=%s type=%s", *f.input.Key, *f.input.ContentType)
	}
	if string(f.body) != "img" {
		t.Errorf("expected body img, got %q", f.body)
	}
	if *f.input.Tagging != "Project=ai-slide-generator" {
		t.Errorf("expected project tagging, got %s", *f.input.Tagging)
	}
}

func TestPutBytesError(t *testing.T) {
	f := &fakeS3{err: errors.New("denied")}
	if err := PutBytes(context.Background(), f, "b", "k", "image/png", nil); err == nil {
		t.Error("expected error from PutObject to propagate")
	}
}

func TestGeneratePresignedURL(t *testing.T) {
	p := &fakePresigner{}
	url, err := GeneratePresignedURL(context.Background(), p, "bucket", "slides/a.jpg", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://bucket.s3.amazonaws.com/slides/a.jpg?sig=1" {
		t.Errorf("unexpected url %s", url)
	}
	if p.expires != time.Hour {
		t.Errorf("expected expiry 1h, got %s", p.expires)
	}
}
