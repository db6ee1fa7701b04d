package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appcfg "github.com/daily-reflections/core/internal/config"
)

type s3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
	base   string
}

// NewS3Uploader builds an uploader from the backup S3 options. A custom
// endpoint implies path-style addressing for S3-compatible stores.
func NewS3Uploader(opts appcfg.S3Options) (Uploader, error) {
	if !opts.Configured() {
		return nil, errors.New("incomplete s3 config: bucket, region, access_key_id and secret_access_key are required")
	}

	endpoint := strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/")
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	if endpoint != "" {
		if parsed, err := url.Parse(endpoint); err != nil || parsed.Host == "" {
			return nil, fmt.Errorf("invalid s3 endpoint: %s", endpoint)
		}
	}

	client := s3.New(s3.Options{
		Region: strings.TrimSpace(opts.Region),
		Credentials: aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
			strings.TrimSpace(opts.AccessKeyID),
			strings.TrimSpace(opts.SecretAccessKey),
			"",
		)),
		UsePathStyle: opts.PathStyleAccess || endpoint != "",
	}, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	base := endpoint
	if base == "" {
		base = fmt.Sprintf("https://s3.%s.amazonaws.com", strings.TrimSpace(opts.Region))
	}
	return &s3Uploader{
		client: client,
		bucket: strings.TrimSpace(opts.Bucket),
		prefix: strings.TrimSpace(opts.Prefix),
		base:   base,
	}, nil
}

func (u *s3Uploader) Upload(ctx context.Context, key string, payload []byte, contentType string) (string, error) {
	if u.prefix != "" {
		key = strings.TrimSuffix(u.prefix, "/") + "/" + strings.TrimPrefix(key, "/")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return u.base + "/" + u.bucket + "/" + key, nil
}
