// Package s3 is a blob backend speaking the S3 API through aws-sdk-go-v2.
package s3

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dtroode/sportify-server/internal/config"
	"github.com/dtroode/sportify-server/internal/model"
	"github.com/dtroode/sportify-server/internal/storage"
)

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ model.BlobStore = (*Client)(nil)

type Client struct {
	api       putObjectAPI
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewClient builds an S3 client from cfg. Static credentials are used when
// an access key is configured, the default AWS chain otherwise.
func NewClient(ctx context.Context, cfg config.S3) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		publicURL = cfg.BaseEndpoint
	}
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
	}

	return NewClientWithAPI(api, cfg.Bucket, publicURL), nil
}

// NewClientWithAPI allows injecting a fake API (used in tests).
func NewClientWithAPI(api putObjectAPI, bucket, publicURL string) *Client {
	return &Client{
		api:       api,
		bucket:    bucket,
		publicURL: publicURL,
		now:       time.Now,
	}
}

// Upload stores the content under a fresh key of kind and returns its URL.
func (c *Client) Upload(ctx context.Context, kind model.BlobKind, reader io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = storage.DefaultContentType
	}
	key := storage.NewKey(kind, contentType, c.now())

	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          reader,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object: %w", err)
	}

	return storage.PublicURL(c.publicURL, c.bucket, key)
}
