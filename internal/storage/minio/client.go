package minio

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/dtroode/sportify-server/internal/model"
	"github.com/dtroode/sportify-server/internal/storage"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	SetBucketPolicy(ctx context.Context, bucketName, policy string) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

var _ model.BlobStore = (*Client)(nil)

// publicReadPolicy lets clients fetch uploaded media by URL without credentials.
const publicReadPolicy = `{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`

type Client struct {
	api       minioAPI
	bucket    string
	publicURL string
	now       func() time.Time
}

// NewClient creates a new MinIO blob client using a real *minio.Client instance.
// publicURL is the base of returned object URLs.
func NewClient(ctx context.Context, client *minio.Client, bucket, publicURL string) (*Client, error) {
	return NewClientWithAPI(ctx, client, bucket, publicURL)
}

// NewClientWithAPI allows injecting a mockable API (used in tests).
func NewClientWithAPI(ctx context.Context, api minioAPI, bucket, publicURL string) (*Client, error) {
	c := &Client{
		api:       api,
		bucket:    bucket,
		publicURL: publicURL,
		now:       time.Now,
	}

	if err := c.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return c, nil
}

// ensureBucketExists creates a publicly readable bucket if it doesn't exist
func (c *Client) ensureBucketExists(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := c.api.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	if err := c.api.SetBucketPolicy(ctx, c.bucket, fmt.Sprintf(publicReadPolicy, c.bucket)); err != nil {
		return fmt.Errorf("failed to set bucket policy: %w", err)
	}

	return nil
}

// Upload stores the content under a fresh key of kind and returns its URL.
func (c *Client) Upload(ctx context.Context, kind model.BlobKind, reader io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = storage.DefaultContentType
	}
	key := storage.NewKey(kind, contentType, c.now())

	_, err := c.api.PutObject(ctx, c.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload object: %w", err)
	}

	return storage.PublicURL(c.publicURL, c.bucket, key)
}
