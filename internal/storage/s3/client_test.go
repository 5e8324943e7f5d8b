package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/sportify-server/internal/config"
	"github.com/dtroode/sportify-server/internal/model"
)

type fakeS3 struct {
	err   error
	input *s3.PutObjectInput
	body  []byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestClient_Upload(t *testing.T) {
	api := &fakeS3{}
	c := NewClientWithAPI(api, "media", "http://minio:9000")

	url, err := c.Upload(context.Background(), model.BlobEventImage, bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)

	require.NotNil(t, api.input)
	key := aws.ToString(api.input.Key)
	assert.True(t, strings.HasPrefix(key, "images/"), key)
	assert.Equal(t, "media", aws.ToString(api.input.Bucket))
	assert.Equal(t, int64(3), aws.ToInt64(api.input.ContentLength))
	assert.Equal(t, "image/png", aws.ToString(api.input.ContentType))
	assert.Equal(t, []byte("png"), api.body)
	assert.Equal(t, "http://minio:9000/media/"+key, url)
}

func TestClient_UploadError(t *testing.T) {
	c := NewClientWithAPI(&fakeS3{err: errors.New("access denied")}, "media", "http://minio:9000")

	_, err := c.Upload(context.Background(), model.BlobProfilePicture, bytes.NewReader(nil), 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to put object")
}

func TestNewClient_PublicURLFallback(t *testing.T) {
	c, err := NewClient(context.Background(), config.S3{
		Region:       "eu-west-1",
		BaseEndpoint: "http://localhost:9000",
		AccessKey:    "key",
		SecretKey:    "secret",
		Bucket:       "media",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", c.publicURL)

	c, err = NewClient(context.Background(), config.S3{Region: "eu-west-1", AccessKey: "k", SecretKey: "s", Bucket: "media"})
	require.NoError(t, err)
	assert.Equal(t, "https://s3.eu-west-1.amazonaws.com", c.publicURL)
}
