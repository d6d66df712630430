package object

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewClient(endpoint, accessKey, secretKey string, useSSL bool) (*minio.Client, error) {
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
}

func EnsureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

// BucketMirror copies stored files into an object bucket, keyed by their
// relative path identifiers.
type BucketMirror struct {
	client *minio.Client
	bucket string
}

func NewBucketMirror(client *minio.Client, bucket string) *BucketMirror {
	return &BucketMirror{client: client, bucket: bucket}
}

func (m *BucketMirror) Put(ctx context.Context, relPath string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	_, err := m.client.PutObject(ctx, m.bucket, relPath, reader, int64(reader.Len()), minio.PutObjectOptions{ContentType: contentType})
	return err
}
