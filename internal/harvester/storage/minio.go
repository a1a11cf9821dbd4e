package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

type MinioUploader struct {
	bucket string
	client *minio.Client
}

// NewMinioUploader connects to config.Endpoint, given as host:port without scheme.
func NewMinioUploader(config configuration.StorageConfig) (*MinioUploader, error) {
	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.UseSSL,
		Region: config.Region,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error creating minio client for %s", config.Endpoint)
	}
	return &MinioUploader{
		bucket: config.Bucket,
		client: client,
	}, nil
}

func (u *MinioUploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, u.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", errors.Wrapf(err, "error uploading %s/%s to minio", u.bucket, key)
	}
	return fmt.Sprintf("%s/%s/%s", u.client.EndpointURL(), u.bucket, key), nil
}
