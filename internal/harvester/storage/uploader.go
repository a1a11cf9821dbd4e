package storage

import (
	"context"
	"path"

	"github.com/pkg/errors"

	"github.com/hipstershop/k6-harvester/internal/common/harvesterrors"
	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

// Uploader stores artifacts under a key. Location is a human readable address of the stored
// object, used for logging only.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (location string, err error)
}

// Key joins a folder and a file name into an object key.
func Key(folder string, file string) string {
	return path.Join(folder, file)
}

// New creates the uploader selected by config.Type, wrapped with retries.
func New(config configuration.StorageConfig) (Uploader, error) {
	var uploader Uploader
	var err error
	switch config.Type {
	case configuration.StorageTypeS3:
		uploader, err = NewS3Uploader(config)
	case configuration.StorageTypeMinio:
		uploader, err = NewMinioUploader(config)
	case configuration.StorageTypeFilesystem:
		uploader, err = NewFilesystemUploader(config.Directory)
	default:
		err = errors.WithStack(&harvesterrors.ErrInvalidArgument{
			Name:    "storage.type",
			Value:   config.Type,
			Message: "must be one of s3, minio or filesystem",
		})
	}
	if err != nil {
		return nil, err
	}
	return WithRetries(uploader, config.UploadAttempts, config.UploadRetryDelay), nil
}
