package storage

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"

	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

// S3Uploader uploads to AWS S3 or any S3 compatible store reachable at config.Endpoint.
type S3Uploader struct {
	bucket   string
	uploader *s3manager.Uploader
}

func NewS3Uploader(config configuration.StorageConfig) (*S3Uploader, error) {
	awsConfig := &aws.Config{
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(config.ForcePathStyle),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.DisableSSL = aws.Bool(!config.UseSSL)
	}
	// Without static keys the default chain applies: environment, shared config, instance role.
	if config.AccessKey != "" || config.SecretKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, "error creating aws session")
	}
	return &S3Uploader{
		bucket:   config.Bucket,
		uploader: s3manager.NewUploader(sess),
	}, nil
}

func (u *S3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	output, err := u.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "error uploading s3://%s/%s", u.bucket, key)
	}
	return output.Location, nil
}
