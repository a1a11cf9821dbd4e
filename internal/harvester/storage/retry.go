package storage

import (
	"context"
	"time"

	"github.com/avast/retry-go"
	log "github.com/sirupsen/logrus"
)

type retryingUploader struct {
	uploader Uploader
	attempts uint
	delay    time.Duration
}

// WithRetries retries failed uploads up to attempts times in total, backing off exponentially from delay.
func WithRetries(uploader Uploader, attempts uint, delay time.Duration) Uploader {
	if attempts <= 1 {
		return uploader
	}
	return &retryingUploader{
		uploader: uploader,
		attempts: attempts,
		delay:    delay,
	}
}

func (r *retryingUploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	var location string
	err := retry.Do(
		func() error {
			var err error
			location, err = r.uploader.Upload(ctx, key, body, contentType)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.WithField("key", key).WithError(err).Warnf("Upload attempt %d of %d failed", n+1, r.attempts)
		}),
	)
	return location, err
}
