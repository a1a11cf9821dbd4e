package promql

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	log "github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/hipstershop/k6-harvester/internal/harvester/configuration"
)

// Client runs instant queries against Prometheus and purges its TSDB through the admin API.
// The admin API must be enabled on the server (--web.enable-admin-api) for Clean to work.
type Client struct {
	api          v1.API
	queryTimeout time.Duration
	clock        clock.PassiveClock
}

func NewClient(config configuration.PrometheusConfig) (*Client, error) {
	client, err := api.NewClient(api.Config{Address: config.Url})
	if err != nil {
		return nil, errors.Wrapf(err, "error creating prometheus client for %s", config.Url)
	}
	return &Client{
		api:          v1.NewAPI(client),
		queryTimeout: config.QueryTimeout,
		clock:        clock.RealClock{},
	}, nil
}

// Query evaluates query at the current time.
func (c *Client) Query(ctx context.Context, query string) (model.Value, error) {
	if c.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}
	value, warnings, err := c.api.Query(ctx, query, c.clock.Now())
	for _, warning := range warnings {
		log.WithField("query", query).Warnf("prometheus warning: %s", warning)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error running query %s", query)
	}
	return value, nil
}

// DeleteSeries marks every sample of the series selected by matchers as deleted, from the
// beginning of time until now.
func (c *Client) DeleteSeries(ctx context.Context, matchers []string) error {
	if err := c.api.DeleteSeries(ctx, matchers, time.Unix(0, 0), c.clock.Now()); err != nil {
		return errors.Wrapf(err, "error deleting series %v", matchers)
	}
	return nil
}

// CleanTombstones removes the data marked as deleted from disk.
func (c *Client) CleanTombstones(ctx context.Context) error {
	if err := c.api.CleanTombstones(ctx); err != nil {
		return errors.Wrap(err, "error cleaning tombstones")
	}
	return nil
}

// Clean deletes the series selected by matchers and then cleans the resulting tombstones.
func (c *Client) Clean(ctx context.Context, matchers []string) error {
	if err := c.DeleteSeries(ctx, matchers); err != nil {
		return err
	}
	log.Infof("Deleted prometheus series %v", matchers)
	if err := c.CleanTombstones(ctx); err != nil {
		return err
	}
	log.Info("Cleaned prometheus tombstones")
	return nil
}
