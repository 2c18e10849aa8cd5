package publish

import (
	"context"

	"github.com/angelmondragon/sales-analytics/pkg/config"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/storage/gcs"
	"github.com/angelmondragon/sales-analytics/pkg/storage/s3"
)

// FromConfig builds a Publisher with a sink for every configured bucket.
func FromConfig(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Publisher, error) {
	var sinks []Sink
	if cfg.GCS.Enabled() {
		client, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "init gcs sink")
		}
		sinks = append(sinks, client)
	}
	if cfg.S3.Enabled() {
		client, err := s3.NewClient(ctx, cfg.S3, logg)
		if err != nil {
			closeAll(sinks)
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "init s3 sink")
		}
		sinks = append(sinks, client)
	}
	return New(logg, sinks...), nil
}

func closeAll(sinks []Sink) {
	for _, s := range sinks {
		_ = s.Close()
	}
}
