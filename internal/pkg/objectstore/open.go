package objectstore

import (
	"context"
	"fmt"

	"github.com/tablecast/signage/internal/config"
	"github.com/tablecast/signage/internal/pkg/resilience"
	"go.uber.org/zap"
)

// Open builds the driver selected by cfg and wraps it with policy.
func Open(ctx context.Context, cfg config.StorageConfig, policy *resilience.Policy, logger *zap.Logger) (Gateway, error) {
	var (
		driver Gateway
		err    error
	)
	switch cfg.Driver {
	case config.StorageS3, "":
		driver, err = NewS3(ctx, S3Options{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UsePathStyle:    cfg.UsePathStyle,
		}, logger)
	case config.StorageGCS:
		driver, err = NewGCS(ctx, GCSOptions{Bucket: cfg.Bucket, Credentials: cfg.CredentialsFile}, logger)
	case config.StorageMemory:
		driver = NewMemory(cfg.Bucket)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return WithResilience(driver, policy, cfg.OpTimeout), nil
}
