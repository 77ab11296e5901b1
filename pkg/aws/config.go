package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/logger"
)

// LoadAWSConfig loads the default SDK config. AWS_ENDPOINT, when set, points
// every client at a single endpoint (LocalStack in development).
func LoadAWSConfig(ctx context.Context, log *zap.Logger) (sdkaws.Config, error) {
	log = logger.OrNop(log)

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}

	if endpoint := os.Getenv("AWS_ENDPOINT"); endpoint != "" {
		cfg.BaseEndpoint = sdkaws.String(endpoint)
		log.Info("AWS custom endpoint configured",
			zap.String("endpoint", endpoint),
			zap.String("region", cfg.Region),
		)
	}

	return cfg, nil
}
