package staging

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/repository"
	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

const (
	ModePresigned = "presigned"
	ModeS3        = "s3"
)

// NewStagingRepository escolhe o adaptador de staging conforme cfg.Mode.
func NewStagingRepository(ctx context.Context, cfg types.StagingConfig, timeout time.Duration, log zerolog.Logger) (repository.StagingRepository, error) {
	switch cfg.Mode {
	case "", ModePresigned:
		return NewPresignedStagingRepository(timeout, log), nil
	case ModeS3:
		return NewS3StagingRepository(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown staging mode %q (expected %q or %q)", cfg.Mode, ModePresigned, ModeS3)
	}
}
