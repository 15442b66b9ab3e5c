package storage

import (
	"context"
	"fmt"

	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

// New builds the bucket selected by cfg.Mode.
func New(ctx context.Context, log *logger.Logger, cfg Config) (Bucket, error) {
	switch cfg.Mode {
	case ModeNone:
		return NewNoop(), nil
	case ModeLocal, "":
		return NewLocalBucket(log, cfg)
	case ModeGCS:
		return NewGCSBucket(ctx, log, cfg)
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Mode)
	}
}
