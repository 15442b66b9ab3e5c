package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/platform/storage"
)

var newBucket = storage.New

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode   StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorConnectFailed StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code  StorageProviderBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "avatar storage bootstrap failed"
	}
	return fmt.Sprintf("avatar storage bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveBucket builds the avatar bucket. In development a GCS failure falls
// back to no storage so sign-in keeps working with provider picture URLs.
func resolveBucket(ctx context.Context, log *logger.Logger, cfg Config) (storage.Bucket, error) {
	storageCfg, err := cfg.storageConfig()
	if err != nil {
		bootErr := &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorInvalidMode, Mode: cfg.Storage.Mode, Cause: err}
		log.Error("Avatar storage selection failed", "mode", cfg.Storage.Mode, "error_code", bootErr.Code, "error", err)
		return nil, bootErr
	}
	if storageCfg.Mode == storage.ModeGCS && storageCfg.BucketName == "" {
		return nil, &StorageProviderBootstrapError{
			Code:  StorageProviderBootstrapErrorMissingBucket,
			Mode:  string(storageCfg.Mode),
			Cause: errors.New("AVATAR_BUCKET is empty"),
		}
	}

	log.Info("Selecting avatar storage", "mode", storageCfg.Mode, "bucket", storageCfg.BucketName, "local_dir", storageCfg.LocalDir)
	bucket, err := newBucket(ctx, log, storageCfg)
	if err == nil {
		return bucket, nil
	}
	bootErr := &StorageProviderBootstrapError{Code: StorageProviderBootstrapErrorConnectFailed, Mode: string(storageCfg.Mode), Cause: err}
	if cfg.IsProduction() {
		log.Error("Avatar storage bootstrap failed", "mode", storageCfg.Mode, "error_code", bootErr.Code, "error", err)
		return nil, bootErr
	}
	log.Warn("Avatar storage unavailable; avatars disabled", "mode", storageCfg.Mode, "error", bootErr)
	return storage.NewNoop(), nil
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return StorageProviderBootstrapErrorConnectFailed
}
