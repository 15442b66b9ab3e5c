package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/sololev-backend/internal/platform/logger"
)

type gcsBucket struct {
	log       *logger.Logger
	client    *gcs.Client
	name      string
	cdnDomain string
	emulator  string
}

func NewGCSBucket(ctx context.Context, log *logger.Logger, cfg Config) (Bucket, error) {
	name := strings.TrimSpace(cfg.BucketName)
	if name == "" {
		return nil, fmt.Errorf("missing AVATAR_BUCKET")
	}
	emulator := strings.TrimRight(strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")), "/")

	var opts []option.ClientOption
	if emulator != "" {
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts, clientOptions(cfg.Credentials)...)
		opts = append(opts, option.WithScopes(gcs.ScopeReadWrite))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	serviceLog := log.With("service", "GCSBucket")
	serviceLog.Info("Object storage initialized", "bucket", name, "cdn_domain", cfg.CDNDomain, "emulator_host", emulator)
	return &gcsBucket{
		log:       serviceLog,
		client:    client,
		name:      name,
		cdnDomain: strings.TrimSpace(cfg.CDNDomain),
		emulator:  emulator,
	}, nil
}

func clientOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (b *gcsBucket) Upload(ctx context.Context, key string, r io.Reader) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := b.client.Bucket(b.name).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close object writer %q: %w", key, err)
	}
	return nil
}

func (b *gcsBucket) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := b.client.Bucket(b.name).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("delete object %q in bucket %q: %w", key, b.name, err)
	}
	return nil
}

func (b *gcsBucket) PublicURL(key string) string {
	return gcsPublicURL(b.name, b.cdnDomain, b.emulator, key)
}

func gcsPublicURL(bucket, cdnDomain, emulator, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	switch {
	case cdnDomain != "":
		return fmt.Sprintf("https://%s/%s", cdnDomain, key)
	case emulator != "":
		return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", emulator, url.PathEscape(bucket), url.PathEscape(key))
	default:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
	}
}
