package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

type Mode string

const (
	ModeNone  Mode = "none"
	ModeLocal Mode = "local"
	ModeGCS   Mode = "gcs"
)

var ErrDisabled = errors.New("object storage disabled")

// Bucket stores avatar objects under caller-chosen keys.
type Bucket interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

type Config struct {
	Mode Mode
	// GCS
	BucketName  string
	CDNDomain   string
	Credentials string
	// Local
	LocalDir      string
	PublicBaseURL string
}

func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return ModeLocal, nil
	case ModeNone, ModeLocal, ModeGCS:
		return m, nil
	default:
		return "", fmt.Errorf("unknown storage mode %q (want none|local|gcs)", raw)
	}
}

type noopBucket struct{}

// NewNoop returns a bucket that rejects uploads.
func NewNoop() Bucket { return noopBucket{} }

func (noopBucket) Upload(context.Context, string, io.Reader) error { return ErrDisabled }
func (noopBucket) Delete(context.Context, string) error             { return nil }
func (noopBucket) PublicURL(string) string                          { return "" }

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	default:
		return ""
	}
}

func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("empty object key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("invalid object key %q", key)
		}
	}
	return key, nil
}
