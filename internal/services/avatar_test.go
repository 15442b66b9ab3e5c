package services

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/sololev-backend/internal/data/repos/testutil"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/storage"
)

func pictureServer(t *testing.T) *httptest.Server {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/photo.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAvatarServiceMirrorsProviderPicture(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()
	bucket, err := storage.NewLocalBucket(testutil.Logger(t), storage.Config{LocalDir: dir, PublicBaseURL: "http://api.test"})
	require.NoError(t, err)
	svc, err := NewAvatarService(testutil.Logger(t), env.users, bucket, AvatarConfig{})
	require.NoError(t, err)

	srv := pictureServer(t)
	u := testutil.SeedUser(t, ctx, env.db, "")
	require.NoError(t, svc.EnsureAvatar(ctx, u, srv.URL+"/photo.png"))

	assert.True(t, strings.HasPrefix(u.AvatarBucketKey, "user_avatar/"+u.ID.String()+"/"))
	assert.Equal(t, "http://api.test/media/"+u.AvatarBucketKey, u.AvatarURL)
	raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(u.AvatarBucketKey)))
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, avatarSize, decoded.Bounds().Dx())

	stored, err := env.users.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{u.ID})
	require.NoError(t, err)
	assert.Equal(t, u.AvatarURL, stored[0].AvatarURL)
	assert.Equal(t, u.AvatarColor, stored[0].AvatarColor)

	// A second run replaces the object and removes the old one.
	oldKey := u.AvatarBucketKey
	require.NoError(t, svc.EnsureAvatar(ctx, u, srv.URL+"/missing.png"))
	assert.NotEqual(t, oldKey, u.AvatarBucketKey)
	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(oldKey)))
	assert.True(t, os.IsNotExist(err))
}

func TestAvatarServiceWithoutStorageKeepsProviderURL(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc, err := NewAvatarService(testutil.Logger(t), env.users, storage.NewNoop(), AvatarConfig{})
	require.NoError(t, err)

	u := testutil.SeedUser(t, ctx, env.db, "")
	require.NoError(t, svc.EnsureAvatar(ctx, u, "https://lh3.example.com/a.jpg"))
	assert.Equal(t, "https://lh3.example.com/a.jpg", u.AvatarURL)
	assert.Empty(t, u.AvatarBucketKey)
	assert.NotEmpty(t, u.AvatarColor)
}

func TestGenerateInitialsAvatar(t *testing.T) {
	env := newTestEnv(t)
	svc, err := NewAvatarService(testutil.Logger(t), env.users, nil, AvatarConfig{})
	require.NoError(t, err)

	u := testutil.SeedUser(t, context.Background(), env.db, "")
	u.AvatarColor = "3b82f6"
	buf, err := svc.GenerateInitialsAvatar(u)
	require.NoError(t, err)
	assert.Equal(t, "#3B82F6", u.AvatarColor)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, avatarSize, avatarSize), img.Bounds())
}
