package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"

	"github.com/yungbote/sololev-backend/internal/data/repos"
	types "github.com/yungbote/sololev-backend/internal/domain"
	"github.com/yungbote/sololev-backend/internal/normalization"
	"github.com/yungbote/sololev-backend/internal/platform/dbctx"
	"github.com/yungbote/sololev-backend/internal/platform/logger"
	"github.com/yungbote/sololev-backend/internal/platform/storage"
)

const (
	avatarSize        = 512
	maxAvatarDownload = 5 << 20
)

var defaultAvatarColors = []color.NRGBA{
	{R: 0x3B, G: 0x82, B: 0xF6, A: 0xFF},
	{R: 0x63, G: 0x66, B: 0xF1, A: 0xFF},
	{R: 0x8B, G: 0x5C, B: 0xF6, A: 0xFF},
	{R: 0x0E, G: 0xA5, B: 0xE9, A: 0xFF},
	{R: 0x14, G: 0xB8, B: 0xA6, A: 0xFF},
	{R: 0xF5, G: 0x9E, B: 0x0B, A: 0xFF},
	{R: 0xEF, G: 0x44, B: 0x44, A: 0xFF},
	{R: 0x1F, G: 0x29, B: 0x37, A: 0xFF},
}

type AvatarService interface {
	// EnsureAvatar stores an avatar for user and persists the avatar columns.
	// The provider picture is mirrored when it downloads; otherwise an
	// initials avatar is rendered.
	EnsureAvatar(ctx context.Context, user *types.User, pictureURL string) error
	GenerateInitialsAvatar(user *types.User) (bytes.Buffer, error)
}

type AvatarConfig struct {
	// ColorsPath optionally points at a JSON array of {R,G,B,A} colours.
	ColorsPath string
	HTTPClient *http.Client
}

type avatarService struct {
	log        *logger.Logger
	userRepo   repos.UserRepo
	bucket     storage.Bucket
	httpClient *http.Client

	bgColors   []color.NRGBA
	colorByHex map[string]color.NRGBA

	fontFace font.Face
}

func NewAvatarService(log *logger.Logger, userRepo repos.UserRepo, bucket storage.Bucket, cfg AvatarConfig) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	bgColors := defaultAvatarColors
	if p := strings.TrimSpace(cfg.ColorsPath); p != "" {
		serviceLog.Info("Loading avatar colors...", "path", p)
		loaded, err := loadColorsFromFile(p)
		if err != nil {
			return nil, fmt.Errorf("could not load avatar colors: %w", err)
		}
		if len(loaded) == 0 {
			return nil, fmt.Errorf("avatar colors list is empty")
		}
		bgColors = loaded
	}
	colorByHex := make(map[string]color.NRGBA, len(bgColors))
	for _, c := range bgColors {
		colorByHex[nrgbaToHex(c)] = c
	}

	face, err := loadFontFace(gobold.TTF, 206)
	if err != nil {
		return nil, fmt.Errorf("could not load avatar font: %w", err)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if bucket == nil {
		bucket = storage.NewNoop()
	}

	return &avatarService{
		log:        serviceLog,
		userRepo:   userRepo,
		bucket:     bucket,
		httpClient: client,
		bgColors:   bgColors,
		colorByHex: colorByHex,
		fontFace:   face,
	}, nil
}

func (as *avatarService) EnsureAvatar(ctx context.Context, user *types.User, pictureURL string) error {
	if user == nil || user.ID == uuid.Nil {
		return fmt.Errorf("user required")
	}
	as.ensureUserAvatarColor(user)
	pictureURL = strings.TrimSpace(pictureURL)

	var img bytes.Buffer
	if pictureURL != "" {
		raw, err := as.download(ctx, pictureURL)
		if err == nil {
			img, err = processUploadedAvatar(raw, avatarSize)
		}
		if err != nil {
			as.log.Warn("Provider picture unusable; rendering initials", "error", err)
		}
	}
	if img.Len() == 0 {
		generated, err := as.GenerateInitialsAvatar(user)
		if err != nil {
			return err
		}
		img = generated
	}

	oldKey := strings.TrimSpace(user.AvatarBucketKey)
	// Versioned so CDNs never serve a stale object.
	newKey := fmt.Sprintf("user_avatar/%s/%d.png", user.ID.String(), time.Now().UnixNano())

	err := as.bucket.Upload(ctx, newKey, bytes.NewReader(img.Bytes()))
	switch {
	case errors.Is(err, storage.ErrDisabled):
		// Without storage the provider URL is the best we can do.
		user.AvatarURL = pictureURL
		user.AvatarBucketKey = ""
	case err != nil:
		return fmt.Errorf("failed to upload user avatar: %w", err)
	default:
		user.AvatarBucketKey = newKey
		user.AvatarURL = as.bucket.PublicURL(newKey)
	}

	if err := as.userRepo.UpdateAvatarFields(dbctx.Context{Ctx: ctx}, user.ID, user.AvatarBucketKey, user.AvatarURL, user.AvatarColor); err != nil {
		return fmt.Errorf("persist avatar fields: %w", err)
	}

	if oldKey != "" && oldKey != user.AvatarBucketKey {
		if err := as.bucket.Delete(ctx, oldKey); err != nil {
			as.log.Warn("failed to delete old avatar (ignored)", "oldKey", oldKey, "error", err)
		}
	}
	return nil
}

func (as *avatarService) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := as.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch picture: status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarDownload+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxAvatarDownload {
		return nil, fmt.Errorf("picture larger than %d bytes", maxAvatarDownload)
	}
	return raw, nil
}

func (as *avatarService) GenerateInitialsAvatar(user *types.User) (bytes.Buffer, error) {
	as.ensureUserAvatarColor(user)

	dc := gg.NewContext(avatarSize, avatarSize)
	dc.DrawCircle(float64(avatarSize)/2, float64(avatarSize)/2, float64(avatarSize)/2)
	dc.Clip()

	dc.SetColor(as.pickColor(user.AvatarColor))
	dc.DrawRectangle(0, 0, float64(avatarSize), float64(avatarSize))
	dc.Fill()

	initials := normalization.Initials(normalization.DisplayName(user.Name, user.Email))
	dc.SetFontFace(as.fontFace)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(initials, float64(avatarSize)/2, float64(avatarSize)/2, 0.5, 0.35)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// processUploadedAvatar center-crops raw to a square, scales it to size and
// clips it to a circle.
func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	b := img.Bounds()
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

func (as *avatarService) ensureUserAvatarColor(user *types.User) {
	if n := normalizeHex(user.AvatarColor); n != "" {
		if _, ok := as.colorByHex[n]; ok {
			user.AvatarColor = n
			return
		}
	}
	user.AvatarColor = nrgbaToHex(as.bgColors[rand.IntN(len(as.bgColors))])
}

func (as *avatarService) pickColor(hexStr string) color.NRGBA {
	if c, ok := as.colorByHex[normalizeHex(hexStr)]; ok {
		return c
	}
	return as.bgColors[0]
}

func normalizeHex(s string) string {
	s = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if len(s) != 6 {
		return ""
	}
	if _, err := hex.DecodeString(s); err != nil {
		return ""
	}
	return "#" + s
}

func nrgbaToHex(c color.NRGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func loadColorsFromFile(jsonPath string) ([]color.NRGBA, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read file error: %w", err)
	}
	var colors []color.NRGBA
	if err := json.Unmarshal(data, &colors); err != nil {
		return nil, fmt.Errorf("json unmarshal error: %w", err)
	}
	return colors, nil
}

func loadFontFace(ttf []byte, size float64) (font.Face, error) {
	parsedFont, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
