package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/smartwaste/bin-registry/internal/utils/sticker"
	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/smartwaste/bin-registry/shared/go-repositories"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

// StickerCache stores encoded sticker images. Implementations report a miss
// with ok=false and a nil error.
type StickerCache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

type noopStickerCache struct{}

func (noopStickerCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (noopStickerCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

type StickerRequest struct {
	Format     sticker.Format
	HD         bool
	Label      string
	HideQuotes bool
}

// StickerArtifact is an encoded sticker ready for download or attachment.
type StickerArtifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

type StickerService struct {
	repo       repositories.BinRepository
	compositor *sticker.Compositor
	glyphs     sticker.QRGlyphRenderer
	cache      StickerCache
	ttl        time.Duration
}

// NewStickerService wires rendering. cache may be nil.
func NewStickerService(
	repo repositories.BinRepository,
	compositor *sticker.Compositor,
	glyphs sticker.QRGlyphRenderer,
	cache StickerCache,
	ttl time.Duration,
) *StickerService {
	if cache == nil {
		cache = noopStickerCache{}
	}
	return &StickerService{repo: repo, compositor: compositor, glyphs: glyphs, cache: cache, ttl: ttl}
}

// RenderByBinID loads the bin and renders its sticker.
func (s *StickerService) RenderByBinID(ctx context.Context, binID string, req StickerRequest) (*StickerArtifact, error) {
	b, err := s.repo.GetByBinID(ctx, binID)
	if err != nil {
		return nil, mapStoreErr("get", err)
	}
	if b == nil {
		return nil, utils.ErrBinNotFound
	}
	return s.Render(ctx, b, req)
}

// Render draws the sticker for a bin snapshot, serving a cached copy when
// the bin and options are unchanged.
func (s *StickerService) Render(ctx context.Context, b *models.Bin, req StickerRequest) (*StickerArtifact, error) {
	if req.Format == "" {
		req.Format = sticker.FormatPNG
	}
	artifact := &StickerArtifact{
		Filename:    sticker.Filename(b, req.Format),
		ContentType: req.Format.ContentType(),
	}

	key := stickerCacheKey(b, req)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		utils.Logger.WithError(err).WithField("bin_id", b.BinID).Warn("[Sticker] cache read failed")
	} else if ok {
		stickerRendersTotal.WithLabelValues(string(req.Format), "hit").Inc()
		artifact.Data = data
		return artifact, nil
	}

	scale := 1
	if req.HD {
		scale = sticker.HDScale
	}
	if b.QRPayload == "" {
		return nil, &sticker.RenderError{Reason: "bin has no QR payload", Err: sticker.ErrQRGlyphMissing}
	}
	theme := sticker.ThemeFor(b.BinType)
	glyph, err := s.glyphs.Glyph(b.QRPayload, sticker.QRSize*scale, theme.Color)
	if err != nil {
		return nil, &sticker.RenderError{Reason: "qr glyph not rendered", Err: fmt.Errorf("%w: %v", sticker.ErrQRGlyphMissing, err)}
	}

	img, err := s.compositor.Render(ctx, b, glyph, sticker.Options{
		Scale:      scale,
		Label:      req.Label,
		HideQuotes: req.HideQuotes,
	})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := sticker.Export(&buf, img, req.Format); err != nil {
		return nil, &sticker.RenderError{Reason: "encode " + string(req.Format), Err: err}
	}
	artifact.Data = buf.Bytes()
	stickerRendersTotal.WithLabelValues(string(req.Format), "miss").Inc()

	if err := s.cache.Set(ctx, key, artifact.Data, s.ttl); err != nil {
		utils.Logger.WithError(err).WithField("bin_id", b.BinID).Warn("[Sticker] cache write failed")
	}
	return artifact, nil
}

func stickerCacheKey(b *models.Bin, req StickerRequest) string {
	parts := []string{
		b.BinID,
		b.QRPayload,
		b.ResidentName,
		b.OwnerName,
		string(b.ResidentType),
		string(b.CollectionFrequency),
		b.Location,
		string(req.Format),
		fmt.Sprintf("hd=%t", req.HD),
		"label=" + req.Label,
		fmt.Sprintf("quotes=%t", !req.HideQuotes),
		fmt.Sprintf("v=%d", b.RowVersion),
		b.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
