package sticker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"time"

	"github.com/smartwaste/bin-registry/shared/go-models"
	shared "github.com/smartwaste/bin-registry/shared/go-utils"
)

// RenderError reports a sticker that cannot be drawn as requested.
type RenderError struct {
	Reason string
	Err    error
}

func (e *RenderError) Error() string {
	if e.Err != nil {
		return "sticker render: " + e.Reason + ": " + e.Err.Error()
	}
	return "sticker render: " + e.Reason
}

func (e *RenderError) Unwrap() error { return e.Err }

var ErrQRGlyphMissing = errors.New("qr_glyph_missing")

// LogoLoader fetches the organisation logo. It may be slow or fail; the
// compositor waits at most LogoTimeout and then renders without it.
type LogoLoader interface {
	Load(ctx context.Context) (image.Image, error)
}

type Compositor struct {
	fonts       *FontSet
	backend     Backend
	logo        LogoLoader
	logoTimeout time.Duration
}

const DefaultLogoTimeout = 2 * time.Second

// NewCompositor wires a gg backend over fonts. logo may be nil.
func NewCompositor(fonts *FontSet, logo LogoLoader, logoTimeout time.Duration) *Compositor {
	if logoTimeout <= 0 {
		logoTimeout = DefaultLogoTimeout
	}
	return &Compositor{fonts: fonts, backend: NewGGBackend(fonts), logo: logo, logoTimeout: logoTimeout}
}

// Render composes the sticker for bin around an already rendered QR glyph.
// A nil glyph fails immediately rather than drawing an empty box.
func (c *Compositor) Render(ctx context.Context, bin *models.Bin, qrGlyph image.Image, opts Options) (image.Image, error) {
	if bin == nil {
		return nil, &RenderError{Reason: "bin is nil"}
	}
	if qrGlyph == nil {
		return nil, &RenderError{Reason: "qr glyph not rendered", Err: ErrQRGlyphMissing}
	}
	opts = opts.normalized()

	var logoF *shared.Future[image.Image]
	if c.logo != nil {
		logoF = shared.Go(ctx, c.logo.Load)
	}

	measureCache := c.fonts.newFaceCache()
	defer measureCache.close()

	images := map[ImageSlot]image.Image{SlotQR: qrGlyph}
	if logoF != nil {
		logo, err := logoF.Await(ctx, c.logoTimeout)
		if err != nil {
			shared.Logger.WithError(err).WithField("bin_id", bin.BinID).Warn("[Sticker] logo unavailable, rendering without it")
		} else if logo != nil {
			images[SlotLogo] = logo
		}
	}

	layout := BuildLayout(bin, opts, images[SlotLogo] != nil, measureCache.measure)
	img, err := c.backend.Draw(layout, images, opts.Scale)
	if err != nil {
		return nil, &RenderError{Reason: "rasterize", Err: err}
	}
	return img, nil
}

/*──────────────────────────────────────────────────────────────────────────────
  Export
──────────────────────────────────────────────────────────────────────────────*/

type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
)

// ParseFormat accepts png, jpg and jpeg; empty means png.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	default:
		return "", fmt.Errorf("unsupported sticker format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Export encodes img in format f.
func Export(w io.Writer, img image.Image, f Format) error {
	if f == FormatJPEG {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 92})
	}
	return png.Encode(w, img)
}

// Filename is <binType>-Sticker-<binId>.<ext>, with "bin" for a missing type.
func Filename(bin *models.Bin, f Format) string {
	if f == "" {
		f = FormatPNG
	}
	prefix := shared.FirstNonEmpty(string(bin.BinType), "bin")
	return prefix + "-Sticker-" + bin.BinID + "." + string(f)
}
