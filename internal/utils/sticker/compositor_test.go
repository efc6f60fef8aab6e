package sticker

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/smartwaste/bin-registry/shared/go-models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLogo struct {
	img   image.Image
	err   error
	delay time.Duration
}

func (s stubLogo) Load(ctx context.Context) (image.Image, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.img, s.err
}

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func newTestCompositor(t *testing.T, logo LogoLoader, timeout time.Duration) *Compositor {
	fonts, err := NewFontSet(FontPaths{})
	require.NoError(t, err)
	return NewCompositor(fonts, logo, timeout)
}

func TestCompositor_MissingGlyphFailsFast(t *testing.T) {
	c := newTestCompositor(t, nil, 0)
	_, err := c.Render(context.Background(), sampleBin(), nil, Options{})
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.ErrorIs(t, err, ErrQRGlyphMissing)
}

func TestCompositor_RenderSizes(t *testing.T) {
	c := newTestCompositor(t, nil, 0)
	glyph, err := SkipQRRenderer{}.Glyph("SMARTWASTE:BIN-1:general:1.000000:2.000000", QRSize, ThemeFor(models.BinTypeGeneral).Color)
	require.NoError(t, err)

	img, err := c.Render(context.Background(), sampleBin(), glyph, Options{})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(400, 280), img.Bounds().Size())

	hd, err := c.Render(context.Background(), sampleBin(), glyph, Options{Scale: HDScale})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(800, 560), hd.Bounds().Size())
}

func TestCompositor_DrawsHeaderAndQR(t *testing.T) {
	c := newTestCompositor(t, nil, 0)
	red := color.RGBA{R: 255, A: 255}
	img, err := c.Render(context.Background(), sampleBin(), solid(QRSize, QRSize, red), Options{HideQuotes: true})
	require.NoError(t, err)

	theme := ThemeFor(models.BinTypeRecyclable).Color
	assertPixel(t, img, 5, 5, theme)          // header band corner
	assertPixel(t, img, 95, 155, red)         // centre of the QR box
	assertPixel(t, img, 395, 275, colorWhite) // background corner
}

func TestCompositor_LogoDrawnWhenLoaded(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	c := newTestCompositor(t, stubLogo{img: solid(10, 10, blue)}, time.Second)
	img, err := c.Render(context.Background(), sampleBin(), solid(QRSize, QRSize, color.Black), Options{})
	require.NoError(t, err)
	assertPixel(t, img, 365, 30, blue)
}

func TestCompositor_LogoTimeoutRendersWithout(t *testing.T) {
	blue := color.RGBA{B: 255, A: 255}
	c := newTestCompositor(t, stubLogo{img: solid(10, 10, blue), delay: time.Second}, 20*time.Millisecond)
	img, err := c.Render(context.Background(), sampleBin(), solid(QRSize, QRSize, color.Black), Options{})
	require.NoError(t, err)
	assertPixel(t, img, 365, 30, ThemeFor(models.BinTypeRecyclable).Color)
}

func TestCompositor_LogoErrorRendersWithout(t *testing.T) {
	c := newTestCompositor(t, stubLogo{err: errors.New("404")}, time.Second)
	_, err := c.Render(context.Background(), sampleBin(), solid(QRSize, QRSize, color.Black), Options{})
	require.NoError(t, err)
}

func TestExportAndFilename(t *testing.T) {
	b := sampleBin()
	assert.Equal(t, "recyclable-Sticker-BIN-LQ3Z0K-A7F.png", Filename(b, FormatPNG))
	assert.Equal(t, "recyclable-Sticker-BIN-LQ3Z0K-A7F.jpg", Filename(b, FormatJPEG))
	b.BinType = ""
	assert.Equal(t, "bin-Sticker-BIN-LQ3Z0K-A7F.png", Filename(b, ""))

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, solid(4, 4, color.White), FormatPNG))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(4, 4), decoded.Bounds().Size())

	buf.Reset()
	require.NoError(t, Export(&buf, solid(4, 4, color.White), FormatJPEG))
	assert.Equal(t, []byte{0xFF, 0xD8}, buf.Bytes()[:2])
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPNG, "PNG": FormatPNG, "jpeg": FormatJPEG, "jpg": FormatJPEG} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("gif")
	assert.Error(t, err)
	assert.Equal(t, "image/jpeg", FormatJPEG.ContentType())
}

func TestSkipQRRenderer_EmptyPayload(t *testing.T) {
	_, err := SkipQRRenderer{}.Glyph("", QRSize, color.Black)
	assert.Error(t, err)
}

func assertPixel(t *testing.T, img image.Image, x, y int, want color.Color) {
	t.Helper()
	r, g, b, a := img.At(x, y).RGBA()
	wr, wg, wb, wa := want.RGBA()
	assert.Equal(t, [4]uint32{wr >> 8, wg >> 8, wb >> 8, wa >> 8}, [4]uint32{r >> 8, g >> 8, b >> 8, a >> 8}, "pixel (%d,%d)", x, y)
}
