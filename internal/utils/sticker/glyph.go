package sticker

import (
	"fmt"
	"image"
	"image/color"

	qrcode "github.com/skip2/go-qrcode"
)

// QRGlyphRenderer turns a payload into a square bitmap.
type QRGlyphRenderer interface {
	Glyph(payload string, sizePx int, fg color.Color) (image.Image, error)
}

// SkipQRRenderer uses skip2/go-qrcode at the highest recovery level.
type SkipQRRenderer struct{}

func (SkipQRRenderer) Glyph(payload string, sizePx int, fg color.Color) (image.Image, error) {
	q, err := qrcode.New(payload, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	q.ForegroundColor = fg
	q.BackgroundColor = color.White
	q.DisableBorder = true
	return q.Image(sizePx), nil
}
