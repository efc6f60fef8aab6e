package sticker

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"
)

// Backend rasterizes a Layout.
type Backend interface {
	Draw(l Layout, images map[ImageSlot]image.Image, scale int) (image.Image, error)
}

// GGBackend draws with fogleman/gg. Shapes and images go through a context
// scaled by Scale; text is rasterized at device resolution so HD output
// stays sharp.
type GGBackend struct {
	fonts *FontSet
}

func NewGGBackend(fonts *FontSet) *GGBackend {
	return &GGBackend{fonts: fonts}
}

func (b *GGBackend) Draw(l Layout, images map[ImageSlot]image.Image, scale int) (image.Image, error) {
	if scale <= 0 {
		scale = 1
	}
	s := float64(scale)
	dc := gg.NewContext(l.Width*scale, l.Height*scale)
	dc.Scale(s, s)

	faces := b.fonts.newFaceCache()
	defer faces.close()

	for i, op := range l.Ops {
		switch op.Kind {
		case OpFillRect:
			dc.SetColor(op.Fill)
			dc.DrawRectangle(op.X, op.Y, op.W, op.H)
			dc.Fill()

		case OpImage:
			img := images[op.Slot]
			if img == nil {
				continue
			}
			drawImageInBox(dc, img, op.X, op.Y, op.W, op.H)

		case OpText:
			face, err := faces.face(op.Text, op.Style, s)
			if err != nil {
				return nil, fmt.Errorf("op %d: %w", i, err)
			}
			ax := 0.0
			if op.Anchor == AnchorCenter {
				ax = 0.5
			}
			dc.Push()
			dc.Identity()
			dc.SetFontFace(face)
			dc.SetColor(op.Fill)
			dc.DrawStringAnchored(op.Text, op.X*s, op.Y*s, ax, 0)
			dc.Pop()
		}
	}
	return dc.Image(), nil
}

func drawImageInBox(dc *gg.Context, img image.Image, x, y, w, h float64) {
	size := img.Bounds().Size()
	if size.X == 0 || size.Y == 0 {
		return
	}
	dc.Push()
	dc.Translate(x, y)
	dc.Scale(w/float64(size.X), h/float64(size.Y))
	dc.DrawImage(img, -img.Bounds().Min.X, -img.Bounds().Min.Y)
	dc.Pop()
}
