package sticker

import (
	"fmt"
	"os"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// TextStyle selects a face for a text op.
type TextStyle struct {
	Size float64
	Bold bool
}

// FontSet holds parsed fonts. The Go fonts cover Latin text; Sinhala and
// Tamil quote lines need extra font files (e.g. Noto Sans Sinhala/Tamil),
// otherwise those glyphs render as boxes.
type FontSet struct {
	regular *opentype.Font
	bold    *opentype.Font
	sinhala *opentype.Font
	tamil   *opentype.Font
}

// FontPaths points at optional TTF/OTF files for non-Latin scripts.
type FontPaths struct {
	Sinhala string
	Tamil   string
}

func NewFontSet(paths FontPaths) (*FontSet, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse go regular: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse go bold: %w", err)
	}
	fs := &FontSet{regular: regular, bold: bold}
	if fs.sinhala, err = loadFontFile(paths.Sinhala); err != nil {
		return nil, err
	}
	if fs.tamil, err = loadFontFile(paths.Tamil); err != nil {
		return nil, err
	}
	return fs, nil
}

func loadFontFile(path string) (*opentype.Font, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return f, nil
}

func (fs *FontSet) fontFor(text string, style TextStyle) *opentype.Font {
	for _, r := range text {
		switch {
		case fs.sinhala != nil && unicode.Is(unicode.Sinhala, r):
			return fs.sinhala
		case fs.tamil != nil && unicode.Is(unicode.Tamil, r):
			return fs.tamil
		}
	}
	if style.Bold {
		return fs.bold
	}
	return fs.regular
}

type faceKey struct {
	font *opentype.Font
	size float64
}

// faceCache is per render; opentype faces are not safe for concurrent use.
type faceCache struct {
	fonts *FontSet
	faces map[faceKey]font.Face
}

func (fs *FontSet) newFaceCache() *faceCache {
	return &faceCache{fonts: fs, faces: map[faceKey]font.Face{}}
}

func (c *faceCache) face(text string, style TextStyle, scale float64) (font.Face, error) {
	key := faceKey{font: c.fonts.fontFor(text, style), size: style.Size * scale}
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(key.font, &opentype.FaceOptions{
		Size:    key.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}
	c.faces[key] = f
	return f, nil
}

// measure returns the logical width of text at style.
func (c *faceCache) measure(text string, style TextStyle) float64 {
	f, err := c.face(text, style, 1)
	if err != nil {
		return 0
	}
	return float64(font.MeasureString(f, text)) / 64
}

func (c *faceCache) close() {
	for _, f := range c.faces {
		_ = f.Close()
	}
}
