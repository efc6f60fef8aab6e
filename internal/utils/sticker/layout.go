package sticker

import (
	"image/color"

	"github.com/smartwaste/bin-registry/shared/go-models"
	shared "github.com/smartwaste/bin-registry/shared/go-utils"
)

// Logical layout constants. Every position is in unscaled pixels.
const (
	DefaultWidth  = 400
	DefaultHeight = 280
	HDScale       = 2

	headerHeight   = 60
	headerBaseline = 38
	headerFontSize = 20

	logoSize  = 40
	logoInset = 15
	logoTop   = 10

	qrX    = 30
	qrY    = 90
	QRSize = 130

	fieldX          = 180
	fieldMarginLeft = 200
	binIDBaseline   = 110
	binIDFontSize   = 16
	fieldBaseline   = 135
	fieldFontSize   = 14
	fieldSpacing    = 25
	wrapLineHeight  = 16

	maxQuotes        = 3
	quoteFontSize    = 12
	quoteBottomInset = 48
	quoteLineGap     = 14

	footerFontSize    = 12
	footerBottomInset = 12
)

// Quote is one short line printed near the bottom of the sticker.
type Quote struct {
	Icon string `json:"icon"`
	Text string `json:"text"`
}

// DefaultQuotes are shown in English, Sinhala and Tamil.
var DefaultQuotes = []Quote{
	{Icon: "•", Text: "Keep your city clean"},
	{Icon: "•", Text: "ඔබේ නගරය පිරිසිදුව තබා ගන්න"},
	{Icon: "•", Text: "உங்கள் நகரத்தை சுத்தமாக வைத்திருங்கள்"},
}

// Options tune a single render. The zero value yields the standard
// 400x280 sticker with default quotes and footer.
type Options struct {
	Width  int
	Height int
	// Scale multiplies the output resolution only; the layout is unchanged.
	Scale      int
	Label      string
	Theme      *Theme
	HideQuotes bool
	Quotes     []Quote
	Footer     string
}

func (o Options) normalized() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Footer == "" {
		o.Footer = shared.DefaultStickerFooter
	}
	return o
}

/*──────────────────────────────────────────────────────────────────────────────
  Draw list
──────────────────────────────────────────────────────────────────────────────*/

type OpKind int

const (
	OpFillRect OpKind = iota
	OpText
	OpImage
)

type Anchor int

const (
	AnchorLeft Anchor = iota
	AnchorCenter
)

// ImageSlot names an image supplied at render time.
type ImageSlot int

const (
	SlotQR ImageSlot = iota
	SlotLogo
)

// DrawOp is one primitive. For text ops (X,Y) is the baseline anchor.
type DrawOp struct {
	Kind   OpKind
	X, Y   float64
	W, H   float64
	Fill   color.Color
	Text   string
	Style  TextStyle
	Anchor Anchor
	Slot   ImageSlot
}

// Layout is an ordered draw list over a logical canvas.
type Layout struct {
	Width, Height int
	Ops           []DrawOp
}

// TextMeasurer reports the logical width of text in a style.
type TextMeasurer func(text string, style TextStyle) float64

// BuildLayout lays out the sticker for bin. withLogo reserves the logo slot.
func BuildLayout(bin *models.Bin, opts Options, withLogo bool, measure TextMeasurer) Layout {
	opts = opts.normalized()
	w, h := float64(opts.Width), float64(opts.Height)

	theme := ThemeFor(bin.BinType)
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	label := shared.FirstNonEmpty(opts.Label, theme.Label)

	l := Layout{Width: opts.Width, Height: opts.Height}
	add := func(op DrawOp) { l.Ops = append(l.Ops, op) }

	// background and header band
	add(DrawOp{Kind: OpFillRect, W: w, H: h, Fill: colorWhite})
	add(DrawOp{Kind: OpFillRect, W: w, H: headerHeight, Fill: theme.Color})
	add(DrawOp{
		Kind: OpText, X: w / 2, Y: headerBaseline, Text: label, Fill: colorWhite,
		Style: TextStyle{Size: headerFontSize, Bold: true}, Anchor: AnchorCenter,
	})

	if withLogo {
		add(DrawOp{Kind: OpImage, Slot: SlotLogo, X: w - logoSize - logoInset, Y: logoTop, W: logoSize, H: logoSize})
	}

	add(DrawOp{Kind: OpImage, Slot: SlotQR, X: qrX, Y: qrY, W: QRSize, H: QRSize})

	// fields
	add(DrawOp{
		Kind: OpText, X: fieldX, Y: binIDBaseline, Text: "Bin ID: " + bin.BinID, Fill: colorText,
		Style: TextStyle{Size: binIDFontSize, Bold: true},
	})

	fieldStyle := TextStyle{Size: fieldFontSize}
	maxWidth := w - fieldMarginLeft
	y := float64(fieldBaseline)
	for _, line := range fieldLines(bin) {
		wrapped := WrapText(line, maxWidth, func(s string) float64 { return measure(s, fieldStyle) })
		for i, part := range wrapped {
			add(DrawOp{
				Kind: OpText, X: fieldX, Y: y + float64(i*wrapLineHeight), Text: part,
				Fill: colorText, Style: fieldStyle,
			})
		}
		y += fieldSpacing + float64((len(wrapped)-1)*wrapLineHeight)
	}

	if !opts.HideQuotes {
		quotes := opts.Quotes
		if len(quotes) == 0 {
			quotes = DefaultQuotes
		}
		if len(quotes) > maxQuotes {
			quotes = quotes[:maxQuotes]
		}
		for i, q := range quotes {
			text := q.Text
			if q.Icon != "" {
				text = q.Icon + "  " + q.Text
			}
			add(DrawOp{
				Kind: OpText, X: w / 2, Y: h - quoteBottomInset + float64(i*quoteLineGap), Text: text,
				Fill: colorQuote, Style: TextStyle{Size: quoteFontSize}, Anchor: AnchorCenter,
			})
		}
	}

	add(DrawOp{
		Kind: OpText, X: w / 2, Y: h - footerBottomInset, Text: opts.Footer,
		Fill: colorFooter, Style: TextStyle{Size: footerFontSize}, Anchor: AnchorCenter,
	})
	return l
}

func fieldLines(b *models.Bin) []string {
	orNA := func(s string) string { return shared.FirstNonEmpty(s, "N/A") }
	return []string{
		"Resident: " + orNA(b.ResidentName),
		"Owner: " + orNA(b.OwnerName),
		"Type: " + orNA(string(b.ResidentType)),
		"Location: " + orNA(b.Location),
		"Collection: " + shared.FirstNonEmpty(string(b.CollectionFrequency), string(models.CollectWeekly)),
	}
}
