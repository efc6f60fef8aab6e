package sticker

import (
	"image/color"

	"github.com/smartwaste/bin-registry/shared/go-models"
)

// Theme is the header color and label for a bin type.
type Theme struct {
	Color color.RGBA
	Label string
}

var themes = map[models.BinType]Theme{
	models.BinTypeGeneral:    {Color: hex(0x64748B), Label: "General Waste"},
	models.BinTypeRecyclable: {Color: hex(0x059669), Label: "Recyclable Waste"},
	models.BinTypeOrganic:    {Color: hex(0xCA8A04), Label: "Organic Waste"},
	models.BinTypePlastic:    {Color: hex(0x2563EB), Label: "Plastic Waste"},
	models.BinTypeElectronic: {Color: hex(0x9333EA), Label: "E-Waste"},
	models.BinTypeHazardous:  {Color: hex(0xDC2626), Label: "Hazardous Waste"},
}

// ThemeFor falls back to the general theme for unknown types.
func ThemeFor(t models.BinType) Theme {
	if th, ok := themes[t]; ok {
		return th
	}
	return themes[models.BinTypeGeneral]
}

var (
	colorWhite  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorText   = hex(0x111827)
	colorQuote  = hex(0x374151)
	colorFooter = hex(0x6B7280)
)

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}
