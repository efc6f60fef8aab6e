package sticker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

// fixed-width measure: 10px per rune
func runeWidth(s string) float64 { return float64(utf8.RuneCountInString(s) * 10) }

func TestWrapText_FitsOnOneLine(t *testing.T) {
	assert.Equal(t, []string{"Owner: Colombo"}, WrapText("Owner: Colombo", 200, runeWidth))
}

func TestWrapText_BreaksGreedily(t *testing.T) {
	lines := WrapText("Location: Near Colombo Fort railway station", 120, runeWidth)
	assert.Equal(t, []string{"Location:", "Near Colombo", "Fort railway", "station"}, lines)
}

func TestWrapText_OverWideWordGetsOwnLine(t *testing.T) {
	lines := WrapText("a Supercalifragilistic b", 50, runeWidth)
	assert.Equal(t, []string{"a", "Supercalifragilistic", "b"}, lines)

	assert.Equal(t, []string{"Supercalifragilistic"}, WrapText("Supercalifragilistic", 10, runeWidth))
}

func TestWrapText_Properties(t *testing.T) {
	texts := []string{
		"",
		"single",
		"Resident: Nimal Perera of the third lane",
		"Location: Auto-detected at 6.92710, 79.86120",
		"two  spaces between",
		"x xx xxx xxxx xxxxx xxxxxx xxxxxxx xxxxxxxx",
	}
	for _, maxWidth := range []float64{0, 30, 60, 100, 200} {
		for _, text := range texts {
			lines := WrapText(text, maxWidth, runeWidth)
			assert.Equal(t, text, strings.Join(lines, " "), "text=%q max=%v", text, maxWidth)
			for _, l := range lines {
				if runeWidth(l) > maxWidth {
					assert.NotContains(t, l, " ", "only a lone word may overflow: %q", l)
				}
			}
		}
	}
}
