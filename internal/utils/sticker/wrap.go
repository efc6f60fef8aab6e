package sticker

import "strings"

// MeasureFunc returns the rendered width of s in logical pixels.
type MeasureFunc func(s string) float64

// WrapText greedily packs space-separated words into lines no wider than
// maxWidth. A word that alone exceeds maxWidth gets a line of its own.
// strings.Join(lines, " ") always equals text.
func WrapText(text string, maxWidth float64, measure MeasureFunc) []string {
	words := strings.Split(text, " ")
	lines := make([]string, 0, 1)
	line := words[0]
	for _, w := range words[1:] {
		candidate := line + " " + w
		if measure(candidate) > maxWidth {
			lines = append(lines, line)
			line = w
			continue
		}
		line = candidate
	}
	return append(lines, line)
}
