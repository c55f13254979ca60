package export

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// DefaultLighten is the lightness factor used for band fills.
const DefaultLighten = 1.8

// Lighten scales the HSL lightness of a hex colour by amount, clamped to
// [0, 1].
func Lighten(hex string, amount float64) (string, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", fmt.Errorf("export: bad colour %q: %w", hex, err)
	}
	h, s, l := c.Hsl()
	l = math.Max(0, math.Min(1, amount*l))
	return colorful.Hsl(h, s, l).Clamped().Hex(), nil
}
