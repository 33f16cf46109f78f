// Package colors parses the hexadecimal color notation used for text
// signatures.
package colors

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned for anything that is not #RRGGBB or RRGGBB.
var ErrInvalidFormat = errors.New("invalid color format")

// Black is the default text color.
var Black = RGB{}

// RGB is a color in the DeviceRGB space, each channel in [0, 1].
type RGB struct {
	R, G, B float64
}

// ParseHex parses "#RRGGBB" or "RRGGBB".
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}

	var ch [3]float64
	for i := range ch {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
		}
		ch[i] = float64(v) / 255
	}
	return RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// Hex formats c as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func (c RGB) String() string {
	return c.Hex()
}

func channel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}
