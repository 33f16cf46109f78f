package fonts

import (
	"strings"
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// Resolution is the outcome of resolving a font name.
type Resolution struct {
	Font *Font
	// Requested is the name that was asked for.
	Requested string
	// Fallback is set when Requested did not match any known font, or the
	// matching font could not be loaded, and Helvetica was used instead.
	Fallback bool
}

type entry struct {
	names   []string
	factory func() (*Font, error)
}

func standard(ft StandardType, aliases ...string) entry {
	return entry{
		names:   append([]string{ft.String()}, aliases...),
		factory: func() (*Font, error) { return Standard(ft), nil },
	}
}

func trueType(name string, data []byte, aliases ...string) entry {
	load := sync.OnceValues(func() (*Font, error) { return TrueType(name, data) })
	return entry{
		names: append([]string{name}, aliases...),
		factory: func() (*Font, error) {
			f, err := load()
			if err != nil {
				return nil, err
			}
			// Callers own the returned value.
			c := *f
			return &c, nil
		},
	}
}

// table is consulted in order; the last entry always succeeds.
var table = []entry{
	standard(Helvetica, "Arial", "sans-serif"),
	standard(HelveticaBold, "Arial-Bold", "Arial Bold"),
	standard(HelveticaOblique, "Helvetica-Italic", "Arial-Italic", "Arial Italic"),
	standard(HelveticaBoldOblique, "Helvetica-BoldItalic"),
	standard(TimesRoman, "Times", "Times New Roman", "serif"),
	standard(TimesBold, "Times New Roman Bold"),
	standard(TimesItalic, "Times New Roman Italic"),
	standard(TimesBoldItalic),
	standard(Courier, "Courier New", "monospace"),
	standard(CourierBold, "Courier New Bold"),
	standard(CourierOblique, "Courier-Italic"),
	standard(CourierBoldOblique, "Courier-BoldItalic"),
	trueType("Go-Regular", goregular.TTF, "Go"),
	trueType("Go-Bold", gobold.TTF),
	trueType("Go-Italic", goitalic.TTF),
	trueType("Go-Mono", gomono.TTF),
	standard(Helvetica),
}

// Names lists the primary name of every font Resolve knows.
func Names() []string {
	names := make([]string, 0, len(table)-1)
	for _, e := range table[:len(table)-1] {
		names = append(names, e.names[0])
	}
	return names
}

// Resolve maps a font name to a font. Matching ignores case and
// surrounding whitespace. Resolve never fails: unknown names and fonts that
// cannot be loaded resolve to Helvetica with Fallback set.
func Resolve(name string) *Resolution {
	key := strings.TrimSpace(name)

	for _, e := range table[:len(table)-1] {
		if !matches(e.names, key) {
			continue
		}
		f, err := e.factory()
		if err != nil || f == nil {
			break
		}
		return &Resolution{Font: f, Requested: name}
	}

	f, _ := table[len(table)-1].factory()
	return &Resolution{Font: f, Requested: name, Fallback: true}
}

func matches(names []string, key string) bool {
	for _, n := range names {
		if strings.EqualFold(n, key) {
			return true
		}
	}
	return false
}
