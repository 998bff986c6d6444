package renderer

import (
	"fmt"

	"github.com/gogpu/gg/text"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// fonts maps glyph.font config values to embedded TrueType data.
var fonts = map[string][]byte{
	"regular": goregular.TTF,
	"bold":    gobold.TTF,
	"mono":    gomono.TTF,
}

// loadFont parses one of the embedded Go fonts.
func loadFont(name string) (*text.FontSource, error) {
	if name == "" {
		name = "regular"
	}
	data, ok := fonts[name]
	if !ok {
		return nil, fmt.Errorf("unknown font %q", name)
	}
	src, err := text.NewFontSource(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %q: %w", name, err)
	}
	return src, nil
}
