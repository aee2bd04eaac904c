/*
Package fontload loads font files for the command line tools.

Fonts may be TrueType, OpenType, font collections or WOFF2 files. WOFF2 files
are decompressed on load; the bytes as read are kept for size reporting.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package fontload

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jqpe/font-subset/woff2"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer writes to trace with key 'fontsubset.fontload'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset.fontload")
}

// ScalableFont is a loaded font with original bytes and SFNT view.
type ScalableFont struct {
	Fontname  string
	Filepath  string
	Container woff2.Container // of Binary
	Binary    []byte          // as read
	Raw       []byte          // sfnt binary, decompressed if necessary
	Faces     int             // 1 for single fonts
	SFNT      *sfnt.Font      // first face
}

// LoadFont loads a font from a file.
func LoadFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	f, err := ParseFont(bytez)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(fontfile), err)
	}
	f.Filepath = fontfile
	if f.Fontname == "" {
		f.Fontname = strings.TrimSuffix(filepath.Base(fontfile), filepath.Ext(fontfile))
	}
	tracer().Infof("loaded font %q from %s", f.Fontname, fontfile)
	return f, nil
}

// ParseFont loads a font from memory. fbytes is retained.
func ParseFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes, Container: woff2.Detect(fbytes)}
	if f.Raw, err = woff2.Normalize(fbytes); err != nil {
		return nil, err
	}
	coll, err := sfnt.ParseCollection(f.Raw)
	if err != nil {
		return nil, err
	}
	f.Faces = coll.NumFonts()
	if f.SFNT, err = coll.Font(0); err != nil {
		return nil, err
	}
	f.Fontname = displayName(f.SFNT)
	return f, nil
}

// Size returns the size of the font as read.
func (f *ScalableFont) Size() int {
	return len(f.Binary)
}

// IsCollection reports whether the font binary holds more than one face.
func (f *ScalableFont) IsCollection() bool {
	return f.Faces > 1
}

// displayName returns the typographic family name, or the family name if
// the font has no typographic family.
func displayName(font *sfnt.Font) string {
	var buf sfnt.Buffer
	for _, id := range []sfnt.NameID{sfnt.NameIDTypographicFamily, sfnt.NameIDFamily} {
		name, err := font.Name(&buf, id)
		if err == nil && name != "" {
			return name
		}
		if err != nil && !errors.Is(err, sfnt.ErrNotFound) {
			tracer().Debugf("name ID %d: %v", id, err)
		}
	}
	return ""
}
