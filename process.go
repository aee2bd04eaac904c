package fontsubset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/woff2"
)

// DefaultSuffix is inserted into file names of subsets by OutputName.
const DefaultSuffix = "-subset"

// DefaultRange is the range expression the tools start with: Basic Latin.
const DefaultRange = "0-7f"

// Report describes a subset created by Process.
type Report struct {
	FileName      string           // suggested file name of the subset
	Original      otquery.Metadata // of the source font
	OriginalBytes int              // size of the source font, as given
	Subset        otquery.Metadata // of the subset
	Bytes         []byte           // the subset, WOFF2 compressed
}

// Process creates a subset of a font, compresses it to WOFF2 and reports
// what has been done. fileName is the name of the source font file; it
// is used to derive the file name of the subset.
func Process(source []byte, fileName, rangeExpr string, opts Options) (*Report, error) {
	res, err := SubsetFont(source, rangeExpr, opts)
	if err != nil {
		return nil, err
	}
	raw, err := res.Subset()
	if err != nil {
		return nil, err
	}
	md, err := otquery.ReadMetadata(raw)
	if err != nil {
		return nil, &SubsettingFailedError{Reason: fmt.Sprintf("subset is not readable: %v", err)}
	}
	compress := opts.Compress
	if compress == nil {
		compress = woff2.Encode
	}
	compressed, err := compress(raw)
	if err != nil {
		return nil, &CompressionFailedError{Length: len(raw), Err: err}
	}
	r := &Report{
		FileName:      OutputName(fileName),
		Original:      res.Metadata,
		OriginalBytes: res.ByteLength,
		Subset:        md,
		Bytes:         compressed,
	}
	tracer().Infof("%s, %s", r.Glyphs(), r.FileSize())
	return r, nil
}

// Name returns the display name of the source font.
func (r *Report) Name() string {
	return r.Original.DisplayName()
}

// Glyphs reports the number of glyphs of subset and source.
func (r *Report) Glyphs() string {
	return fmt.Sprintf("Glyphs: %d (from %d)", r.Subset.GlyphCount, r.Original.GlyphCount)
}

// FileSize reports the size of subset and source.
func (r *Report) FileSize() string {
	return fmt.Sprintf("File size: %s (from %s)",
		humanize.Bytes(uint64(len(r.Bytes))), humanize.Bytes(uint64(r.OriginalBytes)))
}

// OutputName derives the file name of a WOFF2 subset from the file name of
// its source font: "Font.ttf" becomes "Font-subset.woff2".
func OutputName(fileName string) string {
	return outputName(fileName, DefaultSuffix)
}

func outputName(fileName, suffix string) string {
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if base == "" {
		base = "font"
	}
	return base + suffix + ".woff2"
}
