package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/dustin/go-humanize"
	fontsubset "github.com/jqpe/font-subset"
	"github.com/jqpe/font-subset/chargroup"
	"github.com/jqpe/font-subset/internal/cli"
	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/unirange"
	"github.com/pterm/pterm"
	"github.com/tdewolff/argp"
)

// Info prints the metadata of every face of a font file.
type Info struct {
	Names bool   `short:"n" desc:"Print all names"`
	Trace string `default:"Error" desc:"Trace level [Debug|Info|Error]"`
	Input string `index:"0" desc:"Font file (TrueType, OpenType or WOFF2)"`
}

func (cmd *Info) Run() error {
	if cmd.Input == "" {
		return argp.ShowUsage
	}
	f, err := setup(cmd.Trace, cmd.Input)
	if err != nil {
		return err
	}
	faces, err := otquery.ReadAll(f.Raw)
	if err != nil {
		return &fontsubset.InvalidFontError{Length: len(f.Raw)}
	}
	pterm.Info.Printf("%s: %s, %s, %d face(s)\n", f.Fontname, f.Container,
		humanize.Bytes(uint64(f.Size())), f.Faces)
	for i, md := range faces {
		pterm.Println()
		pterm.DefaultTable.WithData(metadataTable(i, md)).Render()
		if cmd.Names {
			pterm.DefaultTable.WithHasHeader().WithData(namesTable(md)).Render()
		}
	}
	return nil
}

func metadataTable(face int, md otquery.Metadata) [][]string {
	supported := chargroup.Supported(md.UnicodeRanges)
	data := [][]string{
		{"Face", strconv.Itoa(face)},
		{"Name", md.DisplayName()},
		{"Glyphs", strconv.Itoa(md.GlyphCount)},
		{"Codepoints", strconv.Itoa(supported.Len())},
		{"Outlines", md.Outlines},
		{"Units per em", strconv.Itoa(md.UnitsPerEm)},
		{"Ascent/descent", fmt.Sprintf("%d/%d, line gap %d", md.Metrics.Ascent, md.Metrics.Descent, md.Metrics.LineGap)},
		{"Weight", strconv.Itoa(md.Weight)},
		{"Width", strconv.Itoa(md.Width)},
		{"Italic", strconv.FormatBool(md.Italic)},
		{"Variable", strconv.FormatBool(md.IsVariable)},
	}
	for _, a := range md.VariationAxes {
		data = append(data, []string{"Axis", cli.AxisString(a)})
	}
	return data
}

func namesTable(md otquery.Metadata) [][]string {
	data := [][]string{{"ID", "Name"}}
	ids := make([]int, 0, len(md.Names))
	for id := range md.Names {
		ids = append(ids, int(id))
	}
	slices.Sort(ids)
	for _, id := range ids {
		data = append(data, []string{strconv.Itoa(id), md.Names[uint16(id)]})
	}
	return data
}

// Range resolves a range expression and prints it in canonical form.
type Range struct {
	Font       string `short:"f" desc:"Restrict to the codepoints a font supports"`
	Text       bool   `short:"t" desc:"Print the characters of the expression"`
	Names      bool   `short:"n" desc:"Print codepoints with their Unicode names (at most 256)"`
	Trace      string `default:"Error" desc:"Trace level [Debug|Info|Error]"`
	Expression string `index:"0" desc:"Unicode range expression"`
}

func (cmd *Range) Run() error {
	if cmd.Expression == "" {
		return argp.ShowUsage
	}
	f, err := setup(cmd.Trace, cmd.Font)
	if err != nil {
		return err
	}
	expr, err := unirange.Parse(cmd.Expression)
	if err != nil {
		return err
	}
	set := expr.Resolve()
	if f != nil {
		md, err := otquery.ReadMetadata(f.Raw)
		if err != nil {
			return &fontsubset.InvalidFontError{Length: len(f.Raw)}
		}
		set = chargroup.FilterSupported(set, md.UnicodeRanges)
	}
	pterm.Println("Expression: " + unirange.Render(expr))
	pterm.Println(fmt.Sprintf("Codepoints: %d", set.Len()))
	pterm.Println("Compressed: " + unirange.Compress(set).String())
	if cmd.Text {
		pterm.Println(set.Text())
	}
	if cmd.Names {
		for i, r := range set.Runes() {
			if i == 256 {
				pterm.Println("…")
				break
			}
			pterm.Println(cli.Describe(r))
		}
	}
	return nil
}

// Groups groups the codepoints a font supports. With a selection, it
// emulates a drag over a group and prints the resulting range expression.
type Groups struct {
	Range  string `short:"r" desc:"Range expression to start from (default 0-7f)"`
	Select string `short:"s" desc:"Drag from one codepoint to another, e.g. 41-5a"`
	Case   bool   `short:"c" desc:"Exclude the case variants of a selection as well"`
	Trace  string `default:"Error" desc:"Trace level [Debug|Info|Error]"`
	Input  string `index:"0" desc:"Font file (TrueType, OpenType or WOFF2)"`
}

func (cmd *Groups) Run() error {
	if cmd.Input == "" {
		return argp.ShowUsage
	}
	f, err := setup(cmd.Trace, cmd.Input)
	if err != nil {
		return err
	}
	md, err := otquery.ReadMetadata(f.Raw)
	if err != nil {
		return &fontsubset.InvalidFontError{Length: len(f.Raw)}
	}
	supported := chargroup.Supported(md.UnicodeRanges)
	pterm.DefaultTable.WithHasHeader().WithData(cli.GroupTable(chargroup.GroupCodepoints(supported))).Render()
	if cmd.Select == "" {
		return nil
	}
	expr, err := cli.Drag(supported, rangeOf(cmd.Range, ""), cmd.Select, cmd.Case)
	if err != nil {
		return err
	}
	pterm.Println("Range: " + expr)
	return nil
}
