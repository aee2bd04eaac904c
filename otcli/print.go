package main

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	fontsubset "github.com/jqpe/font-subset"
	"github.com/jqpe/font-subset/chargroup"
	"github.com/jqpe/font-subset/internal/fontload"
	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/unirange"
	"github.com/pterm/pterm"
)

func printMetadata(f *fontload.ScalableFont, md otquery.Metadata, codepoints int) {
	data := [][]string{
		{"Name", md.DisplayName()},
		{"File", fmt.Sprintf("%s (%s, %s)", f.Filepath, f.Container, humanize.Bytes(uint64(f.Size())))},
		{"Faces", fmt.Sprintf("%d", f.Faces)},
		{"Glyphs", fmt.Sprintf("%d", md.GlyphCount)},
		{"Codepoints", fmt.Sprintf("%d", codepoints)},
		{"Outlines", md.Outlines},
		{"Units per em", fmt.Sprintf("%d", md.UnitsPerEm)},
		{"Ascent/descent", fmt.Sprintf("%d/%d, line gap %d", md.Metrics.Ascent, md.Metrics.Descent, md.Metrics.LineGap)},
		{"Weight", fmt.Sprintf("%d", md.Weight)},
		{"Width", fmt.Sprintf("%d", md.Width)},
		{"Italic", fmt.Sprintf("%v", md.Italic)},
		{"Variable", fmt.Sprintf("%v", md.IsVariable)},
	}
	pterm.DefaultTable.WithData(data).Render()
}

func printNames(names map[uint16]string) {
	ids := make([]int, 0, len(names))
	for id := range names {
		ids = append(ids, int(id))
	}
	slices.Sort(ids)
	data := [][]string{{"ID", "Name"}}
	for _, id := range ids {
		data = append(data, []string{fmt.Sprintf("%d", id), names[uint16(id)]})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// printGroup prints the members of a group as a grid of characters, 16 per
// row. Codepoints outside of selected are shown in brackets.
func printGroup(g chargroup.Group, selected unirange.Set) {
	pterm.Info.Printf("%s: %d codepoints\n", g.Name, len(g.Members))
	pterm.Println(groupGrid(g, selected))
}

func groupGrid(g chargroup.Group, selected unirange.Set) string {
	var sb strings.Builder
	for i, r := range g.Members {
		if i > 0 && i%16 == 0 {
			sb.WriteByte('\n')
		} else if i > 0 {
			sb.WriteByte(' ')
		}
		if selected.Contains(r) {
			fmt.Fprintf(&sb, "%5X %c ", r, printable(r))
		} else {
			fmt.Fprintf(&sb, "%5X[%c]", r, printable(r))
		}
	}
	return sb.String()
}

func printable(r rune) rune {
	if unicode.Is(unicode.M, r) {
		return '◌'
	}
	return r
}

func printReport(r *fontsubset.Report) {
	pterm.Info.Println(r.Name())
	pterm.Println(r.Glyphs())
	pterm.Println(r.FileSize())
}
