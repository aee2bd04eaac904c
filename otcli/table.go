package main

import (
	"errors"
	"strings"

	"github.com/jqpe/font-subset/chargroup"
	"github.com/jqpe/font-subset/internal/cli"
	"github.com/jqpe/font-subset/internal/fontload"
	"github.com/jqpe/font-subset/otquery"
	"github.com/pterm/pterm"
)

// --- Font Loading -----------------------------------------------------

func loadOp(intp *Intp, op *Op) (error, bool) {
	path := op.arg(0)
	if path == "" {
		return errors.New("usage: load <file>"), false
	}
	f, err := fontload.LoadFont(path)
	if err != nil {
		return err, false
	}
	md, err := otquery.ReadMetadata(f.Raw)
	if err != nil {
		return err, false
	}
	intp.font, intp.metadata = f, md
	intp.universe = chargroup.Supported(md.UnicodeRanges)
	intp.opts.VariationAxes = nil
	intp.invalidate()
	tracer().Infof("loaded font %q with %d codepoints", f.Fontname, intp.universe.Len())
	pterm.Printf("%s: %d glyphs, %d codepoints\n", f.Fontname, md.GlyphCount, intp.universe.Len())
	return nil, false
}

// --- Font Inspection --------------------------------------------------

func infoOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	printMetadata(intp.font, intp.metadata, intp.universe.Len())
	return nil, false
}

func namesOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	printNames(intp.metadata.Names)
	return nil, false
}

func axesOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	if !intp.metadata.IsVariable {
		pterm.Println("Not a variable font")
		return nil, false
	}
	for _, a := range intp.metadata.VariationAxes {
		line := cli.AxisString(a)
		if c, ok := intp.opts.VariationAxes[a.Tag]; ok {
			line += ", constrained to " + c.String()
		}
		pterm.Println(line)
	}
	return nil, false
}

func groupsOp(intp *Intp, op *Op) (error, bool) {
	if err := intp.checkFont(); err != nil {
		return err, false
	}
	groups := chargroup.GroupCodepoints(intp.universe)
	if name := strings.Join(op.args, " "); name != "" {
		for _, g := range groups {
			if strings.EqualFold(g.Name, name) {
				printGroup(g, intp.selected())
				return nil, false
			}
		}
		return errors.New("no such group: " + name), false
	}
	pterm.DefaultTable.WithHasHeader().WithData(cli.GroupTable(groups)).Render()
	return nil, false
}
