package main

import (
	"os"
	"path/filepath"

	fontsubset "github.com/jqpe/font-subset"
	"github.com/jqpe/font-subset/internal/cli"
	"github.com/pterm/pterm"
	"github.com/tdewolff/argp"
)

// Subset subsets a font file and writes the subset as WOFF2.
type Subset struct {
	Range     string `short:"r" desc:"Unicode range expression, e.g. 0-7f,!20-2f (default 0-7f)"`
	Text      string `short:"t" desc:"Text whose characters are added to the range, \\XXXX escapes allowed"`
	Output    string `short:"o" desc:"Output file, derived from the input file name if empty"`
	Axes      string `short:"a" desc:"Variation axis constraints, e.g. wght=700,wdth=75:100"`
	NameIDs   string `name:"name-ids" desc:"Name IDs to retain in addition to 0 to 6, e.g. 16,17"`
	Features  string `short:"f" default:"all" desc:"Layout features to retain: all, none or a list, e.g. liga,kern"`
	NoClosure bool   `name:"no-closure" desc:"Do not add glyphs reachable by layout substitutions"`
	HeapLimit int    `name:"heap-limit" desc:"Memory of the subsetting engine in bytes"`
	Suffix    string `desc:"Suffix for derived output file names (default -subset)"`
	Trace     string `default:"Error" desc:"Trace level [Debug|Info|Error]"`
	Input     string `index:"0" desc:"Font file (TrueType, OpenType or WOFF2)"`
}

func (cmd *Subset) Run() error {
	if cmd.Input == "" {
		return argp.ShowUsage
	}
	f, err := setup(cmd.Trace, cmd.Input)
	if err != nil {
		return err
	}
	axes, err := cli.ParseAxes(cmd.Axes)
	if err != nil {
		return err
	}
	conf := cli.Config{
		HeapLimit:      cmd.HeapLimit,
		NoClosure:      cmd.NoClosure,
		NameIDs:        cmd.NameIDs,
		LayoutFeatures: cmd.Features,
		Suffix:         cmd.Suffix,
	}.Subsetting()
	opts := conf.Options()
	opts.VariationAxes = axes
	rep, err := fontsubset.Process(f.Binary, filepath.Base(cmd.Input), rangeOf(cmd.Range, cmd.Text), opts)
	if err != nil {
		return err
	}
	output := cmd.Output
	if output == "" {
		output = conf.OutputName(cmd.Input)
	}
	if err := os.WriteFile(output, rep.Bytes, 0o644); err != nil {
		return err
	}
	tracer().Infof("subset written to %s", output)
	pterm.Info.Println(rep.Name())
	pterm.Println(rep.Glyphs())
	pterm.Println(rep.FileSize())
	pterm.Println("Written to " + output)
	return nil
}
