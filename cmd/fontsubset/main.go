// Command fontsubset reduces font files to the glyphs needed for a set of
// codepoints and writes the result as WOFF2.
//
//	fontsubset subset -r 0-7f,!20-2f Font.ttf
//	fontsubset subset -t 'Hello \2764' -a wght=700 -o hello.woff2 Font.ttf
//	fontsubset info Font.woff2
//	fontsubset range 0-7f,!20-2f
//	fontsubset groups -s 41-5a -c Font.ttf
package main

import (
	fontsubset "github.com/jqpe/font-subset"
	"github.com/jqpe/font-subset/internal/cli"
	"github.com/jqpe/font-subset/internal/fontload"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pterm/pterm"
	"github.com/tdewolff/argp"
)

// tracer traces with key 'fontsubset'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset")
}

// Main is the root command, which only prints usage.
type Main struct{}

func (cmd *Main) Run() error {
	return argp.ShowUsage
}

func main() {
	initDisplay()
	root := argp.NewCmd(&Main{}, "Reduce fonts to the glyphs needed for a set of codepoints")
	root.AddCmd(&Subset{}, "subset", "Subset a font and write it as WOFF2")
	root.AddCmd(&Info{}, "info", "Print font metadata")
	root.AddCmd(&Range{}, "range", "Resolve a Unicode range expression")
	root.AddCmd(&Groups{}, "groups", "Group the codepoints of a font and select from groups")
	root.Parse()
	root.PrintHelp()
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// setup configures tracing and, if input is given, loads a font.
func setup(level, input string) (*fontload.ScalableFont, error) {
	if err := cli.SetupTracing(level); err != nil {
		return nil, err
	}
	if input == "" {
		return nil, nil
	}
	return fontload.LoadFont(input)
}

// rangeOf combines a range expression and typed text, which may contain
// \XXXX escapes. Without either, DefaultRange is used.
func rangeOf(expr, text string) string {
	if text != "" {
		expr = cli.AppendText(expr, text)
	}
	if expr == "" {
		return fontsubset.DefaultRange
	}
	return expr
}
