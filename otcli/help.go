package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg(0))
	return nil, false
}

var helpTexts = map[string]string{
	"load":   "load <file>         load a TrueType, OpenType or WOFF2 font",
	"info":   "info                print metadata of the loaded font",
	"names":  "names               print the name table of the loaded font",
	"axes":   "axes                print variation axes and their constraints",
	"groups": "groups [group]      print codepoint groups, or the members of one group",
	"range":  "range [expr]        print or set the range expression, e.g. 0-7f,!20-2f",
	"select": "select <from> <to> [case]\n                    drag across a group and exclude the selection",
	"text":   "text <characters>   add characters to the range, \\XXXX escapes allowed",
	"pin":    "pin [tag=value,…]   pin axes (wght=700) or restrict them (wdth=75:100[:90])",
	"reset":  "reset               start over with range 0-7f and no axis constraints",
	"subset": "subset              create a subset in the background",
	"write":  "write [file]        write the current subset as WOFF2",
	"quit":   "quit                leave, as does <ctrl>D",
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	if text, ok := helpTexts[strings.ToLower(topic)]; ok {
		pterm.Println(text)
		return
	}
	if topic != "" && topic != "help" {
		pterm.Error.Println("unknown command: " + topic)
	}
	pterm.Info.Println("Commands")
	for _, name := range opNames {
		if text, ok := helpTexts[name]; ok {
			pterm.Println(text)
		}
	}
	pterm.Println(`
Range expressions are comma separated terms of hex codepoints, single (41)
or intervals (41-5a). Terms with a leading '!' exclude codepoints.`)
}
