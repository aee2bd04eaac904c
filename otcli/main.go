// Command otcli is an interactive shell for subsetting fonts. It loads a
// font, shows its codepoint groups, builds a range expression step by step
// and writes subsets as WOFF2.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	fontsubset "github.com/jqpe/font-subset"
	"github.com/jqpe/font-subset/internal/cli"
	"github.com/jqpe/font-subset/internal/fontload"
	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/unirange"
	"github.com/npillmayer/schuko/tracing"
	"github.com/pterm/pterm"
)

// tracer traces with key 'fontsubset'
func tracer() tracing.Trace {
	return tracing.Select("fontsubset")
}

func main() {
	initDisplay()

	// command line flags
	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	fontname := flag.String("font", "", "Font to load")
	heapLimit := flag.Int("heap-limit", 0, "Memory of the subsetting engine in bytes")
	flag.Parse()

	// set up logging
	if err := cli.SetupTracing(*tlevel); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
	pterm.Info.Println("Welcome to the font subsetting CLI") // colored welcome message
	//
	// set up REPL
	repl, err := readline.New("subset > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := NewIntp(cli.Config{HeapLimit: *heapLimit})
	intp.repl = repl
	//
	// load font to use
	if *fontname != "" {
		if err, _ := loadOp(intp, &Op{code: LOAD, args: []string{*fontname}}); err != nil {
			pterm.Error.Println(err)
			os.Exit(4)
		}
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D, help with 'help'") // inform user how to stop the CLI
	intp.REPL()                                               // go into interactive mode
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

// Intp is our interpreter object
type Intp struct {
	repl *readline.Instance
	conf cli.Config

	font      *fontload.ScalableFont
	metadata  otquery.Metadata
	universe  unirange.Set       // codepoints supported by the font
	opts      fontsubset.Options // of the next subset
	rangeExpr string

	mu     sync.Mutex
	seq    int                // incremented by every change of the request
	latest *fontsubset.Report // of the current request, if any
	busy   chan struct{}      // closed when the running subset has finished
}

// NewIntp creates an interpreter subsetting as configured by conf.
func NewIntp(conf cli.Config) *Intp {
	return &Intp{
		conf:      conf,
		rangeExpr: fontsubset.DefaultRange,
		opts:      conf.Subsetting().Options(),
	}
}

func (intp *Intp) String() string {
	if intp == nil || intp.font == nil {
		return "( no font )"
	}
	return fmt.Sprintf("( %s | %s )", intp.font.Fontname, cli.Abbreviate(intp.rangeExpr, 40))
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		cmd := parseCommand(line)
		err, quit := intp.execute(cmd)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		if quit {
			break
		}
	}
	intp.wait()
	pterm.Info.Println("Good bye!")
}

// Op is a single command with its arguments.
type Op struct {
	code int
	args []string
}

const NOOP = -1
const (
	QUIT int = iota
	HELP
	LOAD
	INFO
	NAMES
	AXES
	GROUPS
	RANGE
	SELECT
	TEXT
	PIN
	RESET
	SUBSET
	WRITE
)

var opMap = map[string]int{
	"quit":   QUIT,
	"help":   HELP,
	"load":   LOAD,
	"info":   INFO,
	"names":  NAMES,
	"axes":   AXES,
	"groups": GROUPS,
	"range":  RANGE,
	"select": SELECT,
	"text":   TEXT,
	"pin":    PIN,
	"reset":  RESET,
	"subset": SUBSET,
	"write":  WRITE,
}

var opNames = []string{
	"quit",
	"help",
	"load",
	"info",
	"names",
	"axes",
	"groups",
	"range",
	"select",
	"text",
	"pin",
	"reset",
	"subset",
	"write",
}

// parseCommand splits a line into command and arguments. Unknown commands
// are turned into a call for help on them.
func parseCommand(line string) *Op {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return &Op{code: NOOP}
	}
	code, ok := opMap[strings.ToLower(fields[0])]
	if !ok {
		return &Op{code: HELP, args: fields[:1]}
	}
	op := &Op{code: code, args: fields[1:]}
	if code == TEXT { // keep spaces of typed text
		_, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
		op.args = []string{strings.TrimSpace(rest)}
	}
	tracer().Debugf("parsed command: %s %v", opNames[code], op.args)
	return op
}

var commandFn = map[int]func(*Intp, *Op) (error, bool){
	QUIT:   quitOp,
	HELP:   helpOp,
	LOAD:   loadOp,
	INFO:   infoOp,
	NAMES:  namesOp,
	AXES:   axesOp,
	GROUPS: groupsOp,
	RANGE:  rangeOp,
	SELECT: selectOp,
	TEXT:   textOp,
	PIN:    pinOp,
	RESET:  resetOp,
	SUBSET: subsetOp,
	WRITE:  writeOp,
}

func (intp *Intp) execute(op *Op) (err error, stop bool) {
	if op.code == NOOP {
		return nil, false
	}
	f, ok := commandFn[op.code]
	if !ok {
		return fmt.Errorf("unknown command code: %d", op.code), false
	}
	return f(intp, op)
}

func quitOp(intp *Intp, op *Op) (error, bool) {
	return nil, true
}

var errNoFont = errors.New("no font loaded, use 'load <file>'")

func (intp *Intp) checkFont() error {
	if intp.font == nil {
		return errNoFont
	}
	return nil
}

func (op *Op) arg(i int) string {
	if len(op.args) > i {
		return op.args[i]
	}
	return ""
}
