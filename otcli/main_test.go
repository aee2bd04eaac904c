package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jqpe/font-subset/internal/cli"
	"github.com/jqpe/font-subset/internal/fonttest"
	"github.com/jqpe/font-subset/woff2"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Preparation ------------------------------------------------

type IntpTestEnviron struct {
	suite.Suite
	dir  string
	intp *Intp
}

// listen for 'go test' command --> run test methods
func TestIntpFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	suite.Run(t, new(IntpTestEnviron))
}

// run before each test method
func (env *IntpTestEnviron) SetupTest() {
	env.dir = env.T().TempDir()
	env.Require().NoError(os.WriteFile(filepath.Join(env.dir, "Var.ttf"), fonttest.Variable().Build(), 0o644))
	env.intp = NewIntp(cli.Config{HeapLimit: 4 << 20})
}

// run after each test method
func (env *IntpTestEnviron) TearDownTest() {
	env.intp.wait()
}

func (env *IntpTestEnviron) run(line string) error {
	err, quit := env.intp.execute(parseCommand(line))
	env.False(quit, "%q must not quit", line)
	return err
}

func (env *IntpTestEnviron) load() {
	env.Require().NoError(env.run("load " + filepath.Join(env.dir, "Var.ttf")))
}

// --- Tests -----------------------------------------------------------------

func (env *IntpTestEnviron) TestParseCommand() {
	op := parseCommand("select 41 5a case")
	env.Equal(SELECT, op.code)
	env.Equal([]string{"41", "5a", "case"}, op.args)
	op = parseCommand("text  Hello world ")
	env.Equal(TEXT, op.code)
	env.Equal([]string{"Hello world"}, op.args)
	op = parseCommand("frobnicate")
	env.Equal(HELP, op.code)
	env.Equal(NOOP, parseCommand("   ").code)
	_, quit := env.intp.execute(parseCommand("QUIT"))
	env.True(quit)
}

func (env *IntpTestEnviron) TestNoFont() {
	for _, line := range []string{"info", "names", "axes", "groups", "select 41 5a", "subset", "write"} {
		env.ErrorIs(env.run(line), errNoFont, line)
	}
	env.NoError(env.run("help"))
	env.NoError(env.run("help select"))
}

func (env *IntpTestEnviron) TestInspect() {
	env.load()
	env.Equal("Test Sans Family", env.intp.font.Fontname)
	env.True(env.intp.universe.Contains('A'))
	for _, line := range []string{"info", "names", "axes", "groups", "groups uppercase letters", "range"} {
		env.NoError(env.run(line), line)
	}
	env.Error(env.run("groups Klingon"))
}

func (env *IntpTestEnviron) TestBuildRange() {
	env.load()
	env.Equal("0-7f", env.intp.rangeExpr)
	env.NoError(env.run("range 41-43, 61-63"))
	env.Equal("41-43,61-63", env.intp.rangeExpr)
	env.Error(env.run("range zz-10"))
	env.Equal("41-43,61-63", env.intp.rangeExpr, "malformed range is not taken")
	env.NoError(env.run("select 43 42"))
	env.Equal("41-43,61-63,!42-43", env.intp.rangeExpr)
	env.NoError(env.run("select 41 case"))
	env.Equal("41-43,61-63,!42-43,!41,!61", env.intp.rangeExpr)
	env.Equal([]rune{'b'}, env.intp.selected().Runes(), "font has no c")
	env.NoError(env.run(`text \00c1`))
	env.Equal("41-43,61-63,!42-43,!41,!61,c1", env.intp.rangeExpr)
	env.NoError(env.run("reset"))
	env.Equal("0-7f", env.intp.rangeExpr)
}

func (env *IntpTestEnviron) TestPin() {
	env.load()
	env.NoError(env.run("pin wght=700"))
	env.NoError(env.run("pin wdth=75:100"))
	env.Len(env.intp.opts.VariationAxes, 2)
	env.Error(env.run("pin wght"))
	env.NoError(env.run("pin"))
	env.Nil(env.intp.opts.VariationAxes)
}

func (env *IntpTestEnviron) TestSubsetAndWrite() {
	env.load()
	env.NoError(env.run("range 41-42"))
	env.NoError(env.run("pin wght=700"))
	env.NoError(env.run("subset"))
	rep, err := env.intp.current()
	env.Require().NoError(err)
	env.Equal(700, rep.Subset.Weight)
	env.False(rep.Subset.Supports('C'))
	env.NoError(env.run("write"))
	b, err := os.ReadFile(filepath.Join(env.dir, "Var-subset.woff2"))
	env.Require().NoError(err)
	env.Equal(woff2.Compressed, woff2.Detect(b))
	out := filepath.Join(env.dir, "out.woff2")
	env.NoError(env.run("write " + out))
	env.FileExists(out)
}

func (env *IntpTestEnviron) TestSupersededSubset() {
	env.load()
	env.NoError(env.run("subset"))
	env.NoError(env.run("range 41"))
	_, err := env.intp.current()
	env.Error(err, "subset of the previous range is discarded")
	//
	env.NoError(env.run("subset"))
	env.NoError(env.run("range 42"))
	env.NoError(env.run("subset"))
	rep, err := env.intp.current()
	env.Require().NoError(err)
	env.True(rep.Subset.Supports('B'))
	env.False(rep.Subset.Supports('A'))
}

func (env *IntpTestEnviron) TestFailedSubset() {
	env.load()
	env.NoError(env.run("pin wght=100:"))
	env.NoError(env.run("subset"))
	_, err := env.intp.current()
	env.Error(err)
}
