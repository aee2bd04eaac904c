package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	fontsubset "github.com/jqpe/font-subset"
	"github.com/jqpe/font-subset/internal/fonttest"
	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/woff2"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tdewolff/argp"
)

func writeFont(t *testing.T, name string, font []byte) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, font, 0o644))
	return path
}

func TestSubsetCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	in := writeFont(t, "Test.ttf", fonttest.Font())
	cmd := &Subset{Range: "41", Text: "B", Features: "all", Trace: "Error", Input: in}
	require.NoError(t, cmd.Run())
	b, err := os.ReadFile(filepath.Join(filepath.Dir(in), "Test-subset.woff2"))
	require.NoError(t, err)
	require.Equal(t, woff2.Compressed, woff2.Detect(b))
	raw, err := woff2.Decode(b)
	require.NoError(t, err)
	md, err := otquery.ReadMetadata(raw)
	require.NoError(t, err)
	assert.True(t, md.Supports('A'))
	assert.True(t, md.Supports('B'))
	assert.False(t, md.Supports('C'))
}

func TestSubsetCommandInstance(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	in := writeFont(t, "Var.ttf", fonttest.Variable().Build())
	out := filepath.Join(t.TempDir(), "bold.woff2")
	cmd := &Subset{Axes: "wght=700", Output: out, Features: "none", Trace: "Error", Input: in}
	require.NoError(t, cmd.Run())
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	raw, err := woff2.Decode(b)
	require.NoError(t, err)
	md, err := otquery.ReadMetadata(raw)
	require.NoError(t, err)
	assert.False(t, md.IsVariable)
	assert.Equal(t, 700, md.Weight)
	//
	cmd = &Subset{Axes: "wght=100:", Output: out, Trace: "Error", Input: in}
	var incomplete *fontsubset.IncompleteAxisRangeError
	assert.True(t, errors.As(cmd.Run(), &incomplete))
}

func TestCommandsShowUsage(t *testing.T) {
	assert.ErrorIs(t, (&Main{}).Run(), argp.ShowUsage)
	assert.ErrorIs(t, (&Subset{}).Run(), argp.ShowUsage)
	assert.ErrorIs(t, (&Info{}).Run(), argp.ShowUsage)
	assert.ErrorIs(t, (&Range{}).Run(), argp.ShowUsage)
	assert.ErrorIs(t, (&Groups{}).Run(), argp.ShowUsage)
}

func TestRangeCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	cmd := &Range{Expression: "0-7f,!20-2f", Trace: "Error"}
	assert.NoError(t, cmd.Run())
	cmd = &Range{Expression: "zz-10", Trace: "Error"}
	var malformed *fontsubset.MalformedRangeError
	assert.True(t, errors.As(cmd.Run(), &malformed))
	cmd = &Range{Expression: "0-ffff", Font: writeFont(t, "Test.ttf", fonttest.Font()), Text: true, Names: true, Trace: "Error"}
	assert.NoError(t, cmd.Run())
}

func TestInfoAndGroupsCommands(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	in := writeFont(t, "Var.ttf", fonttest.Variable().Build())
	assert.NoError(t, (&Info{Names: true, Trace: "Error", Input: in}).Run())
	assert.NoError(t, (&Groups{Select: "41-43", Case: true, Trace: "Error", Input: in}).Run())
	assert.Error(t, (&Groups{Select: "x", Trace: "Error", Input: in}).Run())
	//
	garbage := writeFont(t, "garbage.ttf", []byte("no font"))
	assert.Error(t, (&Info{Trace: "Error", Input: garbage}).Run())
}

func TestRangeOf(t *testing.T) {
	assert.Equal(t, "0-7f", rangeOf("", ""))
	assert.Equal(t, "20-2f", rangeOf("20-2f", ""))
	assert.Equal(t, "e9", rangeOf("", `\00e9`))
	assert.Equal(t, "0-7f,e9", rangeOf("0-7f", "é"))
}
