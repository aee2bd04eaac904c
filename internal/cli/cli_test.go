package cli

import (
	"testing"

	fontsubset "github.com/jqpe/font-subset"
	"github.com/jqpe/font-subset/chargroup"
	"github.com/jqpe/font-subset/unirange"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAxes(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	axes, err := ParseAxes("wght=700, wdth=75:100,opsz=8:72:12,slnt=-10:")
	require.NoError(t, err)
	require.Len(t, axes, 4)
	assert.True(t, axes["wght"].IsPin())
	assert.Equal(t, 700.0, *axes["wght"].Location)
	assert.Equal(t, 75.0, *axes["wdth"].Min)
	assert.Equal(t, 100.0, *axes["wdth"].Max)
	assert.Nil(t, axes["wdth"].Default)
	assert.Equal(t, 12.0, *axes["opsz"].Default)
	assert.Equal(t, -10.0, *axes["slnt"].Min)
	assert.Nil(t, axes["slnt"].Max)
	//
	axes, err = ParseAxes("")
	require.NoError(t, err)
	assert.Empty(t, axes)
	//
	for _, bad := range []string{"wght", "=700", "toolong=1", "wght=x", "wght=1:2:3:4", "wght="} {
		_, err := ParseAxes(bad)
		assert.Error(t, err, "expected error for %q", bad)
	}
}

func TestConfigOverlay(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	assert.Empty(t, Config{}.Conf())
	assert.Empty(t, Config{LayoutFeatures: "all"}.Conf())
	//
	c := Config{
		HeapLimit:      1 << 20,
		NoClosure:      true,
		NameIDs:        "16,17",
		LayoutFeatures: "none",
		Suffix:         ".min",
	}
	conf := c.Conf()
	assert.Equal(t, false, conf[fontsubset.KeyLayoutClosure])
	assert.Equal(t, "", conf[fontsubset.KeyLayoutFeatures])
	opts := c.Subsetting().Options()
	assert.True(t, opts.NoLayoutClosure)
	assert.Equal(t, []uint16{16, 17}, opts.PreserveNameIDs)
	assert.Equal(t, []string{}, opts.LayoutFeatures)
	assert.Equal(t, "a.min.woff2", c.Subsetting().OutputName("a.otf"))
}

func TestGroupTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	groups := chargroup.GroupCodepoints(unirange.MustParse("30-39,41-43,45").Resolve())
	data := GroupTable(groups)
	require.Len(t, data, 3)
	assert.Equal(t, []string{"Group", "Codepoints", "Ranges"}, data[0])
	assert.Equal(t, []string{"Numbers", "10", "30-39"}, data[1])
	assert.Equal(t, []string{"Uppercase Letters", "4", "41-43,45"}, data[2])
}

func TestAppendText(t *testing.T) {
	assert.Equal(t, "41-43", AppendText("", "CAB"))
	assert.Equal(t, "0-7f,20,2764", AppendText("0-7f", `\2764 `))
	assert.Equal(t, "0-7f", AppendText("0-7f", ""))
	assert.Equal(t, "65,e9,301", AppendText("", "e\u0301"), "composed form is added")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "U+0041 A LATIN CAPITAL LETTER A", Describe('A'))
	assert.Equal(t, "U+0301   COMBINING ACUTE ACCENT", Describe(0x301))
}

func TestDrag(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	universe := unirange.MustParse("20-7e").Resolve()
	expr, err := Drag(universe, "0-7f", "5a-41", false)
	require.NoError(t, err)
	assert.Equal(t, "0-7f,!41-5a", expr)
	expr, err = Drag(universe, "0-7f", "41-43", true)
	require.NoError(t, err)
	assert.Equal(t, "0-7f,!41-43,!61-63", expr)
	expr, err = Drag(universe, "0-7f", "41-61", false)
	require.NoError(t, err)
	assert.Equal(t, "0-7f,!41", expr, "drag is locked to the group of its anchor")
	expr, err = Drag(universe, "", "30", false)
	require.NoError(t, err)
	assert.Equal(t, "!30", expr)
	_, err = Drag(universe, "0-7f", "zz-41", false)
	assert.Error(t, err)
}

func TestAbbreviate(t *testing.T) {
	assert.Equal(t, "abc", Abbreviate("abc", 3))
	assert.Equal(t, "ab…", Abbreviate("abcd", 3))
	assert.Equal(t, "äö…", Abbreviate("äöüß", 3))
}

func TestSetupTracing(t *testing.T) {
	assert.Error(t, SetupTracing("Loud"))
}
