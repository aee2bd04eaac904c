package fontsubset

import (
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/jqpe/font-subset/internal/fonttest"
	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/otsubset"
	"github.com/jqpe/font-subset/woff2"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Preparation ------------------------------------------------

type SubsetTestEnviron struct {
	suite.Suite
	eng *otsubset.Engine
}

// listen for 'go test' command --> run test methods
func TestSubsetFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	suite.Run(t, new(SubsetTestEnviron))
}

// run before each test method
func (env *SubsetTestEnviron) SetupTest() {
	env.eng = otsubset.New(4 << 20)
}

// run after each test method
func (env *SubsetTestEnviron) TearDownTest() {
	env.Equal(0, env.eng.Live(), "engine handles leaked")
	env.Equal(0, env.eng.HeapInUse(), "engine memory leaked")
}

func (env *SubsetTestEnviron) options() Options {
	return Options{Engine: env.eng}
}

// --- Tests -----------------------------------------------------------------

func (env *SubsetTestEnviron) TestSubsetAB() {
	font := fonttest.Font()
	res, err := SubsetFont(font, "41-42", env.options())
	env.Require().NoError(err)
	env.Equal(len(font), res.ByteLength)
	env.Equal(len(fonttest.Default().Glyphs), res.Metadata.GlyphCount)
	subset, err := res.Subset()
	env.Require().NoError(err)
	md, err := otquery.ReadMetadata(subset)
	env.Require().NoError(err)
	env.LessOrEqual(md.GlyphCount, res.Metadata.GlyphCount)
	env.Equal(res.Metadata.Names[otquery.NameIDFamily], md.Names[otquery.NameIDFamily])
	env.True(md.Supports('A'))
	env.False(md.Supports('C'))
	//
	_, err = res.Subset()
	env.ErrorIs(err, ErrAlreadyConsumed)
}

func (env *SubsetTestEnviron) TestCompressedInput() {
	compressed, err := woff2.Encode(fonttest.Font())
	env.Require().NoError(err)
	res, err := SubsetFont(compressed, "41", env.options())
	env.Require().NoError(err)
	env.Equal(len(compressed), res.ByteLength, "byte length of the file as given")
	subset, err := res.Subset()
	env.Require().NoError(err)
	env.Equal(woff2.Raw, woff2.Detect(subset))
}

func (env *SubsetTestEnviron) TestGarbage() {
	_, err := SubsetFont([]byte("no font, just garbage"), "0-7f", env.options())
	var invalid *InvalidFontError
	env.True(errors.As(err, &invalid), "error is %v", err)
}

func (env *SubsetTestEnviron) TestMalformedRange() {
	_, err := SubsetFont(fonttest.Font(), "zz-10", env.options())
	var malformed *MalformedRangeError
	env.Require().True(errors.As(err, &malformed), "error is %v", err)
	env.Equal("zz-10", malformed.Term)
}

func (env *SubsetTestEnviron) TestIncompleteAxisRange() {
	lo := 100.0
	opts := env.options()
	opts.VariationAxes = map[string]AxisConstraint{"wght": {Min: &lo}}
	_, err := SubsetFont(fonttest.Variable().Build(), "0-7f", opts)
	var incomplete *IncompleteAxisRangeError
	env.Require().True(errors.As(err, &incomplete), "error is %v", err)
	env.Equal("wght", incomplete.Tag)
}

func (env *SubsetTestEnviron) TestAxisNotFound() {
	opts := env.options()
	opts.VariationAxes = map[string]AxisConstraint{"wght": Pin(700)}
	_, err := SubsetFont(fonttest.Font(), "0-7f", opts)
	var notFound *AxisNotFoundError
	env.Require().True(errors.As(err, &notFound), "error is %v", err)
	env.Equal(700.0, notFound.Value)
	//
	opts.VariationAxes = map[string]AxisConstraint{"wdth": Range(75, 100)}
	_, err = SubsetFont(fonttest.Variable().Build(), "0-7f", opts)
	var rejected *AxisRangeRejectedError
	env.True(errors.As(err, &rejected), "error is %v", err)
}

func (env *SubsetTestEnviron) TestAxisRangeRejectedByEngine() {
	opts := env.options()
	opts.VariationAxes = map[string]AxisConstraint{"wght": RangeWithDefault(200, 300, 250)}
	res, err := SubsetFont(fonttest.Variable().Build(), "41", opts)
	env.Require().NoError(err)
	_, err = res.Subset()
	var rejected *AxisRangeRejectedError
	env.Require().True(errors.As(err, &rejected), "error is %v", err)
	env.Equal(250.0, rejected.Default)
}

func (env *SubsetTestEnviron) TestInstance() {
	opts := env.options()
	opts.VariationAxes = map[string]AxisConstraint{"wght": Pin(900)}
	rep, err := Process(fonttest.Variable().Build(), "Var.ttf", "41-42", opts)
	env.Require().NoError(err)
	env.True(rep.Original.IsVariable)
	env.False(rep.Subset.IsVariable)
	env.Equal(900, rep.Subset.Weight)
}

func (env *SubsetTestEnviron) TestProcess() {
	font := fonttest.Font()
	rep, err := Process(font, "Test.ttf", "41-42", env.options())
	env.Require().NoError(err)
	env.Equal("Test-subset.woff2", rep.FileName)
	env.Equal(woff2.Compressed, woff2.Detect(rep.Bytes))
	env.Equal(len(font), rep.OriginalBytes)
	env.Equal("Test Sans Family", rep.Name())
	env.Equal("Glyphs: 3 (from 16)", rep.Glyphs(), ".notdef, A, B with compacted glyph IDs")
	env.Regexp(regexp.MustCompile(`^File size: \d+(\.\d)? k?B \(from \d+(\.\d)? k?B\)$`), rep.FileSize())
	raw, err := woff2.Decode(rep.Bytes)
	env.Require().NoError(err)
	md, err := otquery.ReadMetadata(raw)
	env.Require().NoError(err)
	env.Equal(rep.Subset.GlyphCount, md.GlyphCount)
}

func (env *SubsetTestEnviron) TestCompressionFailed() {
	opts := env.options()
	failure := errors.New("out of disk")
	var raw []byte
	opts.Compress = func(sfnt []byte) ([]byte, error) {
		raw = sfnt
		return nil, failure
	}
	rep, err := Process(fonttest.Font(), "Test.ttf", "41-42", opts)
	env.Nil(rep)
	var failed *CompressionFailedError
	env.Require().True(errors.As(err, &failed), "error is %v", err)
	env.Equal(len(raw), failed.Length)
	env.ErrorIs(err, failure)
	var subsetting *SubsettingFailedError
	env.False(errors.As(err, &subsetting), "subsetting itself succeeded")
	env.Equal(woff2.Raw, woff2.Detect(raw))
}

func (env *SubsetTestEnviron) TestNoLayoutClosure() {
	opts := env.options()
	opts.LayoutFeatures = []string{}
	rep, err := Process(fonttest.Font(), "Test.ttf", "66,69", opts)
	env.Require().NoError(err)
	env.Equal(3, rep.Subset.GlyphCount, "no features: compact glyph IDs for .notdef, f, i")
	//
	opts.LayoutFeatures = nil
	opts.NoLayoutClosure = true
	rep, err = Process(fonttest.Font(), "Test.ttf", "66,69", opts)
	env.Require().NoError(err)
	env.Equal(3, rep.Subset.GlyphCount, "no closure, f_i not added")
}

func (env *SubsetTestEnviron) TestConcurrentRequests() {
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = Process(fonttest.Font(), "Test.ttf", "41-43", env.options())
		}()
	}
	wg.Wait()
	for _, err := range errs {
		env.NoError(err)
	}
}

// --- Plain tests -----------------------------------------------------------

func TestOutputName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	for in, out := range map[string]string{
		"Font.ttf":       "Font-subset.woff2",
		"Font.woff2":     "Font-subset.woff2",
		"a.b.otf":        "a.b-subset.woff2",
		"noext":          "noext-subset.woff2",
		"":               "font-subset.woff2",
		"fonts/Some.ttf": "fonts/Some-subset.woff2",
	} {
		assert.Equal(t, out, OutputName(in), "output name for %q", in)
	}
}

func TestReportStrings(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	r := &Report{
		Original:      otquery.Metadata{GlyphCount: 1200, Names: map[uint16]string{1: "Family"}},
		OriginalBytes: 2000000,
		Subset:        otquery.Metadata{GlyphCount: 96},
		Bytes:         make([]byte, 1500),
	}
	assert.Equal(t, "Glyphs: 96 (from 1200)", r.Glyphs())
	assert.Equal(t, "File size: 1.5 kB (from 2.0 MB)", r.FileSize())
	assert.Equal(t, "Family", r.Name())
	r.Original.Names[16] = "Typographic Family"
	assert.Equal(t, "Typographic Family", r.Name())
}

func TestConfig(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset")
	defer teardown()
	//
	c := NewConfig(nil)
	assert.Equal(t, otsubset.DefaultHeapLimit, c.HeapLimit())
	opts := c.Options()
	assert.False(t, opts.NoLayoutClosure)
	assert.Nil(t, opts.LayoutFeatures)
	assert.Same(t, DefaultEngine(), opts.Engine)
	assert.Equal(t, "x-subset.woff2", c.OutputName("x.ttf"))
	//
	c = NewConfig(testconfig.Conf{
		KeyHeapLimit:      1 << 20,
		KeyLayoutClosure:  false,
		KeyNameIDs:        "16, 300,bad",
		KeyLayoutFeatures: "liga, kern",
		KeyOutputSuffix:   ".min",
	})
	assert.Equal(t, 1<<20, c.HeapLimit())
	opts = c.Options()
	assert.True(t, opts.NoLayoutClosure)
	assert.Equal(t, []uint16{16, 300}, opts.PreserveNameIDs)
	assert.Equal(t, []string{"liga", "kern"}, opts.LayoutFeatures)
	assert.NotSame(t, DefaultEngine(), opts.Engine)
	assert.Same(t, opts.Engine, c.Options().Engine, "engine is created once")
	other := NewConfig(testconfig.Conf{KeyHeapLimit: 1 << 20})
	assert.Same(t, opts.Engine, other.Engine(), "engines are shared by heap limit")
	assert.NotSame(t, opts.Engine, NewConfig(testconfig.Conf{KeyHeapLimit: 2 << 20}).Engine())
	assert.Equal(t, "x.min.woff2", c.OutputName("x.ttf"))
	//
	c = NewConfig(testconfig.Conf{KeyLayoutFeatures: ""})
	assert.Equal(t, []string{}, c.Options().LayoutFeatures, "empty list retains no features")
}
