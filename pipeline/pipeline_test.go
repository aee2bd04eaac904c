package pipeline

import (
	"errors"
	"math"
	"testing"

	"github.com/jqpe/font-subset/internal/fonttest"
	"github.com/jqpe/font-subset/otquery"
	"github.com/jqpe/font-subset/otsubset"
	"github.com/jqpe/font-subset/unirange"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
)

// recordingEngine is a real engine which records the destruction of
// handles and may be told to fail.
type recordingEngine struct {
	*otsubset.Engine
	released    []string
	locked      bool
	failSubset  bool
	emptyResult bool
	onSubset    func(face, input uint32) // called before subsetting
}

func (r *recordingEngine) Lock() {
	r.Engine.Lock()
	r.locked = true
}

func (r *recordingEngine) Unlock() {
	r.locked = false
	r.Engine.Unlock()
}

func (r *recordingEngine) Free(ptr uint32) {
	r.released = append(r.released, "buffer")
	r.Engine.Free(ptr)
}

func (r *recordingEngine) BlobDestroy(h uint32) {
	r.released = append(r.released, "blob")
	r.Engine.BlobDestroy(h)
}

func (r *recordingEngine) FaceDestroy(h uint32) {
	r.released = append(r.released, "face")
	r.Engine.FaceDestroy(h)
}

func (r *recordingEngine) SubsetInputDestroy(h uint32) {
	r.released = append(r.released, "input")
	r.Engine.SubsetInputDestroy(h)
}

func (r *recordingEngine) SubsetOrFail(face, input uint32) uint32 {
	if r.onSubset != nil {
		r.onSubset(face, input)
	}
	if r.failSubset {
		return 0
	}
	return r.Engine.SubsetOrFail(face, input)
}

func (r *recordingEngine) BlobGetLength(h uint32) uint32 {
	if r.emptyResult {
		return 0
	}
	return r.Engine.BlobGetLength(h)
}

// --- Test Suite Preparation ------------------------------------------------

type PipelineTestEnviron struct {
	suite.Suite
	eng *recordingEngine
}

// listen for 'go test' command --> run test methods
func TestPipelineFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.pipeline")
	defer teardown()
	suite.Run(t, new(PipelineTestEnviron))
}

// run before each test method
func (env *PipelineTestEnviron) SetupTest() {
	env.eng = &recordingEngine{Engine: otsubset.New(4 << 20)}
}

// run after each test method: the pipeline never leaks engine resources
func (env *PipelineTestEnviron) TearDownTest() {
	env.Equal(0, env.eng.Live(), "engine handles leaked")
	env.Equal(0, env.eng.HeapInUse(), "engine memory leaked")
	env.False(env.eng.locked, "engine still locked")
}

func request(font []byte, runes string) Request {
	return Request{Source: font, Codepoints: unirange.NewSet([]rune(runes)...)}
}

// --- Tests -----------------------------------------------------------------

func (env *PipelineTestEnviron) TestSubsetAB() {
	p := New(env.eng, request(fonttest.Font(), "AB"))
	out, err := p.Run()
	env.Require().NoError(err)
	env.Equal(Released, p.State())
	env.Equal([]State{Acquired, Configured, Executed, Extracted, Released}, p.Transitions())
	env.Equal([]string{"blob", "blob", "face", "input", "face", "buffer"}, env.eng.released,
		"intermediate blob first, then reverse order of acquisition")
	//
	original, err := otquery.ReadMetadata(fonttest.Font())
	env.Require().NoError(err)
	subset, err := otquery.ReadMetadata(out)
	env.Require().NoError(err)
	env.LessOrEqual(subset.GlyphCount, original.GlyphCount)
	env.Equal(original.Names[otquery.NameIDFamily], subset.Names[otquery.NameIDFamily])
}

func (env *PipelineTestEnviron) TestRunTwice() {
	p := New(env.eng, request(fonttest.Font(), "A"))
	_, err := p.Run()
	env.Require().NoError(err)
	_, err = p.Run()
	env.ErrorIs(err, ErrAlreadyRun)
}

func (env *PipelineTestEnviron) TestRequestIsCopied() {
	req := request(fonttest.Font(), "A")
	req.LayoutFeatures = []string{"liga"}
	p := New(env.eng, req)
	req.LayoutFeatures[0] = "salt"
	req.Source[0] = 0xff
	env.eng.onSubset = func(_, input uint32) {
		features := env.eng.SubsetInputSet(input, otsubset.SetsLayoutFeatureTag)
		env.True(env.eng.SetHas(features, otsubset.Tag("liga")))
		env.False(env.eng.SetHas(features, otsubset.Tag("salt")))
	}
	_, err := p.Run()
	env.NoError(err, "pipeline works on its own copy of the font")
}

func (env *PipelineTestEnviron) TestConfigureDefaults() {
	called := false
	env.eng.onSubset = func(_, input uint32) {
		called = true
		e := env.eng
		features := e.SubsetInputSet(input, otsubset.SetsLayoutFeatureTag)
		env.True(e.SetIsInverted(features), "all features are retained")
		env.True(e.SetHas(features, otsubset.Tag("salt")))
		env.Equal(otsubset.FlagDefault, e.SubsetInputGetFlags(input))
		env.Equal(2, e.SetLen(e.SubsetInputUnicodeSet(input)))
		env.Equal(7, e.SetLen(e.SubsetInputSet(input, otsubset.SetsNameID)), "default name IDs")
	}
	_, err := Run(env.eng, request(fonttest.Font(), "AB"))
	env.NoError(err)
	env.True(called)
}

func (env *PipelineTestEnviron) TestConfigureExplicit() {
	req := request(fonttest.Font(), "A")
	req.LayoutFeatures = []string{"liga", "kern"}
	req.PreserveNameIDs = []uint16{16, 300}
	req.SuppressLayoutClosure = true
	env.eng.onSubset = func(_, input uint32) {
		e := env.eng
		features := e.SubsetInputSet(input, otsubset.SetsLayoutFeatureTag)
		env.False(e.SetIsInverted(features))
		env.Equal(2, e.SetLen(features))
		env.True(e.SetHas(features, otsubset.Tag("kern")))
		names := e.SubsetInputSet(input, otsubset.SetsNameID)
		env.True(e.SetHas(names, 16))
		env.True(e.SetHas(names, 300))
		env.True(e.SetHas(names, 1), "defaults are kept")
		env.Equal(otsubset.FlagNoLayoutClosure, e.SubsetInputGetFlags(input))
	}
	out, err := Run(env.eng, req)
	env.Require().NoError(err)
	md, err := otquery.ReadMetadata(out)
	env.Require().NoError(err)
	env.Equal("Test Sans Family", md.Names[otquery.NameIDTypographicFamily])
	//
	req.LayoutFeatures = []string{}
	env.eng.onSubset = func(_, input uint32) {
		features := env.eng.SubsetInputSet(input, otsubset.SetsLayoutFeatureTag)
		env.Zero(env.eng.SetLen(features), "empty list retains no feature")
	}
	_, err = Run(env.eng, req)
	env.NoError(err)
}

func (env *PipelineTestEnviron) TestPinAxis() {
	req := request(fonttest.Variable().Build(), "AB")
	req.VariationAxes = map[string]AxisConstraint{"wght": Pin(700)}
	out, err := Run(env.eng, req)
	env.Require().NoError(err)
	md, err := otquery.ReadMetadata(out)
	env.Require().NoError(err)
	env.False(md.IsVariable)
	env.Equal(700, md.Weight)
}

func (env *PipelineTestEnviron) TestRestrictAxis() {
	req := request(fonttest.Variable().Build(), "A")
	req.VariationAxes = map[string]AxisConstraint{"wght": Range(300, 700)}
	out, err := Run(env.eng, req)
	env.Require().NoError(err)
	md, err := otquery.ReadMetadata(out)
	env.Require().NoError(err)
	axis, ok := md.Axis("wght")
	env.Require().True(ok)
	env.Equal(otquery.Axis{Tag: "wght", Min: 300, Max: 700, Default: 400}, axis)
}

// --- Failures ----------------------------------------------------------------

func (env *PipelineTestEnviron) TestInvalidFont() {
	p := New(env.eng, request([]byte("garbage, definitely not a font"), "A"))
	_, err := p.Run()
	var invalid *InvalidFontError
	env.Require().True(errors.As(err, &invalid), "error is %v", err)
	env.Equal(30, invalid.Length)
	env.Equal(Failed, p.State())
	env.Equal([]State{Failed, Released}, p.Transitions())
	env.Equal([]string{"blob", "buffer"}, env.eng.released)
}

func (env *PipelineTestEnviron) TestOversizedInput() {
	env.eng = &recordingEngine{Engine: otsubset.New(64 << 10)}
	_, err := Run(env.eng, request(make([]byte, 70000), "A"))
	var oversized *OversizedInputError
	env.Require().True(errors.As(err, &oversized), "error is %v", err)
	env.Equal(70000, oversized.Length)
	env.Equal(64<<10, oversized.Limit)
	env.Empty(env.eng.released, "nothing was acquired")
}

func (env *PipelineTestEnviron) TestIncompleteAxisRange() {
	req := request(fonttest.Variable().Build(), "A")
	lo := 100.0
	req.VariationAxes = map[string]AxisConstraint{"wght": {Min: &lo}}
	p := New(env.eng, req)
	_, err := p.Run()
	var incomplete *IncompleteAxisRangeError
	env.Require().True(errors.As(err, &incomplete), "error is %v", err)
	env.Equal("wght", incomplete.Tag)
	env.Equal([]State{Acquired, Failed, Released}, p.Transitions())
	env.Equal([]string{"blob", "input", "face", "buffer"}, env.eng.released)
}

func (env *PipelineTestEnviron) TestAxisNotFound() {
	req := request(fonttest.Font(), "A")
	req.VariationAxes = map[string]AxisConstraint{"wght": Pin(500)}
	_, err := Run(env.eng, req)
	var notFound *AxisNotFoundError
	env.Require().True(errors.As(err, &notFound), "error is %v", err)
	env.Equal(AxisNotFoundError{Tag: "wght", Value: 500}, *notFound)
}

func (env *PipelineTestEnviron) TestAxisErrorsInTagOrder() {
	req := request(fonttest.Font(), "A")
	req.VariationAxes = map[string]AxisConstraint{"wght": Pin(500), "opsz": Pin(12), "wdth": Pin(100)}
	_, err := Run(env.eng, req)
	var notFound *AxisNotFoundError
	env.Require().True(errors.As(err, &notFound))
	env.Equal("opsz", notFound.Tag)
}

func (env *PipelineTestEnviron) TestAxisRangeRejected() {
	req := request(fonttest.Variable().Build(), "A")
	req.VariationAxes = map[string]AxisConstraint{"wght": Range(700, 300)}
	_, err := Run(env.eng, req)
	var rejected *AxisRangeRejectedError
	env.Require().True(errors.As(err, &rejected), "error is %v", err)
	env.Equal("wght", rejected.Tag)
	env.Equal(700.0, rejected.Min)
	env.True(math.IsNaN(rejected.Default))
	//
	req.VariationAxes = map[string]AxisConstraint{"wght": RangeWithDefault(300, 700, 800)}
	_, err = Run(env.eng, req)
	env.Require().True(errors.As(err, &rejected))
	env.Equal(800.0, rejected.Default)
	env.Contains(rejected.Error(), "default 800")
}

func (env *PipelineTestEnviron) TestSubsettingFailed() {
	env.eng.failSubset = true
	p := New(env.eng, request(fonttest.Font(), "A"))
	_, err := p.Run()
	var failed *SubsettingFailedError
	env.Require().True(errors.As(err, &failed), "error is %v", err)
	env.Contains(err.Error(), "maybe the input file is corrupted")
	env.Equal([]State{Acquired, Configured, Failed, Released}, p.Transitions())
	env.Equal([]string{"blob", "input", "face", "buffer"}, env.eng.released)
}

func (env *PipelineTestEnviron) TestEmptyResult() {
	env.eng.emptyResult = true
	p := New(env.eng, request(fonttest.Font(), "A"))
	_, err := p.Run()
	var failed *SubsettingFailedError
	env.Require().True(errors.As(err, &failed), "error is %v", err)
	env.Equal([]State{Acquired, Configured, Executed, Failed, Released}, p.Transitions())
	env.Equal([]string{"blob", "blob", "face", "input", "face", "buffer"}, env.eng.released)
}

func (env *PipelineTestEnviron) TestEmptyCodepointSet() {
	out, err := Run(env.eng, request(fonttest.Font(), ""))
	env.Require().NoError(err, "a subset without codepoints is valid")
	md, err := otquery.ReadMetadata(out)
	env.Require().NoError(err)
	env.Empty(md.UnicodeRanges)
}

// --- Scope -----------------------------------------------------------------

func TestScopeReleasesInReverse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.pipeline")
	defer teardown()
	//
	var order []uint32
	destroy := func(h uint32) { order = append(order, h) }
	var s scope
	s.acquire("a", 1, destroy)
	b := s.acquire("b", 2, destroy)
	if s.acquire("null", 0, destroy) != nil {
		t.Errorf("null handle must not be recorded")
	}
	s.acquire("c", 3, destroy)
	b.release()
	s.releaseAll()
	s.releaseAll()
	if len(order) != 3 || order[0] != 2 || order[1] != 3 || order[2] != 1 {
		t.Errorf("expected release order [2 3 1], got %v", order)
	}
}

func TestStateString(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.pipeline")
	defer teardown()
	//
	if Extracted.String() != "Extracted" || Failed.String() != "Failed" {
		t.Errorf("unexpected state names %s, %s", Extracted, Failed)
	}
	if State(42).String() != "State(?)" {
		t.Errorf("unknown state not detected")
	}
}
