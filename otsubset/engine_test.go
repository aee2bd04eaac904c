package otsubset

import (
	"math"
	"testing"

	"github.com/jqpe/font-subset/internal/fonttest"
	"github.com/jqpe/font-subset/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Preparation ------------------------------------------------

type EngineTestEnviron struct {
	suite.Suite
	eng *Engine
}

// listen for 'go test' command --> run test methods
func TestEngineFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontsubset.otsubset")
	defer teardown()
	suite.Run(t, new(EngineTestEnviron))
}

// run before each test method
func (env *EngineTestEnviron) SetupTest() {
	env.eng = New(4 << 20)
}

// run after each test method: every test has to clean up after itself
func (env *EngineTestEnviron) TearDownTest() {
	env.Equal(0, env.eng.Live(), "engine handles leaked")
	env.Equal(0, env.eng.HeapInUse(), "arena memory leaked")
}

// load copies a font into the arena and creates a face for it.
func (env *EngineTestEnviron) load(font []byte) uint32 {
	e := env.eng
	ptr := e.Malloc(uint32(len(font)))
	env.Require().NotZero(ptr)
	copy(e.Heap()[ptr:], font)
	blob := e.BlobCreate(ptr, uint32(len(font)), MemoryModeWritable)
	env.Require().NotZero(blob)
	face := e.FaceCreate(blob, 0)
	e.BlobDestroy(blob)
	e.Free(ptr)
	env.Require().NotZero(face, "synthetic font not accepted")
	return face
}

// --- Tests -----------------------------------------------------------------

func (env *EngineTestEnviron) TestBlobModes() {
	e := env.eng
	ptr := e.Malloc(4)
	copy(e.Heap()[ptr:], "abcd")
	borrowed := e.BlobCreate(ptr, 4, MemoryModeReadonly)
	dup := e.BlobCreate(ptr, 4, MemoryModeDuplicate)
	env.Equal(ptr, e.BlobGetData(borrowed))
	env.NotEqual(ptr, e.BlobGetData(dup), "duplicate owns a copy")
	env.Equal(uint32(4), e.BlobGetLength(dup))
	d := e.BlobGetData(dup)
	env.Equal([]byte("abcd"), e.Heap()[d:d+4])
	e.BlobDestroy(dup)
	e.BlobDestroy(borrowed)
	e.Free(ptr)
	env.Zero(e.BlobCreate(0, 4, MemoryModeReadonly), "null pointer")
	env.Zero(e.BlobGetLength(12345), "unknown blob")
}

func (env *EngineTestEnviron) TestFaceCreate() {
	e := env.eng
	face := env.load(fonttest.Font())
	env.Equal(len(fonttest.Default().Glyphs), e.FaceGlyphCount(face))
	blob := e.FaceReferenceBlob(face)
	env.Equal(uint32(len(fonttest.Font())), e.BlobGetLength(blob))
	e.BlobDestroy(blob)
	e.FaceDestroy(face)
	//
	garbage := []byte("this is not a font at all, just some bytes")
	ptr := e.Malloc(uint32(len(garbage)))
	copy(e.Heap()[ptr:], garbage)
	blob = e.BlobCreate(ptr, uint32(len(garbage)), MemoryModeWritable)
	env.Zero(e.FaceCreate(blob, 0), "garbage is not a font")
	e.BlobDestroy(blob)
	e.Free(ptr)
}

func (env *EngineTestEnviron) TestFaceFromCollection() {
	e := env.eng
	ttc := fonttest.Collection(fonttest.Font(), fonttest.Variable().Build())
	ptr := e.Malloc(uint32(len(ttc)))
	copy(e.Heap()[ptr:], ttc)
	blob := e.BlobCreate(ptr, uint32(len(ttc)), MemoryModeReadonly)
	face := e.FaceCreate(blob, 1)
	env.NotZero(face)
	env.True(e.face(face).IsVariable(), "second font of the collection is variable")
	env.Zero(e.FaceCreate(blob, 2), "index out of range")
	e.FaceDestroy(face)
	e.BlobDestroy(blob)
	e.Free(ptr)
}

func (env *EngineTestEnviron) TestInputDefaults() {
	e := env.eng
	input := e.SubsetInputCreateOrFail()
	names := e.SubsetInputSet(input, SetsNameID)
	env.Equal(7, e.SetLen(names))
	env.True(e.SetHas(names, 6))
	env.False(e.SetHas(names, 16))
	features := e.SubsetInputSet(input, SetsLayoutFeatureTag)
	env.True(e.SetHas(features, Tag("liga")))
	env.False(e.SetHas(features, Tag("salt")))
	e.SetClear(features)
	e.SetInvert(features)
	env.True(e.SetHas(features, Tag("salt")), "inverted empty set contains everything")
	env.True(e.SetIsInverted(features))
	env.Equal(1<<32, e.SetLen(features))
	env.Zero(e.SetLen(e.SubsetInputUnicodeSet(input)))
	e.SubsetInputSetFlags(input, FlagNoLayoutClosure|FlagRetainGIDs)
	env.Equal(FlagNoLayoutClosure|FlagRetainGIDs, e.SubsetInputGetFlags(input))
	env.Zero(e.SubsetInputSet(input, setsCount), "no such set")
	e.SubsetInputDestroy(input)
	env.False(e.SetHas(names, 6), "sets are destroyed with their input")
}

func (env *EngineTestEnviron) TestAxes() {
	e := env.eng
	static := env.load(fonttest.Font())
	variable := env.load(fonttest.Variable().Build())
	input := e.SubsetInputCreateOrFail()
	env.False(e.PinAxisLocation(input, static, Tag("wght"), 500), "static font has no axes")
	env.False(e.PinAxisLocation(input, variable, Tag("wdth"), 100), "no such axis")
	env.True(e.PinAxisLocation(input, variable, Tag("wght"), 1200))
	env.Equal(axisLimit{900, 900, 900}, e.inputs[input].axes[ot.T("wght")], "location is clamped")
	nan := math.NaN()
	env.True(e.SetAxisRange(input, variable, Tag("wght"), 300, nan, nan))
	env.Equal(axisLimit{300, 400, 900}, e.inputs[input].axes[ot.T("wght")])
	env.False(e.SetAxisRange(input, variable, Tag("wght"), 500, 800, nan), "default cannot move")
	env.False(e.SetAxisRange(input, variable, Tag("wght"), 800, 500, nan), "min > max")
	env.False(e.SetAxisRange(input, variable, Tag("wght"), 300, 500, 600), "default outside range")
	env.True(e.SetAxisRange(input, variable, Tag("wght"), 650, 650, nan), "min == max pins")
	env.True(e.inputs[input].axes[ot.T("wght")].pinned())
	e.SubsetInputDestroy(input)
	e.FaceDestroy(static)
	e.FaceDestroy(variable)
}

func (env *EngineTestEnviron) TestSubsetUnknownHandles() {
	e := env.eng
	input := e.SubsetInputCreateOrFail()
	env.Zero(e.SubsetOrFail(4711, input))
	e.SubsetInputDestroy(input)
}

func (env *EngineTestEnviron) TestDefaultEngineIsShared() {
	env.Same(Default(), Default())
}

func (env *EngineTestEnviron) TestTag() {
	env.Equal(uint32(0x77676874), Tag("wght"))
	env.Equal(uint32(ot.T("cvt ")), Tag("cvt"))
}
