package pipeline

import (
	"errors"
	"maps"
	"math"
	"slices"

	"github.com/jqpe/font-subset/otsubset"
)

// State is the state of a pipeline.
type State int8

// States of a pipeline. Failed may be reached from every state before
// Released.
const (
	Unacquired State = iota
	Acquired
	Configured
	Executed
	Extracted
	Released
	Failed
)

var stateNames = [...]string{"Unacquired", "Acquired", "Configured", "Executed", "Extracted", "Released", "Failed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(?)"
	}
	return stateNames[s]
}

// ErrAlreadyRun is returned if a pipeline is run a second time.
var ErrAlreadyRun = errors.New("pipeline has already run")

// Pipeline carries a single Request through the engine. A Pipeline is not
// re-usable.
type Pipeline struct {
	eng    Engine
	req    Request
	state  State
	log    []State
	scope  scope
	face   uint32
	input  uint32
	result uint32
	out    []byte
	err    error
}

// New creates a pipeline for a request. The request is copied.
func New(eng Engine, req Request) *Pipeline {
	return &Pipeline{eng: eng, req: req.clone()}
}

// Run subsets a font with engine eng and returns the subset font.
func Run(eng Engine, req Request) ([]byte, error) {
	return New(eng, req).Run()
}

// State returns the current state. After Run it is either Released or
// Failed.
func (p *Pipeline) State() State {
	return p.state
}

// Transitions returns the states the pipeline went through. A failed
// pipeline lists Failed followed by Released, as it releases its resources
// nevertheless.
func (p *Pipeline) Transitions() []State {
	return slices.Clone(p.log)
}

// Err returns the error which made the pipeline fail, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Run acquires engine resources, configures and executes the subsetting
// and extracts the result. Resources are released before Run returns, on
// every path. Run holds the engine lock until then.
func (p *Pipeline) Run() ([]byte, error) {
	if p.state != Unacquired {
		return nil, ErrAlreadyRun
	}
	p.eng.Lock()
	defer p.eng.Unlock()
	defer p.release()
	for _, step := range []func() error{p.acquire, p.configure, p.execute, p.extract} {
		if err := step(); err != nil {
			p.fail(err)
			return nil, err
		}
	}
	return p.out, nil
}

func (p *Pipeline) transition(s State) {
	tracer().Debugf("pipeline %s -> %s", p.state, s)
	p.state = s
	p.log = append(p.log, s)
}

func (p *Pipeline) fail(err error) {
	tracer().Errorf("pipeline failed in state %s: %v", p.state, err)
	p.err = err
	p.transition(Failed)
}

func (p *Pipeline) release() {
	p.scope.releaseAll()
	p.log = append(p.log, Released)
	if p.state != Failed {
		p.state = Released
	}
}

// --- Steps -----------------------------------------------------------------

func (p *Pipeline) acquire() error {
	e, n := p.eng, len(p.req.Source)
	if limit := e.HeapLimit(); n > limit {
		return &OversizedInputError{Length: n, Limit: limit}
	}
	ptr := e.Malloc(uint32(n))
	if ptr == 0 {
		return &OversizedInputError{Length: n, Limit: e.HeapLimit()}
	}
	p.scope.acquire("buffer", ptr, e.Free)
	copy(e.Heap()[ptr:], p.req.Source)
	blob := p.scope.acquire("blob", e.BlobCreate(ptr, uint32(n), otsubset.MemoryModeWritable), e.BlobDestroy)
	if blob == nil {
		return &InvalidFontError{Length: n}
	}
	p.face = e.FaceCreate(blob.handle, 0)
	blob.release() // the face keeps a copy of the font
	if p.scope.acquire("face", p.face, e.FaceDestroy) == nil {
		return &InvalidFontError{Length: n}
	}
	p.input = e.SubsetInputCreateOrFail()
	if p.scope.acquire("subset input", p.input, e.SubsetInputDestroy) == nil {
		return &InvalidFontError{Length: n}
	}
	p.transition(Acquired)
	return nil
}

func (p *Pipeline) configure() error {
	e, in, req := p.eng, p.input, p.req
	features := e.SubsetInputSet(in, otsubset.SetsLayoutFeatureTag)
	e.SetClear(features)
	if req.LayoutFeatures == nil {
		e.SetInvert(features)
	} else {
		for _, f := range req.LayoutFeatures {
			e.SetAdd(features, otsubset.Tag(f))
		}
	}
	if len(req.PreserveNameIDs) > 0 {
		names := e.SubsetInputSet(in, otsubset.SetsNameID)
		for _, id := range req.PreserveNameIDs {
			e.SetAdd(names, uint32(id))
		}
	}
	if req.SuppressLayoutClosure {
		e.SubsetInputSetFlags(in, e.SubsetInputGetFlags(in)|otsubset.FlagNoLayoutClosure)
	}
	unicodes := e.SubsetInputUnicodeSet(in)
	for r := range req.Codepoints.All() {
		e.SetAdd(unicodes, uint32(r))
	}
	for _, tag := range slices.Sorted(maps.Keys(req.VariationAxes)) {
		if err := p.constrainAxis(tag, req.VariationAxes[tag]); err != nil {
			return err
		}
	}
	tracer().Debugf("configured subset of %d codepoints, %d axis constraints",
		req.Codepoints.Len(), len(req.VariationAxes))
	p.transition(Configured)
	return nil
}

func (p *Pipeline) constrainAxis(tag string, c AxisConstraint) error {
	t := otsubset.Tag(tag)
	if c.IsPin() {
		if !p.eng.PinAxisLocation(p.input, p.face, t, *c.Location) {
			return &AxisNotFoundError{Tag: tag, Value: *c.Location}
		}
		return nil
	}
	if c.Min == nil || c.Max == nil {
		return &IncompleteAxisRangeError{Tag: tag}
	}
	def := math.NaN()
	if c.Default != nil {
		def = *c.Default
	}
	if !p.eng.SetAxisRange(p.input, p.face, t, *c.Min, *c.Max, def) {
		return &AxisRangeRejectedError{Tag: tag, Min: *c.Min, Max: *c.Max, Default: def}
	}
	return nil
}

func (p *Pipeline) execute() error {
	p.result = p.eng.SubsetOrFail(p.face, p.input)
	if p.scope.acquire("subset face", p.result, p.eng.FaceDestroy) == nil {
		return &SubsettingFailedError{Reason: "engine returned no subset"}
	}
	p.transition(Executed)
	return nil
}

func (p *Pipeline) extract() error {
	e := p.eng
	blob := p.scope.acquire("subset blob", e.FaceReferenceBlob(p.result), e.BlobDestroy)
	if blob == nil {
		return &SubsettingFailedError{Reason: "subset has no data"}
	}
	n := e.BlobGetLength(blob.handle)
	if n == 0 {
		return &SubsettingFailedError{Reason: "subset is empty"}
	}
	ptr, heap := e.BlobGetData(blob.handle), e.Heap()
	if ptr == 0 || uint64(ptr)+uint64(n) > uint64(len(heap)) {
		return &SubsettingFailedError{Reason: "subset data outside of engine memory"}
	}
	p.out = slices.Clone(heap[ptr : ptr+n])
	tracer().Infof("extracted subset of %d bytes", n)
	p.transition(Extracted)
	return nil
}
