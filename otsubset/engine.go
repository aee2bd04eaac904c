package otsubset

import (
	"sync"

	"github.com/jqpe/font-subset/ot"
)

// Engine is a subsetting engine. It owns a memory arena and all objects
// created through its handle based API.
//
// An Engine is not safe for concurrent use; clients have to bracket a
// sequence of calls with Lock and Unlock.
type Engine struct {
	mu     sync.Mutex
	heap   *arena
	next   uint32 // last handle issued
	blobs  map[uint32]*blob
	faces  map[uint32]*face
	inputs map[uint32]*input
	sets   map[uint32]*set
}

// New creates an engine with a memory arena of at most heapLimit bytes.
// Limits below 64 KiB or above 4 GiB select DefaultHeapLimit.
func New(heapLimit int) *Engine {
	return &Engine{
		heap:   newArena(heapLimit),
		blobs:  make(map[uint32]*blob),
		faces:  make(map[uint32]*face),
		inputs: make(map[uint32]*input),
		sets:   make(map[uint32]*set),
	}
}

var defaultEngine struct {
	once sync.Once
	eng  *Engine
}

// Default returns the process-wide engine, creating it on first use with
// DefaultHeapLimit.
func Default() *Engine {
	defaultEngine.once.Do(func() {
		tracer().Infof("initializing process-wide subsetting engine")
		defaultEngine.eng = New(DefaultHeapLimit)
	})
	return defaultEngine.eng
}

// Lock acquires exclusive use of the engine.
func (e *Engine) Lock() {
	e.mu.Lock()
}

// Unlock releases the engine for other clients.
func (e *Engine) Unlock() {
	e.mu.Unlock()
}

// Tag packs a 4-letter tag into an integer, big endian. Shorter strings are
// padded with spaces.
func Tag(s string) uint32 {
	return uint32(ot.T(s))
}

func (e *Engine) handle() uint32 {
	e.next++
	if e.next == 0 {
		e.next++
	}
	return e.next
}

// Live returns the number of handles which have not been destroyed yet.
// Sets owned by subset inputs are not counted.
func (e *Engine) Live() int {
	return len(e.blobs) + len(e.faces) + len(e.inputs)
}

// --- Memory ----------------------------------------------------------------

// Malloc allocates size bytes of arena memory and returns a pointer to it,
// or 0 if the request exceeds the arena.
func (e *Engine) Malloc(size uint32) uint32 {
	ptr := e.heap.malloc(size)
	if ptr == 0 {
		tracer().Infof("cannot allocate %d bytes, arena limit is %d", size, e.heap.limit)
	}
	return ptr
}

// Free returns memory obtained from Malloc to the arena.
func (e *Engine) Free(ptr uint32) {
	if ptr != 0 && !e.heap.freePtr(ptr) {
		tracer().Errorf("free of unknown pointer %d", ptr)
	}
}

// Heap returns the arena memory. Pointers returned by Malloc and BlobGetData
// are offsets into it. The slice is invalidated by the next call of Malloc,
// clients should not keep it.
func (e *Engine) Heap() []byte {
	return e.heap.mem
}

// HeapInUse returns the number of allocated arena bytes.
func (e *Engine) HeapInUse() int {
	return e.heap.inUse()
}

// HeapLimit returns the size of the arena, which bounds any allocation.
func (e *Engine) HeapLimit() int {
	return int(e.heap.limit)
}

// --- Blobs -----------------------------------------------------------------

// MemoryMode tells BlobCreate how to treat the memory it is handed.
type MemoryMode int

// Memory modes. Blobs created in mode duplicate own a private copy of the
// memory, which is freed with the blob. All other blobs borrow the client's
// memory, which has to outlive them.
const (
	MemoryModeDuplicate MemoryMode = iota
	MemoryModeReadonly
	MemoryModeWritable
	MemoryModeReadonlyMayMakeWritable
)

type blob struct {
	ptr, length uint32
	mode        MemoryMode
	owned       bool
}

// BlobCreate wraps length bytes of arena memory at ptr. It returns 0 if the
// region is not part of the arena.
func (e *Engine) BlobCreate(ptr, length uint32, mode MemoryMode) uint32 {
	if e.heap.bytes(ptr, length) == nil {
		tracer().Errorf("blob region [%d, +%d) outside of arena", ptr, length)
		return 0
	}
	b := &blob{ptr: ptr, length: length, mode: mode}
	if mode == MemoryModeDuplicate {
		cp := e.heap.malloc(length)
		if cp == 0 {
			return 0
		}
		copy(e.heap.mem[cp:cp+length], e.heap.mem[ptr:ptr+length])
		b.ptr, b.owned = cp, true
	}
	h := e.handle()
	e.blobs[h] = b
	return h
}

// newBlob copies data into arena memory owned by a new blob.
func (e *Engine) newBlob(data []byte) uint32 {
	ptr := e.heap.malloc(uint32(len(data)))
	if ptr == 0 {
		return 0
	}
	copy(e.heap.mem[ptr:], data)
	h := e.handle()
	e.blobs[h] = &blob{ptr: ptr, length: uint32(len(data)), mode: MemoryModeReadonly, owned: true}
	return h
}

// BlobDestroy destroys a blob, freeing its memory if the blob owns it.
func (e *Engine) BlobDestroy(h uint32) {
	b, ok := e.blobs[h]
	if !ok {
		return
	}
	if b.owned {
		e.heap.freePtr(b.ptr)
	}
	delete(e.blobs, h)
}

// BlobGetLength returns the length of a blob's data, 0 for unknown blobs.
func (e *Engine) BlobGetLength(h uint32) uint32 {
	if b, ok := e.blobs[h]; ok {
		return b.length
	}
	return 0
}

// BlobGetData returns a pointer to a blob's data within the arena, 0 for
// unknown blobs.
func (e *Engine) BlobGetData(h uint32) uint32 {
	if b, ok := e.blobs[h]; ok {
		return b.ptr
	}
	return 0
}

func (e *Engine) blobBytes(h uint32) []byte {
	b, ok := e.blobs[h]
	if !ok {
		return nil
	}
	return e.heap.bytes(b.ptr, b.length)
}

// --- Faces -----------------------------------------------------------------

type face struct {
	font *ot.Font
}

// FaceCreate parses the font in a blob and returns a face for it. For font
// collections, index selects the font. It returns 0 if the blob does not
// hold a usable font.
//
// The face keeps a copy of the font data, the blob may be destroyed right
// after face creation.
func (e *Engine) FaceCreate(blobHandle uint32, index uint32) uint32 {
	data := e.blobBytes(blobHandle)
	if data == nil {
		tracer().Errorf("face creation from unknown blob %d", blobHandle)
		return 0
	}
	data = append([]byte(nil), data...)
	if ot.IsCollection(data) {
		fonts, err := ot.SplitCollection(data)
		if err != nil || int(index) >= len(fonts) {
			tracer().Infof("cannot select font %d from collection: %v", index, err)
			return 0
		}
		data = fonts[index]
	} else if index != 0 {
		tracer().Infof("font index %d requested from a single font", index)
		return 0
	}
	otf, err := ot.Parse(data)
	if err != nil {
		tracer().Infof("blob %d is not a font: %v", blobHandle, err)
		return 0
	}
	h := e.handle()
	e.faces[h] = &face{font: otf}
	return h
}

// FaceDestroy destroys a face.
func (e *Engine) FaceDestroy(h uint32) {
	delete(e.faces, h)
}

// FaceReferenceBlob returns a new blob holding the binary font of a face.
// The client has to destroy the blob. It returns 0 for unknown faces or if
// the arena cannot hold the font.
func (e *Engine) FaceReferenceBlob(h uint32) uint32 {
	f, ok := e.faces[h]
	if !ok {
		return 0
	}
	return e.newBlob(f.font.Binary())
}

// FaceGlyphCount returns the number of glyphs of a face.
func (e *Engine) FaceGlyphCount(h uint32) int {
	if f, ok := e.faces[h]; ok {
		return f.font.NumGlyphs()
	}
	return 0
}

func (e *Engine) face(h uint32) *ot.Font {
	if f, ok := e.faces[h]; ok {
		return f.font
	}
	return nil
}
