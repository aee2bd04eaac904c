package otsubset

import (
	"cmp"
	"slices"
)

// DefaultHeapLimit is the size limit of the memory arena of the default engine.
const DefaultHeapLimit = 512 << 20

const (
	heapAlign = 8
	heapPage  = 64 << 10 // the arena grows in pages
)

// span is a region of arena memory.
type span struct {
	at, size uint32
}

func (s span) end() uint32 {
	return s.at + s.size
}

// arena is a first-fit allocator over a growing byte slice. Offset 0 is
// reserved, so that 0 may serve as a null pointer.
type arena struct {
	mem   []byte
	limit uint32
	// free spans, sorted by offset; adjacent spans are coalesced
	free []span
	// allocated pointer → size
	used map[uint32]uint32
}

func newArena(limit int) *arena {
	if limit < heapPage || int64(limit) > 1<<32-heapPage {
		limit = DefaultHeapLimit
	}
	return &arena{
		mem:   make([]byte, heapAlign),
		limit: uint32(limit),
		used:  make(map[uint32]uint32),
	}
}

func alignUp(n uint32) uint32 {
	return (n + heapAlign - 1) &^ (heapAlign - 1)
}

// malloc returns a pointer to size bytes of zeroed memory, or 0 if the arena
// cannot hold the request.
func (a *arena) malloc(size uint32) uint32 {
	if size == 0 {
		size = 1
	}
	if size > a.limit {
		return 0
	}
	size = alignUp(size)
	for i, s := range a.free {
		if s.size < size {
			continue
		}
		if s.size == size {
			a.free = slices.Delete(a.free, i, i+1)
		} else {
			a.free[i] = span{s.at + size, s.size - size}
		}
		clear(a.mem[s.at : s.at+size])
		a.used[s.at] = size
		return s.at
	}
	// no free span fits: grow at the top, re-using a free span touching it
	top := uint32(len(a.mem))
	at := top
	if n := len(a.free); n > 0 && a.free[n-1].end() == top {
		at = a.free[n-1].at
		a.free = a.free[:n-1]
	}
	if uint64(at)+uint64(size) > uint64(a.limit) {
		if at != top {
			a.free = append(a.free, span{at, top - at})
		}
		return 0
	}
	if !a.grow(at + size) {
		if at != top {
			a.free = append(a.free, span{at, top - at})
		}
		return 0
	}
	clear(a.mem[at : at+size])
	a.used[at] = size
	if rest := uint32(len(a.mem)) - (at + size); rest > 0 {
		a.release(span{at + size, rest})
	}
	return at
}

// grow extends the arena to at least n bytes, in multiples of heapPage.
func (a *arena) grow(n uint32) bool {
	if n <= uint32(len(a.mem)) {
		return true
	}
	size := (uint64(n) + heapPage - 1) / heapPage * heapPage
	size = min(size, uint64(a.limit))
	if size < uint64(n) {
		return false
	}
	mem := make([]byte, size)
	copy(mem, a.mem)
	tracer().Debugf("arena grows from %d to %d bytes", len(a.mem), size)
	a.mem = mem
	return true
}

// release inserts s into the free list.
func (a *arena) release(s span) {
	i, _ := slices.BinarySearchFunc(a.free, s.at, func(f span, at uint32) int {
		return cmp.Compare(f.at, at)
	})
	a.free = slices.Insert(a.free, i, s)
	// coalesce with successor, then with predecessor
	if i+1 < len(a.free) && a.free[i].end() == a.free[i+1].at {
		a.free[i].size += a.free[i+1].size
		a.free = slices.Delete(a.free, i+1, i+2)
	}
	if i > 0 && a.free[i-1].end() == a.free[i].at {
		a.free[i-1].size += a.free[i].size
		a.free = slices.Delete(a.free, i, i+1)
	}
}

// freePtr returns the memory at ptr to the arena. Unknown pointers are ignored.
func (a *arena) freePtr(ptr uint32) bool {
	size, ok := a.used[ptr]
	if !ok {
		return false
	}
	delete(a.used, ptr)
	a.release(span{ptr, size})
	return true
}

// bytes returns a view of length bytes of arena memory at ptr, or nil if the
// region lies outside of the arena.
func (a *arena) bytes(ptr, length uint32) []byte {
	if ptr == 0 || uint64(ptr)+uint64(length) > uint64(len(a.mem)) {
		return nil
	}
	return a.mem[ptr : ptr+length]
}

// inUse returns the number of allocated bytes.
func (a *arena) inUse() int {
	n := 0
	for _, size := range a.used {
		n += int(size)
	}
	return n
}
