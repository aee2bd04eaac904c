package pipeline

// resource is an engine handle owned by a pipeline.
type resource struct {
	kind     string
	handle   uint32
	destroy  func(uint32)
	released bool
}

// release destroys the handle. Calling it more than once has no effect.
func (r *resource) release() {
	if r == nil || r.released {
		return
	}
	r.released = true
	if r.handle != 0 {
		tracer().Debugf("releasing %s %d", r.kind, r.handle)
		r.destroy(r.handle)
	}
}

// scope holds the resources of a pipeline in order of acquisition. A
// resource acquired later may borrow from resources acquired earlier, never
// the other way round.
type scope struct {
	stack []*resource
}

// acquire adds a handle to the scope. Null handles are not recorded.
func (s *scope) acquire(kind string, handle uint32, destroy func(uint32)) *resource {
	if handle == 0 {
		return nil
	}
	r := &resource{kind: kind, handle: handle, destroy: destroy}
	s.stack = append(s.stack, r)
	return r
}

// releaseAll releases every resource of the scope, the last acquired first.
func (s *scope) releaseAll() {
	for i := len(s.stack) - 1; i >= 0; i-- {
		s.stack[i].release()
	}
	s.stack = nil
}
