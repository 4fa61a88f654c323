package glint

// trackingFrame records the sources read during one evaluation. Frames
// form a stack on the engine so nested evaluations (a derivation
// recomputing inside an observer run) never mix their dependency sets.
type trackingFrame struct {
	// recording is false for untracked frames, which swallow reads
	// instead of recording them.
	recording bool

	// sources holds the recorded reads in first-read order.
	sources []source
	seen    map[uint64]struct{}
}

func newFrame() *trackingFrame {
	return &trackingFrame{
		recording: true,
		seen:      make(map[uint64]struct{}),
	}
}

func untrackedFrame() *trackingFrame {
	return &trackingFrame{}
}

// record registers a read, deduplicated by node ID.
func (f *trackingFrame) record(src source) {
	if !f.recording {
		return
	}

	id := src.info().ID
	if _, dup := f.seen[id]; dup {
		return
	}
	f.seen[id] = struct{}{}
	f.sources = append(f.sources, src)
}

// pushFrame begins a tracked (or untracked) evaluation scope.
func (e *Engine) pushFrame(f *trackingFrame) {
	e.frames = append(e.frames, f)
}

// popFrame ends the innermost scope and returns its frame. Callers pair
// it with pushFrame via defer so the stack never leaks frames, even when
// the evaluated function panics.
func (e *Engine) popFrame() *trackingFrame {
	if len(e.frames) == 0 {
		return nil
	}
	f := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]
	return f
}

// currentFrame returns the innermost frame, or nil outside any scope.
func (e *Engine) currentFrame() *trackingFrame {
	if len(e.frames) == 0 {
		return nil
	}
	return e.frames[len(e.frames)-1]
}

// recordRead notes a source read in the innermost recording frame.
// Reads outside any tracked scope create no dependency.
func (e *Engine) recordRead(src source) {
	if f := e.currentFrame(); f != nil {
		f.record(src)
	}
}
