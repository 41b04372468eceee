package player

import (
	"sync"

	"github.com/telecine/playcore/internal/engine"
	"github.com/telecine/playcore/internal/metrics"
)

// frameSink owns the most recently decoded frame. Delivery comes from the
// engine's streaming thread; reads come from the host's render context. A
// reader/writer lock keeps snapshots whole: readers never observe a frame
// mid-replacement.
type frameSink struct {
	sessionID string
	events    EventSink

	mu     sync.RWMutex
	frame  []byte
	width  int
	height int
}

func newFrameSink(sessionID string, events EventSink, width, height int) *frameSink {
	return &frameSink{
		sessionID: sessionID,
		events:    events,
		width:     width,
		height:    height,
	}
}

// OnFrame stores a copy of the delivered frame, reallocating when the
// geometry changed. The frame is replaced wholesale, never mutated in place.
func (f *frameSink) OnFrame(frame engine.Frame) {
	f.mu.Lock()
	if frame.Width != f.width || frame.Height != f.height {
		f.width = frame.Width
		f.height = frame.Height
		metrics.FrameBufferResized(f.sessionID)
	}

	next := make([]byte, len(frame.Data))
	copy(next, frame.Data)
	f.frame = next
	f.mu.Unlock()

	metrics.FrameDecoded(f.sessionID)
	f.events.OnFrameDecoded()
}

// ReadFrame returns a copy of the held frame, or nil before the first
// delivery. Concurrent reads are allowed; a read overlapping a delivery
// blocks until the delivery completes.
func (f *frameSink) ReadFrame() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.frame == nil {
		return nil
	}

	out := make([]byte, len(f.frame))
	copy(out, f.frame)
	return out
}

// setSize overrides the geometry with the negotiated post-preroll values.
// Only called during construction, before any delivery.
func (f *frameSink) setSize(width, height int) {
	f.mu.Lock()
	f.width = width
	f.height = height
	f.mu.Unlock()
}

// Size returns the current frame geometry.
func (f *frameSink) Size() (int, int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.width, f.height
}
