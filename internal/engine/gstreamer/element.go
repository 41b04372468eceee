package gstreamer

import (
	"fmt"
	"sync"

	"github.com/go-gst/go-gst/gst"

	"github.com/telecine/playcore/internal/engine"
)

// unwrapper is implemented by wrapper types that carry a native element.
type unwrapper interface {
	unwrap() *gst.Element
}

type element struct {
	el        *gst.Element
	name      string
	frameSink bool

	// dims caches the negotiated frame geometry between handoffs so the
	// sink pad caps are not re-parsed per frame.
	dimsMu sync.Mutex
	width  int
	height int
}

func (e *element) unwrap() *gst.Element { return e.el }

func (e *element) Name() string { return e.name }

func (e *element) SetProperty(name string, value interface{}) error {
	switch v := value.(type) {
	case unwrapper:
		value = v.unwrap()
	case string:
		if name == "caps" {
			caps := gst.NewCapsFromString(v)
			if caps == nil {
				return fmt.Errorf("invalid caps string %q", v)
			}
			value = caps
		}
	}

	if err := e.el.SetProperty(name, value); err != nil {
		return fmt.Errorf("failed to set %s.%s: %w", e.name, name, err)
	}
	return nil
}

func (e *element) OnFrame(h engine.FrameHandler) error {
	if !e.frameSink {
		return fmt.Errorf("element %s does not deliver frames", e.name)
	}

	e.el.Connect("handoff", func(_ *gst.Element, buffer *gst.Buffer, pad *gst.Pad) {
		mapInfo := buffer.Map(gst.MapRead)
		if mapInfo == nil {
			return
		}
		defer buffer.Unmap()

		data := mapInfo.Bytes()
		width, height := e.frameDims(pad, len(data))
		h(engine.Frame{Data: data, Width: width, Height: height})
	})
	return nil
}

// frameDims returns the cached geometry, refreshing it from the pad caps
// when the buffer size no longer matches. Upstream renegotiation changes
// the buffer size before the cache is stale for more than one frame.
func (e *element) frameDims(pad *gst.Pad, size int) (int, int) {
	e.dimsMu.Lock()
	defer e.dimsMu.Unlock()

	if e.width > 0 && e.height > 0 && e.width*e.height*4 == size {
		return e.width, e.height
	}

	if w, h, ok := padDims(pad); ok {
		e.width, e.height = w, h
	}
	return e.width, e.height
}

func (e *element) NegotiatedSize() (int, int, bool) {
	pad := e.el.GetStaticPad("sink")
	if pad == nil {
		return 0, 0, false
	}
	w, h, ok := padDims(pad)
	return w, h, ok
}

// padDims reads width and height from a pad's negotiated caps.
func padDims(pad *gst.Pad) (int, int, bool) {
	caps := pad.GetCurrentCaps()
	if caps == nil {
		return 0, 0, false
	}

	structure := caps.GetStructureAt(0)
	if structure == nil {
		return 0, 0, false
	}

	w, ok := structureInt(structure, "width")
	if !ok {
		return 0, 0, false
	}
	h, ok := structureInt(structure, "height")
	if !ok {
		return 0, 0, false
	}
	return w, h, true
}

func structureInt(s *gst.Structure, field string) (int, bool) {
	value, err := s.GetValue(field)
	if err != nil {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint32:
		return int(v), true
	default:
		return 0, false
	}
}

type bin struct {
	element
	bin *gst.Bin
}

func (b *bin) Add(elems ...engine.Element) error {
	for _, el := range elems {
		w, ok := el.(unwrapper)
		if !ok {
			return fmt.Errorf("foreign element %s cannot join bin %s", el.Name(), b.name)
		}
		if err := b.bin.Add(w.unwrap()); err != nil {
			return fmt.Errorf("failed to add %s to bin %s: %w", el.Name(), b.name, err)
		}
	}
	return nil
}

func (b *bin) Link(elems ...engine.Element) error {
	return linkMany(elems)
}

func (b *bin) GhostSink(target engine.Element) error {
	w, ok := target.(unwrapper)
	if !ok {
		return fmt.Errorf("foreign element %s cannot be ghosted", target.Name())
	}

	pad := w.unwrap().GetStaticPad("sink")
	if pad == nil {
		return fmt.Errorf("element %s has no sink pad", target.Name())
	}

	ghost := gst.NewGhostPad("sink", pad)
	if ghost == nil {
		return fmt.Errorf("failed to ghost sink pad of %s", target.Name())
	}

	if !b.bin.AddPad(ghost.Pad) {
		return fmt.Errorf("failed to expose sink pad on bin %s", b.name)
	}
	return nil
}

// linkMany links wrapped elements in order.
func linkMany(elems []engine.Element) error {
	native := make([]*gst.Element, 0, len(elems))
	for _, el := range elems {
		w, ok := el.(unwrapper)
		if !ok {
			return fmt.Errorf("foreign element %s cannot be linked", el.Name())
		}
		native = append(native, w.unwrap())
	}
	if err := gst.ElementLinkMany(native...); err != nil {
		return fmt.Errorf("failed to link elements: %w", err)
	}
	return nil
}
