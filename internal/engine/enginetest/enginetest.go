// Package enginetest provides a scriptable in-memory engine for exercising
// the playback core without a media framework. Tests configure outcomes up
// front, drive frames and bus events by hand, and inspect the recorded
// element graph afterwards.
package enginetest

import (
	"fmt"
	"sync"
	"time"

	"github.com/telecine/playcore/internal/engine"
)

// Engine is a fake engine.Engine. The zero value reports every factory as
// installed and negotiates a 1920x1080 frame geometry.
type Engine struct {
	mu sync.Mutex

	// Missing lists factories reported as not installed.
	Missing map[string]bool

	// FailFactories lists factories whose instantiation fails.
	FailFactories map[string]bool

	// NegotiatedWidth and NegotiatedHeight are applied to every frame
	// sink as its post-preroll geometry.
	NegotiatedWidth  int
	NegotiatedHeight int

	Promoted   []string
	Pipelines  []*Pipeline
	FrameSinks []*Element
}

// NewEngine returns an Engine with the default geometry.
func NewEngine() *Engine {
	return &Engine{NegotiatedWidth: 1920, NegotiatedHeight: 1080}
}

func (e *Engine) HasFactory(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.Missing[name]
}

func (e *Engine) PromoteFactory(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Promoted = append(e.Promoted, name)
	return nil
}

func (e *Engine) NewElement(factory, name string) (engine.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FailFactories[factory] || e.Missing[factory] {
		return nil, fmt.Errorf("no such factory %q", factory)
	}
	return &Element{Factory: factory, ElementName: name}, nil
}

func (e *Engine) NewFrameSink(name string) (engine.Element, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sink := &Element{
		Factory:     "fakesink",
		ElementName: name,
		IsFrameSink: true,
		Width:       e.NegotiatedWidth,
		Height:      e.NegotiatedHeight,
	}
	e.FrameSinks = append(e.FrameSinks, sink)
	return sink, nil
}

func (e *Engine) NewBin(name string) (engine.Bin, error) {
	return &Bin{Element: Element{Factory: "bin", ElementName: name}}, nil
}

func (e *Engine) NewPipeline(name string) (engine.Pipeline, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := &Pipeline{
		PipelineName: name,
		PositionOK:   true,
		DurationOK:   true,
	}
	e.Pipelines = append(e.Pipelines, p)
	return p, nil
}

// LastPipeline returns the most recently created pipeline.
func (e *Engine) LastPipeline() *Pipeline {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Pipelines) == 0 {
		return nil
	}
	return e.Pipelines[len(e.Pipelines)-1]
}

// LastFrameSink returns the most recently created frame sink.
func (e *Engine) LastFrameSink() *Element {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.FrameSinks) == 0 {
		return nil
	}
	return e.FrameSinks[len(e.FrameSinks)-1]
}

// Element is a fake engine.Element recording every property set on it.
type Element struct {
	mu sync.Mutex

	Factory     string
	ElementName string
	Props       map[string]interface{}
	IsFrameSink bool

	// Width and Height are the geometry NegotiatedSize reports; zero
	// means not negotiated.
	Width  int
	Height int

	handler engine.FrameHandler
}

func (e *Element) Name() string { return e.ElementName }

func (e *Element) SetProperty(name string, value interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Props == nil {
		e.Props = make(map[string]interface{})
	}
	e.Props[name] = value
	return nil
}

// Prop returns a recorded property value, or nil.
func (e *Element) Prop(name string) interface{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Props[name]
}

func (e *Element) OnFrame(h engine.FrameHandler) error {
	if !e.IsFrameSink {
		return fmt.Errorf("element %s does not deliver frames", e.ElementName)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handler = h
	return nil
}

func (e *Element) NegotiatedSize() (int, int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Width <= 0 || e.Height <= 0 {
		return 0, 0, false
	}
	return e.Width, e.Height, true
}

// EmitFrame delivers a frame to the registered handler, the way the real
// engine does from its streaming thread.
func (e *Element) EmitFrame(f engine.Frame) {
	e.mu.Lock()
	h := e.handler
	e.mu.Unlock()
	if h != nil {
		h(f)
	}
}

// Bin is a fake engine.Bin recording its children and ghosted sink.
type Bin struct {
	Element

	Children []engine.Element
	LinkSets [][]engine.Element
	Ghosted  engine.Element
}

func (b *Bin) Add(elems ...engine.Element) error {
	b.Children = append(b.Children, elems...)
	return nil
}

func (b *Bin) Link(elems ...engine.Element) error {
	b.LinkSets = append(b.LinkSets, elems)
	return nil
}

func (b *Bin) GhostSink(target engine.Element) error {
	b.Ghosted = target
	return nil
}

// SeekCall records one Seek invocation.
type SeekCall struct {
	Position time.Duration
	Rate     float64
	Flags    engine.SeekFlag
}

// Pipeline is a fake engine.Pipeline. Outcomes default to success; tests
// override the Fail fields or the query results to script failures.
type Pipeline struct {
	mu sync.Mutex

	PipelineName string
	Elements     []engine.Element
	LinkSets     [][]engine.Element
	StateLog     []engine.State
	Seeks        []SeekCall
	Released     bool

	// FailStates makes SetState fail for the listed states.
	FailStates map[engine.State]bool

	// AsyncStates makes SetState report an in-progress transition for
	// the listed states.
	AsyncStates map[engine.State]bool

	// FailAwait makes AwaitState report a failed transition.
	FailAwait bool

	// FailSeek makes Seek fail.
	FailSeek bool

	PositionValue time.Duration
	PositionOK    bool
	DurationValue time.Duration
	DurationOK    bool

	observer engine.BusObserver
}

func (p *Pipeline) Add(elems ...engine.Element) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Elements = append(p.Elements, elems...)
	return nil
}

func (p *Pipeline) Link(elems ...engine.Element) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LinkSets = append(p.LinkSets, elems)
	return nil
}

func (p *Pipeline) SetState(s engine.State) (engine.StateResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Released {
		return engine.StateChangeFailure, engine.ErrReleased
	}
	p.StateLog = append(p.StateLog, s)
	if p.FailStates[s] {
		return engine.StateChangeFailure, fmt.Errorf("scripted failure entering %s", s)
	}
	if p.AsyncStates[s] {
		return engine.StateChangeAsync, nil
	}
	return engine.StateChangeSuccess, nil
}

func (p *Pipeline) AwaitState(timeout time.Duration) (engine.StateResult, engine.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Released {
		return engine.StateChangeFailure, engine.StateNull, engine.ErrReleased
	}
	current := engine.StateNull
	if n := len(p.StateLog); n > 0 {
		current = p.StateLog[n-1]
	}
	if p.FailAwait {
		return engine.StateChangeFailure, current, fmt.Errorf("scripted await failure")
	}
	return engine.StateChangeSuccess, current, nil
}

func (p *Pipeline) Seek(position time.Duration, rate float64, flags engine.SeekFlag) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Released {
		return engine.ErrReleased
	}
	if p.FailSeek {
		return fmt.Errorf("scripted seek failure")
	}
	p.Seeks = append(p.Seeks, SeekCall{Position: position, Rate: rate, Flags: flags})
	return nil
}

func (p *Pipeline) Position() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.PositionValue, p.PositionOK
}

func (p *Pipeline) Duration() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.DurationValue, p.DurationOK
}

func (p *Pipeline) SetBusObserver(obs engine.BusObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = obs
}

// Emit delivers a bus event to the installed observer.
func (p *Pipeline) Emit(ev engine.BusEvent) {
	p.mu.Lock()
	obs := p.observer
	p.mu.Unlock()
	if obs != nil {
		obs(ev)
	}
}

// States returns a copy of the state transition log.
func (p *Pipeline) States() []engine.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]engine.State, len(p.StateLog))
	copy(out, p.StateLog)
	return out
}

// SeekLog returns a copy of the recorded seeks.
func (p *Pipeline) SeekLog() []SeekCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SeekCall, len(p.Seeks))
	copy(out, p.Seeks)
	return out
}

func (p *Pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Released = true
}
