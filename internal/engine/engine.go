// Package engine abstracts the media framework behind the playback core.
// The production implementation wraps GStreamer; tests substitute a
// scriptable fake. The surface is deliberately narrow: element creation,
// linking, state management, seeking, queries, and bus observation.
package engine

import (
	"errors"
	"time"
)

// State is a pipeline lifecycle state, ordered from torn-down to running.
type State int

const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

// String returns the state as a log-friendly label.
func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "null"
	}
}

// StateResult is the outcome of a state transition request.
type StateResult int

const (
	// StateChangeFailure means the transition cannot happen.
	StateChangeFailure StateResult = iota
	// StateChangeSuccess means the transition completed synchronously.
	StateChangeSuccess
	// StateChangeAsync means the transition is in progress; callers that
	// need the target state must AwaitState.
	StateChangeAsync
	// StateChangeNoPreroll means the transition succeeded but the source
	// is live and produces no preroll buffer.
	StateChangeNoPreroll
)

// SeekFlag is a bitmask adjusting seek behavior.
type SeekFlag uint

const (
	// SeekFlagFlush discards all pending data in the pipeline.
	SeekFlagFlush SeekFlag = 1 << iota
	// SeekFlagKeyUnit snaps the seek to the nearest keyframe.
	SeekFlagKeyUnit
)

// ErrReleased is returned by operations on a pipeline after Release.
var ErrReleased = errors.New("engine: pipeline released")

// Frame is a single decoded video frame handed off by a sink element.
// Data is only valid for the duration of the handler call; handlers that
// retain the pixels must copy.
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// FrameHandler receives decoded frames on an engine-owned thread.
type FrameHandler func(Frame)

// BusEventKind classifies messages observed on the pipeline bus.
type BusEventKind int

const (
	BusEventEOS BusEventKind = iota
	BusEventError
	BusEventWarning
	BusEventStateChanged
)

// BusEvent is a message observed on the pipeline bus.
type BusEvent struct {
	Kind   BusEventKind
	Source string

	// Err is set for error and warning events.
	Err error

	// Old and New are set for state-changed events.
	Old State
	New State
}

// BusObserver receives bus events on an engine-owned goroutine. Observers
// must not block; heavy work belongs on the caller's side of a channel.
type BusObserver func(BusEvent)

// Element is a node in a pipeline graph. Property values follow the
// framework's conventions; caps-valued properties accept caps strings, and
// sink-valued properties accept other Elements.
type Element interface {
	// Name returns the instance name given at creation.
	Name() string

	// SetProperty sets a named property on the element.
	SetProperty(name string, value interface{}) error

	// OnFrame registers a frame handler. Only valid on sink elements
	// created with frame delivery enabled.
	OnFrame(h FrameHandler) error

	// NegotiatedSize reports the width and height on the element's sink
	// pad after caps negotiation, or ok=false before negotiation.
	NegotiatedSize() (width, height int, ok bool)
}

// Bin is a reusable sub-graph that exposes a single sink pad and can be
// handed to another element as a sink property.
type Bin interface {
	Element

	// Add places elements inside the bin.
	Add(elems ...Element) error

	// Link links elements inside the bin in the given order.
	Link(elems ...Element) error

	// GhostSink exposes target's sink pad as the bin's own sink pad.
	GhostSink(target Element) error
}

// Pipeline is a top-level media graph with its own bus and clock.
type Pipeline interface {
	// Add places elements in the pipeline.
	Add(elems ...Element) error

	// Link links elements in the given order.
	Link(elems ...Element) error

	// SetState requests a transition to the given state.
	SetState(s State) (StateResult, error)

	// AwaitState blocks until a pending async transition settles or the
	// timeout expires. A zero timeout waits forever.
	AwaitState(timeout time.Duration) (StateResult, State, error)

	// Seek performs a seek to position with the given playback rate.
	Seek(position time.Duration, rate float64, flags SeekFlag) error

	// Position queries the current playback position.
	Position() (time.Duration, bool)

	// Duration queries the total stream duration.
	Duration() (time.Duration, bool)

	// SetBusObserver installs the single observer for bus events and
	// starts delivery. Must be called at most once.
	SetBusObserver(obs BusObserver)

	// Release drops the pipeline to the null state and frees all
	// resources, including the bus watch. Idempotent.
	Release()
}

// Engine creates pipelines and reports on the installed element factories.
type Engine interface {
	// HasFactory reports whether the named element factory is installed.
	HasFactory(name string) bool

	// PromoteFactory raises the named factory's rank so automatic
	// decoder selection prefers it. Missing factories are ignored.
	PromoteFactory(name string) error

	// NewElement instantiates an element from a factory.
	NewElement(factory, name string) (Element, error)

	// NewFrameSink instantiates a sink element that delivers every
	// rendered frame to a registered FrameHandler.
	NewFrameSink(name string) (Element, error)

	// NewBin creates an empty bin.
	NewBin(name string) (Bin, error)

	// NewPipeline creates an empty pipeline.
	NewPipeline(name string) (Pipeline, error)
}
