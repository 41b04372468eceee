// Package gstreamer implements the engine boundary on top of GStreamer via
// the go-gst bindings. One process-wide runtime is shared by all pipelines;
// callers must Init before creating an Engine and Deinit at exit.
package gstreamer

import (
	"fmt"
	"sync"

	"github.com/go-gst/go-gst/gst"

	"github.com/telecine/playcore/internal/engine"
	"github.com/telecine/playcore/internal/logger"
)

var initOnce sync.Once

// Init initializes the GStreamer runtime. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		gst.Init(nil)
	})
}

// Deinit tears down the GStreamer runtime. Call only at process exit, after
// every pipeline has been released.
func Deinit() {
	gst.Deinit()
}

// Engine creates GStreamer-backed pipelines.
type Engine struct {
	log logger.Logger
}

// New creates an Engine. Init must have been called first.
func New(log logger.Logger) *Engine {
	return &Engine{log: log.WithField("component", "engine")}
}

// HasFactory reports whether the named element factory is installed, by
// attempting to instantiate it.
func (e *Engine) HasFactory(name string) bool {
	el, err := gst.NewElement(name)
	return err == nil && el != nil
}

// PromoteFactory raises the named factory's rank above the primary rank so
// automatic decoder selection prefers it. A missing factory is not an error;
// the platform simply lacks that decoder.
func (e *Engine) PromoteFactory(name string) error {
	registry := gst.GetRegistry()
	if registry == nil {
		return fmt.Errorf("element registry unavailable")
	}

	feature := registry.LookupFeature(name)
	if feature == nil {
		e.log.WithField("factory", name).Debug("Factory not installed, skipping rank promotion")
		return nil
	}

	feature.SetRank(gst.RankPrimary + 1)
	e.log.WithField("factory", name).Debug("Promoted factory rank")
	return nil
}

// NewElement instantiates an element from a factory.
func (e *Engine) NewElement(factory, name string) (engine.Element, error) {
	el, err := gst.NewElement(factory)
	if err != nil {
		return nil, fmt.Errorf("failed to create element %q: %w", factory, err)
	}
	return &element{el: el, name: name}, nil
}

// NewFrameSink instantiates a fakesink configured for per-frame handoff
// delivery. The sink stays clock-synchronized so frames arrive at
// presentation pace.
func (e *Engine) NewFrameSink(name string) (engine.Element, error) {
	el, err := gst.NewElement("fakesink")
	if err != nil {
		return nil, fmt.Errorf("failed to create frame sink: %w", err)
	}

	sink := &element{el: el, name: name, frameSink: true}
	for prop, value := range map[string]interface{}{
		"sync":            true,
		"qos":             true,
		"signal-handoffs": true,
	} {
		if err := sink.SetProperty(prop, value); err != nil {
			return nil, err
		}
	}
	return sink, nil
}

// NewBin creates an empty bin.
func (e *Engine) NewBin(name string) (engine.Bin, error) {
	b := gst.NewBin(name)
	if b == nil {
		return nil, fmt.Errorf("failed to create bin %q", name)
	}
	return &bin{element: element{el: b.Element, name: name}, bin: b}, nil
}

// NewPipeline creates an empty pipeline.
func (e *Engine) NewPipeline(name string) (engine.Pipeline, error) {
	p, err := gst.NewPipeline(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline %q: %w", name, err)
	}
	return newPipeline(p, e.log.WithField("pipeline", name)), nil
}
