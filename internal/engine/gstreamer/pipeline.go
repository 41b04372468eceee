package gstreamer

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gst/go-gst/gst"

	"github.com/telecine/playcore/internal/engine"
	"github.com/telecine/playcore/internal/logger"
)

// busPollInterval bounds how long the bus goroutine blocks per pop, so
// Release never waits more than one interval for the watch to exit.
const busPollInterval = 100 * time.Millisecond

type pipeline struct {
	pipe *gst.Pipeline
	log  logger.Logger

	mu       sync.Mutex
	target   gst.State
	released bool
	quit     chan struct{}
	watchWG  sync.WaitGroup
}

func newPipeline(p *gst.Pipeline, log logger.Logger) *pipeline {
	return &pipeline{
		pipe:   p,
		log:    log,
		target: gst.StateNull,
		quit:   make(chan struct{}),
	}
}

func (p *pipeline) Add(elems ...engine.Element) error {
	for _, el := range elems {
		w, ok := el.(unwrapper)
		if !ok {
			return fmt.Errorf("foreign element %s cannot join pipeline", el.Name())
		}
		if err := p.pipe.Add(w.unwrap()); err != nil {
			return fmt.Errorf("failed to add %s to pipeline: %w", el.Name(), err)
		}
	}
	return nil
}

func (p *pipeline) Link(elems ...engine.Element) error {
	return linkMany(elems)
}

func (p *pipeline) SetState(s engine.State) (engine.StateResult, error) {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return engine.StateChangeFailure, engine.ErrReleased
	}
	target := nativeState(s)
	p.target = target
	p.mu.Unlock()

	if err := p.pipe.SetState(target); err != nil {
		return engine.StateChangeFailure, fmt.Errorf("failed to reach %s: %w", s, err)
	}

	// The binding folds the state-change return into the error; a nil
	// error covers both the synchronous and the async case. Poll once
	// with a zero timeout to tell them apart.
	ret, _ := p.pipe.GetState(target, gst.ClockTime(0))
	return resultFromNative(ret), nil
}

func (p *pipeline) AwaitState(timeout time.Duration) (engine.StateResult, engine.State, error) {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return engine.StateChangeFailure, engine.StateNull, engine.ErrReleased
	}
	target := p.target
	p.mu.Unlock()

	native := gst.ClockTimeNone
	if timeout > 0 {
		native = gst.ClockTime(timeout)
	}

	ret, current := p.pipe.GetState(target, native)
	if ret == gst.StateChangeFailure {
		return engine.StateChangeFailure, stateFromNative(current),
			fmt.Errorf("state transition to %s failed", stateFromNative(target))
	}
	return resultFromNative(ret), stateFromNative(current), nil
}

func (p *pipeline) Seek(position time.Duration, rate float64, flags engine.SeekFlag) error {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return engine.ErrReleased
	}
	p.mu.Unlock()

	var native gst.SeekFlags
	if flags&engine.SeekFlagFlush != 0 {
		native |= gst.SeekFlagFlush
	}
	if flags&engine.SeekFlagKeyUnit != 0 {
		native |= gst.SeekFlagKeyUnit
	}

	if ok := p.pipe.Seek(rate, gst.FormatTime, native,
		gst.SeekTypeSet, position.Nanoseconds(),
		gst.SeekTypeNone, -1); !ok {
		return fmt.Errorf("seek to %s at rate %.2f rejected", position, rate)
	}
	return nil
}

func (p *pipeline) Position() (time.Duration, bool) {
	ok, pos := p.pipe.QueryPosition(gst.FormatTime)
	if !ok || pos < 0 {
		return 0, false
	}
	return time.Duration(pos), true
}

func (p *pipeline) Duration() (time.Duration, bool) {
	ok, dur := p.pipe.QueryDuration(gst.FormatTime)
	if !ok || dur < 0 {
		return 0, false
	}
	return time.Duration(dur), true
}

func (p *pipeline) SetBusObserver(obs engine.BusObserver) {
	bus := p.pipe.GetPipelineBus()
	if bus == nil {
		p.log.Error("Pipeline has no bus, observer not installed")
		return
	}

	p.watchWG.Add(1)
	go p.watchBus(bus, obs)
}

func (p *pipeline) watchBus(bus *gst.Bus, obs engine.BusObserver) {
	defer p.watchWG.Done()

	for {
		select {
		case <-p.quit:
			return
		default:
		}

		msg := bus.TimedPop(gst.ClockTime(busPollInterval))
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			obs(engine.BusEvent{Kind: engine.BusEventEOS, Source: msg.Source()})
		case gst.MessageError:
			obs(engine.BusEvent{
				Kind:   engine.BusEventError,
				Source: msg.Source(),
				Err:    msg.ParseError(),
			})
		case gst.MessageWarning:
			obs(engine.BusEvent{
				Kind:   engine.BusEventWarning,
				Source: msg.Source(),
				Err:    msg.ParseWarning(),
			})
		case gst.MessageStateChanged:
			old, next := msg.ParseStateChanged()
			obs(engine.BusEvent{
				Kind:   engine.BusEventStateChanged,
				Source: msg.Source(),
				Old:    stateFromNative(old),
				New:    stateFromNative(next),
			})
		}
	}
}

func (p *pipeline) Release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return
	}
	p.released = true
	close(p.quit)
	p.mu.Unlock()

	p.watchWG.Wait()
	if err := p.pipe.SetState(gst.StateNull); err != nil {
		p.log.WithError(err).Warn("Failed to reach null state during release")
	}
}

func nativeState(s engine.State) gst.State {
	switch s {
	case engine.StateReady:
		return gst.StateReady
	case engine.StatePaused:
		return gst.StatePaused
	case engine.StatePlaying:
		return gst.StatePlaying
	default:
		return gst.StateNull
	}
}

func stateFromNative(s gst.State) engine.State {
	switch s {
	case gst.StateReady:
		return engine.StateReady
	case gst.StatePaused:
		return engine.StatePaused
	case gst.StatePlaying:
		return engine.StatePlaying
	default:
		return engine.StateNull
	}
}

func resultFromNative(r gst.StateChangeReturn) engine.StateResult {
	switch r {
	case gst.StateChangeSuccess:
		return engine.StateChangeSuccess
	case gst.StateChangeAsync:
		return engine.StateChangeAsync
	case gst.StateChangeNoPreroll:
		return engine.StateChangeNoPreroll
	default:
		return engine.StateChangeFailure
	}
}
