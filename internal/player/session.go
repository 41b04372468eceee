package player

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/telecine/playcore/internal/config"
	"github.com/telecine/playcore/internal/engine"
	"github.com/telecine/playcore/internal/logger"
	"github.com/telecine/playcore/internal/media/probe"
	"github.com/telecine/playcore/internal/media/source"
	"github.com/telecine/playcore/internal/metrics"
)

// positionFailed is the sentinel for failed duration and position queries,
// distinct from the 0 reported for live sources.
const positionFailed = int64(-1)

// Session is one playback run of one source: classification, optional
// preflight probe, pipeline construction, and the transport surface the
// host drives. All transport operations are host-thread calls; only the
// frame and bus callbacks cross in from engine threads.
type Session struct {
	id     string
	kind   source.Kind
	uri    string
	events EventSink
	log    logger.Logger
	busLog *logger.SampledLogger

	pipeline engine.Pipeline
	src      engine.Element
	sink     engine.Element

	frames     *frameSink
	completion completionMonitor

	// mu guards the transport state below.
	mu         sync.Mutex
	volume     float64
	rate       float64
	mute       bool
	autoRepeat bool
	closed     bool
}

// NewSession classifies the identifier, probes local files, builds and
// prerolls the pipeline, and sizes the frame buffer. The session is fully
// usable when NewSession returns; any construction failure tears down all
// partial state and returns an error.
func NewSession(cfg *config.PlayerConfig, eng engine.Engine, prober probe.Prober, identifier string, events EventSink, log logger.Logger) (*Session, error) {
	if events == nil {
		events = NopEventSink{}
	}

	s := &Session{
		id:     uuid.NewString(),
		kind:   source.Classify(identifier),
		uri:    identifier,
		events: events,
		volume: 1.0,
		rate:   1.0,
	}
	s.log = log.WithFields(logger.Fields{
		"component":   "session",
		"session_id":  s.id,
		"source_kind": s.kind.String(),
	})
	s.busLog = logger.NewPlaybackLogger(s.log)

	var probeResult *probe.Result
	if s.kind != source.KindCamera {
		uri, err := source.CanonicalURI(identifier)
		if err != nil {
			s.log.WithError(err).Warn("Failed to normalize identifier, using it as-is")
		} else {
			s.uri = uri
		}

		// The probe runs against the raw identifier: the inspection
		// library takes paths, not resource locators.
		if s.kind == source.KindLocalFile && prober != nil {
			probeResult, err = prober.Probe(context.Background(), identifier)
			if err != nil {
				s.log.WithError(err).Warn("Preflight probe failed, assuming consistent dimensions")
				probeResult = nil
			}
		}
	}

	plan := PlanPipeline(cfg, eng, s.kind, identifier, s.uri, probeResult, s.log)
	s.frames = newFrameSink(s.id, events, plan.Width, plan.Height)

	g, err := buildGraph(eng, plan, s.onFrame, s.onBusEvent, s.log)
	if err != nil {
		s.log.WithError(err).Error("Failed to construct pipeline")
		return nil, err
	}
	s.pipeline = g.pipeline
	s.src = g.src
	s.sink = g.sink

	// Preroll has negotiated the real output geometry; read it back so the
	// first ReadFrame-era accessors report the truth.
	if w, h, ok := s.sink.NegotiatedSize(); ok {
		s.frames.setSize(w, h)
	}

	metrics.SessionStarted(s.kind.String())
	w, h := s.frames.Size()
	s.log.WithFields(logger.Fields{
		"uri":         s.uri,
		"width":       w,
		"height":      h,
		"accelerated": plan.Accelerated,
	}).Info("Playback session initialized")

	events.OnInitialized()
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Kind returns the source classification.
func (s *Session) Kind() source.Kind { return s.kind }

// Play requests the playing state. Returns false if the engine reports a
// state-change failure.
func (s *Session) Play() bool {
	return s.setState(engine.StatePlaying)
}

// Pause requests the paused state.
func (s *Session) Pause() bool {
	return s.setState(engine.StatePaused)
}

// Stop returns the pipeline to the ready state.
func (s *Session) Stop() bool {
	return s.setState(engine.StateReady)
}

func (s *Session) setState(state engine.State) bool {
	if _, err := s.pipeline.SetState(state); err != nil {
		s.log.WithError(err).Errorf("Failed to change the state to %s", state)
		return false
	}
	return true
}

// SetVolume records the volume and pushes it to the source element.
func (s *Session) SetVolume(volume float64) bool {
	if s.src == nil {
		return false
	}

	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()

	if err := s.src.SetProperty("volume", volume); err != nil {
		s.log.WithError(err).Warn("Failed to set volume")
	}
	return true
}

// SetPlaybackRate changes the playback rate with a flushing seek at the
// current position. Unavailable for live sources and non-positive rates.
// Rates outside [0.5, 2.0] mute the audio; the pitch correction the engine
// applies beyond that range is not listenable.
func (s *Session) SetPlaybackRate(rate float64) bool {
	if s.kind.IsLive() {
		return false
	}
	if s.src == nil {
		return false
	}
	if rate <= 0 {
		s.log.Warnf("Rate %v is not supported", rate)
		return false
	}

	position := s.Position()
	if position < 0 {
		return false
	}

	if err := s.pipeline.Seek(time.Duration(position)*time.Millisecond, rate, engine.SeekFlagFlush); err != nil {
		s.log.WithError(err).Errorf("Failed to set playback rate to %v", rate)
		return false
	}

	s.mu.Lock()
	s.rate = rate
	s.mute = rate < 0.5 || rate > 2
	mute := s.mute
	s.mu.Unlock()

	if err := s.src.SetProperty("mute", mute); err != nil {
		s.log.WithError(err).Warn("Failed to propagate mute")
	}
	return true
}

// SetSeek jumps to the given position in milliseconds with a flushing,
// keyframe-aligned seek at the current rate. Unavailable for live sources.
// Fire-and-forget: completion of the seek is not awaited.
func (s *Session) SetSeek(positionMs int64) bool {
	if s.kind.IsLive() {
		return false
	}

	s.mu.Lock()
	rate := s.rate
	s.mu.Unlock()

	position := time.Duration(positionMs) * time.Millisecond
	if err := s.pipeline.Seek(position, rate, engine.SeekFlagFlush|engine.SeekFlagKeyUnit); err != nil {
		s.log.WithError(err).Errorf("Failed to seek to %d ms", positionMs)
		return false
	}
	return true
}

// SetAutoRepeat toggles restart-from-zero on completion.
func (s *Session) SetAutoRepeat(autoRepeat bool) {
	s.mu.Lock()
	s.autoRepeat = autoRepeat
	s.mu.Unlock()
}

// Duration returns the stream duration in milliseconds: 0 for live
// sources, -1 when the query fails.
func (s *Session) Duration() int64 {
	if s.kind.IsLive() {
		return 0
	}

	d, ok := s.pipeline.Duration()
	if !ok {
		metrics.QueryError(s.id, "duration")
		s.log.Warn("Failed to get duration")
		return positionFailed
	}
	return d.Milliseconds()
}

// Position returns the playback position in milliseconds: 0 for live
// sources, -1 when the query fails. As a side effect it drains a pending
// completion: the completion notification fires here, and auto-repeat
// issues its restart seek here. Completion is only observed when the host
// polls position.
func (s *Session) Position() int64 {
	if s.kind.IsLive() {
		return 0
	}

	pos, ok := s.pipeline.Position()
	if !ok {
		metrics.QueryError(s.id, "position")
		s.busLog.WarnWithCategory(logger.CategoryPositionQuery, "Failed to get current position", nil)
		return positionFailed
	}

	if s.completion.Drain() {
		metrics.CompletionObserved(s.id)
		s.events.OnCompleted()

		s.mu.Lock()
		repeat := s.autoRepeat
		s.mu.Unlock()
		if repeat {
			s.SetSeek(0)
		}
	}

	return pos.Milliseconds()
}

// ReadFrame returns a copy of the latest decoded frame, or nil before the
// first delivery.
func (s *Session) ReadFrame() []byte {
	return s.frames.ReadFrame()
}

// Width returns the current frame width.
func (s *Session) Width() int {
	w, _ := s.frames.Size()
	return w
}

// Height returns the current frame height.
func (s *Session) Height() int {
	_, h := s.frames.Size()
	return h
}

// Close stops playback and tears the pipeline down. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.Stop()
	s.pipeline.Release()
	metrics.SessionClosed(s.kind.String())
	metrics.RemoveSessionMetrics(s.id)
	s.log.Info("Playback session closed")
}

// onFrame runs on the engine's streaming thread for every decoded frame.
// Delivery logging is sampled; frames arrive at the stream frame rate.
func (s *Session) onFrame(f engine.Frame) {
	s.frames.OnFrame(f)
	s.busLog.DebugWithCategory(logger.CategoryFrameDelivery, "Frame delivered", logger.Fields{
		"width":  f.Width,
		"height": f.Height,
	})
}

// onBusEvent runs on the engine's bus goroutine. Only end-of-stream changes
// session state; warnings and errors are logged with their source element.
func (s *Session) onBusEvent(ev engine.BusEvent) {
	switch ev.Kind {
	case engine.BusEventEOS:
		s.completion.OnEndOfStream()

	case engine.BusEventError:
		metrics.EngineError("error")
		s.log.WithFields(logger.Fields{
			"element": ev.Source,
		}).WithError(ev.Err).Error("Engine error")

	case engine.BusEventWarning:
		metrics.EngineError("warning")
		s.log.WithFields(logger.Fields{
			"element": ev.Source,
		}).WithError(ev.Err).Warn("Engine warning")

	case engine.BusEventStateChanged:
		s.busLog.DebugWithCategory(logger.CategoryBusMessage, "Pipeline state changed", logger.Fields{
			"element": ev.Source,
			"old":     ev.Old.String(),
			"new":     ev.New.String(),
		})
	}
}
