package player

import (
	"github.com/telecine/playcore/internal/config"
	"github.com/telecine/playcore/internal/engine"
	"github.com/telecine/playcore/internal/logger"
	"github.com/telecine/playcore/internal/media/probe"
	"github.com/telecine/playcore/internal/media/resolution"
	"github.com/telecine/playcore/internal/media/source"
)

// Plan is the resolved pipeline topology for one session: which front-end
// and converter to use, the output caps, and the initial frame geometry.
// Computed once, before any element is created.
type Plan struct {
	Kind source.Kind
	URI  string

	// SourceFactory is v4l2src for cameras, otherwise the adaptive
	// front-end that demuxes and decodes on its own.
	SourceFactory string

	// Converter is the color-space converter, accelerated when available.
	Converter   string
	Accelerated bool

	Caps capsSpec

	// Aspect is the active aspect hint, from the probe or from stream
	// query parameters. At most one per session.
	Aspect resolution.Aspect

	// AddBorders pads the converter output to preserve aspect; disabled
	// when the probe flagged an inconsistency, since the correction
	// fraction already reshapes the picture.
	AddBorders bool

	// Width and Height seed the frame buffer before preroll reports the
	// negotiated geometry.
	Width  int
	Height int

	// Promote lists decoder factories whose rank is raised so automatic
	// selection prefers the accelerated path.
	Promote []string
}

// PlanPipeline derives the topology for a classified source. probeResult is
// nil unless the source is a local file whose preflight probe succeeded.
func PlanPipeline(cfg *config.PlayerConfig, eng engine.Engine, kind source.Kind, identifier, uri string, probeResult *probe.Result, log logger.Logger) *Plan {
	plan := &Plan{
		Kind:          kind,
		URI:           uri,
		SourceFactory: "playbin3",
		Converter:     "videoconvert",
		Caps:          capsSpec{Format: "RGBA"},
		AddBorders:    true,
	}

	inconsistent := probeResult != nil && probeResult.Inconsistent

	if eng.HasFactory(cfg.AccelConverter) {
		plan.Accelerated = true
		plan.Converter = cfg.AccelConverter
		plan.Caps.DMABuf = true
		plan.Promote = cfg.AccelElements
	}

	if inconsistent {
		plan.Aspect = probeResult.Aspect
		plan.Caps.PixelAspect = probeResult.Aspect
		plan.AddBorders = false
	}

	switch kind {
	case source.KindCamera:
		plan.SourceFactory = "v4l2src"
		plan.Width = cfg.CameraWidth
		plan.Height = cfg.CameraHeight

	case source.KindNetworkStream:
		params, ok := source.ParseStreamParams(identifier)
		if !ok {
			log.Warn("Stream identifier carries no rendering parameters")
			break
		}
		plan.applyStreamParams(params, log)
	}

	return plan
}

// applyStreamParams pins the output geometry from explicit stream query
// parameters. Explicit geometry overrides the accelerated memory layout and
// any probe-derived correction; the picture is delivered exactly as asked,
// with square pixels.
func (p *Plan) applyStreamParams(params source.StreamParams, log logger.Logger) {
	p.Caps = capsSpec{Format: "RGBA", PixelAspect: resolution.Square}

	if params.HasWidth {
		if w, err := resolution.Normalize(params.Width); err != nil {
			log.WithError(err).Warn("Requested width not normalizable, leaving unset")
		} else {
			p.Caps.Width = w
			p.Width = w
		}
	} else {
		log.Warn("Stream width wasn't provided")
	}

	if params.HasHeight {
		if h, err := resolution.Normalize(params.Height); err != nil {
			log.WithError(err).Warn("Requested height not normalizable, leaving unset")
		} else {
			p.Caps.Height = h
			p.Height = h
		}
	} else {
		log.Warn("Stream height wasn't provided")
	}

	if params.HasOrientation {
		if params.Landscape {
			p.Aspect = resolution.Landscape
		} else {
			p.Aspect = resolution.Portrait
		}
	} else {
		log.Warn("Stream orientation wasn't provided")
	}
}
