package player

import (
	"fmt"
	"time"

	"github.com/telecine/playcore/internal/engine"
	"github.com/telecine/playcore/internal/logger"
	"github.com/telecine/playcore/internal/media/source"
	"github.com/telecine/playcore/internal/metrics"
)

// graph is a fully constructed, prerolled pipeline with handles to the
// elements the session keeps touching after construction.
type graph struct {
	pipeline engine.Pipeline
	src      engine.Element
	sink     engine.Element
}

// buildGraph assembles the pipeline described by plan, registers the frame
// handler and bus observer, and prerolls. Any failure tears down whatever
// was constructed and returns an error; construction is all-or-nothing.
func buildGraph(eng engine.Engine, plan *Plan, onFrame engine.FrameHandler, onBus engine.BusObserver, log logger.Logger) (*graph, error) {
	g, err := assemble(eng, plan, onFrame, onBus, log)
	if err != nil {
		metrics.PipelineBuildFailed(plan.Kind.String())
		if g != nil && g.pipeline != nil {
			g.pipeline.Release()
		}
		return nil, err
	}

	if err := preroll(g.pipeline); err != nil {
		metrics.PipelineBuildFailed(plan.Kind.String())
		g.pipeline.Release()
		return nil, err
	}

	return g, nil
}

func assemble(eng engine.Engine, plan *Plan, onFrame engine.FrameHandler, onBus engine.BusObserver, log logger.Logger) (*graph, error) {
	for _, factory := range plan.Promote {
		if err := eng.PromoteFactory(factory); err != nil {
			log.WithError(err).WithField("factory", factory).Warn("Failed to promote factory rank")
		}
	}

	pipeline, err := eng.NewPipeline("playback")
	if err != nil {
		return nil, err
	}
	g := &graph{pipeline: pipeline}

	if g.src, err = eng.NewElement(plan.SourceFactory, "src"); err != nil {
		return g, err
	}

	converter, err := eng.NewElement(plan.Converter, "convert")
	if err != nil {
		return g, err
	}

	capsFilter, err := eng.NewElement("capsfilter", "filter")
	if err != nil {
		return g, err
	}
	if err := capsFilter.SetProperty("caps", plan.Caps.String()); err != nil {
		return g, err
	}

	if g.sink, err = eng.NewFrameSink("videosink"); err != nil {
		return g, err
	}
	if err := g.sink.OnFrame(onFrame); err != nil {
		return g, err
	}

	if plan.AddBorders {
		if err := converter.SetProperty("add-borders", true); err != nil {
			return g, err
		}
	}

	pipeline.SetBusObserver(onBus)

	if plan.Kind == source.KindCamera {
		// Capture graph: the source links straight into the output stage.
		if err := pipeline.Add(g.src, converter, capsFilter, g.sink); err != nil {
			return g, err
		}
		if err := pipeline.Link(g.src, converter, capsFilter, g.sink); err != nil {
			return g, err
		}
		if err := g.src.SetProperty("device", plan.URI); err != nil {
			return g, err
		}
		return g, nil
	}

	// Adaptive graph: the front-end demuxes and decodes internally, so the
	// output stage is wrapped in a bin and attached as its video sink.
	output, err := eng.NewBin("output")
	if err != nil {
		return g, err
	}
	if err := output.Add(converter, capsFilter, g.sink); err != nil {
		return g, err
	}
	if err := output.Link(converter, capsFilter, g.sink); err != nil {
		return g, err
	}
	if err := output.GhostSink(converter); err != nil {
		return g, err
	}

	if err := g.src.SetProperty("uri", plan.URI); err != nil {
		return g, err
	}
	if err := g.src.SetProperty("video-sink", output); err != nil {
		return g, err
	}
	if err := pipeline.Add(g.src); err != nil {
		return g, err
	}
	return g, nil
}

// preroll brings the pipeline to paused-with-data. Async transitions are
// waited out with no timeout beyond the engine's own blocking primitive.
func preroll(pipeline engine.Pipeline) error {
	result, err := pipeline.SetState(engine.StatePaused)
	if err != nil {
		return fmt.Errorf("preroll: %w", err)
	}

	if result == engine.StateChangeAsync {
		if _, _, err := pipeline.AwaitState(time.Duration(0)); err != nil {
			return fmt.Errorf("preroll: %w", err)
		}
	}
	return nil
}
