package player

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telecine/playcore/internal/config"
	"github.com/telecine/playcore/internal/engine/enginetest"
	"github.com/telecine/playcore/internal/logger"
	"github.com/telecine/playcore/internal/media/probe"
	"github.com/telecine/playcore/internal/media/resolution"
	"github.com/telecine/playcore/internal/media/source"
)

func playerConfig() *config.PlayerConfig {
	cfg := config.Default()
	return &cfg.Player
}

func TestPlanLocalFileAccelerated(t *testing.T) {
	eng := enginetest.NewEngine()

	plan := PlanPipeline(playerConfig(), eng, source.KindLocalFile,
		"/media/movie.mp4", "file:///media/movie.mp4", nil, logger.NewNullLogger())

	assert.Equal(t, "playbin3", plan.SourceFactory)
	assert.Equal(t, "vapostproc", plan.Converter)
	assert.True(t, plan.Accelerated)
	assert.True(t, plan.AddBorders)
	assert.Equal(t, "video/x-raw(memory:DMABuf),format=RGBA", plan.Caps.String())
	assert.Equal(t, playerConfig().AccelElements, plan.Promote)
}

func TestPlanLocalFileSoftwareFallback(t *testing.T) {
	eng := enginetest.NewEngine()
	eng.Missing = map[string]bool{"vapostproc": true}

	plan := PlanPipeline(playerConfig(), eng, source.KindLocalFile,
		"/media/movie.mp4", "file:///media/movie.mp4", nil, logger.NewNullLogger())

	assert.Equal(t, "videoconvert", plan.Converter)
	assert.False(t, plan.Accelerated)
	assert.Equal(t, "video/x-raw,format=RGBA", plan.Caps.String())
	assert.Empty(t, plan.Promote)
}

func TestPlanInconsistentProbe(t *testing.T) {
	eng := enginetest.NewEngine()

	probeResult := probe.Evaluate(720, 1280)
	require.True(t, probeResult.Inconsistent)

	plan := PlanPipeline(playerConfig(), eng, source.KindLocalFile,
		"/media/phone.mp4", "file:///media/phone.mp4", probeResult, logger.NewNullLogger())

	assert.Equal(t, resolution.Portrait, plan.Aspect)
	assert.False(t, plan.AddBorders)
	assert.Equal(t, "video/x-raw(memory:DMABuf),format=RGBA,pixel-aspect-ratio=9/16", plan.Caps.String())
}

func TestPlanCamera(t *testing.T) {
	eng := enginetest.NewEngine()

	plan := PlanPipeline(playerConfig(), eng, source.KindCamera,
		"/dev/video0", "/dev/video0", nil, logger.NewNullLogger())

	assert.Equal(t, "v4l2src", plan.SourceFactory)
	assert.Equal(t, 1920, plan.Width)
	assert.Equal(t, 1080, plan.Height)
}

func TestPlanStreamWithParams(t *testing.T) {
	eng := enginetest.NewEngine()
	identifier := "https://example.com/live.m3u8?w=1000&h=3000&o=l"

	plan := PlanPipeline(playerConfig(), eng, source.KindNetworkStream,
		identifier, identifier, nil, logger.NewNullLogger())

	// Explicit geometry overrides the accelerated memory layout: exact
	// normalized dimensions with square pixels.
	assert.Equal(t, "video/x-raw,format=RGBA,width=1080,height=3480,pixel-aspect-ratio=1/1", plan.Caps.String())
	assert.Equal(t, 1080, plan.Width)
	assert.Equal(t, 3480, plan.Height)
	assert.Equal(t, resolution.Landscape, plan.Aspect)
}

func TestPlanStreamPortraitOrientation(t *testing.T) {
	eng := enginetest.NewEngine()
	identifier := "rtsp://example.com/live?w=1920&h=1080&o=p"

	plan := PlanPipeline(playerConfig(), eng, source.KindNetworkStream,
		identifier, identifier, nil, logger.NewNullLogger())

	assert.Equal(t, resolution.Portrait, plan.Aspect)
}

func TestPlanStreamParamAboveCatalogLeftUnset(t *testing.T) {
	eng := enginetest.NewEngine()
	identifier := "rtsp://example.com/live?w=5000&h=1080"

	plan := PlanPipeline(playerConfig(), eng, source.KindNetworkStream,
		identifier, identifier, nil, logger.NewNullLogger())

	// Width above the catalog maximum cannot be normalized and is dropped.
	assert.Equal(t, "video/x-raw,format=RGBA,height=1080,pixel-aspect-ratio=1/1", plan.Caps.String())
	assert.Equal(t, 0, plan.Width)
}

func TestPlanStreamWithoutParams(t *testing.T) {
	eng := enginetest.NewEngine()
	identifier := "rtsp://example.com/live"

	plan := PlanPipeline(playerConfig(), eng, source.KindNetworkStream,
		identifier, identifier, nil, logger.NewNullLogger())

	// No parameters: default caps apply.
	assert.Equal(t, "video/x-raw(memory:DMABuf),format=RGBA", plan.Caps.String())
}
