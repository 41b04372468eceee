package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		expected   Kind
	}{
		{"camera device", "/dev/video0", KindCamera},
		{"camera device high index", "/dev/video12", KindCamera},
		{"camera device mixed case", "/DEV/Video0", KindCamera},
		{"rtsp stream", "rtsp://example.com/live", KindNetworkStream},
		{"rtmp stream", "rtmp://example.com/app/key", KindNetworkStream},
		{"rtp stream", "rtp://10.0.0.1:5004", KindNetworkStream},
		{"rtcp stream", "rtcp://10.0.0.1:5005", KindNetworkStream},
		{"udp stream", "udp://239.0.0.1:1234", KindNetworkStream},
		{"scheme uppercase", "RTSP://example.com/live", KindNetworkStream},
		{"hls playlist", "http://example.com/live/index.m3u8", KindNetworkStream},
		{"hls playlist https", "https://example.com/live/index.m3u8", KindNetworkStream},
		{"flv over http", "http://example.com/stream.flv", KindNetworkStream},
		{"hls uppercase extension", "HTTP://example.com/live/INDEX.M3U8", KindNetworkStream},
		// The extension must terminate the identifier; a query suffix
		// disqualifies it.
		{"m3u8 with trailing params", "https://example.com/live.m3u8?w=1920&h=1080&o=l", KindLocalFile},
		{"plain http mp4", "http://example.com/movie.mp4", KindLocalFile},
		{"local path", "/home/user/movie.mp4", KindLocalFile},
		{"file uri", "file:///home/user/movie.mp4", KindLocalFile},
		{"relative path", "movie.mp4", KindLocalFile},
		{"empty", "", KindLocalFile},
		{"device-like but not video", "/dev/audio0", KindLocalFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.identifier))
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "camera", KindCamera.String())
	assert.Equal(t, "network_stream", KindNetworkStream.String())
	assert.Equal(t, "local_file", KindLocalFile.String())
}

func TestKindIsLive(t *testing.T) {
	assert.True(t, KindCamera.IsLive())
	assert.True(t, KindNetworkStream.IsLive())
	assert.False(t, KindLocalFile.IsLive())
}

func TestCanonicalURI(t *testing.T) {
	t.Run("well-formed URI passes through", func(t *testing.T) {
		uri, err := CanonicalURI("https://example.com/live.m3u8")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/live.m3u8", uri)
	})

	t.Run("file URI passes through", func(t *testing.T) {
		uri, err := CanonicalURI("file:///home/user/movie.mp4")
		require.NoError(t, err)
		assert.Equal(t, "file:///home/user/movie.mp4", uri)
	})

	t.Run("absolute path becomes file URI", func(t *testing.T) {
		uri, err := CanonicalURI("/home/user/movie.mp4")
		require.NoError(t, err)
		assert.Equal(t, "file:///home/user/movie.mp4", uri)
	})

	t.Run("relative path becomes absolute file URI", func(t *testing.T) {
		uri, err := CanonicalURI("movie.mp4")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(uri, "file:///"))
		assert.True(t, strings.HasSuffix(uri, "/movie.mp4"))
	})

	t.Run("windows-style drive letter is not a scheme", func(t *testing.T) {
		// Single-letter schemes are treated as paths.
		uri, err := CanonicalURI("c:movie.mp4")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(uri, "file:///"))
	})
}

func TestParseStreamParams(t *testing.T) {
	t.Run("all parameters", func(t *testing.T) {
		params, ok := ParseStreamParams("rtsp://host/live?w=1920&h=1080&o=l")
		require.True(t, ok)
		assert.True(t, params.HasWidth)
		assert.Equal(t, 1920, params.Width)
		assert.True(t, params.HasHeight)
		assert.Equal(t, 1080, params.Height)
		assert.True(t, params.HasOrientation)
		assert.True(t, params.Landscape)
	})

	t.Run("portrait orientation", func(t *testing.T) {
		params, ok := ParseStreamParams("rtsp://host/live?o=p")
		require.True(t, ok)
		assert.True(t, params.HasOrientation)
		assert.False(t, params.Landscape)
	})

	t.Run("final parameter without trailing separator", func(t *testing.T) {
		params, ok := ParseStreamParams("rtsp://host/live?w=1280&h=720")
		require.True(t, ok)
		assert.True(t, params.HasWidth)
		assert.Equal(t, 1280, params.Width)
		assert.True(t, params.HasHeight)
		assert.Equal(t, 720, params.Height)
		assert.False(t, params.HasOrientation)
	})

	t.Run("no question mark", func(t *testing.T) {
		_, ok := ParseStreamParams("rtsp://host/live")
		assert.False(t, ok)
	})

	t.Run("empty parameter string", func(t *testing.T) {
		_, ok := ParseStreamParams("rtsp://host/live?")
		assert.False(t, ok)
	})

	t.Run("malformed width is left unset", func(t *testing.T) {
		params, ok := ParseStreamParams("rtsp://host/live?w=abc&h=1080")
		require.True(t, ok)
		assert.False(t, params.HasWidth)
		assert.True(t, params.HasHeight)
	})

	t.Run("splits after the last question mark", func(t *testing.T) {
		params, ok := ParseStreamParams("rtsp://host/live?x=1?w=1920")
		require.True(t, ok)
		assert.True(t, params.HasWidth)
		assert.Equal(t, 1920, params.Width)
	})
}
