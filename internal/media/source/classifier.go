package source

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the handling category of a playback source identifier.
type Kind int

const (
	// KindLocalFile is the fallback classification: a container on local
	// storage, addressed by path or file:// URI.
	KindLocalFile Kind = iota
	// KindNetworkStream is a live or adaptive stream addressed by a
	// streaming protocol scheme or a streaming-container URL.
	KindNetworkStream
	// KindCamera is a capture device node.
	KindCamera
)

// String returns the kind as a metrics/log-friendly label.
func (k Kind) String() string {
	switch k {
	case KindCamera:
		return "camera"
	case KindNetworkStream:
		return "network_stream"
	default:
		return "local_file"
	}
}

// IsLive reports whether transport operations that require a known duration
// (seek, rate change) are unavailable for this kind.
func (k Kind) IsLive() bool {
	return k == KindCamera || k == KindNetworkStream
}

var (
	cameraPathPattern   = regexp.MustCompile(`(?i)^/dev/video[0-9]+$`)
	streamSchemePattern = regexp.MustCompile(`(?i)^(?:rtp|rtmp|rtcp|rtsp|udp)://.*$`)
	streamExtPattern    = regexp.MustCompile(`(?i)^(?:http|https)://.*(?:\.m3u8|\.flv)$`)
)

// Classify tags an identifier with its handling category. Matching is
// case-insensitive and has no side effects; anything that is neither a
// capture device nor a stream falls back to local-file handling.
func Classify(identifier string) Kind {
	switch {
	case cameraPathPattern.MatchString(identifier):
		return KindCamera
	case streamSchemePattern.MatchString(identifier),
		streamExtPattern.MatchString(identifier):
		return KindNetworkStream
	default:
		return KindLocalFile
	}
}

// CanonicalURI normalizes an identifier to a URI the engine's adaptive
// front-end accepts. Well-formed URIs pass through; bare filesystem paths
// are converted to file:// URIs. Callers treat an error as non-fatal and
// keep the original identifier.
func CanonicalURI(identifier string) (string, error) {
	if u, err := url.Parse(identifier); err == nil && len(u.Scheme) > 1 {
		return identifier, nil
	}

	abs, err := filepath.Abs(identifier)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %q: %w", identifier, err)
	}

	return (&url.URL{Scheme: "file", Path: abs}).String(), nil
}

// StreamParams carries the optional rendering hints a network-stream
// identifier encodes as query parameters: ?w=<int>&h=<int>&o=<l|p>.
// Each hint is only valid when its Has flag is set.
type StreamParams struct {
	Width          int
	HasWidth       bool
	Height         int
	HasHeight      bool
	Landscape      bool
	HasOrientation bool
}

// ParseStreamParams extracts the query-parameter hints from a stream
// identifier. Extraction splits the substring after the last '?' on '&';
// missing or malformed parameters leave the corresponding hint unset.
// Returns false when the identifier carries no parameters at all.
func ParseStreamParams(identifier string) (StreamParams, bool) {
	var p StreamParams

	idx := strings.LastIndexByte(identifier, '?')
	if idx < 0 {
		return p, false
	}

	raw := identifier[idx+1:]
	values := make(map[string]string)
	for _, pair := range strings.Split(raw, "&") {
		if k, v, ok := strings.Cut(pair, "="); ok && k != "" {
			values[k] = v
		}
	}
	if len(values) == 0 {
		return p, false
	}

	if w, ok := values["w"]; ok {
		if n, err := strconv.Atoi(w); err == nil {
			p.Width = n
			p.HasWidth = true
		}
	}

	if h, ok := values["h"]; ok {
		if n, err := strconv.Atoi(h); err == nil {
			p.Height = n
			p.HasHeight = true
		}
	}

	if o, ok := values["o"]; ok {
		p.HasOrientation = true
		p.Landscape = o == "l"
	}

	return p, true
}
