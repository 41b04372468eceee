package probe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asticode/go-astiav"

	"github.com/telecine/playcore/internal/logger"
	"github.com/telecine/playcore/internal/metrics"
)

// Errors distinguishing why a probe gave up. Sessions treat all of them as
// "no inconsistency detected" and continue.
var (
	ErrNoVideoStream    = errors.New("probe: no video stream found")
	ErrUnsupportedCodec = errors.New("probe: unsupported codec")
	ErrNoDecodablePacket = errors.New("probe: packet budget exhausted before decoder accepted a packet")
)

// LibAVProber inspects containers through libav. It opens the container,
// locates the first video stream, and feeds packets to a decoder until one
// is accepted, which skips non-decodable header/parameter units at the start
// of some streams.
type LibAVProber struct {
	logger       logger.Logger
	packetBudget int
}

// NewLibAVProber creates a prober. packetBudget bounds how many packets are
// read before the probe gives up.
func NewLibAVProber(log logger.Logger, packetBudget int) *LibAVProber {
	if packetBudget <= 0 {
		packetBudget = 64
	}
	return &LibAVProber{
		logger:       log.WithField("component", "probe"),
		packetBudget: packetBudget,
	}
}

// Probe implements Prober.
func (p *LibAVProber) Probe(ctx context.Context, uri string) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.ObserveProbeDuration(time.Since(start).Seconds())
	}()

	formatCtx := astiav.AllocFormatContext()
	if formatCtx == nil {
		metrics.ProbeFailed("alloc")
		return nil, errors.New("probe: failed to allocate format context")
	}
	defer formatCtx.Free()

	if err := formatCtx.OpenInput(uri, nil, nil); err != nil {
		metrics.ProbeFailed("open")
		return nil, fmt.Errorf("probe: failed to open %q: %w", uri, err)
	}
	defer formatCtx.CloseInput()

	if err := formatCtx.FindStreamInfo(nil); err != nil {
		metrics.ProbeFailed("stream_info")
		return nil, fmt.Errorf("probe: failed to read stream info: %w", err)
	}

	for _, stream := range formatCtx.Streams() {
		params := stream.CodecParameters()
		if params.MediaType() != astiav.MediaTypeVideo {
			continue
		}
		return p.probeVideoStream(ctx, formatCtx, stream)
	}

	metrics.ProbeFailed("no_video_stream")
	return nil, ErrNoVideoStream
}

func (p *LibAVProber) probeVideoStream(ctx context.Context, formatCtx *astiav.FormatContext, stream *astiav.Stream) (*Result, error) {
	params := stream.CodecParameters()

	codec := astiav.FindDecoder(params.CodecID())
	if codec == nil {
		metrics.ProbeFailed("codec")
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, params.CodecID())
	}

	codecCtx := astiav.AllocCodecContext(codec)
	if codecCtx == nil {
		metrics.ProbeFailed("alloc")
		return nil, errors.New("probe: failed to allocate codec context")
	}
	defer codecCtx.Free()

	if err := params.ToCodecContext(codecCtx); err != nil {
		metrics.ProbeFailed("codec_params")
		return nil, fmt.Errorf("probe: failed to copy codec parameters: %w", err)
	}

	if err := codecCtx.Open(codec, nil); err != nil {
		metrics.ProbeFailed("codec_open")
		return nil, fmt.Errorf("probe: failed to open codec: %w", err)
	}

	pkt := astiav.AllocPacket()
	if pkt == nil {
		metrics.ProbeFailed("alloc")
		return nil, errors.New("probe: failed to allocate packet")
	}
	defer pkt.Free()

	// Streams may lead with header/parameter units the decoder rejects.
	// Discard each previously-read packet and keep reading until one is
	// accepted, within the packet budget.
	accepted := false
	for i := 0; i < p.packetBudget; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pkt.Unref()
		if err := formatCtx.ReadFrame(pkt); err != nil {
			metrics.ProbeFailed("read")
			return nil, fmt.Errorf("probe: failed to read packet: %w", err)
		}

		if pkt.StreamIndex() != stream.Index() {
			continue
		}

		if err := codecCtx.SendPacket(pkt); err == nil {
			accepted = true
			break
		}
	}
	pkt.Unref()

	if !accepted {
		metrics.ProbeFailed("budget")
		return nil, ErrNoDecodablePacket
	}

	result := Evaluate(codecCtx.Width(), codecCtx.Height())
	if result.Inconsistent {
		metrics.ProbeInconsistency()
		p.logger.WithFields(map[string]interface{}{
			"coded_width":  result.CodedWidth,
			"coded_height": result.CodedHeight,
			"aspect":       result.Aspect.String(),
		}).Warn("Coded dimensions inconsistent with resolution catalog")
	}

	return result, nil
}
