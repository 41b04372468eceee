package player

// EventSink receives session notifications. OnFrameDecoded and OnCompleted
// may be invoked from engine-owned threads; implementations must be safe to
// call concurrently with host-side operations.
type EventSink interface {
	// OnInitialized fires once, when construction has fully succeeded.
	OnInitialized()

	// OnFrameDecoded fires after every frame lands in the frame sink.
	OnFrameDecoded()

	// OnCompleted fires when a drained end-of-stream is surfaced through a
	// position query.
	OnCompleted()
}

// NopEventSink discards all notifications.
type NopEventSink struct{}

func (NopEventSink) OnInitialized() {}

func (NopEventSink) OnFrameDecoded() {}

func (NopEventSink) OnCompleted() {}
