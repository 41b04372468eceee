package player

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telecine/playcore/internal/engine"
)

type countingSink struct {
	mu          sync.Mutex
	initialized int
	frames      int
	completed   int
}

func (c *countingSink) OnInitialized() {
	c.mu.Lock()
	c.initialized++
	c.mu.Unlock()
}

func (c *countingSink) OnFrameDecoded() {
	c.mu.Lock()
	c.frames++
	c.mu.Unlock()
}

func (c *countingSink) OnCompleted() {
	c.mu.Lock()
	c.completed++
	c.mu.Unlock()
}

func (c *countingSink) counts() (int, int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized, c.frames, c.completed
}

func solidFrame(width, height int, value byte) engine.Frame {
	data := make([]byte, width*height*4)
	for i := range data {
		data[i] = value
	}
	return engine.Frame{Data: data, Width: width, Height: height}
}

func TestFrameSinkNilBeforeDelivery(t *testing.T) {
	fs := newFrameSink("s1", NopEventSink{}, 1920, 1080)
	assert.Nil(t, fs.ReadFrame())
}

func TestFrameSinkDeliveryAndRead(t *testing.T) {
	events := &countingSink{}
	fs := newFrameSink("s1", events, 4, 2)

	fs.OnFrame(solidFrame(4, 2, 0xAB))

	frame := fs.ReadFrame()
	require.NotNil(t, frame)
	assert.Len(t, frame, 4*2*4)
	for _, b := range frame {
		assert.Equal(t, byte(0xAB), b)
	}

	_, frames, _ := events.counts()
	assert.Equal(t, 1, frames)
}

func TestFrameSinkReadReturnsCopy(t *testing.T) {
	fs := newFrameSink("s1", NopEventSink{}, 2, 2)
	fs.OnFrame(solidFrame(2, 2, 1))

	frame := fs.ReadFrame()
	frame[0] = 99

	again := fs.ReadFrame()
	assert.Equal(t, byte(1), again[0])
}

func TestFrameSinkResizeOnDimensionChange(t *testing.T) {
	fs := newFrameSink("s1", NopEventSink{}, 4, 2)
	fs.OnFrame(solidFrame(4, 2, 1))

	fs.OnFrame(solidFrame(8, 4, 2))

	w, h := fs.Size()
	assert.Equal(t, 8, w)
	assert.Equal(t, 4, h)
	assert.Len(t, fs.ReadFrame(), 8*4*4)
}

func TestFrameSinkNoTornReads(t *testing.T) {
	fs := newFrameSink("s1", NopEventSink{}, 64, 64)

	stop := make(chan struct{})
	var writers, readers sync.WaitGroup

	writers.Add(1)
	go func() {
		defer writers.Done()
		value := byte(0)
		for {
			select {
			case <-stop:
				return
			default:
			}
			value++
			if value == 0 {
				value = 1
			}
			fs.OnFrame(solidFrame(64, 64, value))
		}
	}()

	for reader := 0; reader < 4; reader++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for i := 0; i < 500; i++ {
				frame := fs.ReadFrame()
				if frame == nil {
					continue
				}
				// Every byte must come from the same delivery.
				first := frame[0]
				if !bytes.Equal(frame, bytes.Repeat([]byte{first}, len(frame))) {
					t.Error("observed a torn frame")
					return
				}
			}
		}()
	}

	readers.Wait()
	close(stop)
	writers.Wait()
}
