package player

import "sync"

// completionMonitor records end-of-stream notifications from the engine bus
// and surfaces them when the host next queries playback position. The flag
// lives behind its own mutex, distinct from the frame lock, because the two
// are written from different engine contexts.
//
// This is a polling design: completion latency is bounded by the host's
// position poll interval, not by this layer.
type completionMonitor struct {
	mu        sync.Mutex
	completed bool
}

// OnEndOfStream marks the stream complete. Safe from any thread.
func (c *completionMonitor) OnEndOfStream() {
	c.mu.Lock()
	c.completed = true
	c.mu.Unlock()
}

// Drain atomically reads and clears the completion flag. Returns true at
// most once per end-of-stream notification.
func (c *completionMonitor) Drain() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.completed {
		return false
	}
	c.completed = false
	return true
}
