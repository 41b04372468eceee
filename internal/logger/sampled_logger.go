package logger

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// SampledLogger rate-limits high-frequency log categories. Decoded-frame
// deliveries arrive at the stream frame rate, so unsampled debug logging
// would drown everything else.
type SampledLogger struct {
	base          Logger
	samplers      map[string]*logSampler
	samplersMutex sync.RWMutex
}

type logSampler struct {
	minInterval time.Duration

	lastLogTime int64 // atomic, unix nanos
	total       int64 // atomic
	dropped     int64 // atomic
}

// NewSampledLogger creates a new sampled logger
func NewSampledLogger(base Logger) *SampledLogger {
	return &SampledLogger{
		base:     base,
		samplers: make(map[string]*logSampler),
	}
}

// WithSampler registers a category with a minimum interval between log lines.
func (s *SampledLogger) WithSampler(category string, minInterval time.Duration) *SampledLogger {
	s.samplersMutex.Lock()
	defer s.samplersMutex.Unlock()

	s.samplers[category] = &logSampler{minInterval: minInterval}
	return s
}

func (s *SampledLogger) shouldLog(category string) bool {
	s.samplersMutex.RLock()
	sampler, exists := s.samplers[category]
	s.samplersMutex.RUnlock()

	if !exists {
		return true
	}

	atomic.AddInt64(&sampler.total, 1)
	now := time.Now().UnixNano()
	last := atomic.LoadInt64(&sampler.lastLogTime)
	if now-last < sampler.minInterval.Nanoseconds() {
		atomic.AddInt64(&sampler.dropped, 1)
		return false
	}
	return atomic.CompareAndSwapInt64(&sampler.lastLogTime, last, now)
}

// DebugWithCategory logs a debug message subject to the category's sampling.
func (s *SampledLogger) DebugWithCategory(category, msg string, fields map[string]interface{}) {
	s.logWithCategory(logrus.DebugLevel, category, msg, fields)
}

// InfoWithCategory logs an info message subject to the category's sampling.
func (s *SampledLogger) InfoWithCategory(category, msg string, fields map[string]interface{}) {
	s.logWithCategory(logrus.InfoLevel, category, msg, fields)
}

// WarnWithCategory logs a warning subject to the category's sampling.
func (s *SampledLogger) WarnWithCategory(category, msg string, fields map[string]interface{}) {
	s.logWithCategory(logrus.WarnLevel, category, msg, fields)
}

func (s *SampledLogger) logWithCategory(level logrus.Level, category, msg string, fields map[string]interface{}) {
	if !s.shouldLog(category) {
		return
	}
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["category"] = category

	s.samplersMutex.RLock()
	sampler, exists := s.samplers[category]
	s.samplersMutex.RUnlock()
	if exists {
		fields["suppressed"] = atomic.SwapInt64(&sampler.dropped, 0)
	}

	s.base.WithFields(fields).Log(level, msg)
}

// Common playback log categories
const (
	CategoryFrameDelivery = "frame_delivery"
	CategoryPositionQuery = "position_query"
	CategoryBusMessage    = "bus_message"
)

// NewPlaybackLogger creates a sampled logger pre-configured for playback
// session hot paths.
func NewPlaybackLogger(base Logger) *SampledLogger {
	return NewSampledLogger(base).
		WithSampler(CategoryFrameDelivery, time.Second).
		WithSampler(CategoryPositionQuery, time.Second).
		WithSampler(CategoryBusMessage, 500*time.Millisecond)
}
