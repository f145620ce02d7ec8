package transport

import (
	"sync"
	"sync/atomic"
	"time"
)

// ShutdownConfig configures graceful shutdown behavior.
type ShutdownConfig struct {
	// Timeout is the maximum time to wait for in-flight requests to complete.
	// Default: 30 seconds
	Timeout time.Duration

	// OnDrainStart is called when draining begins.
	OnDrainStart func()

	// OnDrainComplete is called when the last in-flight request finishes.
	OnDrainComplete func()
}

// DefaultShutdownConfig returns sensible defaults for shutdown configuration.
func DefaultShutdownConfig() ShutdownConfig {
	return ShutdownConfig{
		Timeout: 30 * time.Second,
	}
}

// ShutdownManager coordinates graceful shutdown with request draining.
// While draining, new requests are rejected and the manager tracks in-flight
// requests until they complete.
type ShutdownManager struct {
	config ShutdownConfig

	draining  atomic.Bool
	inFlight  atomic.Int64
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewShutdownManager creates a new shutdown manager.
func NewShutdownManager(config ShutdownConfig) *ShutdownManager {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	return &ShutdownManager{
		config: config,
		doneCh: make(chan struct{}),
	}
}

// Timeout returns the configured drain timeout.
func (sm *ShutdownManager) Timeout() time.Duration {
	return sm.config.Timeout
}

// IsDraining returns true if the transport is draining requests.
func (sm *ShutdownManager) IsDraining() bool {
	return sm.draining.Load()
}

// InFlightRequests returns the number of in-flight requests.
func (sm *ShutdownManager) InFlightRequests() int64 {
	return sm.inFlight.Load()
}

// TrackRequest increments the in-flight request counter.
// Returns false if the transport is draining and the request should be rejected.
func (sm *ShutdownManager) TrackRequest() bool {
	if sm.draining.Load() {
		return false
	}
	sm.inFlight.Add(1)
	return true
}

// ReleaseRequest decrements the in-flight request counter.
func (sm *ShutdownManager) ReleaseRequest() {
	if sm.inFlight.Add(-1) == 0 && sm.draining.Load() {
		sm.signalDone()
	}
}

// BeginDrain marks the transport as draining. New requests are rejected from
// this point on.
func (sm *ShutdownManager) BeginDrain() {
	if sm.draining.Swap(true) {
		return
	}
	if sm.config.OnDrainStart != nil {
		sm.config.OnDrainStart()
	}
	if sm.inFlight.Load() == 0 {
		sm.signalDone()
	}
}

// Drained returns a channel closed once draining has started and the last
// in-flight request has finished.
func (sm *ShutdownManager) Drained() <-chan struct{} {
	return sm.doneCh
}

func (sm *ShutdownManager) signalDone() {
	sm.closeOnce.Do(func() {
		if sm.config.OnDrainComplete != nil {
			sm.config.OnDrainComplete()
		}
		close(sm.doneCh)
	})
}
