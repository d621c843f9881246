package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/username/fraudstream/backend/src/generator"
	"github.com/username/fraudstream/backend/src/logger"
	"github.com/username/fraudstream/backend/src/models"
)

var ErrStreamAlreadyRunning = errors.New("stream is already running")

// StreamStatus is the payload for GET /api/status.
type StreamStatus struct {
	Streaming             bool                `json:"streaming"`
	TransactionsGenerated uint64              `json:"transactions_generated"`
	ActiveAccounts        int                 `json:"active_accounts"`
	Config                models.StreamConfig `json:"config"`
}

// StreamService owns the streaming flag and the stream configuration.
// The configuration is swapped wholesale; a generation cycle reads it
// once at the top of the loop, so an update takes effect on the next
// cycle and never mid-cycle.
type StreamService struct {
	gen *generator.Generator
	cfg atomic.Pointer[models.StreamConfig]

	mu        sync.Mutex
	streaming bool
	stopCh    chan struct{}
}

func NewStreamService(gen *generator.Generator) *StreamService {
	s := &StreamService{
		gen:    gen,
		stopCh: make(chan struct{}),
	}
	cfg := models.DefaultStreamConfig()
	s.cfg.Store(&cfg)
	return s
}

// Config returns the configuration as of this instant.
func (s *StreamService) Config() models.StreamConfig {
	return *s.cfg.Load()
}

// UpdateConfig replaces the whole configuration object. The caller
// validates ranges before this point.
func (s *StreamService) UpdateConfig(cfg models.StreamConfig) {
	s.cfg.Store(&cfg)
	s.gen.SetFraudInjectionRate(cfg.FraudInjectionRate)
	logger.L.Info("Configuration updated",
		"frequencySeconds", cfg.FrequencySeconds,
		"fraudInjectionRate", cfg.FraudInjectionRate,
		"batchSize", cfg.BatchSize)
}

// Interval converts the configured frequency into a pacing duration.
func (s *StreamService) Interval() time.Duration {
	return time.Duration(s.Config().FrequencySeconds * float64(time.Second))
}

// NextBatch generates one stream cycle's worth of records.
func (s *StreamService) NextBatch() []models.Transaction {
	return s.gen.NextBatch(s.Config().BatchSize)
}

// Start flips the streaming flag for POST /api/stream/start and fails
// if a stream is already marked running.
func (s *StreamService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming {
		return ErrStreamAlreadyRunning
	}
	s.streaming = true
	s.stopCh = make(chan struct{})
	return nil
}

// Stop clears the streaming flag and signals any running SSE loop. The
// loop observes the signal at the top of its next iteration, so at most
// one in-flight generate-and-emit cycle completes after a stop request.
func (s *StreamService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streaming {
		s.streaming = false
		close(s.stopCh)
	}
}

// Begin marks streaming active for an SSE connection and returns the
// stop channel its loop must watch. Unlike Start it is idempotent: a
// second stream consumer attaches to the same stop signal.
func (s *StreamService) Begin() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.streaming {
		s.streaming = true
		s.stopCh = make(chan struct{})
	}
	return s.stopCh
}

// End clears the streaming flag when an SSE connection winds down.
func (s *StreamService) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
}

func (s *StreamService) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

func (s *StreamService) Status() StreamStatus {
	return StreamStatus{
		Streaming:             s.IsStreaming(),
		TransactionsGenerated: s.gen.GeneratedCount(),
		ActiveAccounts:        s.gen.ActiveAccounts(),
		Config:                s.Config(),
	}
}
