package services

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/fraudstream/backend/src/generator"
	"github.com/username/fraudstream/backend/src/models"
)

func newStreamFixture() *StreamService {
	gen := generator.New(rand.New(rand.NewPCG(31, 32)), func() time.Time {
		return time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	})
	return NewStreamService(gen)
}

func TestStartFailsWhenAlreadyStreaming(t *testing.T) {
	svc := newStreamFixture()

	require.NoError(t, svc.Start())
	assert.ErrorIs(t, svc.Start(), ErrStreamAlreadyRunning)

	svc.Stop()
	assert.NoError(t, svc.Start(), "stream can restart after a stop")
}

func TestStopSignalsTheStopChannel(t *testing.T) {
	svc := newStreamFixture()

	stop := svc.Begin()
	assert.True(t, svc.IsStreaming())

	svc.Stop()
	select {
	case <-stop:
	default:
		t.Fatal("stop channel not closed after Stop")
	}
	assert.False(t, svc.IsStreaming())
}

func TestStopWithoutStreamIsANoOp(t *testing.T) {
	svc := newStreamFixture()
	svc.Stop()
	svc.Stop()
	assert.False(t, svc.IsStreaming())
}

func TestConfigSwapTakesEffectOnNextBatch(t *testing.T) {
	svc := newStreamFixture()

	assert.Equal(t, models.DefaultStreamConfig(), svc.Config())

	svc.UpdateConfig(models.StreamConfig{
		FrequencySeconds:   0.5,
		FraudInjectionRate: 0,
		BatchSize:          7,
	})

	assert.Equal(t, 500*time.Millisecond, svc.Interval())
	batch := svc.NextBatch()
	require.Len(t, batch, 7)
	for _, tx := range batch {
		assert.False(t, tx.IsFraud, "rate 0 must yield no fraud")
	}

	svc.UpdateConfig(models.StreamConfig{
		FrequencySeconds:   1,
		FraudInjectionRate: 1,
		BatchSize:          5,
	})
	for _, tx := range svc.NextBatch() {
		assert.True(t, tx.IsFraud, "rate 1 must yield only fraud")
	}
}

func TestStatusReportsGenerationProgress(t *testing.T) {
	svc := newStreamFixture()

	status := svc.Status()
	assert.False(t, status.Streaming)
	assert.Equal(t, uint64(0), status.TransactionsGenerated)
	assert.Equal(t, 0, status.ActiveAccounts)

	svc.NextBatch()
	status = svc.Status()
	assert.Equal(t, uint64(1), status.TransactionsGenerated, "default batch size is 1")
	assert.Greater(t, status.ActiveAccounts, 0)
}
