// Package generator is the transaction synthesis core: a per-account
// sliding-window activity tracker, five archetype samplers (normal plus
// four labeled fraud patterns) and the engine that ties them together
// behind a single mutex.
package generator

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/username/fraudstream/backend/src/models"
)

// DefaultFraudInjectionRate is the probability that a generated record
// follows a fraud archetype rather than the normal recipe.
const DefaultFraudInjectionRate = 0.05

// Generator owns all mutable generation state: the monotonic transaction
// counter, the activity tracker and the randomness source. One instance
// is constructed at startup and shared by every driver (HTTP handlers,
// CSV export, SSE pump); Next serializes access internally so the
// tracker's prune-then-append sequence is never interleaved.
type Generator struct {
	mu sync.Mutex

	rng     *rand.Rand
	now     func() time.Time
	tracker *ActivityTracker

	transactionCounter uint64
	fraudInjectionRate float64

	cities      []string
	accountPool []string
	devicePool  []string
}

// New builds a Generator with the fixed synthetic pools: 4000 accounts,
// 40000 devices, 8 cities. rng and now are injectable for deterministic
// tests; pass nil for production defaults.
func New(rng *rand.Rand, now func() time.Time) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if now == nil {
		now = time.Now
	}

	accountPool := make([]string, 0, 4000)
	for i := 1000; i < 5000; i++ {
		accountPool = append(accountPool, fmt.Sprintf("ACC_%06d", i))
	}
	devicePool := make([]string, 0, 40000)
	for i := 10000; i < 50000; i++ {
		devicePool = append(devicePool, fmt.Sprintf("DEV_%05d", i))
	}

	return &Generator{
		rng:     rng,
		now:     now,
		tracker: NewActivityTracker(),

		transactionCounter: 1,
		fraudInjectionRate: DefaultFraudInjectionRate,

		cities: []string{
			"Ho Chi Minh City", "Hanoi", "Da Nang", "Can Tho",
			"Hai Phong", "Bien Hoa", "Hue", "Nha Trang",
		},
		accountPool: accountPool,
		devicePool:  devicePool,
	}
}

// Next synthesizes one transaction: archetype selection, field sampling
// (which records account activity), fee finalization and ID assignment.
func (g *Generator) Next() models.Transaction {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next()
}

// NextBatch synthesizes n transactions under one lock acquisition.
func (g *Generator) NextBatch(n int) []models.Transaction {
	g.mu.Lock()
	defer g.mu.Unlock()

	batch := make([]models.Transaction, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, g.next())
	}
	return batch
}

func (g *Generator) next() models.Transaction {
	now := g.now()

	var tx models.Transaction
	if g.rng.Float64() < g.fraudInjectionRate {
		selected := fraudArchetypes[g.weightedIndex(fraudArchetypeWeights)]
		tx = g.sample(selected, now)
		tx.IsFraud = true
		tx.FraudType = selected.fraudType()
	} else {
		tx = g.sample(archetypeNormal, now)
	}

	finalizeFees(&tx)

	tx.TransactionID = fmt.Sprintf("TXN_%08d", g.transactionCounter)
	g.transactionCounter++
	return tx
}

// finalizeFees applies the flat 0.1%-of-deposits fee unless the
// archetype already set one (fee manipulation's inflated fee ratio is
// the anomaly itself and must survive).
func finalizeFees(tx *models.Transaction) {
	if tx.TransactionFeesVND == 0 {
		tx.TransactionFeesVND = tx.TotalDepositsVND * 0.001
	}
}

// SetFraudInjectionRate swaps the injection rate observed by the next
// generation cycle. Values outside [0,1] are the caller's problem; the
// delivery shell validates before calling.
func (g *Generator) SetFraudInjectionRate(rate float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fraudInjectionRate = rate
}

// GeneratedCount reports how many transactions have been issued.
func (g *Generator) GeneratedCount() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transactionCounter - 1
}

// ActiveAccounts reports how many accounts appear in the activity map.
func (g *Generator) ActiveAccounts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tracker.ActiveAccounts()
}

// --- sampling primitives ---

func (g *Generator) pickAccount() string {
	return g.accountPool[g.rng.IntN(len(g.accountPool))]
}

func (g *Generator) pickDevice() string {
	return g.devicePool[g.rng.IntN(len(g.devicePool))]
}

func (g *Generator) pickInt(options []int) int {
	return options[g.rng.IntN(len(options))]
}

// randIncl draws a uniform integer in [lo, hi], both ends inclusive.
func (g *Generator) randIncl(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) logNormal(mean, sigma float64) float64 {
	return math.Exp(mean + sigma*g.rng.NormFloat64())
}

// weightedIndex draws an index proportionally to the relative weights.
func (g *Generator) weightedIndex(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	r := g.rng.IntN(total)
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}

func (g *Generator) weightedValue(values, weights []int) int {
	return values[g.weightedIndex(weights)]
}
