package generator

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/fraudstream/backend/src/models"
)

var genBase = time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

func newTestGenerator(seed uint64) *Generator {
	return New(rand.New(rand.NewPCG(seed, seed+1)), func() time.Time { return genBase })
}

func TestNextAssignsIncreasingTransactionIDs(t *testing.T) {
	gen := newTestGenerator(1)

	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 100; i++ {
		tx := gen.Next()
		require.False(t, seen[tx.TransactionID], "duplicate id %s", tx.TransactionID)
		seen[tx.TransactionID] = true
		require.Greater(t, tx.TransactionID, prev, "ids must increase lexically (zero-padded)")
		prev = tx.TransactionID
	}

	assert.Equal(t, "TXN_00000001", firstKey(seen))
	assert.Equal(t, uint64(100), gen.GeneratedCount())
}

func firstKey(seen map[string]bool) string {
	first := ""
	for k := range seen {
		if first == "" || k < first {
			first = k
		}
	}
	return first
}

func TestNextBatchPreservesOrderAndCount(t *testing.T) {
	gen := newTestGenerator(2)

	batch := gen.NextBatch(50)
	require.Len(t, batch, 50)
	for i := 1; i < len(batch); i++ {
		assert.Greater(t, batch[i].TransactionID, batch[i-1].TransactionID)
	}
}

func TestFraudLabelConsistency(t *testing.T) {
	gen := newTestGenerator(3)

	for i := 0; i < 2000; i++ {
		tx := gen.Next()
		assert.Equal(t, tx.IsFraud, tx.FraudType != models.FraudNone,
			"is_fraud must mirror fraud_type on %s", tx.TransactionID)
		assert.GreaterOrEqual(t, tx.TransactionFrequency5Min, 1)
		assert.GreaterOrEqual(t, tx.TransactionFeesVND, 0.0)
		assert.Positive(t, tx.TransactionAmountVND)
		assert.True(t, tx.BranchID >= 1 && tx.BranchID <= 10)
	}
}

func TestFeeFinalizerAppliesFlatRate(t *testing.T) {
	gen := newTestGenerator(4)

	for i := 0; i < 2000; i++ {
		tx := gen.Next()
		if tx.FraudType == models.FraudFeeManipulation {
			assert.Equal(t, tx.TransactionAmountVND*0.05, tx.TransactionFeesVND)
			assert.GreaterOrEqual(t, tx.TransactionAmountVND, 10_000.0)
			assert.Less(t, tx.TransactionAmountVND, 100_000.0)
		} else {
			assert.Equal(t, tx.TotalDepositsVND*0.001, tx.TransactionFeesVND)
		}
	}
}

func TestInjectionRateZeroAndOne(t *testing.T) {
	gen := newTestGenerator(5)
	gen.SetFraudInjectionRate(0)
	for i := 0; i < 5000; i++ {
		tx := gen.Next()
		require.False(t, tx.IsFraud)
		require.Equal(t, models.FraudNone, tx.FraudType)
	}

	gen.SetFraudInjectionRate(1)
	for i := 0; i < 5000; i++ {
		tx := gen.Next()
		require.True(t, tx.IsFraud)
		require.NotEqual(t, models.FraudNone, tx.FraudType)
	}
}

func TestInjectionRateDefaultLargeSample(t *testing.T) {
	if testing.Short() {
		t.Skip("large-sample distribution check")
	}
	gen := newTestGenerator(6)

	const n = 100_000
	fraud := 0
	for i := 0; i < n; i++ {
		if gen.Next().IsFraud {
			fraud++
		}
	}
	assert.InDelta(t, 0.05, float64(fraud)/n, 0.01)
}

func TestFraudArchetypeWeights(t *testing.T) {
	if testing.Short() {
		t.Skip("large-sample distribution check")
	}
	gen := newTestGenerator(7)
	gen.SetFraudInjectionRate(1)

	const n = 20_000
	counts := make(map[models.FraudType]int)
	for i := 0; i < n; i++ {
		counts[gen.Next().FraudType]++
	}

	assert.InDelta(t, 0.30, float64(counts[models.FraudMoneyLaundering])/n, 0.02)
	assert.InDelta(t, 0.25, float64(counts[models.FraudAccountTakeover])/n, 0.02)
	assert.InDelta(t, 0.25, float64(counts[models.FraudLoanFraud])/n, 0.02)
	assert.InDelta(t, 0.20, float64(counts[models.FraudFeeManipulation])/n, 0.02)
}

func TestSampleNormalFieldRanges(t *testing.T) {
	gen := newTestGenerator(8)

	for i := 0; i < 500; i++ {
		tx := gen.sample(archetypeNormal, genBase)
		assert.GreaterOrEqual(t, tx.TransactionAmountVND, 10_000.0)
		assert.Equal(t, genBase.Hour(), tx.TransactionHour)
		assert.True(t, strings.HasPrefix(tx.AccountID, "ACC_"))
		assert.True(t, strings.HasPrefix(tx.DeviceID, "DEV_"))
		assert.False(t, strings.HasPrefix(tx.DeviceID, "DEV_NEW_"))
		assert.True(t, tx.BiometricFailureCount >= 0 && tx.BiometricFailureCount <= 2)
		assert.True(t, tx.NumTransactions >= 50 && tx.NumTransactions <= 500)
	}
}

func TestSampleMoneyLaunderingFieldRanges(t *testing.T) {
	gen := newTestGenerator(9)
	offHourSet := map[int]bool{1: true, 2: true, 3: true, 23: true, 24: true}

	for i := 0; i < 500; i++ {
		tx := gen.sample(archetypeMoneyLaundering, genBase)
		assert.GreaterOrEqual(t, tx.TransactionAmountVND, 300_000_000.0)
		assert.LessOrEqual(t, tx.TransactionAmountVND, 1_000_000_000.0)
		assert.True(t, offHourSet[tx.TransactionHour], "hour %d outside pattern set", tx.TransactionHour)
		assert.True(t, tx.NumTransactions >= 200 && tx.NumTransactions <= 800)
	}
}

func TestMoneyLaunderingBurstElevatesFrequency(t *testing.T) {
	// Fresh generator: the sampled account cannot have prior activity,
	// so the count is the 15-25 burst plus the real transaction.
	gen := newTestGenerator(10)
	tx := gen.sample(archetypeMoneyLaundering, genBase)
	assert.GreaterOrEqual(t, tx.TransactionFrequency5Min, 16)
	assert.LessOrEqual(t, tx.TransactionFrequency5Min, 26)
}

func TestSampleAccountTakeoverFieldRanges(t *testing.T) {
	gen := newTestGenerator(11)
	offHourSet := map[int]bool{2: true, 3: true, 4: true, 22: true, 23: true}

	sawSentinelCity := false
	for i := 0; i < 500; i++ {
		tx := gen.sample(archetypeAccountTakeover, genBase)
		assert.GreaterOrEqual(t, tx.TransactionAmountVND, 50_000_000.0)
		assert.LessOrEqual(t, tx.TransactionAmountVND, 500_000_000.0)
		assert.True(t, offHourSet[tx.TransactionHour])
		assert.True(t, strings.HasPrefix(tx.DeviceID, "DEV_NEW_"), "takeover must use a fresh device")
		assert.True(t, tx.BiometricFailureCount >= 3 && tx.BiometricFailureCount <= 5)
		if tx.LocationCity == "Unknown" || tx.LocationCity == "Foreign_Location" {
			sawSentinelCity = true
		}
	}
	// Two sentinels among ten equally likely cities: ~20% of 500 draws.
	assert.True(t, sawSentinelCity)
}

func TestSampleLoanFraudFieldRanges(t *testing.T) {
	gen := newTestGenerator(12)

	for i := 0; i < 500; i++ {
		tx := gen.sample(archetypeLoanFraud, genBase)
		assert.GreaterOrEqual(t, tx.TotalLoansVND, 500_000_000.0)
		assert.LessOrEqual(t, tx.TotalLoansVND, 2_000_000_000.0)
		assert.True(t, strings.HasPrefix(tx.DeviceID, "DEV_NEW_"))
		assert.True(t, tx.NumTransactions >= 1 && tx.NumTransactions <= 50, "loan fraud implies thin history")
		assert.Equal(t, genBase.Hour(), tx.TransactionHour)
	}
}

func TestSampleFeeManipulationBurst(t *testing.T) {
	gen := newTestGenerator(13)
	tx := gen.sample(archetypeFeeManipulation, genBase)

	// 12-20 burst entries plus the real transaction.
	assert.GreaterOrEqual(t, tx.TransactionFrequency5Min, 13)
	assert.LessOrEqual(t, tx.TransactionFrequency5Min, 21)
	assert.Equal(t, tx.TransactionAmountVND*0.05, tx.TransactionFeesVND)
}

func TestNewDeviceIDsSitOutsidePool(t *testing.T) {
	gen := newTestGenerator(14)

	pool := make(map[string]bool, len(gen.devicePool))
	for _, d := range gen.devicePool {
		pool[d] = true
	}
	for i := 0; i < 200; i++ {
		tx := gen.sample(archetypeAccountTakeover, genBase)
		assert.False(t, pool[tx.DeviceID], "suspicious device %s must not belong to the pool", tx.DeviceID)
	}
}

func TestDeterministicWithSeededSource(t *testing.T) {
	a := newTestGenerator(42)
	b := newTestGenerator(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestPoolShapes(t *testing.T) {
	gen := newTestGenerator(15)

	require.Len(t, gen.accountPool, 4000)
	require.Len(t, gen.devicePool, 40000)
	require.Len(t, gen.cities, 8)
	assert.Equal(t, "ACC_001000", gen.accountPool[0])
	assert.Equal(t, "ACC_004999", gen.accountPool[len(gen.accountPool)-1])
	assert.Equal(t, "DEV_10000", gen.devicePool[0])
	assert.Equal(t, fmt.Sprintf("DEV_%05d", 49999), gen.devicePool[len(gen.devicePool)-1])
}
