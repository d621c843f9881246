package generator

import (
	"fmt"
	"math"
	"time"

	"github.com/username/fraudstream/backend/src/models"
)

// archetype is the closed set of generation recipes. Selection is by
// weighted draw in Next; every variant has exactly one sampler below.
type archetype int

const (
	archetypeNormal archetype = iota
	archetypeMoneyLaundering
	archetypeAccountTakeover
	archetypeLoanFraud
	archetypeFeeManipulation
)

// Relative weights for the fraud archetype draw (30/25/25/20).
var (
	fraudArchetypes       = []archetype{archetypeMoneyLaundering, archetypeAccountTakeover, archetypeLoanFraud, archetypeFeeManipulation}
	fraudArchetypeWeights = []int{30, 25, 25, 20}
)

func (a archetype) fraudType() models.FraudType {
	switch a {
	case archetypeMoneyLaundering:
		return models.FraudMoneyLaundering
	case archetypeAccountTakeover:
		return models.FraudAccountTakeover
	case archetypeLoanFraud:
		return models.FraudLoanFraud
	case archetypeFeeManipulation:
		return models.FraudFeeManipulation
	default:
		return models.FraudNone
	}
}

func (g *Generator) sample(a archetype, now time.Time) models.Transaction {
	switch a {
	case archetypeMoneyLaundering:
		return g.sampleMoneyLaundering(now)
	case archetypeAccountTakeover:
		return g.sampleAccountTakeover(now)
	case archetypeLoanFraud:
		return g.sampleLoanFraud(now)
	case archetypeFeeManipulation:
		return g.sampleFeeManipulation(now)
	default:
		return g.sampleNormal(now)
	}
}

// sampleNormal draws an everyday transaction: lognormal amounts around a
// few hundred thousand VND, pool device, current hour.
func (g *Generator) sampleNormal(now time.Time) models.Transaction {
	accountID := g.pickAccount()
	freq5Min := g.tracker.RecordAndCount(accountID, now)

	return models.Transaction{
		AccountID:                accountID,
		BranchID:                 g.randIncl(1, 10),
		TransactionAmountVND:     math.Max(10000, g.logNormal(13.8, 1.2)),
		TransactionHour:          now.Hour(),
		TransactionTimestamp:     now.Format(time.RFC3339),
		LocationCity:             g.cities[g.rng.IntN(len(g.cities))],
		DeviceID:                 g.pickDevice(),
		BiometricFailureCount:    g.weightedValue([]int{0, 1, 2}, []int{85, 12, 3}),
		TransactionFrequency5Min: freq5Min,
		TotalLoansVND:            math.Max(0, g.logNormal(13.0, 1.5)),
		NumTransactions:          g.randIncl(50, 500),
		NPLFlag:                  g.rng.Float64() < 0.0198,
		TotalDepositsVND:         math.Max(0, g.logNormal(13.1, 1.4)),
	}
}

// sampleMoneyLaundering: very large amounts at off hours, preceded by a
// synthetic burst of 15-25 window entries so the frequency feature spikes.
// The hour set deliberately includes the out-of-range 24 used by the
// fraud-pattern design.
func (g *Generator) sampleMoneyLaundering(now time.Time) models.Transaction {
	accountID := g.pickAccount()
	g.tracker.SyntheticBurst(g.rng, accountID, now, g.randIncl(15, 25), ActivityWindow)
	freq5Min := g.tracker.RecordAndCount(accountID, now)

	return models.Transaction{
		AccountID:                accountID,
		BranchID:                 g.randIncl(1, 10),
		TransactionAmountVND:     g.uniform(300_000_000, 1_000_000_000),
		TransactionHour:          g.pickInt([]int{1, 2, 3, 23, 24}),
		TransactionTimestamp:     now.Format(time.RFC3339),
		LocationCity:             g.cities[g.rng.IntN(len(g.cities))],
		DeviceID:                 g.pickDevice(),
		BiometricFailureCount:    g.weightedValue([]int{0, 1}, []int{70, 30}),
		TransactionFrequency5Min: freq5Min,
		TotalLoansVND:            math.Max(0, g.logNormal(13.0, 1.5)),
		NumTransactions:          g.randIncl(200, 800),
		NPLFlag:                  g.rng.Float64() < 0.05,
		TotalDepositsVND:         math.Max(0, g.logNormal(14.0, 1.2)),
	}
}

// sampleAccountTakeover: large amounts from a never-seen device with
// repeated biometric failures, sometimes from an anomalous location.
func (g *Generator) sampleAccountTakeover(now time.Time) models.Transaction {
	accountID := g.pickAccount()
	freq5Min := g.tracker.RecordAndCount(accountID, now)

	// Device outside the fixed pool, simulating a compromise.
	suspiciousDevice := fmt.Sprintf("DEV_NEW_%d", g.randIncl(90000, 99999))

	cities := append([]string{"Unknown", "Foreign_Location"}, g.cities...)

	return models.Transaction{
		AccountID:                accountID,
		BranchID:                 g.randIncl(1, 10),
		TransactionAmountVND:     g.uniform(50_000_000, 500_000_000),
		TransactionHour:          g.pickInt([]int{2, 3, 4, 22, 23}),
		TransactionTimestamp:     now.Format(time.RFC3339),
		LocationCity:             cities[g.rng.IntN(len(cities))],
		DeviceID:                 suspiciousDevice,
		BiometricFailureCount:    g.randIncl(3, 5),
		TransactionFrequency5Min: freq5Min,
		TotalLoansVND:            math.Max(0, g.logNormal(13.0, 1.5)),
		NumTransactions:          g.randIncl(100, 300),
		NPLFlag:                  g.rng.Float64() < 0.0198,
		TotalDepositsVND:         math.Max(0, g.logNormal(13.5, 1.3)),
	}
}

// sampleLoanFraud: very high loan totals against a thin transaction
// history, new device, 15% non-performing-loan rate.
func (g *Generator) sampleLoanFraud(now time.Time) models.Transaction {
	accountID := g.pickAccount()
	freq5Min := g.tracker.RecordAndCount(accountID, now)

	return models.Transaction{
		AccountID:                accountID,
		BranchID:                 g.randIncl(1, 10),
		TransactionAmountVND:     g.uniform(100_000_000, 800_000_000),
		TransactionHour:          now.Hour(),
		TransactionTimestamp:     now.Format(time.RFC3339),
		LocationCity:             g.cities[g.rng.IntN(len(g.cities))],
		DeviceID:                 fmt.Sprintf("DEV_NEW_%d", g.randIncl(80000, 89999)),
		BiometricFailureCount:    g.weightedValue([]int{0, 1, 2}, []int{60, 25, 15}),
		TransactionFrequency5Min: freq5Min,
		TotalLoansVND:            g.uniform(500_000_000, 2_000_000_000),
		NumTransactions:          g.randIncl(1, 50),
		NPLFlag:                  g.rng.Float64() < 0.15,
		TotalDepositsVND:         math.Max(0, g.logNormal(12.0, 1.8)),
	}
}

// sampleFeeManipulation: many small transactions (synthetic burst of
// 12-20) where the anomaly is the fee itself, set at 5% of the amount.
// The fee finalizer leaves that value alone.
func (g *Generator) sampleFeeManipulation(now time.Time) models.Transaction {
	accountID := g.pickAccount()
	g.tracker.SyntheticBurst(g.rng, accountID, now, g.randIncl(12, 20), ActivityWindow)
	freq5Min := g.tracker.RecordAndCount(accountID, now)

	smallAmount := g.uniform(10_000, 100_000)

	return models.Transaction{
		AccountID:                accountID,
		BranchID:                 g.randIncl(1, 10),
		TransactionAmountVND:     smallAmount,
		TransactionHour:          now.Hour(),
		TransactionTimestamp:     now.Format(time.RFC3339),
		LocationCity:             g.cities[g.rng.IntN(len(g.cities))],
		DeviceID:                 g.pickDevice(),
		BiometricFailureCount:    g.weightedValue([]int{0, 1}, []int{90, 10}),
		TransactionFrequency5Min: freq5Min,
		TotalLoansVND:            math.Max(0, g.logNormal(13.0, 1.5)),
		NumTransactions:          g.randIncl(300, 1000),
		NPLFlag:                  g.rng.Float64() < 0.0198,
		TotalDepositsVND:         math.Max(0, g.logNormal(13.1, 1.4)),
		TransactionFeesVND:       smallAmount * 0.05,
	}
}
