package generator

import (
	"math/rand/v2"
	"time"
)

// ActivityWindow is the trailing span used to compute an account's
// recent transaction frequency.
const ActivityWindow = 300 * time.Second

// ActivityTracker keeps a sliding window of transaction instants per
// account. An entry is created on first activity and pruned on every
// access; the key set only grows, bounded by the fixed account pool.
//
// The tracker assumes sequential access per account. The Generator
// serializes all calls behind its own mutex.
type ActivityTracker struct {
	recentActivity map[string][]time.Time
}

func NewActivityTracker() *ActivityTracker {
	return &ActivityTracker{
		recentActivity: make(map[string][]time.Time),
	}
}

// RecordAndCount drops instants strictly older than the activity
// window, records the current transaction instant and returns the
// resulting count. The count is at least 1: the current transaction
// always counts itself. An instant exactly at the window edge is kept,
// so a maximum-age synthetic burst entry still counts.
func (t *ActivityTracker) RecordAndCount(accountID string, now time.Time) int {
	windowStart := now.Add(-ActivityWindow)

	kept := t.recentActivity[accountID][:0]
	for _, instant := range t.recentActivity[accountID] {
		if !instant.Before(windowStart) {
			kept = append(kept, instant)
		}
	}
	kept = append(kept, now)
	t.recentActivity[accountID] = kept

	return len(kept)
}

// SyntheticBurst backfills the account's window with count instants,
// each jittered back by a uniform 1..maxAge seconds. Fraud recipes call
// this before the real RecordAndCount to manufacture an elevated
// frequency without changing the normal control flow.
func (t *ActivityTracker) SyntheticBurst(rng *rand.Rand, accountID string, now time.Time, count int, maxAge time.Duration) {
	maxAgeSeconds := int(maxAge / time.Second)
	for i := 0; i < count; i++ {
		jitter := time.Duration(1+rng.IntN(maxAgeSeconds)) * time.Second
		t.recentActivity[accountID] = append(t.recentActivity[accountID], now.Add(-jitter))
	}
}

// ActiveAccounts reports how many accounts have ever transacted.
func (t *ActivityTracker) ActiveAccounts() int {
	return len(t.recentActivity)
}
