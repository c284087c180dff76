/*
policy.go - Named merge strategies

PURPOSE:
  Every field of the shared documents reconciles under exactly one named
  strategy, so two devices that diverged offline converge to the same
  document no matter which one syncs first.

STRATEGY TABLE:
  MaxInt       monotonic counters (swearCount, spentOnRewards, ...)
  PerKeyMax    per-period counter maps (monthly, yearly)
  NewerTime    last-writer timestamps (lastActivity)
  EarlierTime  origin timestamps (trackingStartDate)
  MaxInt64     reset markers (forceResetTimestamp)
  LaterKey     ordered string watermarks (lastBonusCheck, lastMonthBonusCheck)
  UnionStrings order-preserving set union (monthsWon, cleanMonths)

COMMUTATIVITY:
  Each strategy is commutative and idempotent. merge(a, b) == merge(b, a)
  and merge(a, a) == a, which is what makes the pull-merge-push cycle safe
  to repeat.
*/
package syncer

import "time"

// MaxInt keeps the larger counter.
func MaxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// MaxInt64 keeps the larger counter.
func MaxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// PerKeyMax merges counter maps key by key, keeping the larger value.
func PerKeyMax(a, b map[string]int) map[string]int {
	out := make(map[string]int, len(a))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if v > out[k] {
			out[k] = v
		}
	}
	return out
}

// NewerTime keeps the later of two optional timestamps.
func NewerTime(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.After(*a) {
		return b
	}
	return a
}

// EarlierTime keeps the earlier non-zero timestamp.
func EarlierTime(a, b time.Time) time.Time {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	if b.Before(a) {
		return b
	}
	return a
}

// LaterKey keeps the lexically later watermark. Date and month keys sort
// chronologically as strings, an empty watermark always loses.
func LaterKey(a, b string) string {
	if b > a {
		return b
	}
	return a
}

// UnionStrings merges two string sets, preserving the order of a and
// appending unseen entries of b.
func UnionStrings(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
