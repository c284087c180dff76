/*
accounting.go - Balance derivation and the infraction transition

PURPOSE:
  The point-accounting core. Three responsibilities:
  1. Balance: the single derived-score formula
  2. AddInfraction: the central state transition
  3. RecalculateBonuses: retroactive correction when vacations change

THE BALANCE INVARIANT:
  balance = bonusGained + earnedFromPenalties - swearCount - spentOnRewards

  Balance is recomputed from components on every read. Storing it would
  force the sync merge to reconcile a derived value, which cannot be
  done consistently when the components merge independently.

RETROACTIVE RECALCULATION:
  Adding or removing a vacation changes which PAST days count as clean
  workdays, so bonuses already paid may be wrong in either direction.
  RecalculateBonuses re-derives the streak from inputs and applies the
  difference against the paid high-water marks. Re-running it with no
  underlying change yields a zero delta.
*/
package jar

import (
	"time"

	"github.com/warp/swearjar/calendar"
)

// WeekBonus is granted per 5 clean workdays on top of the day bonuses.
const WeekBonus = 5

// Balance derives the player's net score from its components.
func (p *PlayerRecord) Balance() int {
	return p.BonusGained + p.EarnedFromPenalties - p.SwearCount - p.SpentOnRewards
}

// =============================================================================
// INFRACTION TRANSITION
// =============================================================================

// BlockReason explains why an infraction was refused.
type BlockReason string

const (
	BlockWeekend  BlockReason = "weekend"
	BlockVacation BlockReason = "vacation"
)

// InfractionResult is the outcome of AddInfraction. A blocked attempt
// is a normal business outcome, not an error: the caller must check
// Blocked before using the counters.
type InfractionResult struct {
	Blocked bool        `json:"blocked,omitempty"`
	Reason  BlockReason `json:"reason,omitempty"`

	Player     string `json:"player"`
	SwearCount int    `json:"swearCount"`
	MonthCount int    `json:"monthCount"`
	YearCount  int    `json:"yearCount"`
	Balance    int    `json:"balance"`
}

// AddInfraction logs one infraction for the player at `now`.
//
// Order matters: the current streak is measured and rolled into
// LongestStreak BEFORE LastActivity moves, because moving it first
// would collapse the streak to zero.
func (d *Dataset) AddInfraction(name string, now time.Time) (InfractionResult, error) {
	p := d.Players[name]
	if p == nil {
		return InfractionResult{}, ErrUnknownPlayer
	}

	if !calendar.IsWorkday(now) {
		return InfractionResult{Blocked: true, Reason: BlockWeekend, Player: name, Balance: p.Balance()}, nil
	}
	if d.IsPlayerOnVacation(name, now) {
		return InfractionResult{Blocked: true, Reason: BlockVacation, Player: name, Balance: p.Balance()}, nil
	}

	if streak := d.CurrentStreak(name, now); streak > p.LongestStreak {
		p.LongestStreak = streak
	}

	p.SwearCount++
	if p.Monthly == nil {
		p.Monthly = map[string]int{}
	}
	if p.Yearly == nil {
		p.Yearly = map[string]int{}
	}
	p.Monthly[calendar.MonthKey(now)]++
	p.Yearly[calendar.YearKey(now)]++

	ts := now
	p.LastActivity = &ts
	p.RewardedInactiveDays = 0
	p.RewardedInactiveWeeks = 0

	return InfractionResult{
		Player:     name,
		SwearCount: p.SwearCount,
		MonthCount: p.Monthly[calendar.MonthKey(now)],
		YearCount:  p.Yearly[calendar.YearKey(now)],
		Balance:    p.Balance(),
	}, nil
}

// =============================================================================
// STREAKS
// =============================================================================

// streakReference returns the date the player's current clean streak
// is measured from: the last infraction, or the tracking start for a
// player who never infracted.
func (d *Dataset) streakReference(p *PlayerRecord) time.Time {
	if p.LastActivity != nil {
		return *p.LastActivity
	}
	return d.TrackingStartDate
}

// CurrentStreak counts the player's clean workdays since their last
// infraction (vacation days excluded, today excluded).
func (d *Dataset) CurrentStreak(name string, now time.Time) int {
	p := d.Players[name]
	if p == nil {
		return 0
	}
	return calendar.CountWorkdaysSince(d.streakReference(p), now, func(key string) bool {
		return d.isOnVacationKey(name, key)
	})
}

// =============================================================================
// RETROACTIVE BONUS RECALCULATION
// =============================================================================

// RecalculateBonuses re-derives the player's streak bonuses from the
// current vacation ledger and applies the difference. Returns the
// point delta (negative when previously-paid days turned out to be
// vacation). Idempotent: a second run with unchanged inputs is a no-op.
func (d *Dataset) RecalculateBonuses(name string, now time.Time) int {
	p := d.Players[name]
	if p == nil {
		return 0
	}

	newWorkdays := d.CurrentStreak(name, now)
	newWeeks := newWorkdays / 5

	dayDelta := newWorkdays - p.RewardedInactiveDays
	weekDelta := newWeeks - p.RewardedInactiveWeeks
	if dayDelta == 0 && weekDelta == 0 {
		return 0
	}

	delta := dayDelta + weekDelta*WeekBonus
	p.BonusGained += delta
	p.RewardedInactiveDays = newWorkdays
	p.RewardedInactiveWeeks = newWeeks
	return delta
}

// RecalculateAllBonuses runs RecalculateBonuses for every player and
// returns the per-player deltas (zero entries omitted).
func (d *Dataset) RecalculateAllBonuses(now time.Time) map[string]int {
	deltas := map[string]int{}
	for name := range d.Players {
		if delta := d.RecalculateBonuses(name, now); delta != 0 {
			deltas[name] = delta
		}
	}
	return deltas
}
