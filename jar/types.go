/*
Package jar implements the swear jar accounting engine.

PURPOSE:
  This package owns the mutable dataset at the heart of the tracker:
  per-player point components, the vacation/holiday ledger, the
  purchase ledger and the bonus/winner bookkeeping. Everything else
  (HTTP surface, local store, remote sync) treats this package as a
  library of pure transitions over the Dataset.

KEY CONCEPTS IN THIS FILE (types.go):
  - PlayerRecord: independent additive/subtractive point components
  - Vacation/Holiday: soft-deleted date intervals
  - Purchase: append-only shop ledger entry
  - Dataset: the root aggregate, serialized as one JSON document

DESIGN PRINCIPLES:
  1. Balance is DERIVED, never stored. Every component merges
     independently during sync; a stored total could drift.
  2. Soft delete everywhere a record can be removed: merge must be able
     to tell "deleted on another device" from "never existed".
  3. Wire format compatibility: JSON field names match the historical
     export format so old backups import cleanly.

SEE ALSO:
  - accounting.go: balance, infractions, retroactive recalculation
  - vacations.go: interval ledger operations
  - migrate.go: schema versioning and legacy field folding
*/
package jar

import (
	"time"

	"github.com/warp/swearjar/calendar"
)

// SchemaVersion is the current dataset schema. Migrate (migrate.go)
// backfills anything older, never destructively.
const SchemaVersion = 3

// =============================================================================
// PLAYER RECORD
// =============================================================================

// PlayerRecord holds one player's point components and streak
// bookkeeping. The balance is always derived via Balance(), never
// persisted: each component only has to merge with itself.
type PlayerRecord struct {
	// Lifetime count of logged infractions. Each one is worth -1.
	SwearCount int `json:"swearCount"`

	// Points spent redeeming rewards (subtractive).
	SpentOnRewards int `json:"spentOnRewards"`

	// Points earned completing penalty tasks (additive).
	EarnedFromPenalties int `json:"earnedFromPenalties"`

	// Points from inactivity/clean-period bonuses. Retroactive
	// recalculation may correct this downward.
	BonusGained int `json:"bonusGained"`

	// Per-period infraction counters, keyed "YYYY-MM" / "YYYY".
	Monthly map[string]int `json:"monthly"`
	Yearly  map[string]int `json:"yearly"`

	// Last infraction time. nil means "never infracted"; the tracking
	// start date is used as the streak baseline instead.
	LastActivity *time.Time `json:"lastActivity"`

	// High-water marks of how much of the CURRENT streak has already
	// been paid out. Prevents double-paying the same clean days.
	RewardedInactiveDays  int `json:"rewardedInactiveDays"`
	RewardedInactiveWeeks int `json:"rewardedInactiveWeeks"`

	// Last "YYYY-MM" evaluated for the whole-clean-month bonus.
	LastMonthBonusCheck string `json:"lastMonthBonusCheck,omitempty"`

	// Periods this player won outright.
	MonthsWon []string `json:"monthsWon"`
	YearsWon  []string `json:"yearsWon"`

	// Months credited as infraction-free.
	CleanMonths []string `json:"cleanMonths"`

	// High-water mark of consecutive clean workdays.
	LongestStreak int `json:"longestStreak"`

	// Deprecated: pre-component schema stored a single running total.
	// Migrate folds any difference into BonusGained and clears this.
	LegacyTotal *int `json:"total,omitempty"`
}

// NewPlayerRecord returns a zero-valued record with allocated maps.
func NewPlayerRecord() *PlayerRecord {
	return &PlayerRecord{
		Monthly:     map[string]int{},
		Yearly:      map[string]int{},
		MonthsWon:   []string{},
		YearsWon:    []string{},
		CleanMonths: []string{},
	}
}

// =============================================================================
// VACATION / HOLIDAY INTERVALS
// =============================================================================

// Vacation is a date interval during which a player is blocked from
// the game: no infractions can be logged and no bonus days accrue.
// IsHoliday marks the synthetic per-player mirror of a team holiday;
// holiday-flagged intervals merge only among themselves.
type Vacation struct {
	ID        string     `json:"id"`
	Player    string     `json:"player"`
	StartDate string     `json:"startDate"` // "YYYY-MM-DD", inclusive
	EndDate   string     `json:"endDate"`   // "YYYY-MM-DD", inclusive
	IsHoliday bool       `json:"isHoliday,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	Deleted   bool       `json:"deleted,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Contains reports whether the local date key falls inside the interval.
// String comparison is correct because the format is "YYYY-MM-DD".
func (v *Vacation) Contains(dateKey string) bool {
	return dateKey >= v.StartDate && dateKey <= v.EndDate
}

// Holiday is the team-wide analogue of a vacation. Adding one also
// creates a synthetic Vacation (IsHoliday=true) for every player.
type Holiday struct {
	ID        string     `json:"id"`
	StartDate string     `json:"startDate"`
	EndDate   string     `json:"endDate"`
	CreatedAt time.Time  `json:"createdAt"`
	Deleted   bool       `json:"deleted,omitempty"`
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// Contains reports whether the local date key falls inside the interval.
func (h *Holiday) Contains(dateKey string) bool {
	return dateKey >= h.StartDate && dateKey <= h.EndDate
}

// =============================================================================
// PURCHASE LEDGER
// =============================================================================

// ItemType distinguishes the two halves of the shop.
type ItemType string

const (
	ItemReward  ItemType = "reward"  // positive cost, subtracted from balance
	ItemPenalty ItemType = "penalty" // negative cost, completing adds abs(cost)
)

// Purchase is an append-only ledger entry recording a shop transaction.
// The cost sign encodes direction, matching the catalogue entry.
type Purchase struct {
	ID     string    `json:"id"`
	Player string    `json:"player"`
	ItemID string    `json:"itemId"`
	Cost   int       `json:"cost"`
	Type   ItemType  `json:"type"`
	Date   time.Time `json:"date"`
}

// DedupKey identifies a purchase across devices. Legacy entries lacked
// ids; for those the merge falls back to a synthesized composite key.
func (p *Purchase) DedupKey() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Player + "|" + p.ItemID + "|" + p.Date.UTC().Format(time.RFC3339)
}

// =============================================================================
// DATASET ROOT
// =============================================================================

// Dataset is the root aggregate: every mutable piece of state except
// achievement awards (kept in AwardStore, persisted separately but
// synced through the same cycle).
type Dataset struct {
	SchemaVersion int `json:"schemaVersion"`

	Players map[string]*PlayerRecord `json:"players"`

	// Per-player vacation intervals, including soft-deleted tombstones.
	Vacations map[string][]*Vacation `json:"vacations"`

	// Team-wide holiday intervals, including tombstones.
	Holidays []*Holiday `json:"holidays"`

	// Append-only shop ledger.
	Purchases []*Purchase `json:"purchases"`

	// Watermarks preventing reprocessing of handled periods.
	LastBonusCheck       string `json:"lastBonusCheck,omitempty"`       // "YYYY-MM-DD"
	LastMonthWinnerCheck string `json:"lastMonthWinnerCheck,omitempty"` // "YYYY-MM"
	LastYearWinnerCheck  string `json:"lastYearWinnerCheck,omitempty"`  // "YYYY"

	// Earliest date the system considers authoritative. Bonuses and
	// wins are never granted for periods before it.
	TrackingStartDate time.Time `json:"trackingStartDate"`

	// Unix milliseconds. A remote value newer than both the local one
	// and the last successful sync means "adopt remote wholesale".
	ForceResetTimestamp int64 `json:"forceResetTimestamp,omitempty"`
}

// Player returns the record for name, or nil when absent.
func (d *Dataset) Player(name string) *PlayerRecord {
	return d.Players[name]
}

// PlayerNames returns the roster currently present in the dataset.
func (d *Dataset) PlayerNames() []string {
	names := make([]string, 0, len(d.Players))
	for name := range d.Players {
		names = append(names, name)
	}
	return names
}

// ActiveVacations returns name's non-deleted intervals.
func (d *Dataset) ActiveVacations(name string) []*Vacation {
	var out []*Vacation
	for _, v := range d.Vacations[name] {
		if !v.Deleted {
			out = append(out, v)
		}
	}
	return out
}

// ActiveHolidays returns the non-deleted team holiday intervals.
func (d *Dataset) ActiveHolidays() []*Holiday {
	var out []*Holiday
	for _, h := range d.Holidays {
		if !h.Deleted {
			out = append(out, h)
		}
	}
	return out
}

// IsPlayerOnVacation reports whether the local date of t falls within
// any non-deleted interval for the player (personal or holiday).
func (d *Dataset) IsPlayerOnVacation(name string, t time.Time) bool {
	return d.isOnVacationKey(name, calendar.DateString(t))
}

func (d *Dataset) isOnVacationKey(name, dateKey string) bool {
	for _, v := range d.Vacations[name] {
		if !v.Deleted && v.Contains(dateKey) {
			return true
		}
	}
	return false
}

// =============================================================================
// ACHIEVEMENT AWARD STORE
// =============================================================================

// Award records a single unlocked achievement. MonthKey/YearKey carry
// the period for dynamically-minted champion awards.
type Award struct {
	ID       string `json:"achievementId"`
	Date     string `json:"date"`
	MonthKey string `json:"monthKey,omitempty"`
	YearKey  string `json:"yearKey,omitempty"`
	Note     string `json:"note,omitempty"`
}

// AwardStore is the persisted achievement state, kept as a separate
// document from the Dataset but reconciled through the same sync cycle.
type AwardStore struct {
	Individual map[string][]Award `json:"individual"`
	Team       []Award            `json:"team"`
}

// NewAwardStore returns an empty store with allocated maps.
func NewAwardStore() *AwardStore {
	return &AwardStore{Individual: map[string][]Award{}}
}

// HasIndividual reports whether the player already holds the award.
// Champion awards are keyed by (id, period) so one player can win
// several months.
func (s *AwardStore) HasIndividual(player, id, monthKey, yearKey string) bool {
	for _, a := range s.Individual[player] {
		if a.ID == id && a.MonthKey == monthKey && a.YearKey == yearKey {
			return true
		}
	}
	return false
}

// HasTeam reports whether the team already holds the award.
func (s *AwardStore) HasTeam(id string) bool {
	for _, a := range s.Team {
		if a.ID == id {
			return true
		}
	}
	return false
}
