package jar

import (
	"time"

	"github.com/google/uuid"

	"github.com/warp/swearjar/calendar"
)

// =============================================================================
// Dataset construction and schema migration. Documents written by older
// builds, or by another device that has not upgraded yet, arrive here first.
// =============================================================================

// defaultTrackingStart is assumed for documents written before the tracking
// start date existed.
var defaultTrackingStart = time.Date(2025, time.December, 15, 0, 0, 0, 0, time.Local)

// NewDataset builds an empty dataset for the given roster, tracking from now.
func NewDataset(players []string, now time.Time) *Dataset {
	d := &Dataset{
		SchemaVersion:     SchemaVersion,
		Players:           map[string]*PlayerRecord{},
		Vacations:         map[string][]*Vacation{},
		TrackingStartDate: calendar.Truncate(now),
	}
	for _, name := range players {
		d.Players[name] = NewPlayerRecord()
	}
	return d
}

// Migrate upgrades a dataset in place to the current schema and makes sure
// every roster player has a record. It returns true when anything changed
// and the document should be persisted.
func (d *Dataset) Migrate(roster []string) bool {
	changed := false

	if d.Players == nil {
		d.Players = map[string]*PlayerRecord{}
		changed = true
	}
	if d.Vacations == nil {
		d.Vacations = map[string][]*Vacation{}
		changed = true
	}
	if d.TrackingStartDate.IsZero() {
		d.TrackingStartDate = defaultTrackingStart
		changed = true
	}

	// Purchases written before ids existed get one synthesized, so merges
	// stop relying on the composite fallback key.
	for _, pu := range d.Purchases {
		if pu.ID == "" {
			pu.ID = uuid.NewString()
			changed = true
		}
	}

	for _, name := range roster {
		if _, ok := d.Players[name]; !ok {
			d.Players[name] = NewPlayerRecord()
			changed = true
		}
	}

	trackingMonth := calendar.MonthKey(d.TrackingStartDate)
	for _, p := range d.Players {
		if p.Monthly == nil {
			p.Monthly = map[string]int{}
			changed = true
		}
		if p.Yearly == nil {
			p.Yearly = map[string]int{}
			changed = true
		}
		if p.MonthsWon == nil {
			p.MonthsWon = []string{}
			changed = true
		}
		if p.YearsWon == nil {
			p.YearsWon = []string{}
			changed = true
		}
		if p.CleanMonths == nil {
			p.CleanMonths = []string{}
			changed = true
		}

		// A clean-month watermark from before tracking began would suppress
		// the first real evaluation. Drop it.
		if p.LastMonthBonusCheck != "" && p.LastMonthBonusCheck < trackingMonth {
			p.LastMonthBonusCheck = ""
			changed = true
		}

		// Old documents carried a mutable running total instead of the
		// bookkeeping fields. Any difference between that total and the
		// derived balance is folded into the bonus component, which keeps
		// the visible balance identical across the upgrade.
		if p.LegacyTotal != nil {
			derived := p.Balance()
			if diff := *p.LegacyTotal - derived; diff != 0 {
				p.BonusGained += diff
			}
			p.LegacyTotal = nil
			changed = true
		}
	}

	if d.SchemaVersion != SchemaVersion {
		d.SchemaVersion = SchemaVersion
		changed = true
	}
	return changed
}
