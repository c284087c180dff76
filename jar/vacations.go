/*
vacations.go - Vacation and holiday interval ledger

PURPOSE:
  Manages per-player vacation intervals and team-wide holidays with
  two invariants the rest of the system leans on:

  1. SOFT DELETE: records are tombstoned, never removed. The sync merge
     must distinguish a device that deleted a vacation from one that
     never saw it; a physical delete would resurrect the record on the
     next merge.

  2. INTERVAL MERGING: overlapping or adjacent intervals of the same
     kind (personal vs holiday) collapse into one on insert. Two
     intervals are adjacent when one starts the day after the other
     ends. Personal and holiday intervals never merge with each other.

RETROACTIVE EFFECT:
  Every mutation here changes which past days count as clean workdays,
  so each operation returns the players whose bonuses must be
  re-derived. The caller (jar.Service) runs RecalculateBonuses for
  them; the ledger itself stays a pure structural edit.

SEE ALSO:
  - accounting.go: RecalculateBonuses
  - syncer/merge.go: tombstone-aware union of vacation lists
*/
package jar

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/warp/swearjar/calendar"
)

// =============================================================================
// VALIDATION
// =============================================================================

func validateRange(start, end string) error {
	if start == "" || end == "" {
		return &DateRangeError{Start: start, End: end, Detail: "both dates are required"}
	}
	if _, err := calendar.ParseDate(start); err != nil {
		return &DateRangeError{Start: start, End: end, Detail: "start date is not YYYY-MM-DD"}
	}
	if _, err := calendar.ParseDate(end); err != nil {
		return &DateRangeError{Start: start, End: end, Detail: "end date is not YYYY-MM-DD"}
	}
	if end < start {
		return &DateRangeError{Start: start, End: end, Detail: "end before start"}
	}
	return nil
}

// overlapsOrTouches reports whether [aStart,aEnd] and [bStart,bEnd]
// overlap or sit on adjacent calendar days.
func overlapsOrTouches(aStart, aEnd, bStart, bEnd string) bool {
	return aStart <= calendar.NextDay(bEnd) && bStart <= calendar.NextDay(aEnd)
}

func minKey(a, b string) string {
	if a < b {
		return a
	}
	return b
}

func maxKey(a, b string) string {
	if a > b {
		return a
	}
	return b
}

// =============================================================================
// VACATIONS
// =============================================================================

// AddVacation appends a personal interval for the player, then merges
// it with any overlapping or adjacent non-deleted intervals of the
// same kind. Returns the surviving (possibly widened) record.
//
// The caller must recalculate the player's bonuses afterwards: the
// interval may cover days that were already paid out as clean.
func (d *Dataset) AddVacation(name, start, end string, now time.Time) (*Vacation, error) {
	if d.Players[name] == nil {
		return nil, ErrUnknownPlayer
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	v := &Vacation{
		ID:        uuid.NewString(),
		Player:    name,
		StartDate: start,
		EndDate:   end,
		CreatedAt: now,
	}
	if d.Vacations == nil {
		d.Vacations = map[string][]*Vacation{}
	}
	d.Vacations[name] = append(d.Vacations[name], v)
	d.mergePlayerIntervals(name, false, now)

	// The inserted record may have been absorbed into a survivor.
	for _, cand := range d.Vacations[name] {
		if !cand.Deleted && !cand.IsHoliday && cand.Contains(start) && cand.Contains(end) {
			return cand, nil
		}
	}
	return v, nil
}

// RemoveVacation soft-deletes the interval. It does not un-merge:
// a widened interval disappears as a whole. Returns false when the id
// is unknown or already deleted.
func (d *Dataset) RemoveVacation(name, id string, now time.Time) bool {
	for _, v := range d.Vacations[name] {
		if v.ID == id && !v.Deleted {
			v.Deleted = true
			ts := now
			v.DeletedAt = &ts
			return true
		}
	}
	return false
}

// mergePlayerIntervals collapses overlapping/adjacent non-deleted
// intervals of one kind (holiday or personal) for a player. Absorbed
// records are tombstoned so the merge survives a sync round-trip.
func (d *Dataset) mergePlayerIntervals(name string, holiday bool, now time.Time) {
	var live []*Vacation
	for _, v := range d.Vacations[name] {
		if !v.Deleted && v.IsHoliday == holiday {
			live = append(live, v)
		}
	}
	if len(live) < 2 {
		return
	}
	sort.Slice(live, func(i, j int) bool { return live[i].StartDate < live[j].StartDate })

	current := live[0]
	for _, v := range live[1:] {
		if overlapsOrTouches(current.StartDate, current.EndDate, v.StartDate, v.EndDate) {
			current.StartDate = minKey(current.StartDate, v.StartDate)
			current.EndDate = maxKey(current.EndDate, v.EndDate)
			v.Deleted = true
			ts := now
			v.DeletedAt = &ts
		} else {
			current = v
		}
	}
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// AddHoliday merges the interval into the team holiday list and
// mirrors it as a synthetic IsHoliday vacation for every player.
// Every player's bonuses must be recalculated afterwards.
func (d *Dataset) AddHoliday(start, end string, now time.Time) (*Holiday, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	h := &Holiday{
		ID:        uuid.NewString(),
		StartDate: start,
		EndDate:   end,
		CreatedAt: now,
	}
	d.Holidays = append(d.Holidays, h)
	d.mergeHolidayIntervals(now)

	if d.Vacations == nil {
		d.Vacations = map[string][]*Vacation{}
	}
	for name := range d.Players {
		d.Vacations[name] = append(d.Vacations[name], &Vacation{
			ID:        uuid.NewString(),
			Player:    name,
			StartDate: start,
			EndDate:   end,
			IsHoliday: true,
			CreatedAt: now,
		})
		d.mergePlayerIntervals(name, true, now)
	}

	for _, cand := range d.Holidays {
		if !cand.Deleted && cand.Contains(start) && cand.Contains(end) {
			return cand, nil
		}
	}
	return h, nil
}

// RemoveHoliday soft-deletes the holiday and every matching synthetic
// per-player vacation (same interval, IsHoliday=true). Returns false
// when the id is unknown or already deleted.
func (d *Dataset) RemoveHoliday(id string, now time.Time) bool {
	var target *Holiday
	for _, h := range d.Holidays {
		if h.ID == id && !h.Deleted {
			target = h
			break
		}
	}
	if target == nil {
		return false
	}

	ts := now
	target.Deleted = true
	target.DeletedAt = &ts

	for name := range d.Vacations {
		for _, v := range d.Vacations[name] {
			if !v.Deleted && v.IsHoliday && v.StartDate == target.StartDate && v.EndDate == target.EndDate {
				v.Deleted = true
				vts := now
				v.DeletedAt = &vts
			}
		}
	}
	return true
}

func (d *Dataset) mergeHolidayIntervals(now time.Time) {
	var live []*Holiday
	for _, h := range d.Holidays {
		if !h.Deleted {
			live = append(live, h)
		}
	}
	if len(live) < 2 {
		return
	}
	sort.Slice(live, func(i, j int) bool { return live[i].StartDate < live[j].StartDate })

	current := live[0]
	for _, h := range live[1:] {
		if overlapsOrTouches(current.StartDate, current.EndDate, h.StartDate, h.EndDate) {
			current.StartDate = minKey(current.StartDate, h.StartDate)
			current.EndDate = maxKey(current.EndDate, h.EndDate)
			h.Deleted = true
			ts := now
			h.DeletedAt = &ts
		} else {
			current = h
		}
	}
}

// IsHolidayDate reports whether the local date of t falls within any
// non-deleted team holiday.
func (d *Dataset) IsHolidayDate(t time.Time) bool {
	key := calendar.DateString(t)
	for _, h := range d.Holidays {
		if !h.Deleted && h.Contains(key) {
			return true
		}
	}
	return false
}
