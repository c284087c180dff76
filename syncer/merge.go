/*
merge.go - Document reconciliation

PURPOSE:
  Merges two divergent copies of the shared documents field by field using
  the strategies in policy.go. A force-reset marker short-circuits the whole
  merge: the side with the newer marker wins outright, which is how an admin
  repairs a corrupted dataset across every device.

TOMBSTONES:
  Vacations and holidays soft-delete instead of removing records, so the
  merge can tell "deleted on one device" apart from "never seen there". A
  deletion always wins over a live copy of the same record.
*/
package syncer

import (
	"sort"

	"github.com/warp/swearjar/jar"
)

// MergeDatasets reconciles two dataset copies into one. Either side may be
// nil, in which case the other is returned unchanged.
func MergeDatasets(local, remote *jar.Dataset) *jar.Dataset {
	if remote == nil {
		return local
	}
	if local == nil {
		return remote
	}

	// A newer reset marker means that side is authoritative wholesale.
	if remote.ForceResetTimestamp > local.ForceResetTimestamp {
		return remote
	}
	if local.ForceResetTimestamp > remote.ForceResetTimestamp {
		return local
	}

	out := &jar.Dataset{
		SchemaVersion:        MaxInt(local.SchemaVersion, remote.SchemaVersion),
		Players:              map[string]*jar.PlayerRecord{},
		Vacations:            map[string][]*jar.Vacation{},
		LastBonusCheck:       LaterKey(local.LastBonusCheck, remote.LastBonusCheck),
		LastMonthWinnerCheck: LaterKey(local.LastMonthWinnerCheck, remote.LastMonthWinnerCheck),
		LastYearWinnerCheck:  LaterKey(local.LastYearWinnerCheck, remote.LastYearWinnerCheck),
		TrackingStartDate:    EarlierTime(local.TrackingStartDate, remote.TrackingStartDate),
		ForceResetTimestamp:  MaxInt64(local.ForceResetTimestamp, remote.ForceResetTimestamp),
	}

	for _, name := range UnionStrings(playerKeys(local), playerKeys(remote)) {
		out.Players[name] = mergePlayers(local.Players[name], remote.Players[name])
	}

	for _, player := range UnionStrings(vacationKeys(local), vacationKeys(remote)) {
		out.Vacations[player] = mergeVacations(local.Vacations[player], remote.Vacations[player])
	}
	out.Holidays = mergeHolidays(local.Holidays, remote.Holidays)
	out.Purchases = mergePurchases(local.Purchases, remote.Purchases)

	return out
}

func playerKeys(d *jar.Dataset) []string {
	keys := make([]string, 0, len(d.Players))
	for name := range d.Players {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

func vacationKeys(d *jar.Dataset) []string {
	keys := make([]string, 0, len(d.Vacations))
	for name := range d.Vacations {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

func mergePlayers(a, b *jar.PlayerRecord) *jar.PlayerRecord {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return &jar.PlayerRecord{
		SwearCount:            MaxInt(a.SwearCount, b.SwearCount),
		Monthly:               PerKeyMax(a.Monthly, b.Monthly),
		Yearly:                PerKeyMax(a.Yearly, b.Yearly),
		SpentOnRewards:        MaxInt(a.SpentOnRewards, b.SpentOnRewards),
		EarnedFromPenalties:   MaxInt(a.EarnedFromPenalties, b.EarnedFromPenalties),
		BonusGained:           MaxInt(a.BonusGained, b.BonusGained),
		LastActivity:          NewerTime(a.LastActivity, b.LastActivity),
		RewardedInactiveDays:  MaxInt(a.RewardedInactiveDays, b.RewardedInactiveDays),
		RewardedInactiveWeeks: MaxInt(a.RewardedInactiveWeeks, b.RewardedInactiveWeeks),
		LastMonthBonusCheck:   LaterKey(a.LastMonthBonusCheck, b.LastMonthBonusCheck),
		MonthsWon:             UnionStrings(a.MonthsWon, b.MonthsWon),
		YearsWon:              UnionStrings(a.YearsWon, b.YearsWon),
		CleanMonths:           UnionStrings(a.CleanMonths, b.CleanMonths),
		LongestStreak:         MaxInt(a.LongestStreak, b.LongestStreak),
	}
}

// mergeVacations unions two tombstone ledgers by id. A deleted copy always
// beats a live one, a live copy keeps the wider of two date ranges in case
// interval merging ran on only one side. Empty inputs merge to nil so
// repeated cycles leave the serialized document byte-stable.
func mergeVacations(a, b []*jar.Vacation) []*jar.Vacation {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	byID := map[string]*jar.Vacation{}
	var order []string
	for _, v := range append(append([]*jar.Vacation{}, a...), b...) {
		cur, ok := byID[v.ID]
		if !ok {
			cp := *v
			byID[v.ID] = &cp
			order = append(order, v.ID)
			continue
		}
		if v.Deleted && !cur.Deleted {
			cur.Deleted = true
			cur.DeletedAt = v.DeletedAt
		} else if v.Deleted && cur.Deleted {
			cur.DeletedAt = NewerTime(cur.DeletedAt, v.DeletedAt)
		}
		if v.StartDate < cur.StartDate {
			cur.StartDate = v.StartDate
		}
		if v.EndDate > cur.EndDate {
			cur.EndDate = v.EndDate
		}
	}
	out := make([]*jar.Vacation, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func mergeHolidays(a, b []*jar.Holiday) []*jar.Holiday {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	byID := map[string]*jar.Holiday{}
	var order []string
	for _, h := range append(append([]*jar.Holiday{}, a...), b...) {
		cur, ok := byID[h.ID]
		if !ok {
			cp := *h
			byID[h.ID] = &cp
			order = append(order, h.ID)
			continue
		}
		if h.Deleted && !cur.Deleted {
			cur.Deleted = true
			cur.DeletedAt = h.DeletedAt
		} else if h.Deleted && cur.Deleted {
			cur.DeletedAt = NewerTime(cur.DeletedAt, h.DeletedAt)
		}
		if h.StartDate < cur.StartDate {
			cur.StartDate = h.StartDate
		}
		if h.EndDate > cur.EndDate {
			cur.EndDate = h.EndDate
		}
	}
	out := make([]*jar.Holiday, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate != out[j].StartDate {
			return out[i].StartDate < out[j].StartDate
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// mergePurchases unions two histories by dedup key and orders them by date.
func mergePurchases(a, b []*jar.Purchase) []*jar.Purchase {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]*jar.Purchase, 0, len(a)+len(b))
	for _, p := range append(append([]*jar.Purchase{}, a...), b...) {
		k := p.DedupKey()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].DedupKey() < out[j].DedupKey()
	})
	return out
}

// MergeAwards unions two award stores. Awards are never revoked, so the
// merge is first-seen by identity.
func MergeAwards(local, remote *jar.AwardStore) *jar.AwardStore {
	if remote == nil {
		return local
	}
	if local == nil {
		return remote
	}
	out := jar.NewAwardStore()

	names := make([]string, 0, len(local.Individual)+len(remote.Individual))
	seenName := map[string]bool{}
	for name := range local.Individual {
		names = append(names, name)
		seenName[name] = true
	}
	for name := range remote.Individual {
		if !seenName[name] {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var merged []jar.Award
		seen := map[string]bool{}
		for _, a := range append(append([]jar.Award{}, local.Individual[name]...), remote.Individual[name]...) {
			k := a.ID + "|" + a.MonthKey + "|" + a.YearKey
			if seen[k] {
				continue
			}
			seen[k] = true
			merged = append(merged, a)
		}
		out.Individual[name] = merged
	}

	seen := map[string]bool{}
	for _, a := range append(append([]jar.Award{}, local.Team...), remote.Team...) {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		out.Team = append(out.Team, a)
	}
	return out
}
