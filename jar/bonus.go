package jar

import (
	"sort"
	"time"

	"github.com/warp/swearjar/calendar"
)

// =============================================================================
// Daily sweep: inactivity accrual, clean-month bonuses, champion elections.
// =============================================================================

// CleanMonthBonus is credited when a player finishes a whole calendar month
// without a single infraction.
const CleanMonthBonus = 10

// SweepResult reports everything a single sweep changed, so callers can
// notify and decide whether the dataset needs persisting.
type SweepResult struct {
	// BonusDeltas holds the net bonus point adjustment per player, only for
	// players whose bonus actually moved.
	BonusDeltas map[string]int

	// CleanMonths lists players credited a clean-month bonus this sweep.
	CleanMonths []string

	// MonthWinners and YearWinners list newly elected champions.
	MonthWinners []string
	YearWinners  []string

	// Awards are champion trophies minted during this sweep.
	Awards []Award

	// Changed is true when any field of the dataset was mutated.
	Changed bool
}

// Sweep runs the daily bonus pass. It is idempotent for a given day: the
// accrual section is guarded by LastBonusCheck and the champion elections by
// their own month and year watermarks, so calling it on every page load or
// ticker fire is safe.
func (d *Dataset) Sweep(aw *AwardStore, now time.Time) SweepResult {
	res := SweepResult{BonusDeltas: map[string]int{}}

	// Streak bonuses first. The recalculation shares its high-water marks
	// with this sweep, so a later accrual pass never double-credits.
	for name, delta := range d.RecalculateAllBonuses(now) {
		res.BonusDeltas[name] = delta
		res.Changed = true
	}

	// Champion elections run on every sweep, weekends included. Their
	// watermarks keep them to one election per period.
	d.electMonthChampions(aw, now, &res)
	d.electYearChampions(aw, now, &res)

	today := calendar.DateString(now)
	if d.LastBonusCheck == today {
		return res
	}
	if calendar.IsWeekend(now) {
		// Weekends never accrue. The day guard stays unset so the first
		// workday sweep still runs the clean-month checks.
		return res
	}

	prevMonth := calendar.PrevMonthKey(now)
	trackingMonth := calendar.MonthKey(d.TrackingStartDate)
	for _, name := range d.PlayerNames() {
		p := d.Players[name]
		if d.IsPlayerOnVacation(name, now) {
			continue
		}
		if p.LastMonthBonusCheck == prevMonth || prevMonth < trackingMonth {
			continue
		}
		if p.Monthly[prevMonth] == 0 {
			p.BonusGained += CleanMonthBonus
			p.CleanMonths = append(p.CleanMonths, prevMonth)
			res.BonusDeltas[name] += CleanMonthBonus
			res.CleanMonths = append(res.CleanMonths, name)
		}
		p.LastMonthBonusCheck = prevMonth
		res.Changed = true
	}

	d.LastBonusCheck = today
	res.Changed = true
	return res
}

// championScore is a player's standing for a finished period.
type championScore struct {
	name    string
	swears  int
	balance int
}

// rankChampions orders candidates by fewest infractions, then by higher
// balance, and returns every candidate fully tied with the leader.
func rankChampions(scores []championScore) []string {
	if len(scores) == 0 {
		return nil
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].swears != scores[j].swears {
			return scores[i].swears < scores[j].swears
		}
		if scores[i].balance != scores[j].balance {
			return scores[i].balance > scores[j].balance
		}
		return scores[i].name < scores[j].name
	})
	best := scores[0]
	var winners []string
	for _, s := range scores {
		if s.swears == best.swears && s.balance == best.balance {
			winners = append(winners, s.name)
		}
	}
	return winners
}

func (d *Dataset) electMonthChampions(aw *AwardStore, now time.Time, res *SweepResult) {
	prev := calendar.PrevMonthKey(now)
	if d.LastMonthWinnerCheck == prev {
		return
	}
	if prev < calendar.MonthKey(d.TrackingStartDate) {
		// The period predates tracking, nothing fair to elect on.
		d.LastMonthWinnerCheck = prev
		res.Changed = true
		return
	}

	var scores []championScore
	for _, name := range d.PlayerNames() {
		p := d.Players[name]
		scores = append(scores, championScore{
			name:    name,
			swears:  p.Monthly[prev],
			balance: p.Balance(),
		})
	}
	for _, name := range rankChampions(scores) {
		p := d.Players[name]
		if !containsString(p.MonthsWon, prev) {
			p.MonthsWon = append(p.MonthsWon, prev)
		}
		res.MonthWinners = append(res.MonthWinners, name)
		if aw != nil && !aw.HasIndividual(name, AchievementMonthChampion, prev, "") {
			a := Award{
				ID:       AchievementMonthChampion,
				Date:     calendar.DateString(now),
				MonthKey: prev,
			}
			aw.Individual[name] = append(aw.Individual[name], a)
			res.Awards = append(res.Awards, a)
		}
	}
	d.LastMonthWinnerCheck = prev
	res.Changed = true
}

func (d *Dataset) electYearChampions(aw *AwardStore, now time.Time, res *SweepResult) {
	// A year is only judged once it has fully elapsed, so the election
	// happens in January of the following year.
	if now.Month() != time.January {
		return
	}
	prev := calendar.PrevYearKey(now)
	if d.LastYearWinnerCheck == prev {
		return
	}
	if prev < calendar.YearKey(d.TrackingStartDate) {
		d.LastYearWinnerCheck = prev
		res.Changed = true
		return
	}

	var scores []championScore
	for _, name := range d.PlayerNames() {
		p := d.Players[name]
		scores = append(scores, championScore{
			name:    name,
			swears:  p.Yearly[prev],
			balance: p.Balance(),
		})
	}
	for _, name := range rankChampions(scores) {
		p := d.Players[name]
		if !containsString(p.YearsWon, prev) {
			p.YearsWon = append(p.YearsWon, prev)
		}
		res.YearWinners = append(res.YearWinners, name)
		if aw != nil && !aw.HasIndividual(name, AchievementYearChampion, "", prev) {
			a := Award{
				ID:      AchievementYearChampion,
				Date:    calendar.DateString(now),
				YearKey: prev,
			}
			aw.Individual[name] = append(aw.Individual[name], a)
			res.Awards = append(res.Awards, a)
		}
	}
	d.LastYearWinnerCheck = prev
	res.Changed = true
}

func containsString(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
