package jar

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/swearjar/calendar"
)

// =============================================================================
// Leaderboards and team statistics.
// =============================================================================

// Period selects the scoring window for a leaderboard.
type Period string

const (
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
	PeriodAll   Period = "all"
)

// LeaderboardEntry is one player's line on a board.
type LeaderboardEntry struct {
	Rank       int          `json:"rank"`
	Player     string       `json:"player"`
	Swears     int          `json:"swears"`
	Balance    int          `json:"balance"`
	Streak     int          `json:"streak"`
	Status     PlayerStatus `json:"status"`
	OnVacation bool         `json:"onVacation"`
}

// Leaderboard ranks all players for the given period. The monthly board
// rewards the current standing, so it orders by balance first. The year and
// all-time boards are shame boards and order by infraction count first.
func (d *Dataset) Leaderboard(period Period, now time.Time) []LeaderboardEntry {
	monthKey := calendar.MonthKey(now)
	yearKey := calendar.YearKey(now)

	entries := make([]LeaderboardEntry, 0, len(d.Players))
	for _, name := range d.PlayerNames() {
		p := d.Players[name]
		e := LeaderboardEntry{
			Player:     name,
			Balance:    p.Balance(),
			Status:     StatusFor(p.SwearCount),
			OnVacation: d.IsPlayerOnVacation(name, now),
		}
		e.Streak = d.CurrentStreak(name, now)
		switch period {
		case PeriodMonth:
			e.Swears = p.Monthly[monthKey]
		case PeriodYear:
			e.Swears = p.Yearly[yearKey]
		default:
			e.Swears = p.SwearCount
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if period == PeriodMonth {
			if a.Balance != b.Balance {
				return a.Balance > b.Balance
			}
			if a.Swears != b.Swears {
				return a.Swears < b.Swears
			}
		} else {
			if a.Swears != b.Swears {
				return a.Swears < b.Swears
			}
			if a.Balance != b.Balance {
				return a.Balance > b.Balance
			}
		}
		return a.Player < b.Player
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// TeamReport aggregates the whole jar for a dashboard view. Averages are
// kept as exact decimals so a 7-player roster does not round away a third
// of a point.
type TeamReport struct {
	Players          int             `json:"players"`
	TotalSwears      int             `json:"totalSwears"`
	MonthSwears      int             `json:"monthSwears"`
	YearSwears       int             `json:"yearSwears"`
	TotalBalance     int             `json:"totalBalance"`
	AveragePerPlayer decimal.Decimal `json:"averagePerPlayer"`
	AveragePerDay    decimal.Decimal `json:"averagePerDay"`
	CleanMonths      int             `json:"cleanMonths"`
	MonthsWon        int             `json:"monthsWon"`
	PurchaseCount    int             `json:"purchaseCount"`
	TrackingDays     int             `json:"trackingDays"`
}

// Report builds the team-wide aggregate as of now.
func (d *Dataset) Report(now time.Time) TeamReport {
	monthKey := calendar.MonthKey(now)
	yearKey := calendar.YearKey(now)

	r := TeamReport{
		Players:       len(d.Players),
		PurchaseCount: len(d.Purchases),
	}
	for _, p := range d.Players {
		r.TotalSwears += p.SwearCount
		r.MonthSwears += p.Monthly[monthKey]
		r.YearSwears += p.Yearly[yearKey]
		r.TotalBalance += p.Balance()
		r.CleanMonths += len(p.CleanMonths)
		r.MonthsWon += len(p.MonthsWon)
	}

	// Tracking days count workdays from the tracking start through today,
	// ignoring vacations since those are per player.
	if !d.TrackingStartDate.IsZero() && !now.Before(d.TrackingStartDate) {
		r.TrackingDays = calendar.CountWorkdaysBetween(d.TrackingStartDate, now)
	}

	total := decimal.NewFromInt(int64(r.TotalSwears))
	if r.Players > 0 {
		r.AveragePerPlayer = total.Div(decimal.NewFromInt(int64(r.Players))).Round(2)
	}
	if r.TrackingDays > 0 {
		r.AveragePerDay = total.Div(decimal.NewFromInt(int64(r.TrackingDays))).Round(2)
	}
	return r
}

// MonthHistory is the per-month infraction series for one player or, with an
// empty player name, the whole team.
func (d *Dataset) MonthHistory(player string, now time.Time) map[string]int {
	out := map[string]int{}
	if d.TrackingStartDate.IsZero() {
		return out
	}
	start := calendar.MonthKey(d.TrackingStartDate)
	cur := calendar.MonthKey(now)
	for m := start; m != "" && m <= cur; m = nextMonthKey(m) {
		if player != "" {
			if p, ok := d.Players[player]; ok {
				out[m] = p.Monthly[m]
			}
			continue
		}
		total := 0
		for _, p := range d.Players {
			total += p.Monthly[m]
		}
		out[m] = total
	}
	return out
}
