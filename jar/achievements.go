package jar

import (
	"time"

	"github.com/warp/swearjar/calendar"
)

// =============================================================================
// Achievement catalogue. Every entry is a pure predicate over the dataset,
// which keeps re-evaluation safe after merges and imports. Champion trophies
// are the exception: they are minted by the sweep and only described here.
// =============================================================================

// Achievement identifiers. The set is closed, unknown identifiers arriving
// through a merge are kept as-is but never re-minted locally.
const (
	AchievementFirstSwear      = "first_swear"
	AchievementTenSwears       = "ten_swears"
	AchievementFiftySwears     = "fifty_swears"
	AchievementHundredSwears   = "hundred_swears"
	AchievementCleanMonth      = "clean_month"
	AchievementCleanQuarter    = "clean_quarter"
	AchievementPositiveBalance = "positive_balance"
	AchievementBigSpender      = "big_spender"
	AchievementPenance         = "penance"
	AchievementStreakWeek      = "streak_week"
	AchievementStreakMonth     = "streak_month"
	AchievementMonthChampion   = "month_champion"
	AchievementYearChampion    = "year_champion"

	AchievementTeamHundred     = "team_hundred"
	AchievementTeamFiveHundred = "team_five_hundred"
	AchievementTeamThousand    = "team_thousand"
	AchievementAllParticipated = "all_participated"
	AchievementQuietMonth      = "quiet_month"
	AchievementFirstMonth      = "first_month"
	AchievementAnniversary     = "anniversary"
)

// AchievementDef describes one catalogue entry. Check is nil for trophies
// minted elsewhere.
type AchievementDef struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Team        bool
	Check       func(d *Dataset, player string, now time.Time) bool
}

var achievementCatalogue = []AchievementDef{
	{
		ID:          AchievementFirstSwear,
		Name:        "First Blood",
		Description: "Recorded the very first infraction",
		Icon:        "🩸",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return d.Players[player].SwearCount >= 1
		},
	},
	{
		ID:          AchievementTenSwears,
		Name:        "Warming Up",
		Description: "Reached 10 infractions",
		Icon:        "🔥",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return d.Players[player].SwearCount >= 10
		},
	},
	{
		ID:          AchievementFiftySwears,
		Name:        "Seasoned Sailor",
		Description: "Reached 50 infractions",
		Icon:        "⚓",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return d.Players[player].SwearCount >= 50
		},
	},
	{
		ID:          AchievementHundredSwears,
		Name:        "Centurion",
		Description: "Reached 100 infractions",
		Icon:        "💯",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return d.Players[player].SwearCount >= 100
		},
	},
	{
		ID:          AchievementCleanMonth,
		Name:        "Clean Mouth",
		Description: "A whole calendar month without a single infraction",
		Icon:        "🧼",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return len(d.Players[player].CleanMonths) >= 1
		},
	},
	{
		ID:          AchievementCleanQuarter,
		Name:        "Saint",
		Description: "Three clean calendar months",
		Icon:        "😇",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return len(d.Players[player].CleanMonths) >= 3
		},
	},
	{
		ID:          AchievementPositiveBalance,
		Name:        "In the Black",
		Description: "Balance of at least 10 points",
		Icon:        "💰",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return d.Players[player].Balance() >= 10
		},
	},
	{
		ID:          AchievementBigSpender,
		Name:        "Big Spender",
		Description: "Claimed three rewards from the shop",
		Icon:        "🛍️",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return d.countPurchases(player, ItemReward) >= 3
		},
	},
	{
		ID:          AchievementPenance,
		Name:        "Penance Done",
		Description: "Completed three penalty tasks",
		Icon:        "🙏",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return d.countPurchases(player, ItemPenalty) >= 3
		},
	},
	{
		ID:          AchievementStreakWeek,
		Name:        "Quiet Week",
		Description: "Five consecutive clean workdays",
		Icon:        "🤐",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return d.Players[player].LongestStreak >= 5
		},
	},
	{
		ID:          AchievementStreakMonth,
		Name:        "Iron Will",
		Description: "Twenty consecutive clean workdays",
		Icon:        "🛡️",
		Check: func(d *Dataset, player string, _ time.Time) bool {
			return d.Players[player].LongestStreak >= 20
		},
	},
	{
		ID:          AchievementMonthChampion,
		Name:        "Champion of the Month",
		Description: "Fewest infractions in a finished month",
		Icon:        "🏆",
	},
	{
		ID:          AchievementYearChampion,
		Name:        "Champion of the Year",
		Description: "Fewest infractions in a finished year",
		Icon:        "👑",
	},

	{
		ID:          AchievementTeamHundred,
		Name:        "Team Century",
		Description: "The team reached 100 infractions combined",
		Icon:        "🫢",
		Team:        true,
		Check: func(d *Dataset, _ string, _ time.Time) bool {
			return d.teamSwearCount() >= 100
		},
	},
	{
		ID:          AchievementTeamFiveHundred,
		Name:        "Half a Grand",
		Description: "The team reached 500 infractions combined",
		Icon:        "😬",
		Team:        true,
		Check: func(d *Dataset, _ string, _ time.Time) bool {
			return d.teamSwearCount() >= 500
		},
	},
	{
		ID:          AchievementTeamThousand,
		Name:        "The Thousand",
		Description: "The team reached 1000 infractions combined",
		Icon:        "🌋",
		Team:        true,
		Check: func(d *Dataset, _ string, _ time.Time) bool {
			return d.teamSwearCount() >= 1000
		},
	},
	{
		ID:          AchievementAllParticipated,
		Name:        "Everyone Counts",
		Description: "Every player has at least one infraction",
		Icon:        "🤝",
		Team:        true,
		Check: func(d *Dataset, _ string, _ time.Time) bool {
			if len(d.Players) == 0 {
				return false
			}
			for _, p := range d.Players {
				if p.SwearCount == 0 {
					return false
				}
			}
			return true
		},
	},
	{
		ID:          AchievementQuietMonth,
		Name:        "Library Mode",
		Description: "A finished month with fewer than 20 team infractions",
		Icon:        "📚",
		Team:        true,
		Check: func(d *Dataset, _ string, now time.Time) bool {
			if d.TrackingStartDate.IsZero() {
				return false
			}
			cur := calendar.MonthKey(now)
			start := calendar.MonthKey(d.TrackingStartDate)
			for m := start; m < cur; m = nextMonthKey(m) {
				total := 0
				for _, p := range d.Players {
					total += p.Monthly[m]
				}
				if total < 20 {
					return true
				}
			}
			return false
		},
	},
	{
		ID:          AchievementFirstMonth,
		Name:        "First Lap",
		Description: "The jar has been tracking for a full month",
		Icon:        "🗓️",
		Team:        true,
		Check: func(d *Dataset, _ string, now time.Time) bool {
			return !d.TrackingStartDate.IsZero() &&
				calendar.MonthKey(now) > calendar.MonthKey(d.TrackingStartDate)
		},
	},
	{
		ID:          AchievementAnniversary,
		Name:        "Anniversary",
		Description: "One year of tracking",
		Icon:        "🎉",
		Team:        true,
		Check: func(d *Dataset, _ string, now time.Time) bool {
			return !d.TrackingStartDate.IsZero() &&
				!now.Before(d.TrackingStartDate.AddDate(1, 0, 0))
		},
	},
}

// Achievements returns the full catalogue.
func Achievements() []AchievementDef {
	out := make([]AchievementDef, len(achievementCatalogue))
	copy(out, achievementCatalogue)
	return out
}

// AchievementByID returns the catalogue entry for id, or false when the id is
// outside the closed set.
func AchievementByID(id string) (AchievementDef, bool) {
	for _, def := range achievementCatalogue {
		if def.ID == id {
			return def, true
		}
	}
	return AchievementDef{}, false
}

func (d *Dataset) countPurchases(player string, typ ItemType) int {
	n := 0
	for _, pu := range d.Purchases {
		if pu.Player == player && pu.Type == typ {
			n++
		}
	}
	return n
}

func (d *Dataset) teamSwearCount() int {
	total := 0
	for _, p := range d.Players {
		total += p.SwearCount
	}
	return total
}

// nextMonthKey advances a "YYYY-MM" key by one month.
func nextMonthKey(key string) string {
	t, err := time.ParseInLocation("2006-01", key, time.Local)
	if err != nil {
		return key
	}
	return t.AddDate(0, 1, 0).Format("2006-01")
}

// CheckPlayerAchievements evaluates every individual predicate for one player
// and mints anything newly earned. It returns only the new awards.
func (d *Dataset) CheckPlayerAchievements(aw *AwardStore, player string, now time.Time) []Award {
	if _, ok := d.Players[player]; !ok {
		return nil
	}
	var minted []Award
	for _, def := range achievementCatalogue {
		if def.Team || def.Check == nil {
			continue
		}
		if aw.HasIndividual(player, def.ID, "", "") {
			continue
		}
		if def.Check(d, player, now) {
			a := Award{ID: def.ID, Date: calendar.DateString(now)}
			aw.Individual[player] = append(aw.Individual[player], a)
			minted = append(minted, a)
		}
	}
	return minted
}

// CheckTeamAchievements evaluates the team predicates and mints anything
// newly earned.
func (d *Dataset) CheckTeamAchievements(aw *AwardStore, now time.Time) []Award {
	var minted []Award
	for _, def := range achievementCatalogue {
		if !def.Team || def.Check == nil {
			continue
		}
		if aw.HasTeam(def.ID) {
			continue
		}
		if def.Check(d, "", now) {
			a := Award{ID: def.ID, Date: calendar.DateString(now)}
			aw.Team = append(aw.Team, a)
			minted = append(minted, a)
		}
	}
	return minted
}

// CheckAllAchievements re-evaluates the whole catalogue for every player.
// Used after merges and imports, where earlier state may already satisfy
// predicates no live event will fire again.
func (d *Dataset) CheckAllAchievements(aw *AwardStore, now time.Time) []Award {
	var minted []Award
	for _, name := range d.PlayerNames() {
		minted = append(minted, d.CheckPlayerAchievements(aw, name, now)...)
	}
	minted = append(minted, d.CheckTeamAchievements(aw, now)...)
	return minted
}
