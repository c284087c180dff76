package syncer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/swearjar/jar"
	"github.com/warp/swearjar/syncer"
)

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 10, 0, 0, 0, time.Local)
}

// =============================================================================
// STRATEGY PRIMITIVES
// =============================================================================

func TestPerKeyMax(t *testing.T) {
	a := map[string]int{"2025-05": 3, "2025-06": 1}
	b := map[string]int{"2025-06": 4, "2025-07": 2}

	merged := syncer.PerKeyMax(a, b)

	assert.Equal(t, map[string]int{"2025-05": 3, "2025-06": 4, "2025-07": 2}, merged)
	// commutative
	assert.Equal(t, merged, syncer.PerKeyMax(b, a))
}

func TestNewerTime(t *testing.T) {
	early, late := day(3), day(9)

	assert.Equal(t, &late, syncer.NewerTime(&early, &late))
	assert.Equal(t, &late, syncer.NewerTime(&late, &early))
	assert.Equal(t, &early, syncer.NewerTime(&early, nil))
	assert.Nil(t, syncer.NewerTime(nil, nil))
}

func TestEarlierTime(t *testing.T) {
	early, late := day(3), day(9)

	assert.Equal(t, early, syncer.EarlierTime(early, late))
	assert.Equal(t, early, syncer.EarlierTime(late, early))
	// zero values never win
	assert.Equal(t, late, syncer.EarlierTime(time.Time{}, late))
}

func TestLaterKey(t *testing.T) {
	assert.Equal(t, "2025-06", syncer.LaterKey("2025-05", "2025-06"))
	assert.Equal(t, "2025-06", syncer.LaterKey("2025-06", ""))
	assert.Equal(t, "", syncer.LaterKey("", ""))
}

func TestUnionStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, syncer.UnionStrings([]string{"a", "b"}, []string{"b", "c"}))
	assert.Equal(t, []string{"a"}, syncer.UnionStrings([]string{"a", "a"}, nil))
}

// =============================================================================
// DATASET MERGE
// =============================================================================

func twoDiverged() (*jar.Dataset, *jar.Dataset) {
	base := day(2)
	local := jar.NewDataset([]string{"Ana", "Bo"}, base)
	remote := jar.NewDataset([]string{"Ana", "Bo"}, base)

	// Ana swore twice locally, once remotely, before the copies diverged.
	local.Players["Ana"].SwearCount = 2
	local.Players["Ana"].Monthly["2025-06"] = 2
	remote.Players["Ana"].SwearCount = 1
	remote.Players["Ana"].Monthly["2025-06"] = 1

	// Bo only moved on the remote.
	remote.Players["Bo"].SwearCount = 4
	remote.Players["Bo"].Monthly["2025-06"] = 4

	return local, remote
}

func TestMergeDatasets_CountersConverge(t *testing.T) {
	// GIVEN: two diverged copies
	local, remote := twoDiverged()

	// WHEN: merging both ways
	ab := syncer.MergeDatasets(local, remote)
	ba := syncer.MergeDatasets(remote, local)

	// THEN: each counter settles on its maximum, direction does not matter
	assert.Equal(t, 2, ab.Players["Ana"].SwearCount)
	assert.Equal(t, 4, ab.Players["Bo"].SwearCount)
	assert.Equal(t, ab.Players["Ana"].SwearCount, ba.Players["Ana"].SwearCount)
	assert.Equal(t, ab.Players["Bo"].Monthly, ba.Players["Bo"].Monthly)
}

func TestMergeDatasets_Idempotent(t *testing.T) {
	local, remote := twoDiverged()
	once := syncer.MergeDatasets(local, remote)
	twice := syncer.MergeDatasets(once, remote)

	assert.Equal(t, once.Players["Ana"], twice.Players["Ana"])
	assert.Equal(t, once.Players["Bo"], twice.Players["Bo"])
}

func TestMergeDatasets_NilPassthrough(t *testing.T) {
	local, _ := twoDiverged()
	assert.Same(t, local, syncer.MergeDatasets(local, nil))
	assert.Same(t, local, syncer.MergeDatasets(nil, local))
}

func TestMergeDatasets_EmptyLedgersStayNil(t *testing.T) {
	// GIVEN: two copies that never saw a holiday or purchase
	local, remote := twoDiverged()

	// WHEN: merging
	out := syncer.MergeDatasets(local, remote)

	// THEN: the empty ledgers stay nil, so re-serializing the merged
	// document is byte-stable across repeated cycles
	assert.Nil(t, out.Holidays)
	assert.Nil(t, out.Purchases)
}

func TestMergeDatasets_UnknownPlayerCarriedOver(t *testing.T) {
	// GIVEN: a player that only ever existed remotely
	local, remote := twoDiverged()
	remote.Players["Dana"] = jar.NewPlayerRecord()
	remote.Players["Dana"].SwearCount = 7

	// WHEN: merging
	merged := syncer.MergeDatasets(local, remote)

	// THEN: the record survives untouched
	require.Contains(t, merged.Players, "Dana")
	assert.Equal(t, 7, merged.Players["Dana"].SwearCount)
}

func TestMergeDatasets_ForceResetWinsWholesale(t *testing.T) {
	// GIVEN: a remote carrying a newer reset marker and LOWER counters
	local, remote := twoDiverged()
	remote.Players["Ana"].SwearCount = 0
	remote.ForceResetTimestamp = day(9).UnixMilli()

	// WHEN: merging
	merged := syncer.MergeDatasets(local, remote)

	// THEN: the reset side is adopted wholesale, no field merge
	assert.Same(t, remote, merged)
	assert.Equal(t, 0, merged.Players["Ana"].SwearCount)

	// AND: the same marker on the local side wins the other direction
	assert.Same(t, remote, syncer.MergeDatasets(remote, local))
}

func TestMergeDatasets_EqualResetMarkersFieldMerge(t *testing.T) {
	// GIVEN: both sides past the same reset
	local, remote := twoDiverged()
	ts := day(1).UnixMilli()
	local.ForceResetTimestamp = ts
	remote.ForceResetTimestamp = ts

	// WHEN: merging
	merged := syncer.MergeDatasets(local, remote)

	// THEN: a normal field merge with the marker preserved
	assert.Equal(t, 2, merged.Players["Ana"].SwearCount)
	assert.Equal(t, ts, merged.ForceResetTimestamp)
}

func TestMergeDatasets_Watermarks(t *testing.T) {
	// GIVEN: one device swept more recently
	local, remote := twoDiverged()
	local.LastBonusCheck = "2025-06-09"
	remote.LastBonusCheck = "2025-06-10"
	local.LastMonthWinnerCheck = "2025-05"

	// WHEN: merging
	merged := syncer.MergeDatasets(local, remote)

	// THEN: later watermarks win, one-sided ones survive
	assert.Equal(t, "2025-06-10", merged.LastBonusCheck)
	assert.Equal(t, "2025-05", merged.LastMonthWinnerCheck)
}

// =============================================================================
// VACATION TOMBSTONES
// =============================================================================

func TestMergeDatasets_DeletionBeatsLiveCopy(t *testing.T) {
	// GIVEN: the same vacation, deleted on one device only
	local, remote := twoDiverged()
	_, err := local.AddVacation("Ana", "2025-06-09", "2025-06-11", day(3))
	require.NoError(t, err)
	v := local.ActiveVacations("Ana")[0]

	cp := *v
	remote.Vacations = map[string][]*jar.Vacation{"Ana": {&cp}}
	require.True(t, remote.RemoveVacation("Ana", cp.ID, day(4)))

	// WHEN: merging both ways
	ab := syncer.MergeDatasets(local, remote)
	ba := syncer.MergeDatasets(remote, local)

	// THEN: the tombstone wins in both directions, no resurrection
	assert.Empty(t, ab.ActiveVacations("Ana"))
	assert.Empty(t, ba.ActiveVacations("Ana"))
	require.Len(t, ab.Vacations["Ana"], 1)
	assert.True(t, ab.Vacations["Ana"][0].Deleted)
	assert.NotNil(t, ab.Vacations["Ana"][0].DeletedAt)
}

func TestMergeDatasets_WiderRangeWins(t *testing.T) {
	// GIVEN: interval merging widened the record on one side only
	local, remote := twoDiverged()
	_, err := remote.AddVacation("Bo", "2025-06-09", "2025-06-10", day(3))
	require.NoError(t, err)
	v := remote.ActiveVacations("Bo")[0]

	wide := *v
	wide.EndDate = "2025-06-13"
	local.Vacations = map[string][]*jar.Vacation{"Bo": {&wide}}

	// WHEN: merging
	merged := syncer.MergeDatasets(local, remote)

	// THEN: the union of the ranges survives
	require.Len(t, merged.Vacations["Bo"], 1)
	assert.Equal(t, "2025-06-09", merged.Vacations["Bo"][0].StartDate)
	assert.Equal(t, "2025-06-13", merged.Vacations["Bo"][0].EndDate)
}

func TestMergeDatasets_HolidayTombstones(t *testing.T) {
	// GIVEN: a holiday added on both devices, removed on one
	local, remote := twoDiverged()
	h, err := local.AddHoliday("2025-06-19", "2025-06-19", day(3))
	require.NoError(t, err)

	cpH := *h
	remote.Holidays = []*jar.Holiday{&cpH}
	require.True(t, local.RemoveHoliday(h.ID, day(4)))

	// WHEN: merging
	merged := syncer.MergeDatasets(local, remote)

	// THEN: the deletion sticks
	assert.Empty(t, merged.ActiveHolidays())
}

// =============================================================================
// PURCHASE DEDUPLICATION
// =============================================================================

func TestMergeDatasets_PurchasesUnionById(t *testing.T) {
	// GIVEN: one shared purchase and one unique to each side
	local, remote := twoDiverged()
	shared := &jar.Purchase{ID: "p1", Player: "Ana", ItemID: "coffee_team", Cost: 20, Type: jar.ItemReward, Date: day(3)}
	cp := *shared
	local.Purchases = []*jar.Purchase{shared, {ID: "p2", Player: "Ana", ItemID: "karaoke", Cost: -15, Type: jar.ItemPenalty, Date: day(5)}}
	remote.Purchases = []*jar.Purchase{&cp, {ID: "p3", Player: "Bo", ItemID: "water_plants", Cost: 10, Type: jar.ItemReward, Date: day(4)}}

	// WHEN: merging
	merged := syncer.MergeDatasets(local, remote)

	// THEN: three entries, date ordered
	require.Len(t, merged.Purchases, 3)
	assert.Equal(t, []string{"p1", "p3", "p2"}, []string{merged.Purchases[0].ID, merged.Purchases[1].ID, merged.Purchases[2].ID})
}

func TestMergeDatasets_LegacyPurchasesDedupByCompositeKey(t *testing.T) {
	// GIVEN: the same id-less legacy entry on both sides
	local, remote := twoDiverged()
	legacy := jar.Purchase{Player: "Ana", ItemID: "coffee_team", Cost: 20, Type: jar.ItemReward, Date: day(3)}
	l, r := legacy, legacy
	local.Purchases = []*jar.Purchase{&l}
	remote.Purchases = []*jar.Purchase{&r}

	// WHEN: merging
	merged := syncer.MergeDatasets(local, remote)

	// THEN: a single entry survives
	assert.Len(t, merged.Purchases, 1)
}

// =============================================================================
// AWARD MERGE
// =============================================================================

func TestMergeAwards(t *testing.T) {
	// GIVEN: overlapping individual awards and distinct team awards
	local := jar.NewAwardStore()
	remote := jar.NewAwardStore()
	first := jar.Award{ID: jar.AchievementFirstSwear, Date: "2025-06-03"}
	local.Individual["Ana"] = []jar.Award{first}
	remote.Individual["Ana"] = []jar.Award{first, {ID: jar.AchievementTenSwears, Date: "2025-06-09"}}
	remote.Individual["Bo"] = []jar.Award{first}
	local.Team = []jar.Award{{ID: jar.AchievementTeamHundred, Date: "2025-06-05"}}

	// WHEN: merging
	merged := syncer.MergeAwards(local, remote)

	// THEN: unions without duplicates
	assert.Len(t, merged.Individual["Ana"], 2)
	assert.Len(t, merged.Individual["Bo"], 1)
	assert.Len(t, merged.Team, 1)
}

func TestMergeAwards_ChampionTrophiesKeyedByPeriod(t *testing.T) {
	// GIVEN: the same player winning two different months
	local := jar.NewAwardStore()
	remote := jar.NewAwardStore()
	local.Individual["Ana"] = []jar.Award{{ID: jar.AchievementMonthChampion, MonthKey: "2025-05"}}
	remote.Individual["Ana"] = []jar.Award{
		{ID: jar.AchievementMonthChampion, MonthKey: "2025-05"},
		{ID: jar.AchievementMonthChampion, MonthKey: "2025-06"},
	}

	// WHEN: merging
	merged := syncer.MergeAwards(local, remote)

	// THEN: one trophy per period
	assert.Len(t, merged.Individual["Ana"], 2)
}
