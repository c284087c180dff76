package jar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/swearjar/jar"
)

// =============================================================================
// DATASET CONSTRUCTION
// =============================================================================

func TestNewDataset(t *testing.T) {
	// GIVEN/WHEN: a fresh dataset built mid-afternoon
	d := jar.NewDataset([]string{"Ana", "Bo"}, date(2025, time.June, 2))

	// THEN: the roster is seeded and the tracking start is a bare date
	assert.Equal(t, jar.SchemaVersion, d.SchemaVersion)
	require.Contains(t, d.Players, "Ana")
	require.Contains(t, d.Players, "Bo")
	assert.Equal(t, 0, d.Players["Ana"].Balance())
	assert.Equal(t, 0, d.TrackingStartDate.Hour())
	assert.Equal(t, "2025-06-02", d.TrackingStartDate.Format("2006-01-02"))
}

// =============================================================================
// SCHEMA MIGRATION
// =============================================================================

func TestMigrate_BackfillsEmptyDocument(t *testing.T) {
	// GIVEN: a structurally empty document, as an old build would write it
	d := &jar.Dataset{}

	// WHEN: migrating with the current roster
	changed := d.Migrate([]string{"Ana", "Bo"})

	// THEN: maps, roster records and the default tracking start appear
	assert.True(t, changed)
	assert.Equal(t, jar.SchemaVersion, d.SchemaVersion)
	assert.NotNil(t, d.Vacations)
	require.Contains(t, d.Players, "Ana")
	assert.NotNil(t, d.Players["Ana"].Monthly)
	assert.NotNil(t, d.Players["Ana"].CleanMonths)
	assert.Equal(t, "2025-12-15", d.TrackingStartDate.Format("2006-01-02"))
}

func TestMigrate_IsIdempotent(t *testing.T) {
	// GIVEN: an already-current dataset
	d := jar.NewDataset([]string{"Ana"}, date(2025, time.June, 2))
	require.False(t, d.Migrate([]string{"Ana"}))
}

func TestMigrate_AddsNewRosterPlayers(t *testing.T) {
	// GIVEN: a dataset from before Cyril joined
	d := jar.NewDataset([]string{"Ana", "Bo"}, date(2025, time.June, 2))

	// WHEN: migrating with the grown roster
	changed := d.Migrate([]string{"Ana", "Bo", "Cyril"})

	// THEN: Cyril gets a fresh record, the others are untouched
	assert.True(t, changed)
	require.Contains(t, d.Players, "Cyril")
	assert.Equal(t, 0, d.Players["Cyril"].Balance())
}

func TestMigrate_FoldsLegacyTotalIntoBonus(t *testing.T) {
	// GIVEN: an old record whose stored total disagrees with the derived
	// balance by +7
	d := jar.NewDataset([]string{"Ana"}, date(2025, time.June, 2))
	p := d.Players["Ana"]
	p.SwearCount = 10
	p.BonusGained = 5
	total := 2 // derived balance would be -5
	p.LegacyTotal = &total

	// WHEN: migrating
	changed := d.Migrate([]string{"Ana"})

	// THEN: the difference lands in bonusGained and the balance matches the
	// old total exactly
	assert.True(t, changed)
	assert.Nil(t, p.LegacyTotal)
	assert.Equal(t, 12, p.BonusGained)
	assert.Equal(t, 2, p.Balance())
}

func TestMigrate_LegacyTotalEqualToBalanceJustClears(t *testing.T) {
	// GIVEN: a record whose stored total already matches
	d := jar.NewDataset([]string{"Ana"}, date(2025, time.June, 2))
	p := d.Players["Ana"]
	p.SwearCount = 3
	p.BonusGained = 8
	total := 5
	p.LegacyTotal = &total

	// WHEN: migrating
	d.Migrate([]string{"Ana"})

	// THEN: no bonus adjustment, field cleared
	assert.Nil(t, p.LegacyTotal)
	assert.Equal(t, 8, p.BonusGained)
}

func TestMigrate_SynthesizesPurchaseIDs(t *testing.T) {
	// GIVEN: a ledger entry written before purchase ids existed
	d := jar.NewDataset([]string{"Ana"}, date(2025, time.June, 2))
	d.Purchases = []*jar.Purchase{
		{Player: "Ana", ItemID: "coffee_team", Cost: 20, Type: jar.ItemReward, Date: date(2025, time.June, 3)},
		{ID: "keep-me", Player: "Ana", ItemID: "karaoke", Cost: -15, Type: jar.ItemPenalty, Date: date(2025, time.June, 4)},
	}

	// WHEN: migrating
	changed := d.Migrate([]string{"Ana"})

	// THEN: the id-less entry gets one, the existing id survives
	assert.True(t, changed)
	assert.NotEmpty(t, d.Purchases[0].ID)
	assert.Equal(t, "keep-me", d.Purchases[1].ID)
}

func TestMigrate_DropsPreTrackingBonusWatermark(t *testing.T) {
	// GIVEN: a watermark from before tracking began
	d := jar.NewDataset([]string{"Ana", "Bo"}, date(2025, time.June, 2))
	d.Players["Ana"].LastMonthBonusCheck = "2025-04"
	d.Players["Bo"].LastMonthBonusCheck = "2025-07"

	// WHEN: migrating
	changed := d.Migrate([]string{"Ana", "Bo"})

	// THEN: only the stale one is dropped
	assert.True(t, changed)
	assert.Empty(t, d.Players["Ana"].LastMonthBonusCheck)
	assert.Equal(t, "2025-07", d.Players["Bo"].LastMonthBonusCheck)
}
