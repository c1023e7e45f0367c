package queries

import (
	"context"
	"testing"
	"time"

	"turnboard/contexts/turnover/leaderboard-service/adapters/memory"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
)

func record(country, date, slot, username string, turnover float64, at time.Time) entities.RawTurnoverRecord {
	return entities.RawTurnoverRecord{
		Country:       country,
		Date:          date,
		SlotKey:       slot,
		Username:      username,
		LocalTurnover: turnover,
		SubmittedAt:   at,
		BatchID:       "b-" + slot + "-" + country,
	}
}

func TestAggregatePlayersLatestSlotWins(t *testing.T) {
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	rows := []entities.RawTurnoverRecord{
		record("BR", "2026-03-10", "00_04", "alice", 40, base),
		record("BR", "2026-03-10", "00_12", "alice", 100, base.Add(time.Hour)),
		record("BR", "2026-03-10", "00_08", "alice", 70, base.Add(2*time.Hour)),
	}

	entries := AggregatePlayers(rows, "ALL")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	// 00_12 is the latest cumulative slot, 100 BRL / 5 = 20 USD.
	if entries[0].USDTurnover != 20 {
		t.Fatalf("expected 20 USD, got %v", entries[0].USDTurnover)
	}
}

func TestAggregatePlayersSlotTieLaterRowWins(t *testing.T) {
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	rows := []entities.RawTurnoverRecord{
		record("MX", "2026-03-10", "00_12", "bob", 90, base),
		record("MX", "2026-03-10", "00_12", "bob", 180, base.Add(time.Minute)),
	}

	entries := AggregatePlayers(rows, "ALL")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].USDTurnover != 10 {
		t.Fatalf("expected re-upload to win the tie, got %v USD", entries[0].USDTurnover)
	}
}

func TestAggregatePlayersBRDeduction(t *testing.T) {
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	rows := []entities.RawTurnoverRecord{
		record("BR", "2026-03-10", "00_24", "carol", 100, base),
		record("BR", "2026-03-10", "BR_00_03", "carol", 30, base.Add(time.Hour)),
	}

	entries := AggregatePlayers(rows, "ALL")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	// net 70 BRL / 5 = 14 USD
	if entries[0].USDTurnover != 14 {
		t.Fatalf("expected 14 USD after deduction, got %v", entries[0].USDTurnover)
	}
}

func TestAggregatePlayersDeductionClampsAtZero(t *testing.T) {
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	rows := []entities.RawTurnoverRecord{
		record("BR", "2026-03-10", "00_24", "dave", 50, base),
		record("BR", "2026-03-10", "BR_00_03", "dave", 80, base.Add(time.Hour)),
	}

	entries := AggregatePlayers(rows, "ALL")
	if entries[0].USDTurnover != 0 {
		t.Fatalf("expected clamp at zero, got %v", entries[0].USDTurnover)
	}
}

func TestAggregatePlayersDeductionLatestTimestampWins(t *testing.T) {
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	rows := []entities.RawTurnoverRecord{
		record("BR", "2026-03-10", "00_24", "erin", 100, base),
		record("BR", "2026-03-10", "BR_00_03", "erin", 90, base.Add(2*time.Hour)),
		record("BR", "2026-03-10", "BR_00_03", "erin", 10, base.Add(3*time.Hour)),
	}

	entries := AggregatePlayers(rows, "ALL")
	// latest deduction is 10: net 90 BRL / 5 = 18 USD
	if entries[0].USDTurnover != 18 {
		t.Fatalf("expected latest deduction to win, got %v", entries[0].USDTurnover)
	}
}

func TestAggregatePlayersImportRowsAreAlreadyUSD(t *testing.T) {
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	rows := []entities.RawTurnoverRecord{
		record("BR", "2026-03-10", "IMPORT_USD", "frank", 55, base),
		record("BR", "2026-03-10", "BR_00_03", "frank", 20, base.Add(time.Hour)),
	}

	entries := AggregatePlayers(rows, "ALL")
	// import rows skip both fx and the BR deduction
	if entries[0].USDTurnover != 55 {
		t.Fatalf("expected import USD untouched, got %v", entries[0].USDTurnover)
	}
}

func TestAggregatePlayersCountryFilter(t *testing.T) {
	base := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	rows := []entities.RawTurnoverRecord{
		record("BR", "2026-03-10", "00_24", "alice", 100, base),
		record("MX", "2026-03-10", "00_24", "bob", 180, base),
	}

	entries := AggregatePlayers(rows, "MX")
	if len(entries) != 1 || entries[0].Username != "bob" {
		t.Fatalf("expected only the MX player, got %+v", entries)
	}
}

func TestRankEntriesTieBreakAndZeroFilter(t *testing.T) {
	entries := []entities.LeaderboardEntry{
		{Country: "BR", Username: "zed", USDTurnover: 10},
		{Country: "MX", Username: "Amy", USDTurnover: 10},
		{Country: "BR", Username: "none", USDTurnover: 0},
		{Country: "BR", Username: "big", USDTurnover: 50},
	}

	ranked := RankEntries(entries)
	if len(ranked) != 3 {
		t.Fatalf("expected zero-score entry dropped, got %d entries", len(ranked))
	}
	if ranked[0].Username != "big" || ranked[0].Rank != 1 {
		t.Fatalf("expected big first, got %+v", ranked[0])
	}
	if ranked[1].Username != "Amy" || ranked[2].Username != "zed" {
		t.Fatalf("expected tie broken by ascending username, got %q then %q", ranked[1].Username, ranked[2].Username)
	}
}

func TestInjectSyntheticPricesOffMatchingRank(t *testing.T) {
	real := RankEntries([]entities.LeaderboardEntry{
		{Country: "BR", Username: "first", USDTurnover: 100},
		{Country: "BR", Username: "second", USDTurnover: 80},
	})
	configs := []entities.SyntheticConfig{
		{Date: "2026-03-10", Country: "ALL", Username: "ghost1", BoostPct: 120, IsActive: true},
		{Date: "2026-03-10", Country: "BR", Username: "ghost2", BoostPct: 50, IsActive: true},
	}

	merged := InjectSynthetic(real, configs)
	if len(merged) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(merged))
	}
	// ghost1 prices off rank 1: 100 * 120% = 120, shown as FAKE
	if merged[0].Username != "ghost1" || merged[0].USDTurnover != 120 || merged[0].Country != "FAKE" || !merged[0].IsFake {
		t.Fatalf("unexpected top entry %+v", merged[0])
	}
	// ghost2 prices off rank 2: 80 * 50% = 40, keeps its BR country
	var ghost2 entities.LeaderboardEntry
	for _, entry := range merged {
		if entry.Username == "ghost2" {
			ghost2 = entry
		}
	}
	if ghost2.USDTurnover != 40 || ghost2.Country != "BR" {
		t.Fatalf("unexpected ghost2 %+v", ghost2)
	}
}

func TestInjectSyntheticShadowsRealUsername(t *testing.T) {
	real := RankEntries([]entities.LeaderboardEntry{
		{Country: "BR", Username: "Alice", USDTurnover: 100},
		{Country: "BR", Username: "bob", USDTurnover: 60},
	})
	configs := []entities.SyntheticConfig{
		{Username: "alice", BoostPct: 90, IsActive: true},
	}

	merged := InjectSynthetic(real, configs)
	if len(merged) != 2 {
		t.Fatalf("expected shadowed real entry removed, got %d entries", len(merged))
	}
	for _, entry := range merged {
		if entry.Username == "Alice" && !entry.IsFake {
			t.Fatalf("real alice should have been shadowed")
		}
	}
}

func TestInjectSyntheticMoreConfigsThanRealEntries(t *testing.T) {
	real := RankEntries([]entities.LeaderboardEntry{
		{Country: "MX", Username: "solo", USDTurnover: 30},
	})
	configs := []entities.SyntheticConfig{
		{Username: "g1", BoostPct: 100, IsActive: true},
		{Username: "g2", BoostPct: 100, IsActive: true},
	}

	merged := InjectSynthetic(real, configs)
	// g2 has no rank 2 to price off and is dropped
	if len(merged) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(merged))
	}
}

func TestInjectSyntheticIgnoresInactiveConfigs(t *testing.T) {
	real := RankEntries([]entities.LeaderboardEntry{
		{Country: "BR", Username: "top", USDTurnover: 10},
	})
	configs := []entities.SyntheticConfig{
		{Username: "ghost", BoostPct: 100, IsActive: false},
	}
	merged := InjectSynthetic(real, configs)
	if len(merged) != 1 {
		t.Fatalf("expected inactive config ignored, got %d entries", len(merged))
	}
}

func TestSnapshotOnlyAuthoritativeBatchesFeedLeaderboard(t *testing.T) {
	now := time.Date(2026, time.March, 10, 18, 0, 0, 0, time.UTC)
	approvedAt := now.Add(-time.Hour)

	approved := entities.Batch{
		BatchID: "approved", CreatedAt: approvedAt, Country: "BR", Slot: "00_24",
		Date: "2026-03-10", Status: entities.BatchStatusApproved,
	}
	pending := entities.Batch{
		BatchID: "pending", CreatedAt: now, Country: "BR", Slot: "00_24",
		Date: "2026-03-10", Status: entities.BatchStatusPending,
	}
	store := memory.NewStore(
		[]entities.Batch{approved, pending},
		[]entities.RawTurnoverRecord{
			{BatchID: "approved", Country: "BR", Date: "2026-03-10", SlotKey: "00_24", Username: "alice", LocalTurnover: 100, SubmittedAt: approvedAt},
			{BatchID: "pending", Country: "BR", Date: "2026-03-10", SlotKey: "00_24", Username: "alice", LocalTurnover: 9999, SubmittedAt: now},
		},
	)
	store.SetNow(now)

	q := LeaderboardQuery{Batches: store, Records: store, Synthetic: store, Clock: store}
	snapshot, err := q.Snapshot(context.Background(), "2026-03-10", "ALL")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(snapshot.Players) != 1 {
		t.Fatalf("expected 1 player, got %d", len(snapshot.Players))
	}
	if snapshot.Players[0].USDTurnover != 20 {
		t.Fatalf("pending batch leaked into the leaderboard: %v", snapshot.Players[0].USDTurnover)
	}
}

func TestSnapshotRejectsMalformedDate(t *testing.T) {
	store := memory.NewStore(nil, nil)
	q := LeaderboardQuery{Batches: store, Records: store, Synthetic: store, Clock: store}
	if _, err := q.Snapshot(context.Background(), "2026-3-1", "ALL"); err != domainerrors.ErrInvalidDate {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
