package queries

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	application "turnboard/contexts/turnover/leaderboard-service/application"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	"turnboard/contexts/turnover/leaderboard-service/domain/fx"
	"turnboard/contexts/turnover/leaderboard-service/domain/slots"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

const (
	DefaultLeaderboardLimit = 20
	maxSyntheticConfigs     = 20
)

type LeaderboardQuery struct {
	Batches   ports.BatchRepository
	Records   ports.RecordRepository
	Synthetic ports.SyntheticRepository
	Clock     ports.Clock
	Logger    *slog.Logger
}

// Leaderboard returns the published ranking for one date, synthetic entries
// included. Only authoritative batches feed the result, so pending or rejected
// uploads never leak out.
func (q LeaderboardQuery) Leaderboard(ctx context.Context, date string, limit int) ([]entities.LeaderboardEntry, error) {
	snapshot, err := q.Snapshot(ctx, date, "ALL")
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	entries := snapshot.Players
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Snapshot computes the fully resolved day: aggregate, normalize, rank,
// inject. countryFilter is ALL, BR or MX. A day without authoritative batches
// yields an empty snapshot, not an error.
func (q LeaderboardQuery) Snapshot(ctx context.Context, date string, countryFilter string) (entities.DailySnapshot, error) {
	logger := application.ResolveLogger(q.Logger)

	date = strings.TrimSpace(date)
	if date == "" {
		date = application.BusinessToday(q.now())
	}
	if !application.ValidDate(date) {
		return entities.DailySnapshot{}, domainerrors.ErrInvalidDate
	}

	batchIDs, err := q.Batches.AuthoritativeBatchIDs(ctx, date)
	if err != nil {
		return entities.DailySnapshot{}, err
	}

	snapshot := entities.DailySnapshot{Date: date, Players: []entities.LeaderboardEntry{}, Top20: []entities.LeaderboardEntry{}}
	var real []entities.LeaderboardEntry
	if len(batchIDs) > 0 {
		rows, err := q.Records.ListRecordsByBatches(ctx, batchIDs)
		if err != nil {
			return entities.DailySnapshot{}, err
		}
		real = RankEntries(AggregatePlayers(rows, countryFilter))
	}

	configs, err := q.Synthetic.ListActiveSyntheticConfigs(ctx, date)
	if err != nil {
		return entities.DailySnapshot{}, err
	}
	players := InjectSynthetic(real, configs)

	var total float64
	for _, entry := range players {
		total += entry.USDTurnover
	}
	snapshot.Players = players
	snapshot.TotalUSD = total
	if len(players) > 20 {
		snapshot.Top20 = players[:20]
	} else {
		snapshot.Top20 = players
	}

	logger.Debug("daily snapshot computed",
		"event", "turnover_snapshot_computed",
		"module", "turnover/leaderboard-service",
		"layer", "application",
		"date", date,
		"batches", len(batchIDs),
		"players", len(players),
	)
	return snapshot, nil
}

func (q LeaderboardQuery) now() time.Time {
	if q.Clock == nil {
		return time.Now().UTC()
	}
	return q.Clock.Now().UTC()
}

type playerAggregate struct {
	country       string
	username      string
	cumulative    float64
	lastSlotOrder int
	importUSD     bool
	deduction     float64
	deductionAt   time.Time
}

// AggregatePlayers resolves raw rows into one unranked USD entry per
// (country, username). Usernames compare case-insensitively; the first
// observed spelling is kept for display. Cumulative slots follow
// latest-order-wins with later rows winning order ties; the deduction slot is
// tracked independently by submission time and applies to Brazil only.
func AggregatePlayers(rows []entities.RawTurnoverRecord, countryFilter string) []entities.LeaderboardEntry {
	countryFilter = strings.ToUpper(strings.TrimSpace(countryFilter))

	type key struct{ country, username string }
	aggregates := make(map[key]*playerAggregate)
	order := make([]key, 0)

	for _, row := range rows {
		country := strings.ToUpper(strings.TrimSpace(row.Country))
		if countryFilter != "" && countryFilter != "ALL" && country != countryFilter {
			continue
		}
		username := strings.TrimSpace(row.Username)
		if username == "" || math.IsNaN(row.LocalTurnover) || math.IsInf(row.LocalTurnover, 0) {
			continue
		}

		k := key{country: country, username: strings.ToLower(username)}
		agg, ok := aggregates[k]
		if !ok {
			agg = &playerAggregate{country: country, username: username, lastSlotOrder: -1}
			aggregates[k] = agg
			order = append(order, k)
		}

		switch {
		case slots.IsDeduction(row.SlotKey):
			if row.SubmittedAt.After(agg.deductionAt) || agg.deductionAt.IsZero() {
				agg.deductionAt = row.SubmittedAt
				agg.deduction = row.LocalTurnover
			}
		default:
			slotOrder := slots.OrderIndex(row.SlotKey)
			if slotOrder >= agg.lastSlotOrder {
				agg.lastSlotOrder = slotOrder
				agg.cumulative = row.LocalTurnover
				agg.importUSD = row.SlotKey == slots.ImportSlot
			}
		}
	}

	entries := make([]entities.LeaderboardEntry, 0, len(order))
	for _, k := range order {
		agg := aggregates[k]

		net := agg.cumulative
		if agg.country == "BR" && !agg.importUSD {
			net = math.Max(net-agg.deduction, 0)
		}

		usd := net
		if !agg.importUSD {
			usd = fx.ToUSD(agg.country, net)
		}
		entries = append(entries, entities.LeaderboardEntry{
			Country:     agg.country,
			Username:    agg.username,
			USDTurnover: usd,
		})
	}
	return entries
}

// RankEntries filters to positive scores, sorts non-increasing by USD with
// ties broken by ascending username, and assigns dense ranks 1..N.
func RankEntries(entries []entities.LeaderboardEntry) []entities.LeaderboardEntry {
	ranked := make([]entities.LeaderboardEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.USDTurnover > 0 {
			ranked = append(ranked, entry)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].USDTurnover != ranked[j].USDTurnover {
			return ranked[i].USDTurnover > ranked[j].USDTurnover
		}
		return strings.ToLower(ranked[i].Username) < strings.ToLower(ranked[j].Username)
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// InjectSynthetic merges configured non-real entries into a ranked real
// leaderboard. The config at position i is priced off the real entry at rank
// i+1; configs beyond the real board are dropped, and real entries sharing a
// synthetic username are removed before the combined set is re-ranked.
func InjectSynthetic(real []entities.LeaderboardEntry, configs []entities.SyntheticConfig) []entities.LeaderboardEntry {
	if len(real) == 0 || len(configs) == 0 {
		return real
	}

	valid := make([]entities.SyntheticConfig, 0, len(configs))
	for _, config := range configs {
		if !config.IsActive || strings.TrimSpace(config.Username) == "" || config.BoostPct <= 0 {
			continue
		}
		valid = append(valid, config)
		if len(valid) == maxSyntheticConfigs {
			break
		}
	}
	if len(valid) == 0 {
		return real
	}

	fakeNames := make(map[string]struct{}, len(valid))
	fakes := make([]entities.LeaderboardEntry, 0, len(valid))
	for i, config := range valid {
		if i >= len(real) {
			break
		}
		username := strings.TrimSpace(config.Username)
		country := strings.ToUpper(strings.TrimSpace(config.Country))
		if country == "" || country == "ALL" {
			country = "FAKE"
		}
		fakes = append(fakes, entities.LeaderboardEntry{
			Country:     country,
			Username:    username,
			USDTurnover: fx.Round2(real[i].USDTurnover * config.BoostPct / 100),
			IsFake:      true,
		})
		fakeNames[strings.ToLower(username)] = struct{}{}
	}
	if len(fakes) == 0 {
		return real
	}

	merged := make([]entities.LeaderboardEntry, 0, len(real)+len(fakes))
	for _, entry := range real {
		if _, shadowed := fakeNames[strings.ToLower(entry.Username)]; shadowed {
			continue
		}
		merged = append(merged, entry)
	}
	merged = append(merged, fakes...)
	return RankEntries(merged)
}
