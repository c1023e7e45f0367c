package queries

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	application "turnboard/contexts/turnover/leaderboard-service/application"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
)

const overallRankingSize = 50

type ChartPoint struct {
	Date     string
	TotalUSD float64
}

type OverallPlayer struct {
	Rank        int
	Username    string
	Country     string
	TotalUSD    float64
	DaysInTop20 int
}

type StatsResult struct {
	Mode              string
	Country           string
	BaseDate          string
	FromDate          string
	ToDate            string
	ChartSeries       []ChartPoint
	PerDay            []entities.DailySnapshot
	TopPlayersOverall []OverallPlayer
	TopPlayer         *OverallPlayer
	MostConsistent    *OverallPlayer
}

// StatsQuery rolls daily snapshots up across a 1/7/30-day window ending at the
// base date. Days without an authoritative batch contribute a zero total.
type StatsQuery struct {
	Daily  LeaderboardQuery
	Logger *slog.Logger
}

func (q StatsQuery) Range(ctx context.Context, mode string, country string, baseDate string) (StatsResult, error) {
	logger := application.ResolveLogger(q.Logger)

	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = "daily"
	}
	var windowLength int
	switch mode {
	case "daily":
		windowLength = 1
	case "weekly":
		windowLength = 7
	case "monthly":
		windowLength = 30
	default:
		return StatsResult{}, domainerrors.ErrInvalidStatsMode
	}

	country = strings.ToUpper(strings.TrimSpace(country))
	if country == "" {
		country = "ALL"
	}
	if country != "ALL" && country != "BR" && country != "MX" {
		return StatsResult{}, domainerrors.ErrInvalidCountry
	}

	baseDate = strings.TrimSpace(baseDate)
	if baseDate == "" {
		baseDate = application.BusinessToday(q.Daily.now())
	}
	if !application.ValidDate(baseDate) {
		return StatsResult{}, domainerrors.ErrInvalidDate
	}

	window := application.DateWindow(baseDate, windowLength)
	result := StatsResult{
		Mode:     mode,
		Country:  country,
		BaseDate: baseDate,
		FromDate: window[0],
		ToDate:   window[len(window)-1],
	}

	type key struct{ country, username string }
	totals := make(map[key]*OverallPlayer)
	order := make([]key, 0)

	for _, date := range window {
		snapshot, err := q.Daily.Snapshot(ctx, date, country)
		if err != nil {
			return StatsResult{}, err
		}
		result.PerDay = append(result.PerDay, snapshot)
		result.ChartSeries = append(result.ChartSeries, ChartPoint{Date: snapshot.Date, TotalUSD: snapshot.TotalUSD})

		for _, player := range snapshot.Players {
			k := key{country: player.Country, username: strings.ToLower(player.Username)}
			agg, ok := totals[k]
			if !ok {
				agg = &OverallPlayer{Username: player.Username, Country: player.Country}
				totals[k] = agg
				order = append(order, k)
			}
			agg.TotalUSD += player.USDTurnover
		}
		for _, player := range snapshot.Top20 {
			k := key{country: player.Country, username: strings.ToLower(player.Username)}
			if agg, ok := totals[k]; ok {
				agg.DaysInTop20++
			}
		}
	}

	overall := make([]OverallPlayer, 0, len(order))
	for _, k := range order {
		overall = append(overall, *totals[k])
	}
	sort.SliceStable(overall, func(i, j int) bool {
		if overall[i].TotalUSD != overall[j].TotalUSD {
			return overall[i].TotalUSD > overall[j].TotalUSD
		}
		return strings.ToLower(overall[i].Username) < strings.ToLower(overall[j].Username)
	})
	if len(overall) > overallRankingSize {
		overall = overall[:overallRankingSize]
	}
	for i := range overall {
		overall[i].Rank = i + 1
	}
	result.TopPlayersOverall = overall

	if len(overall) > 0 {
		top := overall[0]
		result.TopPlayer = &top

		consistent := make([]OverallPlayer, len(overall))
		copy(consistent, overall)
		sort.SliceStable(consistent, func(i, j int) bool {
			if consistent[i].DaysInTop20 != consistent[j].DaysInTop20 {
				return consistent[i].DaysInTop20 > consistent[j].DaysInTop20
			}
			return consistent[i].TotalUSD > consistent[j].TotalUSD
		})
		best := consistent[0]
		result.MostConsistent = &best
	}

	logger.Debug("range stats computed",
		"event", "turnover_stats_computed",
		"module", "turnover/leaderboard-service",
		"layer", "application",
		"mode", mode,
		"country", country,
		"from", result.FromDate,
		"to", result.ToDate,
		"players", len(result.TopPlayersOverall),
	)
	return result, nil
}
