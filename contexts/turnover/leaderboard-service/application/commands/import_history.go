package commands

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	application "turnboard/contexts/turnover/leaderboard-service/application"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	"turnboard/contexts/turnover/leaderboard-service/domain/fx"
	"turnboard/contexts/turnover/leaderboard-service/domain/slots"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

type ImportRow struct {
	Date     string
	Username string
	USD      float64
	Country  string
}

type ImportHistoryCommand struct {
	Rows      []ImportRow
	Overwrite bool
	Importer  string
}

type ImportHistoryResult struct {
	Batches  []entities.Batch
	Inserted int
}

// ImportHistoryUseCase loads historical daily USD totals. Each (date, country)
// group becomes its own auto-approved batch under the import slot, so imported
// history flows through the same authoritative-batch resolution as live data.
type ImportHistoryUseCase struct {
	Batches ports.BatchRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func (uc ImportHistoryUseCase) Execute(ctx context.Context, cmd ImportHistoryCommand) (ImportHistoryResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	if len(cmd.Rows) == 0 {
		return ImportHistoryResult{}, domainerrors.ErrNoValidRows
	}

	// Imports are strict: any malformed row fails the whole request before any
	// write, unlike live uploads where bad rows are dropped.
	type groupKey struct{ date, country string }
	groups := make(map[groupKey][]ImportRow)
	for i, row := range cmd.Rows {
		date := strings.TrimSpace(row.Date)
		username := strings.TrimSpace(row.Username)
		country := strings.ToUpper(strings.TrimSpace(row.Country))
		if !application.ValidDate(date) {
			return ImportHistoryResult{}, fmt.Errorf("%w: row %d date %q", domainerrors.ErrInvalidDate, i+1, row.Date)
		}
		if username == "" {
			return ImportHistoryResult{}, fmt.Errorf("%w: row %d", domainerrors.ErrUsernameRequired, i+1)
		}
		if math.IsNaN(row.USD) || math.IsInf(row.USD, 0) {
			return ImportHistoryResult{}, fmt.Errorf("%w: row %d turnover", domainerrors.ErrNoValidRows, i+1)
		}
		if country != "BR" && country != "MX" {
			return ImportHistoryResult{}, fmt.Errorf("%w: row %d country %q", domainerrors.ErrInvalidCountry, i+1, row.Country)
		}
		key := groupKey{date: date, country: country}
		groups[key] = append(groups[key], ImportRow{Date: date, Username: username, USD: row.USD, Country: country})
	}

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].date != keys[j].date {
			return keys[i].date < keys[j].date
		}
		return keys[i].country < keys[j].country
	})

	now := uc.Clock.Now().UTC()
	importer := strings.TrimSpace(cmd.Importer)
	if importer == "" {
		importer = "IMPORT"
	}

	result := ImportHistoryResult{}
	for _, key := range keys {
		rows := groups[key]
		batchID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return ImportHistoryResult{}, err
		}

		var totalUSD float64
		records := make([]entities.RawTurnoverRecord, 0, len(rows))
		for _, row := range rows {
			recordID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return ImportHistoryResult{}, err
			}
			records = append(records, entities.RawTurnoverRecord{
				RecordID:      recordID,
				Country:       row.Country,
				Date:          row.Date,
				SlotKey:       slots.ImportSlot,
				Username:      row.Username,
				LocalTurnover: row.USD,
				SubmittedAt:   now,
				BatchID:       batchID,
			})
			totalUSD += row.USD
		}

		verifiedAt := now
		batch := entities.Batch{
			BatchID:    batchID,
			CreatedAt:  now,
			Uploader:   importer,
			Country:    key.country,
			Slot:       slots.ImportSlot,
			Date:       key.date,
			RowsCount:  len(records),
			TotalLocal: fx.Round2(totalUSD),
			TotalUSD:   fx.Round2(totalUSD),
			Status:     entities.BatchStatusApproved,
			VerifiedBy: importer,
			VerifiedAt: &verifiedAt,
		}
		if err := uc.Batches.CreateBatch(ctx, batch, records, cmd.Overwrite); err != nil {
			return ImportHistoryResult{}, err
		}
		result.Batches = append(result.Batches, batch)
		result.Inserted += len(records)
	}

	logger.Info("turnover history imported",
		"event", "turnover_history_imported",
		"module", "turnover/leaderboard-service",
		"layer", "application",
		"batches", len(result.Batches),
		"rows", result.Inserted,
		"overwrite", cmd.Overwrite,
	)
	return result, nil
}
