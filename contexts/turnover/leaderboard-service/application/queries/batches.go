package queries

import (
	"context"
	"log/slog"
	"strings"

	application "turnboard/contexts/turnover/leaderboard-service/application"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

const (
	historyListLimit  = 500
	detailsRowsLimit  = 50
	playerRecordLimit = 500
)

type BatchDetails struct {
	Batch       entities.Batch
	Current     *entities.Batch
	RowsNew     []entities.RawTurnoverRecord
	RowsCurrent []entities.RawTurnoverRecord
}

type BatchQuery struct {
	Batches   ports.BatchRepository
	Records   ports.RecordRepository
	Synthetic ports.SyntheticRepository
	Logger    *slog.Logger
}

// ListBatches returns upload history, newest first, optionally filtered by
// date, country and status.
func (q BatchQuery) ListBatches(ctx context.Context, date string, country string, status string) ([]entities.Batch, error) {
	date = strings.TrimSpace(date)
	if date != "" && !application.ValidDate(date) {
		return nil, domainerrors.ErrInvalidDate
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if country != "" && country != "BR" && country != "MX" {
		return nil, domainerrors.ErrInvalidCountry
	}

	filter := ports.BatchFilter{Date: date, Country: country, Limit: historyListLimit}
	if trimmed := strings.ToUpper(strings.TrimSpace(status)); trimmed != "" {
		filter.Status = entities.BatchStatus(trimmed)
	}
	return q.Batches.ListBatches(ctx, filter)
}

// BatchDetails loads one batch next to the currently authoritative batch for
// its key, with the top rows of each for reviewer comparison.
func (q BatchQuery) BatchDetails(ctx context.Context, batchID string) (BatchDetails, error) {
	batch, err := q.Batches.GetBatch(ctx, strings.TrimSpace(batchID))
	if err != nil {
		return BatchDetails{}, err
	}

	details := BatchDetails{Batch: batch}
	details.RowsNew, err = q.Records.TopRecords(ctx, batch.BatchID, detailsRowsLimit)
	if err != nil {
		return BatchDetails{}, err
	}

	current, found, err := q.Batches.AuthoritativeBatch(ctx, batch.Date, batch.Country, batch.Slot)
	if err != nil {
		return BatchDetails{}, err
	}
	if found {
		details.Current = &current
		details.RowsCurrent, err = q.Records.TopRecords(ctx, current.BatchID, detailsRowsLimit)
		if err != nil {
			return BatchDetails{}, err
		}
	}
	return details, nil
}

// PlayerHistory lists a player's raw rows across all batches, newest first.
func (q BatchQuery) PlayerHistory(ctx context.Context, username string, country string) ([]entities.RawTurnoverRecord, error) {
	logger := application.ResolveLogger(q.Logger)

	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domainerrors.ErrUsernameRequired
	}
	country = strings.ToUpper(strings.TrimSpace(country))
	if country != "" && country != "BR" && country != "MX" {
		country = ""
	}

	records, err := q.Records.ListPlayerRecords(ctx, username, country, playerRecordLimit)
	if err != nil {
		return nil, err
	}

	logger.Debug("player history loaded",
		"event", "turnover_player_history_loaded",
		"module", "turnover/leaderboard-service",
		"layer", "application",
		"username", username,
		"records", len(records),
	)
	return records, nil
}

// ListSyntheticConfigs lists every config for a date, active or not.
func (q BatchQuery) ListSyntheticConfigs(ctx context.Context, date string) ([]entities.SyntheticConfig, error) {
	date = strings.TrimSpace(date)
	if !application.ValidDate(date) {
		return nil, domainerrors.ErrInvalidDate
	}
	return q.Synthetic.ListSyntheticConfigs(ctx, date)
}
