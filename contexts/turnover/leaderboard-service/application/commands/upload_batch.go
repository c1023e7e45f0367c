package commands

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	application "turnboard/contexts/turnover/leaderboard-service/application"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	"turnboard/contexts/turnover/leaderboard-service/domain/fx"
	"turnboard/contexts/turnover/leaderboard-service/domain/slots"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

type UploadRow struct {
	Username string
	Turnover float64
}

type UploadBatchCommand struct {
	Country  string
	Date     string
	SlotKey  string
	Rows     []UploadRow
	Uploader string
	Note     string
}

type UploadBatchResult struct {
	Batch    entities.Batch
	Inserted int
	Dropped  int
}

type UploadBatchUseCase struct {
	Batches ports.BatchRepository
	Outbox  ports.OutboxRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

func (uc UploadBatchUseCase) Execute(ctx context.Context, cmd UploadBatchCommand) (UploadBatchResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	country := strings.ToUpper(strings.TrimSpace(cmd.Country))
	if country != "BR" && country != "MX" {
		return UploadBatchResult{}, domainerrors.ErrInvalidCountry
	}
	if !application.ValidDate(strings.TrimSpace(cmd.Date)) {
		return UploadBatchResult{}, domainerrors.ErrInvalidDate
	}
	slotKey := strings.TrimSpace(cmd.SlotKey)
	if slotKey == slots.ImportSlot || !slots.Known(slotKey) {
		return UploadBatchResult{}, domainerrors.ErrUnknownSlot
	}

	now := uc.Clock.Now().UTC()
	batchID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return UploadBatchResult{}, err
	}

	// Malformed rows inside an otherwise valid batch are a data-quality drop,
	// not a batch failure.
	var (
		records    []entities.RawTurnoverRecord
		dropped    int
		totalLocal float64
	)
	date := strings.TrimSpace(cmd.Date)
	for _, row := range cmd.Rows {
		username := strings.TrimSpace(row.Username)
		if username == "" || math.IsNaN(row.Turnover) || math.IsInf(row.Turnover, 0) {
			dropped++
			continue
		}
		recordID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return UploadBatchResult{}, err
		}
		records = append(records, entities.RawTurnoverRecord{
			RecordID:      recordID,
			Country:       country,
			Date:          date,
			SlotKey:       slotKey,
			Username:      username,
			LocalTurnover: row.Turnover,
			SubmittedAt:   now,
			BatchID:       batchID,
		})
		totalLocal += row.Turnover
	}
	if len(records) == 0 {
		return UploadBatchResult{}, domainerrors.ErrNoValidRows
	}

	batch := entities.Batch{
		BatchID:    batchID,
		CreatedAt:  now,
		Uploader:   strings.TrimSpace(cmd.Uploader),
		Country:    country,
		Slot:       slotKey,
		Date:       date,
		RowsCount:  len(records),
		TotalLocal: fx.Round2(totalLocal),
		TotalUSD:   fx.Round2(fx.ToUSD(country, totalLocal)),
		Note:       strings.TrimSpace(cmd.Note),
		Status:     entities.BatchStatusPending,
	}
	if err := uc.Batches.CreateBatch(ctx, batch, records, false); err != nil {
		return UploadBatchResult{}, err
	}

	uc.appendEvent(ctx, logger, batch, now)

	logger.Info("turnover batch uploaded",
		"event", "turnover_batch_uploaded",
		"module", "turnover/leaderboard-service",
		"layer", "application",
		"batch_id", batch.BatchID,
		"date", batch.Date,
		"country", batch.Country,
		"slot", batch.Slot,
		"rows", batch.RowsCount,
		"dropped", dropped,
	)
	return UploadBatchResult{Batch: batch, Inserted: len(records), Dropped: dropped}, nil
}

func (uc UploadBatchUseCase) appendEvent(ctx context.Context, logger *slog.Logger, batch entities.Batch, now time.Time) {
	if uc.Outbox == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err == nil {
		err = uc.Outbox.AppendOutbox(ctx, newBatchEvent(eventID, EventBatchUploaded, batch, batch.Uploader, "", now))
	}
	if err != nil {
		// Notification delivery is fire-and-forget; the upload stays valid.
		logger.Warn("turnover upload notification enqueue failed",
			"event", "turnover_outbox_append_failed",
			"module", "turnover/leaderboard-service",
			"layer", "application",
			"batch_id", batch.BatchID,
			"error", err.Error(),
		)
	}
}
