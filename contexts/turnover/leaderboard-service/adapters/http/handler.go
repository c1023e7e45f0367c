package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"turnboard/contexts/turnover/leaderboard-service/application/commands"
	"turnboard/contexts/turnover/leaderboard-service/application/queries"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	"turnboard/contexts/turnover/leaderboard-service/domain/fx"
	httptransport "turnboard/contexts/turnover/leaderboard-service/transport/http"
)

type Handler struct {
	UploadBatch     commands.UploadBatchUseCase
	ReviewBatch     commands.ReviewBatchUseCase
	RollbackBatch   commands.RollbackBatchUseCase
	SyntheticConfig commands.SyntheticConfigUseCase
	ImportHistory   commands.ImportHistoryUseCase
	Leaderboard     queries.LeaderboardQuery
	Stats           queries.StatsQuery
	Batches         queries.BatchQuery
	Logger          *slog.Logger
}

func (h Handler) UploadBatchHandler(
	ctx context.Context,
	uploader string,
	req httptransport.UploadBatchRequest,
) (httptransport.UploadBatchResponse, error) {
	rows := make([]commands.UploadRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, commands.UploadRow{Username: row.Username, Turnover: row.Turnover})
	}
	result, err := h.UploadBatch.Execute(ctx, commands.UploadBatchCommand{
		Country:  req.Country,
		Date:     req.Date,
		SlotKey:  req.Slot,
		Rows:     rows,
		Uploader: uploader,
		Note:     req.Note,
	})
	if err != nil {
		return httptransport.UploadBatchResponse{}, err
	}
	return httptransport.UploadBatchResponse{
		Batch:    mapBatch(result.Batch),
		Inserted: result.Inserted,
		Dropped:  result.Dropped,
	}, nil
}

func (h Handler) ApproveBatchHandler(
	ctx context.Context,
	verifier string,
	batchID string,
) (httptransport.ApproveBatchResponse, error) {
	outcome, err := h.ReviewBatch.Approve(ctx, commands.ApproveBatchCommand{
		BatchID:  batchID,
		Verifier: verifier,
	})
	if err != nil {
		return httptransport.ApproveBatchResponse{}, err
	}
	return httptransport.ApproveBatchResponse{
		Batch:           mapBatch(outcome.Batch),
		Superseded:      outcome.Superseded,
		AlreadyApproved: outcome.AlreadyApproved,
	}, nil
}

func (h Handler) RejectBatchHandler(
	ctx context.Context,
	rejector string,
	batchID string,
	req httptransport.RejectBatchRequest,
) (httptransport.RejectBatchResponse, error) {
	outcome, err := h.ReviewBatch.Reject(ctx, commands.RejectBatchCommand{
		BatchID:  batchID,
		Rejector: rejector,
		Reason:   req.Reason,
	})
	if err != nil {
		return httptransport.RejectBatchResponse{}, err
	}
	return httptransport.RejectBatchResponse{Batch: mapBatch(outcome.Batch)}, nil
}

func (h Handler) RollbackBatchHandler(ctx context.Context, batchID string) (httptransport.RollbackBatchResponse, error) {
	outcome, err := h.RollbackBatch.Execute(ctx, commands.RollbackBatchCommand{BatchID: batchID})
	if err != nil {
		return httptransport.RollbackBatchResponse{}, err
	}
	return httptransport.RollbackBatchResponse{
		Batch:       mapBatch(outcome.Batch),
		RowsDeleted: outcome.RowsDeleted,
		Deleted:     outcome.BatchDeleted,
	}, nil
}

func (h Handler) ListBatchesHandler(
	ctx context.Context,
	date string,
	country string,
	status string,
) (httptransport.ListBatchesResponse, error) {
	items, err := h.Batches.ListBatches(ctx, date, country, status)
	if err != nil {
		return httptransport.ListBatchesResponse{}, err
	}
	result := make([]httptransport.BatchDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapBatch(item))
	}
	return httptransport.ListBatchesResponse{Items: result}, nil
}

func (h Handler) BatchDetailsHandler(ctx context.Context, batchID string) (httptransport.BatchDetailsResponse, error) {
	details, err := h.Batches.BatchDetails(ctx, batchID)
	if err != nil {
		return httptransport.BatchDetailsResponse{}, err
	}
	response := httptransport.BatchDetailsResponse{
		Batch:   mapBatch(details.Batch),
		RowsNew: mapRecords(details.RowsNew),
	}
	if details.Current != nil {
		current := mapBatch(*details.Current)
		response.Current = &current
		response.RowsCurrent = mapRecords(details.RowsCurrent)
	}
	return response, nil
}

func (h Handler) LeaderboardHandler(
	ctx context.Context,
	date string,
	limit int,
) (httptransport.LeaderboardResponse, error) {
	snapshot, err := h.Leaderboard.Snapshot(ctx, date, "ALL")
	if err != nil {
		return httptransport.LeaderboardResponse{}, err
	}
	if limit <= 0 {
		limit = queries.DefaultLeaderboardLimit
	}
	entries := snapshot.Players
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return httptransport.LeaderboardResponse{
		Date:    snapshot.Date,
		Entries: mapEntries(entries),
	}, nil
}

func (h Handler) StatsHandler(
	ctx context.Context,
	mode string,
	country string,
	baseDate string,
) (httptransport.StatsResponse, error) {
	stats, err := h.Stats.Range(ctx, mode, country, baseDate)
	if err != nil {
		return httptransport.StatsResponse{}, err
	}

	response := httptransport.StatsResponse{
		Mode:              stats.Mode,
		Country:           stats.Country,
		BaseDate:          stats.BaseDate,
		FromDate:          stats.FromDate,
		ToDate:            stats.ToDate,
		ChartSeries:       make([]httptransport.ChartPointDTO, 0, len(stats.ChartSeries)),
		PerDay:            make([]httptransport.DailySnapshotDTO, 0, len(stats.PerDay)),
		TopPlayersOverall: make([]httptransport.OverallPlayerDTO, 0, len(stats.TopPlayersOverall)),
	}
	for _, point := range stats.ChartSeries {
		response.ChartSeries = append(response.ChartSeries, httptransport.ChartPointDTO{
			Date:     point.Date,
			TotalUSD: fx.Round2(point.TotalUSD),
		})
	}
	for _, day := range stats.PerDay {
		response.PerDay = append(response.PerDay, httptransport.DailySnapshotDTO{
			Date:     day.Date,
			TotalUSD: fx.Round2(day.TotalUSD),
			Players:  len(day.Players),
			Top20:    mapEntries(day.Top20),
		})
	}
	for _, player := range stats.TopPlayersOverall {
		response.TopPlayersOverall = append(response.TopPlayersOverall, mapOverallPlayer(player))
	}
	if stats.TopPlayer != nil {
		top := mapOverallPlayer(*stats.TopPlayer)
		response.TopPlayer = &top
	}
	if stats.MostConsistent != nil {
		consistent := mapOverallPlayer(*stats.MostConsistent)
		response.MostConsistent = &consistent
	}
	return response, nil
}

func (h Handler) UpsertSyntheticHandler(
	ctx context.Context,
	createdBy string,
	req httptransport.UpsertSyntheticRequest,
) (httptransport.UpsertSyntheticResponse, error) {
	config, err := h.SyntheticConfig.Upsert(ctx, commands.UpsertSyntheticCommand{
		Date:      req.Date,
		Country:   req.Country,
		Username:  req.Username,
		BoostPct:  req.BoostPct,
		IsActive:  req.IsActive,
		Note:      req.Note,
		CreatedBy: createdBy,
	})
	if err != nil {
		return httptransport.UpsertSyntheticResponse{}, err
	}
	return httptransport.UpsertSyntheticResponse{Config: mapSyntheticConfig(config)}, nil
}

func (h Handler) ListSyntheticHandler(ctx context.Context, date string) (httptransport.ListSyntheticResponse, error) {
	items, err := h.Batches.ListSyntheticConfigs(ctx, date)
	if err != nil {
		return httptransport.ListSyntheticResponse{}, err
	}
	result := make([]httptransport.SyntheticConfigDTO, 0, len(items))
	for _, item := range items {
		result = append(result, mapSyntheticConfig(item))
	}
	return httptransport.ListSyntheticResponse{Items: result}, nil
}

func (h Handler) DeleteSyntheticHandler(ctx context.Context, configID string) error {
	return h.SyntheticConfig.Delete(ctx, configID)
}

func (h Handler) PlayerHistoryHandler(
	ctx context.Context,
	username string,
	country string,
) (httptransport.PlayerHistoryResponse, error) {
	records, err := h.Batches.PlayerHistory(ctx, username, country)
	if err != nil {
		return httptransport.PlayerHistoryResponse{}, err
	}
	return httptransport.PlayerHistoryResponse{
		Username: username,
		Items:    mapRecords(records),
	}, nil
}

func (h Handler) ImportHistoryHandler(
	ctx context.Context,
	importer string,
	req httptransport.ImportHistoryRequest,
) (httptransport.ImportHistoryResponse, error) {
	rows := make([]commands.ImportRow, 0, len(req.Rows))
	for _, row := range req.Rows {
		rows = append(rows, commands.ImportRow{
			Date:     row.Date,
			Username: row.Username,
			USD:      row.USD,
			Country:  row.Country,
		})
	}
	result, err := h.ImportHistory.Execute(ctx, commands.ImportHistoryCommand{
		Rows:      rows,
		Overwrite: req.Overwrite,
		Importer:  importer,
	})
	if err != nil {
		return httptransport.ImportHistoryResponse{}, err
	}
	batches := make([]httptransport.BatchDTO, 0, len(result.Batches))
	for _, batch := range result.Batches {
		batches = append(batches, mapBatch(batch))
	}
	return httptransport.ImportHistoryResponse{
		Batches:  batches,
		Inserted: result.Inserted,
	}, nil
}

func mapBatch(item entities.Batch) httptransport.BatchDTO {
	dto := httptransport.BatchDTO{
		BatchID:      item.BatchID,
		CreatedAt:    item.CreatedAt.Format(time.RFC3339),
		Uploader:     item.Uploader,
		Country:      item.Country,
		Slot:         item.Slot,
		Date:         item.Date,
		RowsCount:    item.RowsCount,
		TotalLocal:   fx.Round2(item.TotalLocal),
		TotalUSD:     fx.Round2(item.TotalUSD),
		Note:         item.Note,
		Status:       string(item.Status),
		VerifiedBy:   item.VerifiedBy,
		RejectedBy:   item.RejectedBy,
		RejectReason: item.RejectReason,
	}
	if item.VerifiedAt != nil {
		dto.VerifiedAt = item.VerifiedAt.Format(time.RFC3339)
	}
	if item.RejectedAt != nil {
		dto.RejectedAt = item.RejectedAt.Format(time.RFC3339)
	}
	return dto
}

func mapRecords(items []entities.RawTurnoverRecord) []httptransport.RecordDTO {
	result := make([]httptransport.RecordDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.RecordDTO{
			Username:      item.Username,
			Country:       item.Country,
			Date:          item.Date,
			Slot:          item.SlotKey,
			LocalTurnover: fx.Round2(item.LocalTurnover),
			SubmittedAt:   item.SubmittedAt.Format(time.RFC3339),
			BatchID:       item.BatchID,
		})
	}
	return result
}

func mapEntries(items []entities.LeaderboardEntry) []httptransport.LeaderboardEntryDTO {
	result := make([]httptransport.LeaderboardEntryDTO, 0, len(items))
	for _, item := range items {
		result = append(result, httptransport.LeaderboardEntryDTO{
			Rank:        item.Rank,
			Country:     item.Country,
			Username:    item.Username,
			USDTurnover: fx.Round2(item.USDTurnover),
			IsFake:      item.IsFake,
		})
	}
	return result
}

func mapOverallPlayer(item queries.OverallPlayer) httptransport.OverallPlayerDTO {
	return httptransport.OverallPlayerDTO{
		Rank:        item.Rank,
		Username:    item.Username,
		Country:     item.Country,
		TotalUSD:    fx.Round2(item.TotalUSD),
		DaysInTop20: item.DaysInTop20,
	}
}

func mapSyntheticConfig(item entities.SyntheticConfig) httptransport.SyntheticConfigDTO {
	return httptransport.SyntheticConfigDTO{
		ConfigID:  item.ConfigID,
		Date:      item.Date,
		Country:   item.Country,
		Username:  item.Username,
		BoostPct:  item.BoostPct,
		IsActive:  item.IsActive,
		Note:      item.Note,
		CreatedBy: item.CreatedBy,
		CreatedAt: item.CreatedAt.Format(time.RFC3339),
	}
}
