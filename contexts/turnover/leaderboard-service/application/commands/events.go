package commands

import (
	"time"

	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

const (
	EventBatchUploaded = "turnover.batch_uploaded"
	EventBatchApproved = "turnover.batch_approved"
	EventBatchRejected = "turnover.batch_rejected"
)

type batchEventPayload struct {
	BatchID    string  `json:"batch_id"`
	Date       string  `json:"date"`
	Country    string  `json:"country"`
	Slot       string  `json:"slot"`
	RowsCount  int     `json:"rows_count"`
	TotalLocal float64 `json:"total_local"`
	TotalUSD   float64 `json:"total_usd"`
	Actor      string  `json:"actor"`
	Reason     string  `json:"reason,omitempty"`
}

func newBatchEvent(eventID string, eventType string, batch entities.Batch, actor string, reason string, at time.Time) ports.EventEnvelope {
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "turnover/leaderboard-service",
		OccurredAt:    at.UTC(),
		EntityType:    "batch",
		EntityID:      batch.BatchID,
		Payload: batchEventPayload{
			BatchID:    batch.BatchID,
			Date:       batch.Date,
			Country:    batch.Country,
			Slot:       batch.Slot,
			RowsCount:  batch.RowsCount,
			TotalLocal: batch.TotalLocal,
			TotalUSD:   batch.TotalUSD,
			Actor:      actor,
			Reason:     reason,
		},
	}
}
