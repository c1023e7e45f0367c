package commands

import (
	"context"
	"log/slog"
	"strings"

	application "turnboard/contexts/turnover/leaderboard-service/application"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

type ApproveBatchCommand struct {
	BatchID  string
	Verifier string
}

type RejectBatchCommand struct {
	BatchID  string
	Rejector string
	Reason   string
}

type ReviewBatchUseCase struct {
	Batches ports.BatchRepository
	Outbox  ports.OutboxRepository
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Logger  *slog.Logger
}

// Approve publishes a batch. Re-approving an APPROVED batch is a no-op;
// approving a REJECTED batch fails. The repository flips the batch and its
// still-PENDING siblings in one atomic unit.
func (uc ReviewBatchUseCase) Approve(ctx context.Context, cmd ApproveBatchCommand) (ports.ApproveOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)

	verifier := strings.TrimSpace(cmd.Verifier)
	if verifier == "" {
		verifier = "unknown"
	}

	now := uc.Clock.Now().UTC()
	outcome, err := uc.Batches.ApproveBatch(ctx, strings.TrimSpace(cmd.BatchID), verifier, now)
	if err != nil {
		return ports.ApproveOutcome{}, err
	}
	if outcome.AlreadyApproved {
		return outcome, nil
	}

	uc.appendReviewEvent(ctx, logger, EventBatchApproved, outcome.Batch, verifier, "")

	logger.Info("turnover batch approved",
		"event", "turnover_batch_approved",
		"module", "turnover/leaderboard-service",
		"layer", "application",
		"batch_id", outcome.Batch.BatchID,
		"date", outcome.Batch.Date,
		"country", outcome.Batch.Country,
		"slot", outcome.Batch.Slot,
		"verified_by", verifier,
		"superseded", outcome.Superseded,
	)
	return outcome, nil
}

func (uc ReviewBatchUseCase) Reject(ctx context.Context, cmd RejectBatchCommand) (ports.ApproveOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)

	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		return ports.ApproveOutcome{}, domainerrors.ErrRejectReasonRequired
	}
	rejector := strings.TrimSpace(cmd.Rejector)
	if rejector == "" {
		rejector = "unknown"
	}

	now := uc.Clock.Now().UTC()
	batch, err := uc.Batches.RejectBatch(ctx, strings.TrimSpace(cmd.BatchID), rejector, reason, now)
	if err != nil {
		return ports.ApproveOutcome{}, err
	}

	uc.appendReviewEvent(ctx, logger, EventBatchRejected, batch, rejector, reason)

	logger.Info("turnover batch rejected",
		"event", "turnover_batch_rejected",
		"module", "turnover/leaderboard-service",
		"layer", "application",
		"batch_id", batch.BatchID,
		"date", batch.Date,
		"country", batch.Country,
		"slot", batch.Slot,
		"rejected_by", rejector,
		"reason", reason,
	)
	return ports.ApproveOutcome{Batch: batch}, nil
}

func (uc ReviewBatchUseCase) appendReviewEvent(
	ctx context.Context,
	logger *slog.Logger,
	eventType string,
	batch entities.Batch,
	actor string,
	reason string,
) {
	if uc.Outbox == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err == nil {
		err = uc.Outbox.AppendOutbox(ctx, newBatchEvent(eventID, eventType, batch, actor, reason, uc.Clock.Now()))
	}
	if err != nil {
		logger.Warn("turnover review notification enqueue failed",
			"event", "turnover_outbox_append_failed",
			"module", "turnover/leaderboard-service",
			"layer", "application",
			"batch_id", batch.BatchID,
			"error", err.Error(),
		)
	}
}
