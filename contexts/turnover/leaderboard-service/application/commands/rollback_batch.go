package commands

import (
	"context"
	"log/slog"
	"strings"

	application "turnboard/contexts/turnover/leaderboard-service/application"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

type RollbackBatchCommand struct {
	BatchID string
}

type RollbackBatchUseCase struct {
	Batches ports.BatchRepository
	Logger  *slog.Logger
}

// Execute hard-deletes a batch and its raw rows regardless of status. This is
// the only destructive operation and it bypasses every state guard.
func (uc RollbackBatchUseCase) Execute(ctx context.Context, cmd RollbackBatchCommand) (ports.RollbackOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)

	outcome, err := uc.Batches.DeleteBatch(ctx, strings.TrimSpace(cmd.BatchID))
	if err != nil {
		return ports.RollbackOutcome{}, err
	}

	logger.Info("turnover batch rolled back",
		"event", "turnover_batch_rolled_back",
		"module", "turnover/leaderboard-service",
		"layer", "application",
		"batch_id", outcome.Batch.BatchID,
		"rows_deleted", outcome.RowsDeleted,
	)
	return outcome, nil
}
