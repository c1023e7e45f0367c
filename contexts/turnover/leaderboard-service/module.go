package leaderboardservice

import (
	"log/slog"

	httpadapter "turnboard/contexts/turnover/leaderboard-service/adapters/http"
	"turnboard/contexts/turnover/leaderboard-service/adapters/memory"
	"turnboard/contexts/turnover/leaderboard-service/application/commands"
	"turnboard/contexts/turnover/leaderboard-service/application/queries"
	"turnboard/contexts/turnover/leaderboard-service/application/workers"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	Batches   ports.BatchRepository
	Records   ports.RecordRepository
	Synthetic ports.SyntheticRepository
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func NewModule(deps Dependencies) Module {
	uploadBatch := commands.UploadBatchUseCase{
		Batches: deps.Batches,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	reviewBatch := commands.ReviewBatchUseCase{
		Batches: deps.Batches,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	rollbackBatch := commands.RollbackBatchUseCase{
		Batches: deps.Batches,
		Logger:  deps.Logger,
	}
	syntheticConfig := commands.SyntheticConfigUseCase{
		Configs: deps.Synthetic,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	importHistory := commands.ImportHistoryUseCase{
		Batches: deps.Batches,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	leaderboard := queries.LeaderboardQuery{
		Batches:   deps.Batches,
		Records:   deps.Records,
		Synthetic: deps.Synthetic,
		Clock:     deps.Clock,
		Logger:    deps.Logger,
	}
	stats := queries.StatsQuery{
		Daily:  leaderboard,
		Logger: deps.Logger,
	}
	batchQuery := queries.BatchQuery{
		Batches:   deps.Batches,
		Records:   deps.Records,
		Synthetic: deps.Synthetic,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			UploadBatch:     uploadBatch,
			ReviewBatch:     reviewBatch,
			RollbackBatch:   rollbackBatch,
			SyntheticConfig: syntheticConfig,
			ImportHistory:   importHistory,
			Leaderboard:     leaderboard,
			Stats:           stats,
			Batches:         batchQuery,
			Logger:          deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(
	seedBatches []entities.Batch,
	seedRecords []entities.RawTurnoverRecord,
	logger *slog.Logger,
) Module {
	store := memory.NewStore(seedBatches, seedRecords)
	module := NewModule(Dependencies{
		Batches:   store,
		Records:   store,
		Synthetic: store,
		Outbox:    store,
		Clock:     store,
		IDGen:     store,
		Logger:    logger,
	})
	module.Store = store
	return module
}
