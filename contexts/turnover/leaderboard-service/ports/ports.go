package ports

import (
	"context"
	"time"

	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
)

type BatchFilter struct {
	Date    string
	Country string
	Status  entities.BatchStatus
	Limit   int
}

// ApproveOutcome reports the atomic approve side effects: the approved batch
// and how many still-PENDING siblings were superseded in the same unit.
type ApproveOutcome struct {
	Batch           entities.Batch
	Superseded      int
	AlreadyApproved bool
}

type RollbackOutcome struct {
	Batch        entities.Batch
	RowsDeleted  int
	BatchDeleted bool
}

type BatchRepository interface {
	// CreateBatch persists batch metadata and its raw rows as one
	// all-or-nothing unit. overwriteImport clears prior import rows for the
	// same (date, country) first, inside the same unit.
	CreateBatch(ctx context.Context, batch entities.Batch, rows []entities.RawTurnoverRecord, overwriteImport bool) error
	GetBatch(ctx context.Context, batchID string) (entities.Batch, error)
	ListBatches(ctx context.Context, filter BatchFilter) ([]entities.Batch, error)
	// ApproveBatch flips the batch to APPROVED and every still-PENDING sibling
	// sharing (date, country, slot) to SUPERSEDED atomically. Racing approvals
	// for one key must leave exactly one APPROVED batch.
	ApproveBatch(ctx context.Context, batchID string, verifier string, at time.Time) (ApproveOutcome, error)
	RejectBatch(ctx context.Context, batchID string, rejector string, reason string, at time.Time) (entities.Batch, error)
	// DeleteBatch removes the batch and every raw row carrying its id,
	// regardless of status.
	DeleteBatch(ctx context.Context, batchID string) (RollbackOutcome, error)
	// AuthoritativeBatchIDs resolves, for one date, the latest-created
	// APPROVED batch per (country, slot).
	AuthoritativeBatchIDs(ctx context.Context, date string) ([]string, error)
	AuthoritativeBatch(ctx context.Context, date string, country string, slot string) (entities.Batch, bool, error)
}

type RecordRepository interface {
	ListRecordsByBatches(ctx context.Context, batchIDs []string) ([]entities.RawTurnoverRecord, error)
	TopRecords(ctx context.Context, batchID string, limit int) ([]entities.RawTurnoverRecord, error)
	ListPlayerRecords(ctx context.Context, username string, country string, limit int) ([]entities.RawTurnoverRecord, error)
}

type SyntheticRepository interface {
	// UpsertSyntheticConfig inserts or, on a (date, country, username)
	// conflict, updates boost_pct, is_active and note.
	UpsertSyntheticConfig(ctx context.Context, config entities.SyntheticConfig) (entities.SyntheticConfig, error)
	ListSyntheticConfigs(ctx context.Context, date string) ([]entities.SyntheticConfig, error)
	ListActiveSyntheticConfigs(ctx context.Context, date string) ([]entities.SyntheticConfig, error)
	DeleteSyntheticConfig(ctx context.Context, configID string) error
}

type EventEnvelope struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	SourceService string    `json:"source_service"`
	OccurredAt    time.Time `json:"occurred_at_utc"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Payload       any       `json:"payload"`
}

type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxRepository persists notification events alongside state changes;
// the worker relay drains pending rows to the event bus.
type OutboxRepository interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(ctx context.Context, topic string, consumerGroup string, handler func(context.Context, EventEnvelope) error) error
}

// Notifier delivers operator-facing messages, Telegram in production.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
