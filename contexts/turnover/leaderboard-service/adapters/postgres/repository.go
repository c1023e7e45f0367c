package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	"turnboard/contexts/turnover/leaderboard-service/domain/slots"
	"turnboard/contexts/turnover/leaderboard-service/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	insertChunkSize = 500
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateBatch(
	ctx context.Context,
	batch entities.Batch,
	rows []entities.RawTurnoverRecord,
	overwriteImport bool,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if overwriteImport {
			if err := tx.
				Where("date = ? AND country = ? AND slot_key = ?", batch.Date, batch.Country, slots.ImportSlot).
				Delete(&rawTurnoverModel{}).
				Error; err != nil {
				return err
			}
			if err := tx.
				Where("date = ? AND country = ? AND slot = ?", batch.Date, batch.Country, slots.ImportSlot).
				Delete(&batchModel{}).
				Error; err != nil {
				return err
			}
		}

		batchRow := batchModelFromEntity(batch)
		if err := tx.Create(&batchRow).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: duplicate batch id", domainerrors.ErrInvalidStateTransition)
			}
			return err
		}

		// Batches that arrive already APPROVED (historical imports) demote
		// prior batches for the key, same as an approve would.
		if batch.Status == entities.BatchStatusApproved {
			if _, err := supersedeSiblings(tx, batchRow); err != nil {
				return err
			}
		}

		recordRows := make([]rawTurnoverModel, 0, len(rows))
		for _, record := range rows {
			recordRows = append(recordRows, recordModelFromEntity(record))
		}
		return tx.CreateInBatches(recordRows, insertChunkSize).Error
	})
}

// supersedeSiblings demotes every other PENDING or APPROVED batch sharing the
// given batch's (date, country, slot) key, keeping at most one APPROVED batch
// per key at any instant.
func supersedeSiblings(tx *gorm.DB, row batchModel) (int64, error) {
	result := tx.Model(&batchModel{}).
		Where("date = ? AND country = ? AND slot = ?", row.Date, row.Country, row.Slot).
		Where("batch_id <> ?", row.BatchID).
		Where("status IN ?", []string{
			string(entities.BatchStatusPending),
			string(entities.BatchStatusApproved),
		}).
		Update("status", string(entities.BatchStatusSuperseded))
	return result.RowsAffected, result.Error
}

func (r *Repository) GetBatch(ctx context.Context, batchID string) (entities.Batch, error) {
	var row batchModel
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", strings.TrimSpace(batchID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Batch{}, domainerrors.ErrBatchNotFound
		}
		return entities.Batch{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListBatches(ctx context.Context, filter ports.BatchFilter) ([]entities.Batch, error) {
	tx := r.db.WithContext(ctx).Model(&batchModel{})
	if filter.Date != "" {
		tx = tx.Where("date = ?", filter.Date)
	}
	if filter.Country != "" {
		tx = tx.Where("country = ?", filter.Country)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}

	var rows []batchModel
	if err := tx.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.Batch, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// ApproveBatch runs the two-part approve effect in one transaction with the
// target row locked, so racing approvals for one (date, country, slot) key
// leave exactly one APPROVED batch.
func (r *Repository) ApproveBatch(
	ctx context.Context,
	batchID string,
	verifier string,
	at time.Time,
) (ports.ApproveOutcome, error) {
	var outcome ports.ApproveOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row batchModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("batch_id = ?", strings.TrimSpace(batchID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrBatchNotFound
			}
			return err
		}

		switch entities.BatchStatus(row.Status) {
		case entities.BatchStatusApproved:
			outcome = ports.ApproveOutcome{Batch: row.toEntity(), AlreadyApproved: true}
			return nil
		case entities.BatchStatusRejected:
			return fmt.Errorf("%w: batch is %s", domainerrors.ErrInvalidStateTransition, row.Status)
		}

		verifiedAt := at.UTC()
		if err := tx.Model(&batchModel{}).
			Where("batch_id = ?", row.BatchID).
			Updates(map[string]any{
				"status":      string(entities.BatchStatusApproved),
				"verified_by": verifier,
				"verified_at": verifiedAt,
			}).
			Error; err != nil {
			return err
		}

		superseded, err := supersedeSiblings(tx, row)
		if err != nil {
			return err
		}

		row.Status = string(entities.BatchStatusApproved)
		row.VerifiedBy = verifier
		row.VerifiedAt = &verifiedAt
		outcome = ports.ApproveOutcome{Batch: row.toEntity(), Superseded: int(superseded)}
		return nil
	})
	if err != nil {
		return ports.ApproveOutcome{}, err
	}
	return outcome, nil
}

func (r *Repository) RejectBatch(
	ctx context.Context,
	batchID string,
	rejector string,
	reason string,
	at time.Time,
) (entities.Batch, error) {
	var rejected entities.Batch
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row batchModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("batch_id = ?", strings.TrimSpace(batchID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrBatchNotFound
			}
			return err
		}

		status := entities.BatchStatus(row.Status)
		if status == entities.BatchStatusApproved || status == entities.BatchStatusRejected {
			return fmt.Errorf("%w: batch is %s", domainerrors.ErrInvalidStateTransition, row.Status)
		}

		rejectedAt := at.UTC()
		if err := tx.Model(&batchModel{}).
			Where("batch_id = ?", row.BatchID).
			Updates(map[string]any{
				"status":        string(entities.BatchStatusRejected),
				"rejected_by":   rejector,
				"rejected_at":   rejectedAt,
				"reject_reason": reason,
			}).
			Error; err != nil {
			return err
		}

		row.Status = string(entities.BatchStatusRejected)
		row.RejectedBy = rejector
		row.RejectedAt = &rejectedAt
		row.RejectReason = reason
		rejected = row.toEntity()
		return nil
	})
	if err != nil {
		return entities.Batch{}, err
	}
	return rejected, nil
}

func (r *Repository) DeleteBatch(ctx context.Context, batchID string) (ports.RollbackOutcome, error) {
	var outcome ports.RollbackOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row batchModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("batch_id = ?", strings.TrimSpace(batchID)).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrBatchNotFound
			}
			return err
		}

		records := tx.Where("batch_id = ?", row.BatchID).Delete(&rawTurnoverModel{})
		if records.Error != nil {
			return records.Error
		}
		if err := tx.Where("batch_id = ?", row.BatchID).Delete(&batchModel{}).Error; err != nil {
			return err
		}

		outcome = ports.RollbackOutcome{
			Batch:        row.toEntity(),
			RowsDeleted:  int(records.RowsAffected),
			BatchDeleted: true,
		}
		return nil
	})
	if err != nil {
		return ports.RollbackOutcome{}, err
	}
	return outcome, nil
}

func (r *Repository) AuthoritativeBatchIDs(ctx context.Context, date string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&batchModel{}).
		Select("DISTINCT ON (country, slot) batch_id").
		Where("date = ? AND status = ?", date, string(entities.BatchStatusApproved)).
		Order("country, slot, created_at DESC").
		Pluck("batch_id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *Repository) AuthoritativeBatch(
	ctx context.Context,
	date string,
	country string,
	slot string,
) (entities.Batch, bool, error) {
	var row batchModel
	err := r.db.WithContext(ctx).
		Where("date = ? AND country = ? AND slot = ? AND status = ?",
			date, country, slot, string(entities.BatchStatusApproved)).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Batch{}, false, nil
		}
		return entities.Batch{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListRecordsByBatches(ctx context.Context, batchIDs []string) ([]entities.RawTurnoverRecord, error) {
	if len(batchIDs) == 0 {
		return nil, nil
	}

	var rows []rawTurnoverModel
	if err := r.db.WithContext(ctx).
		Where("batch_id IN ?", batchIDs).
		Order("submitted_at ASC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.RawTurnoverRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) TopRecords(ctx context.Context, batchID string, limit int) ([]entities.RawTurnoverRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []rawTurnoverModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("local_turnover DESC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.RawTurnoverRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListPlayerRecords(
	ctx context.Context,
	username string,
	country string,
	limit int,
) ([]entities.RawTurnoverRecord, error) {
	if limit <= 0 {
		limit = 500
	}

	tx := r.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?)", strings.TrimSpace(username))
	if country != "" {
		tx = tx.Where("country = ?", country)
	}

	var rows []rawTurnoverModel
	if err := tx.Order("date DESC, submitted_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.RawTurnoverRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertSyntheticConfig(
	ctx context.Context,
	config entities.SyntheticConfig,
) (entities.SyntheticConfig, error) {
	row := syntheticConfigModel{
		ConfigID:  strings.TrimSpace(config.ConfigID),
		Date:      config.Date,
		Country:   config.Country,
		Username:  config.Username,
		BoostPct:  config.BoostPct,
		IsActive:  config.IsActive,
		Note:      config.Note,
		CreatedBy: config.CreatedBy,
		CreatedAt: config.CreatedAt.UTC(),
	}
	// The conflict key treats usernames case-insensitively, matching how the
	// leaderboard shadows real players.
	var stored syntheticConfigModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing syntheticConfigModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("date = ? AND country = ? AND LOWER(username) = LOWER(?)",
				row.Date, row.Country, row.Username).
			First(&existing).
			Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			stored = row
			return nil
		case err != nil:
			return err
		}

		if err := tx.Model(&syntheticConfigModel{}).
			Where("config_id = ?", existing.ConfigID).
			Updates(map[string]any{
				"boost_pct": row.BoostPct,
				"is_active": row.IsActive,
				"note":      row.Note,
			}).
			Error; err != nil {
			return err
		}
		return tx.Where("config_id = ?", existing.ConfigID).First(&stored).Error
	})
	if err != nil {
		return entities.SyntheticConfig{}, err
	}
	return stored.toEntity(), nil
}

func (r *Repository) ListSyntheticConfigs(ctx context.Context, date string) ([]entities.SyntheticConfig, error) {
	return r.listConfigs(ctx, date, false)
}

func (r *Repository) ListActiveSyntheticConfigs(ctx context.Context, date string) ([]entities.SyntheticConfig, error) {
	return r.listConfigs(ctx, date, true)
}

func (r *Repository) listConfigs(ctx context.Context, date string, activeOnly bool) ([]entities.SyntheticConfig, error) {
	tx := r.db.WithContext(ctx).Where("date = ?", date)
	if activeOnly {
		tx = tx.Where("is_active = ?", true)
	}

	var rows []syntheticConfigModel
	if err := tx.Order("created_at ASC, config_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]entities.SyntheticConfig, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) DeleteSyntheticConfig(ctx context.Context, configID string) error {
	result := r.db.WithContext(ctx).
		Where("config_id = ?", strings.TrimSpace(configID)).
		Delete(&syntheticConfigModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSyntheticConfigNotFound
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		OutboxID:  strings.TrimSpace(envelope.EventID),
		EventType: strings.TrimSpace(envelope.EventType),
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "outbox_id"}},
			DoNothing: true,
		}).
		Create(&row).
		Error
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   append([]byte(nil), row.Payload...),
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrBatchNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type batchModel struct {
	BatchID      string     `gorm:"column:batch_id;primaryKey"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	Uploader     string     `gorm:"column:uploader"`
	Country      string     `gorm:"column:country"`
	Slot         string     `gorm:"column:slot"`
	Date         string     `gorm:"column:date"`
	RowsCount    int        `gorm:"column:rows_count"`
	TotalLocal   float64    `gorm:"column:total_local"`
	TotalUSD     float64    `gorm:"column:total_usd"`
	Note         string     `gorm:"column:note"`
	Status       string     `gorm:"column:status"`
	VerifiedBy   string     `gorm:"column:verified_by"`
	VerifiedAt   *time.Time `gorm:"column:verified_at"`
	RejectedBy   string     `gorm:"column:rejected_by"`
	RejectedAt   *time.Time `gorm:"column:rejected_at"`
	RejectReason string     `gorm:"column:reject_reason"`
}

func (batchModel) TableName() string {
	return "upload_batches"
}

func batchModelFromEntity(item entities.Batch) batchModel {
	createdAt := item.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return batchModel{
		BatchID:      strings.TrimSpace(item.BatchID),
		CreatedAt:    createdAt,
		Uploader:     strings.TrimSpace(item.Uploader),
		Country:      item.Country,
		Slot:         item.Slot,
		Date:         item.Date,
		RowsCount:    item.RowsCount,
		TotalLocal:   item.TotalLocal,
		TotalUSD:     item.TotalUSD,
		Note:         item.Note,
		Status:       string(item.Status),
		VerifiedBy:   item.VerifiedBy,
		VerifiedAt:   normalizeOptionalTime(item.VerifiedAt),
		RejectedBy:   item.RejectedBy,
		RejectedAt:   normalizeOptionalTime(item.RejectedAt),
		RejectReason: item.RejectReason,
	}
}

func (m batchModel) toEntity() entities.Batch {
	return entities.Batch{
		BatchID:      m.BatchID,
		CreatedAt:    m.CreatedAt.UTC(),
		Uploader:     m.Uploader,
		Country:      m.Country,
		Slot:         m.Slot,
		Date:         m.Date,
		RowsCount:    m.RowsCount,
		TotalLocal:   m.TotalLocal,
		TotalUSD:     m.TotalUSD,
		Note:         m.Note,
		Status:       entities.BatchStatus(m.Status),
		VerifiedBy:   m.VerifiedBy,
		VerifiedAt:   normalizeOptionalTime(m.VerifiedAt),
		RejectedBy:   m.RejectedBy,
		RejectedAt:   normalizeOptionalTime(m.RejectedAt),
		RejectReason: m.RejectReason,
	}
}

type rawTurnoverModel struct {
	RecordID      string    `gorm:"column:record_id;primaryKey"`
	Country       string    `gorm:"column:country"`
	Date          string    `gorm:"column:date"`
	SlotKey       string    `gorm:"column:slot_key"`
	Username      string    `gorm:"column:username"`
	LocalTurnover float64   `gorm:"column:local_turnover"`
	SubmittedAt   time.Time `gorm:"column:submitted_at"`
	BatchID       string    `gorm:"column:batch_id"`
}

func (rawTurnoverModel) TableName() string {
	return "raw_turnover"
}

func recordModelFromEntity(item entities.RawTurnoverRecord) rawTurnoverModel {
	return rawTurnoverModel{
		RecordID:      strings.TrimSpace(item.RecordID),
		Country:       item.Country,
		Date:          item.Date,
		SlotKey:       item.SlotKey,
		Username:      item.Username,
		LocalTurnover: item.LocalTurnover,
		SubmittedAt:   item.SubmittedAt.UTC(),
		BatchID:       strings.TrimSpace(item.BatchID),
	}
}

func (m rawTurnoverModel) toEntity() entities.RawTurnoverRecord {
	return entities.RawTurnoverRecord{
		RecordID:      m.RecordID,
		Country:       m.Country,
		Date:          m.Date,
		SlotKey:       m.SlotKey,
		Username:      m.Username,
		LocalTurnover: m.LocalTurnover,
		SubmittedAt:   m.SubmittedAt.UTC(),
		BatchID:       m.BatchID,
	}
}

type syntheticConfigModel struct {
	ConfigID  string    `gorm:"column:config_id;primaryKey"`
	Date      string    `gorm:"column:date"`
	Country   string    `gorm:"column:country"`
	Username  string    `gorm:"column:username"`
	BoostPct  float64   `gorm:"column:boost_pct"`
	IsActive  bool      `gorm:"column:is_active"`
	Note      string    `gorm:"column:note"`
	CreatedBy string    `gorm:"column:created_by"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (syntheticConfigModel) TableName() string {
	return "fake_daily"
}

func (m syntheticConfigModel) toEntity() entities.SyntheticConfig {
	return entities.SyntheticConfig{
		ConfigID:  m.ConfigID,
		Date:      m.Date,
		Country:   m.Country,
		Username:  m.Username,
		BoostPct:  m.BoostPct,
		IsActive:  m.IsActive,
		Note:      m.Note,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID    string     `gorm:"column:outbox_id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "turnover_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}
