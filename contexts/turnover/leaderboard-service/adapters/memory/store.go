package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	"turnboard/contexts/turnover/leaderboard-service/domain/slots"
	"turnboard/contexts/turnover/leaderboard-service/ports"

	"github.com/google/uuid"
)

type outboxRow struct {
	ports.OutboxMessage
	published bool
}

// Store backs the in-memory module used by tests and local bootstrapping.
// All repository guards mirror the postgres adapter so either can sit behind
// the same use cases.
type Store struct {
	mu sync.RWMutex

	batches map[string]entities.Batch
	records []entities.RawTurnoverRecord
	configs map[string]entities.SyntheticConfig
	outbox  []outboxRow

	now *time.Time
}

func NewStore(seedBatches []entities.Batch, seedRecords []entities.RawTurnoverRecord) *Store {
	batches := make(map[string]entities.Batch, len(seedBatches))
	for _, batch := range seedBatches {
		batches[batch.BatchID] = batch
	}
	return &Store{
		batches: batches,
		records: append([]entities.RawTurnoverRecord(nil), seedRecords...),
		configs: make(map[string]entities.SyntheticConfig),
	}
}

// SetNow pins the store clock; tests use it to make business dates
// deterministic.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := now.UTC()
	s.now = &pinned
}

func (s *Store) CreateBatch(_ context.Context, batch entities.Batch, rows []entities.RawTurnoverRecord, overwriteImport bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if overwriteImport {
		s.deleteImportLocked(batch.Date, batch.Country)
	}
	s.batches[batch.BatchID] = batch
	// Batches that arrive already APPROVED (historical imports) demote prior
	// batches for the key, same as an approve would.
	if batch.Status == entities.BatchStatusApproved {
		s.supersedeSiblingsLocked(batch)
	}
	s.records = append(s.records, rows...)
	return nil
}

// supersedeSiblingsLocked demotes every other PENDING or APPROVED batch
// sharing the given batch's (date, country, slot) key, keeping at most one
// APPROVED batch per key at any instant.
func (s *Store) supersedeSiblingsLocked(batch entities.Batch) int {
	superseded := 0
	for id, sibling := range s.batches {
		if id == batch.BatchID {
			continue
		}
		if sibling.Date != batch.Date || sibling.Country != batch.Country || sibling.Slot != batch.Slot {
			continue
		}
		if sibling.Status == entities.BatchStatusPending || sibling.Status == entities.BatchStatusApproved {
			sibling.Status = entities.BatchStatusSuperseded
			s.batches[id] = sibling
			superseded++
		}
	}
	return superseded
}

func (s *Store) deleteImportLocked(date string, country string) {
	kept := s.records[:0]
	for _, record := range s.records {
		if record.Date == date && record.Country == country && record.SlotKey == slots.ImportSlot {
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	for id, batch := range s.batches {
		if batch.Date == date && batch.Country == country && batch.Slot == slots.ImportSlot {
			delete(s.batches, id)
		}
	}
}

func (s *Store) GetBatch(_ context.Context, batchID string) (entities.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch, exists := s.batches[strings.TrimSpace(batchID)]
	if !exists {
		return entities.Batch{}, domainerrors.ErrBatchNotFound
	}
	return batch, nil
}

func (s *Store) ListBatches(_ context.Context, filter ports.BatchFilter) ([]entities.Batch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Batch, 0, len(s.batches))
	for _, batch := range s.batches {
		if filter.Date != "" && batch.Date != filter.Date {
			continue
		}
		if filter.Country != "" && batch.Country != filter.Country {
			continue
		}
		if filter.Status != "" && batch.Status != filter.Status {
			continue
		}
		items = append(items, batch)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].BatchID < items[j].BatchID
	})
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return items, nil
}

func (s *Store) ApproveBatch(_ context.Context, batchID string, verifier string, at time.Time) (ports.ApproveOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, exists := s.batches[strings.TrimSpace(batchID)]
	if !exists {
		return ports.ApproveOutcome{}, domainerrors.ErrBatchNotFound
	}
	if batch.Status == entities.BatchStatusApproved {
		return ports.ApproveOutcome{Batch: batch, AlreadyApproved: true}, nil
	}
	if batch.Status == entities.BatchStatusRejected {
		return ports.ApproveOutcome{}, fmt.Errorf("%w: batch is %s", domainerrors.ErrInvalidStateTransition, batch.Status)
	}

	verifiedAt := at.UTC()
	batch.Status = entities.BatchStatusApproved
	batch.VerifiedBy = verifier
	batch.VerifiedAt = &verifiedAt
	s.batches[batch.BatchID] = batch

	superseded := s.supersedeSiblingsLocked(batch)
	return ports.ApproveOutcome{Batch: batch, Superseded: superseded}, nil
}

func (s *Store) RejectBatch(_ context.Context, batchID string, rejector string, reason string, at time.Time) (entities.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch, exists := s.batches[strings.TrimSpace(batchID)]
	if !exists {
		return entities.Batch{}, domainerrors.ErrBatchNotFound
	}
	if batch.Status == entities.BatchStatusApproved || batch.Status == entities.BatchStatusRejected {
		return entities.Batch{}, fmt.Errorf("%w: batch is %s", domainerrors.ErrInvalidStateTransition, batch.Status)
	}

	rejectedAt := at.UTC()
	batch.Status = entities.BatchStatusRejected
	batch.RejectedBy = rejector
	batch.RejectedAt = &rejectedAt
	batch.RejectReason = reason
	s.batches[batch.BatchID] = batch
	return batch, nil
}

func (s *Store) DeleteBatch(_ context.Context, batchID string) (ports.RollbackOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batchID = strings.TrimSpace(batchID)
	batch, exists := s.batches[batchID]
	if !exists {
		return ports.RollbackOutcome{}, domainerrors.ErrBatchNotFound
	}
	delete(s.batches, batchID)

	kept := s.records[:0]
	deleted := 0
	for _, record := range s.records {
		if record.BatchID == batchID {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	s.records = kept
	return ports.RollbackOutcome{Batch: batch, RowsDeleted: deleted, BatchDeleted: true}, nil
}

func (s *Store) AuthoritativeBatchIDs(_ context.Context, date string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct{ country, slot string }
	latest := make(map[key]entities.Batch)
	for _, batch := range s.batches {
		if batch.Date != date || batch.Status != entities.BatchStatusApproved {
			continue
		}
		k := key{country: batch.Country, slot: batch.Slot}
		current, ok := latest[k]
		if !ok || batch.CreatedAt.After(current.CreatedAt) {
			latest[k] = batch
		}
	}

	ids := make([]string, 0, len(latest))
	for _, batch := range latest {
		ids = append(ids, batch.BatchID)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) AuthoritativeBatch(_ context.Context, date string, country string, slot string) (entities.Batch, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found  bool
		latest entities.Batch
	)
	for _, batch := range s.batches {
		if batch.Date != date || batch.Country != country || batch.Slot != slot ||
			batch.Status != entities.BatchStatusApproved {
			continue
		}
		if !found || batch.CreatedAt.After(latest.CreatedAt) {
			latest = batch
			found = true
		}
	}
	return latest, found, nil
}

func (s *Store) ListRecordsByBatches(_ context.Context, batchIDs []string) ([]entities.RawTurnoverRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(batchIDs))
	for _, id := range batchIDs {
		wanted[id] = struct{}{}
	}
	items := make([]entities.RawTurnoverRecord, 0)
	for _, record := range s.records {
		if _, ok := wanted[record.BatchID]; ok {
			items = append(items, record)
		}
	}
	return items, nil
}

func (s *Store) TopRecords(_ context.Context, batchID string, limit int) ([]entities.RawTurnoverRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.RawTurnoverRecord, 0)
	for _, record := range s.records {
		if record.BatchID == batchID {
			items = append(items, record)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LocalTurnover > items[j].LocalTurnover
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListPlayerRecords(_ context.Context, username string, country string, limit int) ([]entities.RawTurnoverRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lowered := strings.ToLower(strings.TrimSpace(username))
	items := make([]entities.RawTurnoverRecord, 0)
	for _, record := range s.records {
		if strings.ToLower(record.Username) != lowered {
			continue
		}
		if country != "" && record.Country != country {
			continue
		}
		items = append(items, record)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Date != items[j].Date {
			return items[i].Date > items[j].Date
		}
		return items[i].SubmittedAt.After(items[j].SubmittedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) UpsertSyntheticConfig(_ context.Context, config entities.SyntheticConfig) (entities.SyntheticConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lowered := strings.ToLower(config.Username)
	for id, existing := range s.configs {
		if existing.Date == config.Date && existing.Country == config.Country &&
			strings.ToLower(existing.Username) == lowered {
			existing.BoostPct = config.BoostPct
			existing.IsActive = config.IsActive
			existing.Note = config.Note
			s.configs[id] = existing
			return existing, nil
		}
	}
	s.configs[config.ConfigID] = config
	return config, nil
}

func (s *Store) ListSyntheticConfigs(_ context.Context, date string) ([]entities.SyntheticConfig, error) {
	return s.listConfigs(date, false), nil
}

func (s *Store) ListActiveSyntheticConfigs(_ context.Context, date string) ([]entities.SyntheticConfig, error) {
	return s.listConfigs(date, true), nil
}

func (s *Store) listConfigs(date string, activeOnly bool) []entities.SyntheticConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.SyntheticConfig, 0)
	for _, config := range s.configs {
		if config.Date != date {
			continue
		}
		if activeOnly && !config.IsActive {
			continue
		}
		items = append(items, config)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ConfigID < items[j].ConfigID
	})
	return items
}

func (s *Store) DeleteSyntheticConfig(_ context.Context, configID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.configs[configID]; !exists {
		return domainerrors.ErrSyntheticConfigNotFound
	}
	delete(s.configs, configID)
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, outboxRow{
		OutboxMessage: ports.OutboxMessage{
			OutboxID:  envelope.EventID,
			EventType: envelope.EventType,
			Payload:   payload,
			CreatedAt: envelope.OccurredAt,
		},
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]ports.OutboxMessage, 0)
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.OutboxMessage)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.outbox {
		if s.outbox[i].OutboxID == outboxID {
			s.outbox[i].published = true
			return nil
		}
	}
	return domainerrors.ErrBatchNotFound
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now != nil {
		return *s.now
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
