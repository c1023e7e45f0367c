package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"turnboard/contexts/turnover/leaderboard-service/adapters/memory"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

func reviewFixture(now time.Time, batches ...entities.Batch) (*memory.Store, ReviewBatchUseCase) {
	store := memory.NewStore(batches, nil)
	store.SetNow(now)
	return store, ReviewBatchUseCase{
		Batches: store,
		Outbox:  store,
		Clock:   store,
		IDGen:   store,
	}
}

func pendingBatch(id string, createdAt time.Time) entities.Batch {
	return entities.Batch{
		BatchID: id, CreatedAt: createdAt, Country: "BR", Slot: "00_12",
		Date: "2026-03-10", Status: entities.BatchStatusPending,
	}
}

func TestApproveSupersedesPendingSiblings(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	older := pendingBatch("older", now.Add(-time.Hour))
	newer := pendingBatch("newer", now)
	store, uc := reviewFixture(now, older, newer)

	outcome, err := uc.Approve(context.Background(), ApproveBatchCommand{BatchID: "newer", Verifier: "admin@example.com"})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if outcome.Superseded != 1 {
		t.Fatalf("expected 1 superseded sibling, got %d", outcome.Superseded)
	}
	if outcome.Batch.Status != entities.BatchStatusApproved || outcome.Batch.VerifiedBy != "admin@example.com" {
		t.Fatalf("unexpected approved batch %+v", outcome.Batch)
	}

	sibling, _ := store.GetBatch(context.Background(), "older")
	if sibling.Status != entities.BatchStatusSuperseded {
		t.Fatalf("expected sibling SUPERSEDED, got %s", sibling.Status)
	}
}

func TestApproveIsIdempotent(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	store, uc := reviewFixture(now, pendingBatch("b1", now))

	if _, err := uc.Approve(context.Background(), ApproveBatchCommand{BatchID: "b1", Verifier: "one"}); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	outcome, err := uc.Approve(context.Background(), ApproveBatchCommand{BatchID: "b1", Verifier: "two"})
	if err != nil {
		t.Fatalf("second approve failed: %v", err)
	}
	if !outcome.AlreadyApproved {
		t.Fatalf("expected AlreadyApproved")
	}
	stored, _ := store.GetBatch(context.Background(), "b1")
	if stored.VerifiedBy != "one" {
		t.Fatalf("re-approval must not overwrite the verifier, got %q", stored.VerifiedBy)
	}
}

func TestApproveRejectedBatchFails(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	_, uc := reviewFixture(now, pendingBatch("b1", now))

	if _, err := uc.Reject(context.Background(), RejectBatchCommand{BatchID: "b1", Rejector: "mod", Reason: "bad data"}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if _, err := uc.Approve(context.Background(), ApproveBatchCommand{BatchID: "b1", Verifier: "admin"}); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestApproveDemotesPriorApprovedSibling(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	first := pendingBatch("first", now.Add(-time.Hour))
	second := pendingBatch("second", now)
	store, uc := reviewFixture(now, first, second)
	ctx := context.Background()

	if _, err := uc.Approve(ctx, ApproveBatchCommand{BatchID: "first", Verifier: "admin"}); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}
	outcome, err := uc.Approve(ctx, ApproveBatchCommand{BatchID: "second", Verifier: "admin"})
	if err != nil {
		t.Fatalf("second approve failed: %v", err)
	}
	if outcome.Superseded != 1 {
		t.Fatalf("expected the prior approval counted as superseded, got %d", outcome.Superseded)
	}

	// at most one APPROVED batch per (date, country, slot) at any instant
	prior, _ := store.GetBatch(ctx, "first")
	if prior.Status != entities.BatchStatusSuperseded {
		t.Fatalf("expected first SUPERSEDED after approving second, got %s", prior.Status)
	}
	approved := 0
	batches, _ := store.ListBatches(ctx, ports.BatchFilter{Date: "2026-03-10"})
	for _, batch := range batches {
		if batch.Status == entities.BatchStatusApproved {
			approved++
		}
	}
	if approved != 1 {
		t.Fatalf("expected exactly one APPROVED batch for the key, got %d", approved)
	}
}

func TestApproveSupersededBatchIsAllowed(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	older := pendingBatch("older", now.Add(-time.Hour))
	newer := pendingBatch("newer", now)
	store, uc := reviewFixture(now, older, newer)
	ctx := context.Background()

	if _, err := uc.Approve(ctx, ApproveBatchCommand{BatchID: "newer", Verifier: "admin"}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	// a superseded batch can still be promoted later, demoting the current one
	outcome, err := uc.Approve(ctx, ApproveBatchCommand{BatchID: "older", Verifier: "admin"})
	if err != nil {
		t.Fatalf("approve of superseded batch failed: %v", err)
	}
	if outcome.Batch.Status != entities.BatchStatusApproved {
		t.Fatalf("expected APPROVED, got %s", outcome.Batch.Status)
	}
	demoted, _ := store.GetBatch(ctx, "newer")
	if demoted.Status != entities.BatchStatusSuperseded {
		t.Fatalf("expected newer demoted to SUPERSEDED, got %s", demoted.Status)
	}
	// the re-approved batch is now the only APPROVED one, so it is authoritative
	batch, found, err := store.AuthoritativeBatch(ctx, "2026-03-10", "BR", "00_12")
	if err != nil || !found || batch.BatchID != "older" {
		t.Fatalf("expected older authoritative, got %q found=%v err=%v", batch.BatchID, found, err)
	}
}

func TestRejectRequiresReason(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	_, uc := reviewFixture(now, pendingBatch("b1", now))

	if _, err := uc.Reject(context.Background(), RejectBatchCommand{BatchID: "b1", Rejector: "mod", Reason: "  "}); !errors.Is(err, domainerrors.ErrRejectReasonRequired) {
		t.Fatalf("expected ErrRejectReasonRequired, got %v", err)
	}
}

func TestRejectApprovedBatchFails(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	_, uc := reviewFixture(now, pendingBatch("b1", now))

	if _, err := uc.Approve(context.Background(), ApproveBatchCommand{BatchID: "b1", Verifier: "admin"}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if _, err := uc.Reject(context.Background(), RejectBatchCommand{BatchID: "b1", Rejector: "mod", Reason: "late"}); !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
}

func TestReviewUnknownBatch(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	_, uc := reviewFixture(now)

	if _, err := uc.Approve(context.Background(), ApproveBatchCommand{BatchID: "ghost", Verifier: "admin"}); !errors.Is(err, domainerrors.ErrBatchNotFound) {
		t.Fatalf("expected ErrBatchNotFound, got %v", err)
	}
}
