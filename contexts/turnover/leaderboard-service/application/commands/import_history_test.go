package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"turnboard/contexts/turnover/leaderboard-service/adapters/memory"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
	"turnboard/contexts/turnover/leaderboard-service/domain/slots"
	"turnboard/contexts/turnover/leaderboard-service/ports"
)

func importFixture(now time.Time) (*memory.Store, ImportHistoryUseCase) {
	store := memory.NewStore(nil, nil)
	store.SetNow(now)
	return store, ImportHistoryUseCase{Batches: store, Clock: store, IDGen: store}
}

func TestImportHistoryGroupsByDateAndCountry(t *testing.T) {
	now := time.Date(2026, time.March, 10, 16, 0, 0, 0, time.UTC)
	store, uc := importFixture(now)

	result, err := uc.Execute(context.Background(), ImportHistoryCommand{
		Importer: "admin@example.com",
		Rows: []ImportRow{
			{Date: "2026-03-01", Country: "BR", Username: "alice", USD: 10},
			{Date: "2026-03-01", Country: "BR", Username: "bob", USD: 5},
			{Date: "2026-03-01", Country: "MX", Username: "carla", USD: 7},
			{Date: "2026-03-02", Country: "BR", Username: "alice", USD: 12},
		},
	})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if len(result.Batches) != 3 || result.Inserted != 4 {
		t.Fatalf("unexpected result %+v", result)
	}

	for _, batch := range result.Batches {
		if batch.Slot != slots.ImportSlot {
			t.Fatalf("expected import slot, got %q", batch.Slot)
		}
		if batch.Status != entities.BatchStatusApproved {
			t.Fatalf("imports must land auto-approved, got %s", batch.Status)
		}
		if batch.VerifiedBy != "admin@example.com" {
			t.Fatalf("unexpected verifier %q", batch.VerifiedBy)
		}
	}

	// imported rows are immediately authoritative
	ids, err := store.AuthoritativeBatchIDs(context.Background(), "2026-03-01")
	if err != nil || len(ids) != 2 {
		t.Fatalf("expected 2 authoritative batches for 2026-03-01, got %d (%v)", len(ids), err)
	}
}

func TestImportHistoryStrictValidation(t *testing.T) {
	now := time.Date(2026, time.March, 10, 16, 0, 0, 0, time.UTC)
	store, uc := importFixture(now)
	ctx := context.Background()

	_, err := uc.Execute(ctx, ImportHistoryCommand{Rows: []ImportRow{
		{Date: "2026-03-01", Country: "BR", Username: "alice", USD: 10},
		{Date: "bad", Country: "BR", Username: "bob", USD: 5},
	}})
	if !errors.Is(err, domainerrors.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}

	// nothing may be written when any row fails
	batches, _ := store.ListBatches(ctx, ports.BatchFilter{})
	if len(batches) != 0 {
		t.Fatalf("expected no partial writes, got %d batches", len(batches))
	}

	if _, err := uc.Execute(ctx, ImportHistoryCommand{}); !errors.Is(err, domainerrors.ErrNoValidRows) {
		t.Fatalf("expected ErrNoValidRows on empty import, got %v", err)
	}
	_, err = uc.Execute(ctx, ImportHistoryCommand{Rows: []ImportRow{
		{Date: "2026-03-01", Country: "US", Username: "alice", USD: 10},
	}})
	if !errors.Is(err, domainerrors.ErrInvalidCountry) {
		t.Fatalf("expected ErrInvalidCountry, got %v", err)
	}
}

func TestImportHistoryOverwriteReplacesPriorImport(t *testing.T) {
	now := time.Date(2026, time.March, 10, 16, 0, 0, 0, time.UTC)
	store, uc := importFixture(now)
	ctx := context.Background()

	first, err := uc.Execute(ctx, ImportHistoryCommand{Rows: []ImportRow{
		{Date: "2026-03-01", Country: "BR", Username: "alice", USD: 10},
	}})
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	store.SetNow(now.Add(time.Hour))
	_, err = uc.Execute(ctx, ImportHistoryCommand{
		Overwrite: true,
		Rows: []ImportRow{
			{Date: "2026-03-01", Country: "BR", Username: "alice", USD: 25},
		},
	})
	if err != nil {
		t.Fatalf("overwrite import failed: %v", err)
	}

	if _, err := store.GetBatch(ctx, first.Batches[0].BatchID); !errors.Is(err, domainerrors.ErrBatchNotFound) {
		t.Fatalf("expected prior import batch removed, got %v", err)
	}
	ids, _ := store.AuthoritativeBatchIDs(ctx, "2026-03-01")
	if len(ids) != 1 {
		t.Fatalf("expected exactly one authoritative import batch, got %d", len(ids))
	}
}

func TestImportHistoryRepeatImportSupersedesPrior(t *testing.T) {
	now := time.Date(2026, time.March, 10, 16, 0, 0, 0, time.UTC)
	store, uc := importFixture(now)
	ctx := context.Background()

	first, err := uc.Execute(ctx, ImportHistoryCommand{Rows: []ImportRow{
		{Date: "2026-03-01", Country: "BR", Username: "alice", USD: 10},
	}})
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	store.SetNow(now.Add(time.Hour))
	second, err := uc.Execute(ctx, ImportHistoryCommand{Rows: []ImportRow{
		{Date: "2026-03-01", Country: "BR", Username: "alice", USD: 25},
	}})
	if err != nil {
		t.Fatalf("second import failed: %v", err)
	}

	// without overwrite the old rows stay, but only the new batch may hold
	// APPROVED for the (date, country, IMPORT_USD) key
	prior, err := store.GetBatch(ctx, first.Batches[0].BatchID)
	if err != nil {
		t.Fatalf("prior import batch missing: %v", err)
	}
	if prior.Status != entities.BatchStatusSuperseded {
		t.Fatalf("expected prior import SUPERSEDED, got %s", prior.Status)
	}
	ids, _ := store.AuthoritativeBatchIDs(ctx, "2026-03-01")
	if len(ids) != 1 || ids[0] != second.Batches[0].BatchID {
		t.Fatalf("expected only the new import authoritative, got %v", ids)
	}
}
