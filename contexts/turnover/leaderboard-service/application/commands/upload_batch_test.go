package commands

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"turnboard/contexts/turnover/leaderboard-service/adapters/memory"
	"turnboard/contexts/turnover/leaderboard-service/domain/entities"
	domainerrors "turnboard/contexts/turnover/leaderboard-service/domain/errors"
)

func uploadFixture(now time.Time) (*memory.Store, UploadBatchUseCase) {
	store := memory.NewStore(nil, nil)
	store.SetNow(now)
	return store, UploadBatchUseCase{
		Batches: store,
		Outbox:  store,
		Clock:   store,
		IDGen:   store,
	}
}

func TestUploadBatchHappyPath(t *testing.T) {
	now := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	store, uc := uploadFixture(now)

	result, err := uc.Execute(context.Background(), UploadBatchCommand{
		Country:  "br",
		Date:     "2026-03-10",
		SlotKey:  "00_12",
		Uploader: "ops@example.com",
		Rows: []UploadRow{
			{Username: "alice", Turnover: 100},
			{Username: "bob", Turnover: 50.55},
		},
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if result.Inserted != 2 || result.Dropped != 0 {
		t.Fatalf("unexpected counts %+v", result)
	}
	if result.Batch.Country != "BR" {
		t.Fatalf("expected country uppercased, got %q", result.Batch.Country)
	}
	if result.Batch.Status != entities.BatchStatusPending {
		t.Fatalf("expected PENDING, got %s", result.Batch.Status)
	}
	// 150.55 BRL, and /5 in USD
	if result.Batch.TotalLocal != 150.55 || result.Batch.TotalUSD != 30.11 {
		t.Fatalf("unexpected totals local=%v usd=%v", result.Batch.TotalLocal, result.Batch.TotalUSD)
	}

	stored, err := store.GetBatch(context.Background(), result.Batch.BatchID)
	if err != nil {
		t.Fatalf("stored batch missing: %v", err)
	}
	if stored.RowsCount != 2 {
		t.Fatalf("expected 2 rows stored, got %d", stored.RowsCount)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected 1 outbox message, got %d (%v)", len(pending), err)
	}
}

func TestUploadBatchDropsMalformedRows(t *testing.T) {
	now := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	_, uc := uploadFixture(now)

	result, err := uc.Execute(context.Background(), UploadBatchCommand{
		Country: "MX",
		Date:    "2026-03-10",
		SlotKey: "00_06",
		Rows: []UploadRow{
			{Username: "  ", Turnover: 10},
			{Username: "ok", Turnover: math.NaN()},
			{Username: "keep", Turnover: 180},
		},
	})
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if result.Inserted != 1 || result.Dropped != 2 {
		t.Fatalf("unexpected counts %+v", result)
	}
}

func TestUploadBatchValidation(t *testing.T) {
	now := time.Date(2026, time.March, 10, 14, 0, 0, 0, time.UTC)
	_, uc := uploadFixture(now)
	ctx := context.Background()
	rows := []UploadRow{{Username: "alice", Turnover: 10}}

	if _, err := uc.Execute(ctx, UploadBatchCommand{Country: "US", Date: "2026-03-10", SlotKey: "00_12", Rows: rows}); !errors.Is(err, domainerrors.ErrInvalidCountry) {
		t.Fatalf("expected ErrInvalidCountry, got %v", err)
	}
	if _, err := uc.Execute(ctx, UploadBatchCommand{Country: "BR", Date: "10-03-2026", SlotKey: "00_12", Rows: rows}); !errors.Is(err, domainerrors.ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := uc.Execute(ctx, UploadBatchCommand{Country: "BR", Date: "2026-03-10", SlotKey: "00_13", Rows: rows}); !errors.Is(err, domainerrors.ErrUnknownSlot) {
		t.Fatalf("expected ErrUnknownSlot, got %v", err)
	}
	if _, err := uc.Execute(ctx, UploadBatchCommand{Country: "BR", Date: "2026-03-10", SlotKey: "IMPORT_USD", Rows: rows}); !errors.Is(err, domainerrors.ErrUnknownSlot) {
		t.Fatalf("expected import slot rejected on live uploads, got %v", err)
	}
	if _, err := uc.Execute(ctx, UploadBatchCommand{Country: "BR", Date: "2026-03-10", SlotKey: "00_12", Rows: []UploadRow{{Username: "", Turnover: 1}}}); !errors.Is(err, domainerrors.ErrNoValidRows) {
		t.Fatalf("expected ErrNoValidRows, got %v", err)
	}
}
