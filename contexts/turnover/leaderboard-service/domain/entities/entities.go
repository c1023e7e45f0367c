package entities

import (
	"strings"
	"time"
)

type BatchStatus string

const (
	BatchStatusPending    BatchStatus = "PENDING"
	BatchStatusApproved   BatchStatus = "APPROVED"
	BatchStatusRejected   BatchStatus = "REJECTED"
	BatchStatusSuperseded BatchStatus = "SUPERSEDED"
)

// Batch is one uploaded set of raw turnover rows for a (date, country, slot).
// At most one batch per key is APPROVED at any instant; the latest-created
// APPROVED batch is the authoritative source for published output.
type Batch struct {
	BatchID      string
	CreatedAt    time.Time
	Uploader     string
	Country      string
	Slot         string
	Date         string
	RowsCount    int
	TotalLocal   float64
	TotalUSD     float64
	Note         string
	Status       BatchStatus
	VerifiedBy   string
	VerifiedAt   *time.Time
	RejectedBy   string
	RejectedAt   *time.Time
	RejectReason string
}

// RawTurnoverRecord is immutable once written. Records disappear only when
// their whole batch is rolled back.
type RawTurnoverRecord struct {
	RecordID      string
	Country       string
	Date          string
	SlotKey       string
	Username      string
	LocalTurnover float64
	SubmittedAt   time.Time
	BatchID       string
}

// SyntheticConfig describes a configured non-real leaderboard entry,
// unique per (date, country, username).
type SyntheticConfig struct {
	ConfigID  string
	Date      string
	Country   string
	Username  string
	BoostPct  float64
	IsActive  bool
	Note      string
	CreatedBy string
	CreatedAt time.Time
}

func (c SyntheticConfig) ValidateUpsert() bool {
	return strings.TrimSpace(c.Date) != "" &&
		strings.TrimSpace(c.Username) != "" &&
		c.BoostPct > 0
}

// LeaderboardEntry is derived, never persisted.
type LeaderboardEntry struct {
	Rank        int
	Country     string
	Username    string
	USDTurnover float64
	IsFake      bool
}

// DailySnapshot is the fully resolved view of one day: authoritative batches
// aggregated, normalized, ranked, and with synthetic entries injected.
type DailySnapshot struct {
	Date     string
	TotalUSD float64
	Players  []LeaderboardEntry
	Top20    []LeaderboardEntry
}
