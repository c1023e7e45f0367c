package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type UploadRowDTO struct {
	Username string  `json:"username"`
	Turnover float64 `json:"turnover"`
}

type UploadBatchRequest struct {
	Country string         `json:"country"`
	Date    string         `json:"date"`
	Slot    string         `json:"slot"`
	Note    string         `json:"note"`
	Rows    []UploadRowDTO `json:"rows"`
}

type UploadBatchResponse struct {
	Batch    BatchDTO `json:"batch"`
	Inserted int      `json:"inserted"`
	Dropped  int      `json:"dropped"`
}

type ApproveBatchResponse struct {
	Batch           BatchDTO `json:"batch"`
	Superseded      int      `json:"superseded"`
	AlreadyApproved bool     `json:"already_approved"`
}

type RejectBatchRequest struct {
	Reason string `json:"reason"`
}

type RejectBatchResponse struct {
	Batch BatchDTO `json:"batch"`
}

type RollbackBatchResponse struct {
	Batch       BatchDTO `json:"batch"`
	RowsDeleted int      `json:"rows_deleted"`
	Deleted     bool     `json:"deleted"`
}

type BatchDTO struct {
	BatchID      string  `json:"batch_id"`
	CreatedAt    string  `json:"created_at"`
	Uploader     string  `json:"uploader"`
	Country      string  `json:"country"`
	Slot         string  `json:"slot"`
	Date         string  `json:"date"`
	RowsCount    int     `json:"rows_count"`
	TotalLocal   float64 `json:"total_local"`
	TotalUSD     float64 `json:"total_usd"`
	Note         string  `json:"note,omitempty"`
	Status       string  `json:"status"`
	VerifiedBy   string  `json:"verified_by,omitempty"`
	VerifiedAt   string  `json:"verified_at,omitempty"`
	RejectedBy   string  `json:"rejected_by,omitempty"`
	RejectedAt   string  `json:"rejected_at,omitempty"`
	RejectReason string  `json:"reject_reason,omitempty"`
}

type ListBatchesResponse struct {
	Items []BatchDTO `json:"items"`
}

type RecordDTO struct {
	Username      string  `json:"username"`
	Country       string  `json:"country"`
	Date          string  `json:"date"`
	Slot          string  `json:"slot"`
	LocalTurnover float64 `json:"local_turnover"`
	SubmittedAt   string  `json:"submitted_at"`
	BatchID       string  `json:"batch_id"`
}

type BatchDetailsResponse struct {
	Batch       BatchDTO    `json:"batch"`
	Current     *BatchDTO   `json:"current,omitempty"`
	RowsNew     []RecordDTO `json:"rows_new"`
	RowsCurrent []RecordDTO `json:"rows_current,omitempty"`
}

type LeaderboardEntryDTO struct {
	Rank        int     `json:"rank"`
	Country     string  `json:"country"`
	Username    string  `json:"username"`
	USDTurnover float64 `json:"usd_turnover"`
	IsFake      bool    `json:"is_fake,omitempty"`
}

type LeaderboardResponse struct {
	Date    string                `json:"date"`
	Entries []LeaderboardEntryDTO `json:"entries"`
}

type DailySnapshotDTO struct {
	Date     string                `json:"date"`
	TotalUSD float64               `json:"total_usd"`
	Players  int                   `json:"players"`
	Top20    []LeaderboardEntryDTO `json:"top20"`
}

type ChartPointDTO struct {
	Date     string  `json:"date"`
	TotalUSD float64 `json:"total_usd"`
}

type OverallPlayerDTO struct {
	Rank        int     `json:"rank"`
	Username    string  `json:"username"`
	Country     string  `json:"country"`
	TotalUSD    float64 `json:"total_usd"`
	DaysInTop20 int     `json:"days_in_top20"`
}

type StatsResponse struct {
	Mode              string             `json:"mode"`
	Country           string             `json:"country"`
	BaseDate          string             `json:"base_date"`
	FromDate          string             `json:"from_date"`
	ToDate            string             `json:"to_date"`
	ChartSeries       []ChartPointDTO    `json:"chart_series"`
	PerDay            []DailySnapshotDTO `json:"per_day"`
	TopPlayersOverall []OverallPlayerDTO `json:"top_players_overall"`
	TopPlayer         *OverallPlayerDTO  `json:"top_player,omitempty"`
	MostConsistent    *OverallPlayerDTO  `json:"most_consistent,omitempty"`
}

type UpsertSyntheticRequest struct {
	Date     string  `json:"date"`
	Country  string  `json:"country"`
	Username string  `json:"username"`
	BoostPct float64 `json:"boost_pct"`
	IsActive *bool   `json:"is_active"`
	Note     string  `json:"note"`
}

type SyntheticConfigDTO struct {
	ConfigID  string  `json:"config_id"`
	Date      string  `json:"date"`
	Country   string  `json:"country"`
	Username  string  `json:"username"`
	BoostPct  float64 `json:"boost_pct"`
	IsActive  bool    `json:"is_active"`
	Note      string  `json:"note,omitempty"`
	CreatedBy string  `json:"created_by,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type UpsertSyntheticResponse struct {
	Config SyntheticConfigDTO `json:"config"`
}

type ListSyntheticResponse struct {
	Items []SyntheticConfigDTO `json:"items"`
}

type PlayerHistoryResponse struct {
	Username string      `json:"username"`
	Items    []RecordDTO `json:"items"`
}

type ImportRowDTO struct {
	Date     string  `json:"date"`
	Username string  `json:"username"`
	USD      float64 `json:"usd"`
	Country  string  `json:"country"`
}

type ImportHistoryRequest struct {
	Rows      []ImportRowDTO `json:"rows"`
	Overwrite bool           `json:"overwrite"`
}

type ImportHistoryResponse struct {
	Batches  []BatchDTO `json:"batches"`
	Inserted int        `json:"inserted"`
}
