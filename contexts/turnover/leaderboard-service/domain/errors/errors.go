package errors

import "errors"

var (
	ErrBatchNotFound           = errors.New("batch not found")
	ErrInvalidStateTransition  = errors.New("invalid batch status transition")
	ErrInvalidCountry          = errors.New("invalid country")
	ErrInvalidDate             = errors.New("invalid date")
	ErrUnknownSlot             = errors.New("unknown slot key")
	ErrNoValidRows             = errors.New("no valid rows")
	ErrRejectReasonRequired    = errors.New("reject reason is required")
	ErrInvalidSyntheticConfig  = errors.New("invalid synthetic participant config")
	ErrSyntheticConfigNotFound = errors.New("synthetic participant config not found")
	ErrInvalidStatsMode        = errors.New("invalid stats mode")
	ErrUsernameRequired        = errors.New("username is required")
)
