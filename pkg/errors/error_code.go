package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidBar           ErrorCode = 102
	ErrCodeEmptyBarSequence     ErrorCode = 103
	ErrCodeNonMonotonicBars     ErrorCode = 104
	ErrCodeInvalidPeriod        ErrorCode = 105
	ErrCodeInvalidType          ErrorCode = 106
	ErrCodeMissingParameter     ErrorCode = 107
	ErrCodeInvalidMultiplier    ErrorCode = 108
	ErrCodeInvalidVersion       ErrorCode = 109
	ErrCodeInvalidTimeframe     ErrorCode = 110

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeInsufficientData      ErrorCode = 203

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeInvalidStrategy      ErrorCode = 400
	ErrCodeInvalidCondition     ErrorCode = 401
	ErrCodeInvalidSizeFraction  ErrorCode = 402
	ErrCodeIneligiblePair       ErrorCode = 403
	ErrCodeUnknownComparator    ErrorCode = 404
	ErrCodeConditionCompilation ErrorCode = 405

	// Ledger errors (500-599)
	ErrCodeLedgerViolation     ErrorCode = 500
	ErrCodePositionNotFound    ErrorCode = 501
	ErrCodePositionAlreadyOpen ErrorCode = 502
	ErrCodeDoubleClose         ErrorCode = 503
	ErrCodeNegativeVolume      ErrorCode = 504

	// Run errors (600-699)
	ErrCodeRunNotInitialized ErrorCode = 600
	ErrCodeRunAlreadyStarted ErrorCode = 601
	ErrCodeRunFailed         ErrorCode = 602
	ErrCodeRunCancelled      ErrorCode = 603
	ErrCodeAnomalyThreshold  ErrorCode = 604
	ErrCodeRunFinalized      ErrorCode = 605
)
