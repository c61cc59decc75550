package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter       ErrorCode = 100
	ErrCodeInvalidConfiguration   ErrorCode = 101
	ErrCodeMissingParameter       ErrorCode = 102
	ErrCodeInvalidVersion         ErrorCode = 103
	ErrCodeSimulationPrecondition ErrorCode = 104
	ErrCodeInvalidExitLegs        ErrorCode = 105
	ErrCodeLegSumExceeded         ErrorCode = 106

	// Document errors (200-299)
	ErrCodeMalformedDocument     ErrorCode = 200
	ErrCodeMalformedTradeSegment ErrorCode = 201
	ErrCodeNoTrades              ErrorCode = 202
	ErrCodeNumericCoercion       ErrorCode = 203

	// Storage errors (300-399)
	ErrCodeLedgerReadFailed  ErrorCode = 300
	ErrCodeLedgerWriteFailed ErrorCode = 301
	ErrCodeBackupFailed      ErrorCode = 302

	// Cache errors (400-499)
	ErrCodeCacheRefreshFailed ErrorCode = 400
	ErrCodeCacheEmpty         ErrorCode = 401
)
