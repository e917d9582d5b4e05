package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidWindow        ErrorCode = 102
	ErrCodeInvalidField         ErrorCode = 103
	ErrCodeInvalidSide          ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeDataParseFailed       ErrorCode = 203
	ErrCodeOutOfOrderData        ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound    ErrorCode = 300
	ErrCodeIndicatorUnavailable ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError ErrorCode = 400
	ErrCodeStopLossRequired    ErrorCode = 401
	ErrCodeATRRequired         ErrorCode = 402
	ErrCodeInvalidSizing       ErrorCode = 403
	ErrCodeInvalidOffset       ErrorCode = 404

	// Position errors (500-599)
	ErrCodePositionNotFound      ErrorCode = 500
	ErrCodePositionAlreadyClosed ErrorCode = 501
	ErrCodeInsufficientFunds     ErrorCode = 502

	// Engine errors (600-699)
	ErrCodeEngineConfigError  ErrorCode = 600
	ErrCodeEngineInitFailed   ErrorCode = 601
	ErrCodeEngineNoStrategies ErrorCode = 602
	ErrCodeEngineNoDatasource ErrorCode = 603
	ErrCodeEngineNoResultsDir ErrorCode = 604
)
