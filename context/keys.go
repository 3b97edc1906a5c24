package context

import "errors"

// CTXKey - a type for context keys
type CTXKey string

const (
	// EnvironmentCTXKey - the key used for the running environment
	EnvironmentCTXKey CTXKey = "environment"
	// DebugLoggingCTXKey - context key for debug logging
	DebugLoggingCTXKey CTXKey = "debug_logging"
	// LogLevelCTXKey - context key for application logging level
	LogLevelCTXKey CTXKey = "log_level"
	// LogWriterCTXKey - context key for overriding the log writer
	LogWriterCTXKey CTXKey = "log_writer"
	// LoggerCTXKey - context key for the logger itself
	LoggerCTXKey CTXKey = "logger"

	// VersionCTXKey - context key for version of code
	VersionCTXKey CTXKey = "version"
	// CommitCTXKey - context key for the commit of the code
	CommitCTXKey CTXKey = "commit"
	// BuildTimeCTXKey - context key for the build time of code
	BuildTimeCTXKey CTXKey = "build_time"

	// UnionPayClientCTXKey - context key for a constructed gateway client
	UnionPayClientCTXKey CTXKey = "unionpay_client"
	// UnionPayServerCTXKey - context key for a gateway origin override
	UnionPayServerCTXKey CTXKey = "unionpay_server"
	// MerchantIDCTXKey - context key for the merchant identifier
	MerchantIDCTXKey CTXKey = "merchant_id"
)

var (
	// ErrNotInContext - error you get when you ask for something not in the context.
	ErrNotInContext = errors.New("failed to get value from context")
	// ErrValueWrongType - error you get when you ask for something, and it is not the type you expected
	ErrValueWrongType = errors.New("context value of wrong type")
)
