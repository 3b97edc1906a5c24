package context

import (
	"context"

	"github.com/rs/zerolog"
)

// GetStringFromContext - given a CTXKey return the string value from the context if it exists
func GetStringFromContext(ctx context.Context, key CTXKey) (string, error) {
	v := ctx.Value(key)
	if v == nil {
		// value not on context
		return "", ErrNotInContext
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	// value not a string
	return "", ErrValueWrongType
}

// GetBoolFromContext - given a CTXKey return the bool value from the context if it exists
func GetBoolFromContext(ctx context.Context, key CTXKey) (bool, error) {
	v := ctx.Value(key)
	if v == nil {
		return false, ErrNotInContext
	}
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, ErrValueWrongType
}

// GetLogLevelFromContext - return the log level from the context if it exists
func GetLogLevelFromContext(ctx context.Context, key CTXKey) (zerolog.Level, error) {
	v := ctx.Value(key)
	if v == nil {
		// defaults to info level
		return zerolog.InfoLevel, ErrNotInContext
	}
	if l, ok := v.(zerolog.Level); ok {
		return l, nil
	}
	return zerolog.InfoLevel, ErrValueWrongType
}

// GetLogger - return the logger value from the context if it exists
func GetLogger(ctx context.Context) (*zerolog.Logger, error) {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l, nil
	}
	v := ctx.Value(LoggerCTXKey)
	if v == nil {
		// value not on context
		return nil, ErrNotInContext
	}
	if l, ok := v.(*zerolog.Logger); ok {
		return l, nil
	}
	return nil, ErrValueWrongType
}
