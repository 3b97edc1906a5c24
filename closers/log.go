package closers

import (
	"context"
	"io"

	loggingutils "github.com/unionpay-go/unionpay/logging"
)

// Log calls Close on the specified closer, logging on error
func Log(ctx context.Context, c io.Closer) {
	logger := loggingutils.Logger(ctx, "closers.Log")
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Error().Err(err).Msg("error attempting to close")
	}
}
