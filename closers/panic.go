package closers

import (
	"context"
	"errors"
	"io"

	"github.com/unionpay-go/unionpay/logging"
)

// Panic calls Close on the specified closer, panicking on error
func Panic(ctx context.Context, c io.Closer) {
	logger := logging.Logger(ctx, "closers.Panic")
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		logger.Error().Err(err).Msg("error attempting to close")
		if errors.Is(err, context.Canceled) || err.Error() == "context canceled" {
			// the http client context timeout manifests here when the
			// body stream is not consumed in time, not worth a panic
			return
		}
		panic(err.Error())
	}
}
