package requestutils

import (
	"context"
	"io"
	"net/http"

	"github.com/unionpay-go/unionpay/closers"
	errorutils "github.com/unionpay-go/unionpay/errors"
)

type requestID string

var (
	// gateway responses are small form bodies, a 1MB ceiling is generous
	payloadLimit1MB = int64(1024 * 1024)
	// RequestIDHeaderKey is the request header key
	RequestIDHeaderKey = "x-request-id"
	// RequestID holds the type for request ids
	RequestID = requestID(RequestIDHeaderKey)
)

// ReadWithLimit reads an io reader with a limit and closes
func ReadWithLimit(ctx context.Context, body io.Reader, limit int64) ([]byte, error) {
	if c, ok := body.(io.Closer); ok {
		defer closers.Panic(ctx, c)
	}
	return io.ReadAll(io.LimitReader(body, limit))
}

// Read an io reader
func Read(ctx context.Context, body io.Reader) ([]byte, error) {
	b, err := ReadWithLimit(ctx, body, payloadLimit1MB)
	if err != nil {
		return nil, errorutils.Wrap(err, "error reading body")
	}
	return b, nil
}

// SetRequestID transfers a request id from a context to a request header
func SetRequestID(ctx context.Context, r *http.Request) {
	id := GetRequestID(ctx)
	if id != "" {
		r.Header.Set(RequestIDHeaderKey, id)
	}
}

// GetRequestID gets the request id
func GetRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(RequestID).(string); ok {
		return reqID
	}
	return ""
}
