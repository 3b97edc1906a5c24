package closers

import (
	"bytes"
	"context"
	"errors"
	"testing"

	should "github.com/stretchr/testify/assert"

	appctx "github.com/unionpay-go/unionpay/context"
	"github.com/unionpay-go/unionpay/logging"
)

type failingCloser struct {
	err    error
	closed bool
}

func (c *failingCloser) Close() error {
	c.closed = true
	return c.err
}

func TestLog(t *testing.T) {
	var buf bytes.Buffer
	ctx := context.WithValue(context.Background(), appctx.LogWriterCTXKey, &buf)
	ctx, _ = logging.SetupLogger(ctx)

	// nil closers are a no-op
	Log(ctx, nil)

	ok := &failingCloser{}
	Log(ctx, ok)
	should.True(t, ok.closed)
	should.Empty(t, buf.String())

	broken := &failingCloser{err: errors.New("flush failed")}
	Log(ctx, broken)
	should.True(t, broken.closed)
	should.Contains(t, buf.String(), "flush failed")
}
