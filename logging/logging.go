package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"

	appctx "github.com/unionpay-go/unionpay/context"
)

var (
	// we are not promising to get every log message in the log, when it
	// comes down to it we would rather the client runs than fails on log
	// writing contention. This counter shows how many logs we dropped.
	droppedLogTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dropped_log_events_total",
			Help: "A counter for the number of dropped log messages",
		},
	)
	// Writer is the destination the process logger writes to
	Writer io.WriteCloser
)

func init() {
	prometheus.MustRegister(droppedLogTotal)
}

// NopCloser wraps a writer with a no-op Close
func NopCloser(w io.Writer) io.WriteCloser {
	return nopCloser{w}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// SetupLoggerWithLevel - helper to setup a logger and associate with context with a given log level
func SetupLoggerWithLevel(ctx context.Context, level zerolog.Level) (context.Context, *zerolog.Logger) {
	ctx = context.WithValue(ctx, appctx.LogLevelCTXKey, level)
	return SetupLogger(ctx)
}

// SetupLogger - helper to setup a logger and associate with context
func SetupLogger(ctx context.Context) (context.Context, *zerolog.Logger) {
	writer, ok := ctx.Value(appctx.LogWriterCTXKey).(io.Writer)

	env, err := appctx.GetStringFromContext(ctx, appctx.EnvironmentCTXKey)
	if err != nil {
		// if not in context, default to local
		env = "local"
	}

	// defaults to info level
	level, _ := appctx.GetLogLevelFromContext(ctx, appctx.LogLevelCTXKey)

	if ok {
		Writer = NopCloser(writer)
	} else if env != "local" {
		// this log writer uses a ring buffer and drops messages that cannot be processed
		// in a timely manner
		Writer = diode.NewWriter(os.Stdout, 1000, time.Duration(20*time.Millisecond), func(missed int) {
			droppedLogTotal.Add(float64(missed))
		})
	} else {
		Writer = NopCloser(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	l := zerolog.New(Writer).With().Timestamp().Logger().Level(level)

	// debug override
	if debug, ok := ctx.Value(appctx.DebugLoggingCTXKey).(bool); ok && debug {
		l = l.Level(zerolog.DebugLevel)
	}

	return l.WithContext(ctx), &l
}

// UpdateContext associates the passed logger with the context
func UpdateContext(ctx context.Context, logger zerolog.Logger) (context.Context, *zerolog.Logger) {
	ctx = logger.WithContext(ctx)
	return ctx, &logger
}

// Logger - get a logger scoped to a module prefix
func Logger(ctx context.Context, prefix string) *zerolog.Logger {
	l, err := appctx.GetLogger(ctx)
	if err != nil {
		// create a new logger
		_, l = SetupLogger(ctx)
	}
	sl := l.With().Str("module", prefix).Logger()
	return &sl
}

// FromContext - retrieves logger from context or gets a new logger if not present
func FromContext(ctx context.Context) *zerolog.Logger {
	logger, err := appctx.GetLogger(ctx)
	if err != nil {
		_, logger = SetupLogger(ctx)
	}
	return logger
}

// LogAndError - helper to log and error
func LogAndError(logger *zerolog.Logger, msg string, err error) error {
	if logger != nil {
		logger.Error().Err(err).Msg(msg)
	}
	return err
}
