package executor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// QueryEvent describes one driver call.
type QueryEvent struct {
	Kind  domain.StatementKind
	SQL   string
	Args  []any
	Start time.Time
	// Duration, Rows and Err are filled in after the call returns. Rows is the
	// affected row count of a DML statement.
	Duration time.Duration
	Rows     int64
	Err      error
}

// Middleware wraps a driver call. It must call next exactly once unless it
// aborts the call by returning an error of its own.
type Middleware func(ctx context.Context, event *QueryEvent, next func() error) error

// run executes fn through the middleware chain, recording timing and the
// driver error on event.
func run(ctx context.Context, chain []Middleware, event *QueryEvent, fn func() error) error {
	event.Start = time.Now()
	call := func() error {
		err := fn()
		event.Duration = time.Since(event.Start)
		event.Err = err
		return err
	}
	if len(chain) == 0 {
		return call()
	}

	var index int
	var next func() error
	next = func() error {
		if index >= len(chain) {
			return call()
		}
		mw := chain[index]
		index++
		return mw(ctx, event, next)
	}
	return next()
}

// LoggingMiddleware logs every call at debug level and failures at warn.
func LoggingMiddleware(logger zerolog.Logger) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil {
			logger.Warn().Err(err).
				Str("kind", string(event.Kind)).
				Str("sql", event.SQL).
				Dur("duration", event.Duration).
				Msg("statement failed")
			return err
		}
		logger.Debug().
			Str("kind", string(event.Kind)).
			Str("sql", event.SQL).
			Int("args", len(event.Args)).
			Int64("rows", event.Rows).
			Dur("duration", event.Duration).
			Msg("statement executed")
		return nil
	}
}

// TimingMiddleware reports the duration of each call.
func TimingMiddleware(onTiming func(event QueryEvent)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if onTiming != nil {
			onTiming(*event)
		}
		return err
	}
}

// ErrorMiddleware reports failed calls.
func ErrorMiddleware(onError func(sql string, err error)) Middleware {
	return func(ctx context.Context, event *QueryEvent, next func() error) error {
		err := next()
		if err != nil && onError != nil {
			onError(event.SQL, err)
		}
		return err
	}
}
