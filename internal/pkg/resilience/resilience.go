package resilience

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"github.com/tablecast/signage/internal/pkg/apperr"
	"github.com/tablecast/signage/internal/pkg/metrics"
	"go.uber.org/zap"
)

// Options configures a Policy.
type Options struct {
	Name            string
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
	Logger          *zap.Logger
}

// Policy retries transient failures with exponential backoff behind a
// circuit breaker. Exhausted retries and an open circuit both surface as
// apperr.KindUpstream.
type Policy struct {
	name        string
	maxAttempts int
	initial     time.Duration
	max         time.Duration
	breaker     *gobreaker.CircuitBreaker
	logger      *zap.Logger
}

func New(opts Options) *Policy {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 200 * time.Millisecond
	}
	if opts.MaxInterval < opts.InitialInterval {
		opts.MaxInterval = opts.InitialInterval
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("resilience").With(zap.String("policy", opts.Name))

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsPermanent(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit state changed", zap.String("from", from.String()), zap.String("to", to.String()))
			metrics.SetBreakerState(name, float64(to))
		},
	})

	return &Policy{
		name:        opts.Name,
		maxAttempts: opts.MaxAttempts,
		initial:     opts.InitialInterval,
		max:         opts.MaxInterval,
		breaker:     breaker,
		logger:      logger,
	}
}

// Name returns the policy name.
func (p *Policy) Name() string { return p.name }

// Do runs fn until it succeeds, returns a permanent error, or the attempt
// budget is spent.
func (p *Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initial
	b.MaxInterval = p.max
	b.MaxElapsedTime = 0
	var policy backoff.BackOff = backoff.WithMaxRetries(b, uint64(p.maxAttempts-1))
	policy = backoff.WithContext(policy, ctx)

	attempts := 0
	op := func() error {
		attempts++
		_, err := p.breaker.Execute(func() (interface{}, error) {
			return nil, fn(ctx)
		})
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(apperr.Upstream(http.StatusServiceUnavailable, fmt.Sprintf("%s unavailable: circuit open", p.name), err))
		case IsPermanent(err):
			return backoff.Permanent(err)
		default:
			return err
		}
	}
	notify := func(err error, wait time.Duration) {
		p.logger.Debug("retrying", zap.Int("attempt", attempts), zap.Duration("wait", wait), zap.Error(err))
	}

	err := backoff.RetryNotify(op, policy, notify)
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return apperr.Upstream(0, fmt.Sprintf("%s: %v", p.name, ctxErr), err)
	}
	return apperr.Upstream(0, fmt.Sprintf("%s failed after %d attempts", p.name, attempts), err)
}

// IsPermanent reports errors that retrying cannot fix.
func IsPermanent(err error) bool {
	appErr, ok := apperr.As(err)
	if !ok {
		return false
	}
	switch appErr.Kind {
	case apperr.KindValidation, apperr.KindAuth, apperr.KindForbidden,
		apperr.KindNotFound, apperr.KindConflict, apperr.KindParse:
		return true
	case apperr.KindUpstream:
		// 4xx other than 408/429 means the request itself is wrong.
		return appErr.Status >= 400 && appErr.Status < 500 &&
			appErr.Status != http.StatusRequestTimeout && appErr.Status != http.StatusTooManyRequests
	default:
		return false
	}
}
