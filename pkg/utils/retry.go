package utils

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type temporary interface {
	Temporary() bool
}

// IsRetriable reports whether err is a transient transport failure: grpc
// Unavailable, a network timeout, or an error flagging itself Temporary
// (kafka-go protocol errors do).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if s, ok := status.FromError(err); ok && s.Code() == codes.Unavailable {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var tmp temporary
	if errors.As(err, &tmp) {
		return tmp.Temporary()
	}
	return false
}

func RetryWithBackoff[T any](
	ctx context.Context,
	maxRetries int,
	baseDelay time.Duration,
	fn func() (T, error),
) (T, error) {
	var zero T
	if maxRetries <= 0 {
		return zero, fmt.Errorf("maxRetries must be > 0, got %d", maxRetries)
	}
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetriable(err) {
			return zero, err
		}

		if i < maxRetries-1 {
			var jitter time.Duration
			if baseDelay > 0 {
				jitter = time.Duration(rand.Int63n(int64(baseDelay))) //nolint:gosec // jitter doesn't need crypto rand
			}
			delay := time.Duration(math.Pow(2, float64(i)))*baseDelay + jitter
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", maxRetries, lastErr)
}

type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

type CircuitBreaker struct {
	mu               sync.Mutex
	state            CircuitState
	failureCount     int
	failureThreshold int
	resetTimeout     time.Duration
	lastFailureTime  time.Time
}

func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.state == StateOpen {
		if time.Since(cb.lastFailureTime) > cb.resetTimeout {
			cb.state = StateHalfOpen
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failureCount++
		cb.lastFailureTime = time.Now()
		if cb.state == StateHalfOpen || cb.failureCount >= cb.failureThreshold {
			cb.state = StateOpen
		}
		return err
	}

	cb.failureCount = 0
	cb.state = StateClosed
	return nil
}

func RetryWithCircuitBreaker[T any](
	ctx context.Context,
	cb *CircuitBreaker,
	maxRetries int,
	baseDelay time.Duration,
	fn func() (T, error),
) (T, error) {
	wrappedFn := func() (T, error) {
		var result T
		var fnErr error
		cbErr := cb.Execute(func() error {
			result, fnErr = fn()
			return fnErr
		})
		if cbErr != nil && !errors.Is(cbErr, fnErr) {
			return result, cbErr
		}
		return result, fnErr
	}
	return RetryWithBackoff(ctx, maxRetries, baseDelay, wrappedFn)
}
