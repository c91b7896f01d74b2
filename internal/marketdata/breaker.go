package marketdata

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calling the quote upstream after threshold consecutive
// failures and lets a single trial call through once resetTimeout has passed.
type CircuitBreaker struct {
	mu            sync.Mutex
	state         State
	failureCount  int
	threshold     int
	resetTimeout  time.Duration
	lastFailure   time.Time
	trialInFlight bool
	// errors that are valid answers, e.g. an unknown symbol
	excluded []error
	now      func() time.Time
	logger   *zap.Logger
}

func NewCircuitBreaker(threshold int, timeout time.Duration, logger *zap.Logger, excluded ...error) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:    threshold,
		resetTimeout: timeout,
		state:        StateClosed,
		excluded:     excluded,
		now:          time.Now,
		logger:       logger,
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Execute(action func() error) error {
	trial := false
	cb.mu.Lock()
	switch cb.state {
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) <= cb.resetTimeout {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.logger.Info("circuit transitioning to half-open")
		cb.state = StateHalfOpen
		cb.trialInFlight = true
		trial = true
	case StateHalfOpen:
		// only the trial call goes through until it reports back
		if cb.trialInFlight {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
		cb.trialInFlight = true
		trial = true
	}
	cb.mu.Unlock()

	err := action()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if trial {
		cb.trialInFlight = false
	}

	if err != nil && !cb.isExcluded(err) {
		cb.failureCount++
		cb.lastFailure = cb.now()
		cb.logger.Warn("upstream failure detected",
			zap.Error(err),
			zap.Int("failures", cb.failureCount),
			zap.Int("threshold", cb.threshold))
		if cb.state == StateHalfOpen || cb.failureCount >= cb.threshold {
			if cb.state != StateOpen {
				cb.logger.Error("failure threshold reached, circuit open")
			}
			cb.state = StateOpen
		}
		return err
	}

	if cb.state == StateHalfOpen {
		cb.logger.Info("success in half-open, circuit closed")
		cb.state = StateClosed
	}
	cb.failureCount = 0
	return err
}

func (cb *CircuitBreaker) isExcluded(err error) bool {
	for _, target := range cb.excluded {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
