package fetch

import (
	"time"
)

type attemptOutcome int

const (
	attemptCompleted attemptOutcome = iota
	attemptThrottled
	attemptFailed
)

func classifyAttempt(response *Response, err error) attemptOutcome {
	switch {
	case err != nil:
		return attemptFailed
	case isThrottled(response.StatusCode):
		return attemptThrottled
	default:
		return attemptCompleted
	}
}

// retryState counts attempts and decides whether and how long to wait before the next one.
type retryState struct {
	attempt  int
	attempts int
}

func newRetryState(attempts int) *retryState {
	return &retryState{attempt: 1, attempts: attempts}
}

func (s *retryState) next(outcome attemptOutcome) (time.Duration, bool) {
	if outcome == attemptCompleted || s.attempt >= s.attempts {
		return 0, false
	}

	delay := retryDelay(outcome, s.attempt)
	s.attempt++
	return delay, true
}

func retryDelay(outcome attemptOutcome, attempt int) time.Duration {
	if outcome == attemptThrottled {
		return 2 * time.Duration(attempt) * time.Second
	}
	return time.Second
}
