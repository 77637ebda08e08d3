package ttp

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// StatusDone is the sole success terminal reported by the platform. Codes
// below it mean the job is still running; anything else is a failure.
const StatusDone = 6

// ErrExpired reports that the overall polling deadline passed before the
// job reached a terminal status.
var ErrExpired = errors.New("ttp: polling deadline expired")

// StatusError reports a terminal non-success status for a job. Codes below
// 100 are flagged as a protocol-level anomaly rather than an error the
// platform reported about the job itself.
type StatusError struct {
	JobID string
	Code  int
}

func (e *StatusError) Error() string {
	msg := "error on platform side"
	if e.Code < 100 {
		msg = "unexpected process status"
	}
	return fmt.Sprintf("[status_code: %d] %s for process_id=%s", e.Code, msg, e.JobID)
}

// StatusChecker is the status half of the platform client, split out so the
// poller can be driven by a fake in tests.
type StatusChecker interface {
	Status(ctx context.Context, jobID string) (int, error)
}

// JobState is one state of the polling machine.
type JobState int

const (
	StateSubmitted JobState = iota
	StatePolling
	StateDone
	StateFailed
	StateExpired
)

func (s JobState) String() string {
	switch s {
	case StateSubmitted:
		return "submitted"
	case StatePolling:
		return "polling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	case StateExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Poller drives a submitted job to a terminal state by checking its status
// on a fixed interval. Timeout bounds the total polling duration so a job
// the platform never finishes cannot suspend the caller indefinitely.
type Poller struct {
	Interval time.Duration
	Timeout  time.Duration
}

// Await blocks until the job completes, fails, expires, or the context is
// cancelled. It returns the terminal state reached, with a nil error exactly
// when the platform reported StatusDone.
func (p Poller) Await(ctx context.Context, checker StatusChecker, jobID string) (JobState, error) {
	var deadline time.Time
	if p.Timeout > 0 {
		deadline = time.Now().Add(p.Timeout)
	}

	timer := time.NewTimer(p.Interval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	state := StateSubmitted
	for {
		switch state {
		case StateSubmitted, StatePolling:
			// Never wait past the deadline: a wait longer than the remaining
			// budget would sneak in one status check after expiry.
			wait := p.Interval
			if !deadline.IsZero() {
				remaining := time.Until(deadline)
				if remaining <= 0 {
					state = StateExpired
					continue
				}
				if remaining < wait {
					wait = remaining
				}
			}

			timer.Reset(wait)
			select {
			case <-ctx.Done():
				return StateFailed, ctx.Err()
			case <-timer.C:
			}
			if !deadline.IsZero() && !time.Now().Before(deadline) {
				state = StateExpired
				continue
			}

			code, err := checker.Status(ctx, jobID)
			if err != nil {
				return StateFailed, fmt.Errorf("check status of process_id=%s: %w", jobID, err)
			}

			switch {
			case code == StatusDone:
				state = StateDone
			case code < StatusDone:
				state = StatePolling
			default:
				return StateFailed, &StatusError{JobID: jobID, Code: code}
			}

		case StateDone:
			return StateDone, nil

		case StateExpired:
			return StateExpired, ErrExpired
		}
	}
}
