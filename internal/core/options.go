package core

import "log/slog"

// DefaultQueueLimit bounds each machine's trigger queue.
const DefaultQueueLimit = 256

// Option configures a Registry via the functional options pattern.
type Option func(*Registry)

// WithClock sets the millisecond clock used to anchor do-activity schedules.
func WithClock(c Clock) Option {
	return func(r *Registry) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithRunRequester sets the receiver of run requests.
func WithRunRequester(req RunRequester) Option {
	return func(r *Registry) {
		if req != nil {
			r.requester = req
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithQueueLimit bounds every machine's trigger queue; 0 means unbounded.
func WithQueueLimit(n int) Option {
	return func(r *Registry) {
		if n >= 0 {
			r.queueLimit = n
		}
	}
}

// WithStateChangeHook registers fn to run after every state change. It runs
// on the dispatch goroutine, after the new state's entry actions.
func WithStateChangeHook(fn func(StateChange)) Option {
	return func(r *Registry) {
		if fn != nil {
			r.hooks = append(r.hooks, fn)
		}
	}
}
