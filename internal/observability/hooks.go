package observability

import "time"

// Hooks captures kernel-level signals. Implementations must be safe for
// concurrent use.
type Hooks interface {
	ObserveMutation(namespace, verb, status string, dur time.Duration)
	IncConflict(namespace string)
	IncReplay(namespace string)
}

// NoopHooks discards every signal.
type NoopHooks struct{}

func (NoopHooks) ObserveMutation(string, string, string, time.Duration) {}
func (NoopHooks) IncConflict(string)                                     {}
func (NoopHooks) IncReplay(string)                                       {}

// OrNoop returns h, or NoopHooks when h is nil.
func OrNoop(h Hooks) Hooks {
	if h == nil {
		return NoopHooks{}
	}
	return h
}
