package observabilitytest

import (
	"sync"
	"time"

	"github.com/yungbote/erpkernel/internal/observability"
)

// HooksRecorder captures kernel hook signals in tests.
type HooksRecorder struct {
	mu sync.Mutex

	Mutations []MutationEvent
	Conflicts []string
	Replays   []string
}

type MutationEvent struct {
	Namespace string
	Verb      string
	Status    string
	Duration  time.Duration
}

var _ observability.Hooks = (*HooksRecorder)(nil)

func (h *HooksRecorder) ObserveMutation(namespace, verb, status string, dur time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Mutations = append(h.Mutations, MutationEvent{
		Namespace: namespace,
		Verb:      verb,
		Status:    status,
		Duration:  dur,
	})
}

func (h *HooksRecorder) IncConflict(namespace string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Conflicts = append(h.Conflicts, namespace)
}

func (h *HooksRecorder) IncReplay(namespace string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Replays = append(h.Replays, namespace)
}

// Statuses returns the recorded mutation statuses in call order.
func (h *HooksRecorder) Statuses() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.Mutations))
	for _, m := range h.Mutations {
		out = append(out, m.Status)
	}
	return out
}
