// Package store assembles the storage-side collaborators a kernel call runs
// against: the gorm connection, the receipt cache, hooks and the policy gate.
package store

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
	"github.com/yungbote/erpkernel/internal/observability"
	"github.com/yungbote/erpkernel/internal/pkg/logger"
)

// Handle is shared by every MutationContext built for one process. All fields
// except DB are optional and must not change after the first kernel call.
type Handle struct {
	DB  *gorm.DB
	Log *logger.Logger
	// Cache fronts the idempotency table for replays.
	Cache ReceiptCache
	Hooks observability.Hooks
	// Policy authorizes mutations. A nil policy denies every mutation.
	Policy mutation.PolicyGate
	// Now overrides the clock used for provenance timestamps.
	Now func() time.Time

	runtimeOnce sync.Once
	runtime     any
	runtimeErr  error
}

var ErrNoDB = errors.New("store handle has no database")

func (h *Handle) Validate() error {
	if h == nil || h.DB == nil {
		return ErrNoDB
	}
	return nil
}

// Logger returns the handle's logger or a no-op logger.
func (h *Handle) Logger() *logger.Logger {
	if h == nil || h.Log == nil {
		return logger.Nop()
	}
	return h.Log
}

// Clock returns the configured time source, defaulting to time.Now.
func (h *Handle) Clock() func() time.Time {
	if h == nil || h.Now == nil {
		return time.Now
	}
	return h.Now
}

// Runtime returns what build produced on the first call for this handle. Later
// calls share that value and its error.
func (h *Handle) Runtime(build func(*Handle) (any, error)) (any, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	h.runtimeOnce.Do(func() {
		h.runtime, h.runtimeErr = build(h)
	})
	return h.runtime, h.runtimeErr
}
