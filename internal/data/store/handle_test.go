package store

import (
	"errors"
	"testing"

	"gorm.io/gorm"
)

func TestHandleRuntimeBuildsOnce(t *testing.T) {
	h := &Handle{DB: &gorm.DB{}}
	builds := 0
	build := func(*Handle) (any, error) {
		builds++
		return &builds, nil
	}
	first, err := h.Runtime(build)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := h.Runtime(build)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if builds != 1 || first != second {
		t.Fatalf("runtime rebuilt: builds=%d", builds)
	}
}

func TestHandleRuntimeRequiresDB(t *testing.T) {
	var nilHandle *Handle
	if _, err := nilHandle.Runtime(func(*Handle) (any, error) { return nil, nil }); !errors.Is(err, ErrNoDB) {
		t.Fatalf("nil handle: %v", err)
	}
	if _, err := (&Handle{}).Runtime(func(*Handle) (any, error) { return nil, nil }); !errors.Is(err, ErrNoDB) {
		t.Fatalf("handle without db: %v", err)
	}
}
