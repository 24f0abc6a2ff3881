package utils

import (
	"testing"
	"time"
)

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("ERPK_TEST_INT", "notanint")
	if got := GetEnvAsInt("ERPK_TEST_INT", 7, nil); got != 7 {
		t.Fatalf("int fallback: want=7 got=%d", got)
	}
	if got := GetEnv("ERPK_TEST_MISSING_KEY", "dflt", nil); got != "dflt" {
		t.Fatalf("string fallback: want=dflt got=%q", got)
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("ERPK_TEST_DUR", "90")
	if got := GetEnvAsDuration("ERPK_TEST_DUR", time.Minute, nil); got != 90*time.Second {
		t.Fatalf("seconds form: want=90s got=%s", got)
	}
	t.Setenv("ERPK_TEST_DUR", "2h")
	if got := GetEnvAsDuration("ERPK_TEST_DUR", time.Minute, nil); got != 2*time.Hour {
		t.Fatalf("duration form: want=2h got=%s", got)
	}
	t.Setenv("ERPK_TEST_DUR", "soon")
	if got := GetEnvAsDuration("ERPK_TEST_DUR", time.Minute, nil); got != time.Minute {
		t.Fatalf("fallback: want=1m got=%s", got)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("ERPK_TEST_BOOL", "true")
	if !GetEnvAsBool("ERPK_TEST_BOOL", false, nil) {
		t.Fatalf("expected true")
	}
	t.Setenv("ERPK_TEST_BOOL", "maybe")
	if GetEnvAsBool("ERPK_TEST_BOOL", false, nil) {
		t.Fatalf("expected default false on parse error")
	}
}
