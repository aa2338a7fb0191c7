package support

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TUBESCOUT_TEST_ENV", "value")
	if got := GetEnv("TUBESCOUT_TEST_ENV", "fallback"); got != "value" {
		t.Fatalf("GetEnv returned %s, want value", got)
	}

	if got := GetEnv("TUBESCOUT_TEST_ENV_MISSING", "fallback"); got != "fallback" {
		t.Fatalf("GetEnv returned %s, want fallback", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("TUBESCOUT_TEST_BOOL", "true")
	if got := GetEnvBool("TUBESCOUT_TEST_BOOL", false); got != true {
		t.Fatalf("GetEnvBool returned %t, want true", got)
	}

	t.Setenv("TUBESCOUT_TEST_BOOL", "false")
	if got := GetEnvBool("TUBESCOUT_TEST_BOOL", true); got != false {
		t.Fatalf("GetEnvBool returned %t, want false", got)
	}

	if got := GetEnvBool("TUBESCOUT_TEST_BOOL_MISSING", true); got != true {
		t.Fatalf("GetEnvBool returned %t, want true fallback", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("TUBESCOUT_TEST_INT", "42")
	if got := GetEnvInt("TUBESCOUT_TEST_INT", 7); got != 42 {
		t.Fatalf("GetEnvInt returned %d, want 42", got)
	}

	t.Setenv("TUBESCOUT_TEST_INT", "not-a-number")
	if got := GetEnvInt("TUBESCOUT_TEST_INT", 7); got != 7 {
		t.Fatalf("GetEnvInt returned %d, want 7 fallback", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("TUBESCOUT_TEST_DURATION", "250ms")
	if got := GetEnvDuration("TUBESCOUT_TEST_DURATION", time.Second); got != 250*time.Millisecond {
		t.Fatalf("GetEnvDuration returned %s, want 250ms", got)
	}

	if got := GetEnvDuration("TUBESCOUT_TEST_DURATION_MISSING", time.Second); got != time.Second {
		t.Fatalf("GetEnvDuration returned %s, want 1s fallback", got)
	}
}
