package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("PCMM_TEST_STR", "  value ")
	t.Setenv("PCMM_TEST_INT", "42")
	t.Setenv("PCMM_TEST_BAD_INT", "x")
	t.Setenv("PCMM_TEST_BOOL", "yes")
	t.Setenv("PCMM_TEST_DUR", "90s")
	t.Setenv("PCMM_TEST_SECS", "5")
	t.Setenv("PCMM_TEST_FLOAT", "0.25")

	if got := String("PCMM_TEST_STR", "def"); got != "value" {
		t.Fatalf("String: got=%q", got)
	}
	if got := String("PCMM_TEST_MISSING", "def"); got != "def" {
		t.Fatalf("String default: got=%q", got)
	}
	if got := Int("PCMM_TEST_INT", 1); got != 42 {
		t.Fatalf("Int: got=%d", got)
	}
	if got := Int("PCMM_TEST_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got=%d", got)
	}
	if !Bool("PCMM_TEST_BOOL", false) {
		t.Fatalf("Bool: want true")
	}
	if got := Duration("PCMM_TEST_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("Duration: got=%s", got)
	}
	if got := Duration("PCMM_TEST_SECS", time.Second); got != 5*time.Second {
		t.Fatalf("Duration seconds: got=%s", got)
	}
	if got := Float("PCMM_TEST_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: got=%v", got)
	}
	if got := Float("PCMM_TEST_STR", 0.5); got != 0.5 {
		t.Fatalf("Float fallback: got=%v", got)
	}
}
