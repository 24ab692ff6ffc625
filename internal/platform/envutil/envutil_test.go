package envutil

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("LS_TEST_INT", "42")
	t.Setenv("LS_TEST_BAD_INT", "x")
	t.Setenv("LS_TEST_BOOL", "yes")
	t.Setenv("LS_TEST_SECS", "90")
	t.Setenv("LS_TEST_LIST", " a, ,b ")
	t.Setenv("LS_TEST_BLANK", "  ")

	if got := Int("LS_TEST_INT", 1); got != 42 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Int("LS_TEST_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got %d", got)
	}
	if !Bool("LS_TEST_BOOL", false) {
		t.Fatalf("Bool: expected true")
	}
	if got := Seconds("LS_TEST_SECS", time.Second); got != 90*time.Second {
		t.Fatalf("Seconds: got %v", got)
	}
	if got := List("LS_TEST_LIST", nil); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("List: got %#v", got)
	}
	if got := String("LS_TEST_BLANK", "def"); got != "def" {
		t.Fatalf("String blank: got %q", got)
	}
	if got := String("LS_TEST_MISSING", "def"); got != "def" {
		t.Fatalf("String missing: got %q", got)
	}
}
