package version

import "testing"

func TestString(t *testing.T) {
	if got, want := String(), "posetrack dev (unknown, built unknown)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
