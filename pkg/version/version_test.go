package version

import (
	"strings"
	"testing"
)

func TestString_StartsWithVersion(t *testing.T) {
	if got := String(); !strings.HasPrefix(got, Version) {
		t.Errorf("String() = %q, want prefix %q", got, Version)
	}
}
