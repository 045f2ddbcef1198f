package version

import (
	"strings"
	"testing"
)

func TestGetString(t *testing.T) {
	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.3"

	got := Get().String()
	if !strings.HasPrefix(got, "fractal v1.2.3") {
		t.Fatalf("String()=%q", got)
	}
	if !strings.Contains(got, "go") {
		t.Fatalf("String() should include the go version: %q", got)
	}
}
