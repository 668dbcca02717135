package hostdescriptor

import (
	"strings"
	"testing"
)

func TestDescribeIncludesEveryAxis(t *testing.T) {
	desc := Describe()
	for _, want := range []string{"os=", "arch=", "libc=", "bitness="} {
		if !strings.Contains(desc, want) {
			t.Fatalf("Describe() = %q, missing %q", desc, want)
		}
	}
}

func TestCurrentIsCached(t *testing.T) {
	a := Current()
	b := Current()
	if a != b {
		t.Fatalf("expected Current() to be stable across calls: %+v vs %+v", a, b)
	}
}
