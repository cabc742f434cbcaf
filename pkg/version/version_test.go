package version

import (
	"strings"
	"testing"
)

func TestVersionString(t *testing.T) {
	v := Version{Major: "1", Minor: "2", Patch: "3", Metadata: "rc1", Build: "abcdef"}
	if got, want := v.String(), "Version: 1.2.3-rc1\nBuild: abcdef"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestBuildInfoStartsWithGoVersion(t *testing.T) {
	if !strings.HasPrefix(BuildInfo(), "go") && !strings.HasPrefix(BuildInfo(), "devel") {
		t.Fatalf("unexpected build info %q", BuildInfo())
	}
}
