package version

import "testing"

func TestStringPrefersInjectedVersion(t *testing.T) {
	defer func(v string) { Version = v }(Version)
	Version = "v1.2.3"
	if got := String(); got != "v1.2.3" {
		t.Errorf("String() = %q, want the injected version", got)
	}
}

func TestStringNeverEmpty(t *testing.T) {
	defer func(v string) { Version = v }(Version)
	Version = ""
	// test binaries carry no VCS stamp, so this exercises the fallbacks
	if got := String(); got == "" {
		t.Error("String() returned an empty version")
	}
}
