package version

import "testing"

func TestString(t *testing.T) {
	Version, Commit, Date = "v1.2.3", "abc1234", "2026-05-01"
	t.Cleanup(func() { Version, Commit, Date = "dev", "unknown", "unknown" })

	if got := String(); got != "v1.2.3 (abc1234, 2026-05-01)" {
		t.Errorf("String() = %q", got)
	}
}
