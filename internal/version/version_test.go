package version

import (
	"strings"
	"testing"
)

func TestInitLeavesNoEmptyValues(t *testing.T) {
	if Version == "" {
		t.Error("Version is empty after init")
	}
	if Commit == "" {
		t.Error("Commit is empty after init")
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.Contains(full, Version) || !strings.Contains(full, Commit) {
		t.Errorf("Full() = %q, should contain version %q and commit %q", full, Version, Commit)
	}
}
