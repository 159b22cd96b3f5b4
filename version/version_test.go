package version

import (
	"runtime"
	"strings"
	"testing"
)

func saveAndRestore() func() {
	v, c, b := Version, GitCommit, BuildTime
	return func() { Version, GitCommit, BuildTime = v, c, b }
}

func TestGetVersionInfoDefaults(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit, BuildTime = "dev", "", ""

	info := GetVersionInfo()
	if info.Version != "dev" {
		t.Errorf("expected dev, got %s", info.Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected %s, got %s", runtime.Version(), info.GoVersion)
	}
}

func TestGetVersionInfoTruncatesCommit(t *testing.T) {
	defer saveAndRestore()()
	GitCommit = "0123456789abcdef"

	if got := GetVersionInfo().GitCommit; got != "0123456" {
		t.Errorf("expected 0123456, got %s", got)
	}
}

func TestGetShortVersionWithCommit(t *testing.T) {
	defer saveAndRestore()()
	Version, GitCommit = "v1.2.0", "abc1234"

	if got := GetShortVersion(); !strings.HasPrefix(got, "v1.2.0-abc1234") {
		t.Errorf("unexpected short version %s", got)
	}
}

func TestUserAgent(t *testing.T) {
	defer saveAndRestore()()
	Version = "v1.2.0"

	want := "repoauth/v1.2.0 (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
	if got := UserAgent(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
