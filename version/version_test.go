package version

import (
	"runtime/debug"
	"testing"
)

func TestFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	got := fromBuildInfo(Info{Version: "1.4.0"}, bi)
	if got.Commit != "0123456" || !got.Dirty || got.GoVersion != "go1.26.0" {
		t.Errorf("unexpected info %+v", got)
	}
	if s := got.String(); s != "1.4.0-0123456-dirty" {
		t.Errorf("String() = %q", s)
	}
}

func TestFromBuildInfo_LinkerCommitWins(t *testing.T) {
	bi := &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "fedcba9876"}}}
	got := fromBuildInfo(Info{Version: "1.4.0", Commit: "abc1234"}, bi)
	if got.Commit != "abc1234" {
		t.Errorf("commit = %q, want linker value", got.Commit)
	}
}

func TestInfo_String(t *testing.T) {
	tests := []struct {
		info Info
		want string
	}{
		{Info{Version: "dev"}, "dev"},
		{Info{Version: "1.0.0", Commit: "abc1234"}, "1.0.0-abc1234"},
	}
	for _, tc := range tests {
		if got := tc.info.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestGet_DefaultsToDev(t *testing.T) {
	if got := Get(); got.Version != Version {
		t.Errorf("Version = %q, want %q", got.Version, Version)
	}
}
