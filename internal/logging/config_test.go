package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestConfigForProfiles(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogTimestamp, "")
	t.Setenv(EnvLogNoColor, "")

	if diff := cmp.Diff(Config{Level: zerolog.WarnLevel, Timestamp: true}, ConfigFor(ProfileRuntime)); diff != "" {
		t.Fatalf("runtime config mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(Config{Level: zerolog.DebugLevel, NoColor: true}, ConfigFor(ProfileTest)); diff != "" {
		t.Fatalf("test config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigForEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "Debug")
	t.Setenv(EnvLogTimestamp, "false")
	t.Setenv(EnvLogNoColor, "1")

	want := Config{Level: zerolog.DebugLevel, Timestamp: false, NoColor: true}
	if diff := cmp.Diff(want, ConfigFor(ProfileRuntime)); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigForIgnoresInvalidEnv(t *testing.T) {
	t.Setenv(EnvLogLevel, "loud")
	t.Setenv(EnvLogTimestamp, "sometimes")
	t.Setenv(EnvLogNoColor, "")

	if got := ConfigFor(ProfileRuntime); got.Level != zerolog.WarnLevel || !got.Timestamp {
		t.Fatalf("invalid values should keep defaults, got %+v", got)
	}
}

func TestNewWithConfigFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithConfig("formstate", Config{Level: zerolog.WarnLevel, NoColor: true}, &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("field", "email").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	for _, part := range []string{"WRN", "shown", "app=formstate", "field=email"} {
		if !strings.Contains(out, part) {
			t.Fatalf("expected %q in %q", part, out)
		}
	}
}
