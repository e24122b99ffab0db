package envconfig

import (
	"log/slog"
	"testing"
)

func TestLogLevelDefaultsToInfo(t *testing.T) {
	t.Setenv("INFERCORE_DEBUG", "")
	if got := LogLevel(); got != slog.LevelInfo {
		t.Fatalf("LogLevel() = %v, want Info", got)
	}
}

func TestLogLevelParsesBooleanAndNumeric(t *testing.T) {
	t.Setenv("INFERCORE_DEBUG", "true")
	if got := LogLevel(); got != slog.LevelDebug {
		t.Fatalf("LogLevel() = %v, want Debug", got)
	}

	t.Setenv("INFERCORE_DEBUG", "2")
	if got := LogLevel(); got != slog.Level(-8) {
		t.Fatalf("LogLevel() = %v, want -8 (trace)", got)
	}
}

func TestBoolWithDefaultFallsBackWhenUnset(t *testing.T) {
	t.Setenv("INFERCORE_TEST_FLAG", "")
	get := BoolWithDefault("INFERCORE_TEST_FLAG")
	if get(true) != true {
		t.Fatalf("expected default true when unset")
	}
}

func TestUintWarnsAndFallsBackOnParseFailure(t *testing.T) {
	t.Setenv("INFERCORE_TEST_WIDTH", "not-a-number")
	get := Uint("INFERCORE_TEST_WIDTH", 1024)
	if got := get(); got != 1024 {
		t.Fatalf("Uint() = %d, want 1024 fallback", got)
	}
}

func TestVarTrimsWhitespaceAndQuotes(t *testing.T) {
	t.Setenv("INFERCORE_TEST_VAR", `  "hello"  `)
	if got := Var("INFERCORE_TEST_VAR"); got != "hello" {
		t.Fatalf("Var() = %q, want %q", got, "hello")
	}
}

func TestAsMapIncludesDomainFlags(t *testing.T) {
	m := AsMap()
	for _, key := range []string{
		"INFERCORE_DEBUG", "INFERCORE_PRESERVE_VRAM", "INFERCORE_BLOCK_SWAP",
		"INFERCORE_TILED_VAE", "INFERCORE_TARGET_WIDTH", "INFERCORE_BATCH_SIZE",
		"INFERCORE_TEMPORAL_OVERLAP", "INFERCORE_GPU_OVERHEAD",
	} {
		if _, ok := m[key]; !ok {
			t.Errorf("AsMap() missing %s", key)
		}
	}
}
