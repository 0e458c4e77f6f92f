package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"nonsense", zapcore.InfoLevel},
	} {
		l, err := New(tc.in)
		if err != nil {
			t.Fatalf("New(%q): %v", tc.in, err)
		}
		if !l.Desugar().Core().Enabled(tc.want) {
			t.Fatalf("New(%q): level %s not enabled", tc.in, tc.want)
		}
		if tc.want > zapcore.DebugLevel && l.Desugar().Core().Enabled(tc.want-1) {
			t.Fatalf("New(%q): level below %s should be disabled", tc.in, tc.want)
		}
	}
}

func TestAlert_TagsEntries(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core).Sugar()

	Alert(base, "settlement.fatal").Errorw("boom", "repayment_id", "R1")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("want 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.LoggerName != "settlement.fatal" {
		t.Fatalf("logger name = %q", e.LoggerName)
	}
	if v, ok := e.ContextMap()["alert"]; !ok || v != true {
		t.Fatalf("alert field missing: %+v", e.ContextMap())
	}
}
