package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	quiet, err := New(false)
	if err != nil {
		t.Fatalf("New(false) failed: %v", err)
	}
	if quiet.Desugar().Core().Enabled(zap.DebugLevel) {
		t.Error("non-verbose logger has debug enabled")
	}

	verbose, err := New(true)
	if err != nil {
		t.Fatalf("New(true) failed: %v", err)
	}
	if !verbose.Desugar().Core().Enabled(zap.DebugLevel) {
		t.Error("verbose logger has debug disabled")
	}
}

func TestNewTestLogger_Records(t *testing.T) {
	log, recorded := NewTestLogger()
	log.Debugw("hello", "k", 1)

	if recorded.FilterMessage("hello").Len() != 1 {
		t.Error("expected one recorded entry")
	}
}
