package common

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitializeLogger_ReplacesGlobal(t *testing.T) {
	restore := zap.ReplaceGlobals(zap.NewNop())
	defer restore()

	if zap.L().Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("Expected the no-op logger to be installed before initialization")
	}

	logger, cleanup := InitializeLogger()
	defer cleanup()

	if zap.L() != logger {
		t.Error("Expected InitializeLogger to install its logger globally")
	}
	if !zap.L().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("Expected the global logger to write errors")
	}
}
