package logger

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"testing"
)

func TestLoggerFunctionsCalled(t *testing.T) {
	var buf bytes.Buffer

	// Reset singleton
	logger = nil
	once = sync.Once{}

	// Redirect package logger to buffer
	logger = log.New(&buf, "", log.LstdFlags|log.Lshortfile)

	Info("info message")
	Warn("warn message")
	Error("error message")
	Debug("debug message %d", 42)

	output := buf.String()
	for _, want := range []string{"INFO: info message", "WARN: warn message", "ERROR: error message", "DEBUG: debug message 42"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output: %s", want, output)
		}
	}
	if !strings.Contains(output, "logger_test.go") {
		t.Errorf("expected caller file in output, got: %s", output)
	}
}

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	Info("redirected")

	if !strings.Contains(buf.String(), "redirected") {
		t.Errorf("expected redirected output, got: %s", buf.String())
	}
	if Writer() != &buf {
		t.Errorf("expected Writer to return the configured output")
	}
}
