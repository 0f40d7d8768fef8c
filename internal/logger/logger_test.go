package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer

	l := New("debug", &buf)
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level, got %s", l.GetLevel())
	}
	l.Debugf("hello %s", "kitchen")
	if !strings.Contains(buf.String(), "hello kitchen") {
		t.Errorf("expected debug output, got %q", buf.String())
	}

	l = New("nonsense", &buf)
	if l.GetLevel() != logrus.InfoLevel {
		t.Errorf("expected fallback to info, got %s", l.GetLevel())
	}
}

func TestNewOff(t *testing.T) {
	var buf bytes.Buffer
	l := New("off", &buf)
	l.Error("should not appear")
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}
