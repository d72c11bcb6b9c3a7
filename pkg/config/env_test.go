package config

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("BURSAR_OPT", "")
	if got := GetEnv("BURSAR_OPT", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %s", got)
	}
	t.Setenv("BURSAR_OPT", "set")
	if got := GetEnv("BURSAR_OPT", "fallback"); got != "set" {
		t.Fatalf("expected set, got %s", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("BURSAR_NUM", "")
	if got := GetEnvInt("BURSAR_NUM", 25); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	t.Setenv("BURSAR_NUM", "50")
	if got := GetEnvInt("BURSAR_NUM", 25); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
	t.Setenv("BURSAR_NUM", "notint")
	if got := GetEnvInt("BURSAR_NUM", 7); got != 7 {
		t.Fatalf("expected 7 on parse error, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("BURSAR_FLAG", "")
	if got := GetEnvBool("BURSAR_FLAG", true); got != true {
		t.Fatalf("expected true default, got %v", got)
	}
	t.Setenv("BURSAR_FLAG", "false")
	if got := GetEnvBool("BURSAR_FLAG", true); got != false {
		t.Fatalf("expected false, got %v", got)
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if GetLogLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level")
	}
	t.Setenv("LOG_LEVEL", "warn")
	if GetLogLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level")
	}
	t.Setenv("LOG_LEVEL", "")
	if GetLogLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level by default")
	}
}

func TestLoadEnv_NoFile(t *testing.T) {
	// Should not panic or error; just log debug
	logger := logrus.New()
	LoadEnv(logger)
}
