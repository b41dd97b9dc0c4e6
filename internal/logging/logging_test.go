package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ndewijer/Finance-Ledger-Backend/internal/config"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	logger.WithField("account", "abc").Debug("recomputed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["account"] != "abc" {
		t.Errorf("account field = %v, want abc", entry["account"])
	}
	if entry["level"] != "debug" {
		t.Errorf("level = %v, want debug", entry["level"])
	}
}

func TestNewWithOutput_UnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithOutput(config.LogConfig{Level: "loud"}, &buf)

	if logger.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %v, want info", logger.GetLevel())
	}
}
