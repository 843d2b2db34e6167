package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestNewLoggerTagsServiceAndRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{ServiceName: "site", Environment: "test", Level: "warn", Output: &buf})

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}

	logger.Warn("kept", "k", "v")
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line: %v", err)
	}
	if line["service"] != "site" || line["env"] != "test" || line["msg"] != "kept" {
		t.Fatalf("unexpected log line: %v", line)
	}
}
