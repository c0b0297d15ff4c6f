package infrastructure

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger("debug", "json", &buf)
	if err != nil {
		t.Fatal(err)
	}
	log.WithField("trigger", "discount_vip").Debug("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %q", buf.String())
	}
	if entry["msg"] != "hello" || entry["trigger"] != "discount_vip" {
		t.Errorf("entry = %v", entry)
	}

	buf.Reset()
	text, err := NewLogger("warn", "text", &buf)
	if err != nil {
		t.Fatal(err)
	}
	text.Info("dropped")
	text.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("level filtering: %q", buf.String())
	}

	if _, err := NewLogger("loud", "text", &buf); err == nil {
		t.Error("expected error for bad level")
	}
	if _, err := NewLogger("info", "xml", &buf); err == nil {
		t.Error("expected error for bad format")
	}
}
