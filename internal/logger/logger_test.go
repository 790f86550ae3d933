package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{FormatJSON, `"msg":"opened bundle"`},
		{FormatText, `msg="opened bundle"`},
		{FormatPretty, "opened bundle"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		log, err := New(tt.format, slog.LevelInfo, &buf)
		if err != nil {
			t.Fatalf("New(%q): %v", tt.format, err)
		}
		log.Info("opened bundle", "resources", 3)
		if !strings.Contains(buf.String(), tt.want) {
			t.Fatalf("format %s: output %q does not contain %q", tt.format, buf.String(), tt.want)
		}
	}
	if _, err := New("xml", slog.LevelInfo, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestJSONLevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := JSON(&buf, slog.LevelWarn)
	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn missing: %s", buf.String())
	}
}

func TestPrettyAttrsAndGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &PrettyOptions{NoColor: true})
	l := slog.New(h).With("bundle", "zork.zblorb").WithGroup("res")
	l.Info("resolved", "usage", "Pict", "note", "two words", slog.Group("scale", "min", 1))

	out := buf.String()
	for _, want := range []string{
		"INFO  resolved",
		"bundle=zork.zblorb",
		"res.usage=Pict",
		`res.note="two words"`,
		"res.scale.min=1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Fatalf("NoColor output contains escape codes: %q", out)
	}
}

func TestPrettyColour(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	Pretty(&buf, slog.LevelDebug).Error("boom")
	if !strings.Contains(buf.String(), ansiRed) {
		t.Fatalf("error line not red: %q", buf.String())
	}
}

func TestPrettyEmptyGroup(t *testing.T) {
	t.Parallel()

	h := NewPrettyHandler(&bytes.Buffer{}, nil)
	if h.WithGroup("") != slog.Handler(h) {
		t.Fatalf("WithGroup(\"\") should return the receiver")
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug enabled by default")
	}
}

func TestContextRoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	ctx := WithContext(context.Background(), JSON(&buf, slog.LevelInfo))
	FromContext(ctx).Info("via context")
	if !strings.Contains(buf.String(), "via context") {
		t.Fatalf("context logger not used: %s", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatalf("FromContext without logger returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"Warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Fatalf("ParseLevel(%q): got %v err=%v", tt.in, got, err)
		}
	}
}
