package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer, format logFormat) *slog.Logger {
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: newSyncWriter(buf),
		format: format,
	})
	return slog.New(h)
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newTestLogger(buf, formatKV).With("component", "bot")
	ctx := WithUpdateMeta(WithRID(Background(), "rid-123"), 42, 7, 9)

	LogEvent(ctx, log, slog.LevelInfo, "test.event",
		slog.String("status", "OK"),
		slog.String("cause", "unit"),
	)

	tokens := strings.Fields(strings.TrimSpace(buf.String()))
	expected := []string{"ts=", "level=INFO", "component=bot", "event=test.event", "status=ok", "rid=rid-123", "update_id=42", "user_id=7", "chat_id=9"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%v)", len(tokens), tokens)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newTestLogger(buf, formatJSON).With("component", "calendar")
	ctx := WithRID(Background(), "rid-json")

	LogEvent(ctx, log, slog.LevelError, "calendar.list",
		slog.String("status", "fail"),
		slog.String("err", "boom"),
	)

	line := strings.TrimSpace(buf.String())
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"calendar"`, `"event":"calendar.list"`, `"status":"fail"`, `"rid":"rid-json"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		if idx == -1 || idx < pos {
			t.Fatalf("prefix %s not found in order within %s", pref, line)
		}
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	raw := BuildRID(123, 456, 789)

	buf := &bytes.Buffer{}
	LogEvent(WithRID(Background(), raw), newTestLogger(buf, formatKV), slog.LevelInfo, "rid.test")
	line := buf.String()
	if !strings.Contains(line, "rid="+CompactRID(raw)) {
		t.Fatalf("expected compact rid, got %s", line)
	}
	if strings.Contains(line, "rid_full=") {
		t.Fatalf("rid_full should be omitted in KV output, got %s", line)
	}

	buf.Reset()
	LogEvent(WithRID(Background(), raw), newTestLogger(buf, formatJSON), slog.LevelInfo, "rid.test")
	line = buf.String()
	if !strings.Contains(line, `"rid":"3f.co.lx"`) {
		t.Fatalf("expected compact rid in JSON, got %s", line)
	}
	if !strings.Contains(line, `"rid_full":"123:456:789"`) {
		t.Fatalf("expected rid_full in JSON output, got %s", line)
	}
}

func TestStructuredHandlerDurationAndGroups(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newTestLogger(buf, formatKV).WithGroup("gw")
	log.LogAttrs(context.Background(), slog.LevelInfo, "cache.lookup",
		slog.Duration("duration", 1500*time.Microsecond),
		slog.String("cache", "hit"),
	)
	line := buf.String()
	for _, want := range []string{"event=cache.lookup", "component=app", "gw.duration_ms=2", "gw.cache=hit"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %s", want, line)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	h := newStructuredHandler(handlerConfig{level: slog.LevelWarn, writer: newSyncWriter(buf), format: formatKV})
	log := slog.New(h)
	log.Info("dropped")
	log.Warn("kept")
	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "event=kept") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := Sanitize("a\x00b\u200bc\td\n"); got != "abc\td\n" {
		t.Fatalf("Sanitize = %q", got)
	}
	if got := SanitizeLimit("привет мир", 6); got != "привет" {
		t.Fatalf("SanitizeLimit = %q", got)
	}
	if got := SanitizeLimit("x", 0); got != "" {
		t.Fatalf("SanitizeLimit zero = %q", got)
	}
}

func TestRatioSampler(t *testing.T) {
	s := &ratioSampler{}
	s.Set(parseRatio("1/3"))
	var allowed int
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}
	s.Set(parseRatio("0"))
	if !s.Allow() {
		t.Fatal("disabled sampler must allow every event")
	}
}

func TestPackageLoggersUsableBeforeInit(t *testing.T) {
	for _, l := range []*slog.Logger{L, TG, TWire, DB, MIG, Component("bot"), FromContext(nil)} {
		if l == nil {
			t.Fatal("nil logger before InitLogger")
		}
	}
	Info(context.Background(), "bot", "noop")
}
