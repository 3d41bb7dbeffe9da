package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2026-03-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2026, 3, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2026, 3, 10, 10, 10, 10, 0, time.UTC)
	got := ParseTimeDefault("", def)
	if !got.Equal(def) {
		t.Fatalf("expected default")
	}
}

func TestDayKey(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	// 01:30 IST is still the previous UTC day
	local := time.Date(2026, 3, 10, 1, 30, 0, 0, ist)
	if got := DayKey(local); got != "2026-03-09" {
		t.Fatalf("expected 2026-03-09, got %s", got)
	}
}

func TestTruncateDay(t *testing.T) {
	in := time.Date(2026, 3, 10, 17, 45, 12, 0, time.UTC)
	got := TruncateDay(in)
	if got.Hour() != 0 || got.Minute() != 0 || got.Day() != 10 {
		t.Fatalf("unexpected truncation %v", got)
	}
}
