package main

import (
	"testing"
	"time"
)

func TestParseDay(t *testing.T) {
	now := time.Date(2026, 10, 14, 18, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	got, err := parseDay("today", now)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("parseDay(today) = %v, want %v", got, want)
	}

	got, err = parseDay("2024-05-06", now)
	if err != nil || got.Day() != 6 || got.Month() != time.May {
		t.Errorf("parseDay(2024-05-06) = %v, %v", got, err)
	}

	if _, err := parseDay("06.05.2024", now); err == nil {
		t.Error("expected error for non-ISO date")
	}
}
