package service

import (
	"testing"
	"time"
)

func TestIsValidVNPhone(t *testing.T) {
	cases := map[string]bool{
		"0912345678":   true,
		" 0912345678":  true,
		"912345678":    false,
		"09123456789":  false,
		"091234567a":   false,
		"+84912345678": false,
		"":             false,
	}
	for phone, want := range cases {
		if got := IsValidVNPhone(phone); got != want {
			t.Fatalf("IsValidVNPhone(%q) = %v want %v", phone, got, want)
		}
	}
}

func TestFormatVND(t *testing.T) {
	if got := FormatVND(220000); got != "220.000đ" {
		t.Fatalf("FormatVND want 220.000đ got %s", got)
	}
	if got := FormatNumber(1500); got != "1.500" {
		t.Fatalf("FormatNumber want 1.500 got %s", got)
	}
	if got := FormatNumber(0); got != "0" {
		t.Fatalf("FormatNumber want 0 got %s", got)
	}
}

func TestStartOfVNDay(t *testing.T) {
	// 2024-05-01 18:30 UTC 已是越南 5 月 2 日 01:30
	at := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)
	got := startOfVNDay(at)
	want := time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("start of day want %v got %v", want, got)
	}
}
