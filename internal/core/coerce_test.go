package core

import (
	"testing"
	"time"
)

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"42", int64(42)},
		{"0", int64(0)},
		{"007", int64(7)},
		{"3.14", 3.14},
		{"-12", float64(-12)}, // sign means not all-digits, parsed as float
		{"1e3", 1000.0},
		{"", ""},
		{"abc", "abc"},
		{"12 units", "12 units"},
		{"3,5", "3,5"},
	}

	for _, tt := range tests {
		got := coerceNumeric(tt.in)
		if got != tt.want {
			t.Errorf("coerceNumeric(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}
}

func TestIsDigits(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"123", true},
		{"0", true},
		{"", false},
		{"1.5", false},
		{"-1", false},
		{"1a", false},
	}

	for _, tt := range tests {
		if got := isDigits(tt.in); got != tt.want {
			t.Errorf("isDigits(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseWireDate(t *testing.T) {
	d, err := parseWireDate("05/01/2026")
	if err != nil {
		t.Fatalf("parseWireDate() error = %v", err)
	}
	want := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("parseWireDate() = %v, want %v", d, want)
	}

	for _, bad := range []string{"2026-01-05", "31/02/2026", "january 5", ""} {
		if _, err := parseWireDate(bad); err == nil {
			t.Errorf("parseWireDate(%q) expected error", bad)
		}
	}
}
