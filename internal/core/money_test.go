package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{".5", "0.5", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.004", "", false},
		{"abc", "", false},
		{"1e3", "", false},
		{"1.2.3", "", false},
		{".", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(dec(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
			}
		}
	}
}

func TestParseRate(t *testing.T) {
	got, err := ParseRate("7,125")
	if err != nil || !got.Equal(dec("7.125")) {
		t.Fatalf("expected 7.125, got %s (err=%v)", got, err)
	}
	got, err = ParseRate("0")
	if err != nil || !got.IsZero() {
		t.Fatalf("expected zero rate to be accepted, got %s (err=%v)", got, err)
	}
	if _, err := ParseRate("-2"); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate, got %v", err)
	}
}

func TestParseOptionalAmount(t *testing.T) {
	cases := map[string]string{"": "0", "  ": "0", "0": "0", "12,345": "12.35", "100": "100"}
	for in, want := range cases {
		got, err := ParseOptionalAmount(in)
		if err != nil || !got.Equal(dec(want)) {
			t.Fatalf("%q expected %s, got %s (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseOptionalAmount("-5"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
