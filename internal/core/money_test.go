package core

import "testing"

func TestParseDecimalToPaise(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"4000", 400000, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{".50", 50, true},
		{"0", 0, false},
		{"", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToPaise(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("ParseDecimalToPaise(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseDecimalToPaise(%q): expected error", tc.in)
		}
	}
}

func TestPaiseFromRupees(t *testing.T) {
	if got := PaiseFromRupees(4000); got != 400000 {
		t.Fatalf("got %d", got)
	}
	if got := PaiseFromRupees(12.34); got != 1234 {
		t.Fatalf("got %d", got)
	}
	if got := PaiseFromRupees(0.005); got != 1 {
		t.Fatalf("half-up rounding: got %d", got)
	}
}

func TestFormatRupees(t *testing.T) {
	if got := FormatRupees(123450); got != "1234.50" {
		t.Fatalf("got %q", got)
	}
	if got := FormatRupees(-75); got != "-0.75" {
		t.Fatalf("got %q", got)
	}
}
