package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"15000", 1500000, true},
		{"1,23", 123, true},
		{"0", 0, true}, // costs and paid amounts default to zero
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"20.00", 2000, true}, // percent -> basis points reuse
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestFormatRupiah(t *testing.T) {
	cases := []struct {
		cents int64
		out   string
	}{
		{0, "Rp 0"},
		{100, "Rp 1"},
		{150, "Rp 2"}, // half-up to whole rupiah
		{1500000, "Rp 15.000"},
		{100000000, "Rp 1.000.000"},
		{-2500000, "-Rp 25.000"},
	}
	for _, tc := range cases {
		if got := FormatRupiah(tc.cents); got != tc.out {
			t.Fatalf("%d expected %q, got %q", tc.cents, tc.out, got)
		}
	}
}
