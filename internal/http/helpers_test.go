package http

import (
	"testing"

	"porsi/internal/core"
)

func TestRupiahfRoundsSymmetrically(t *testing.T) {
	rupiahf := templateFuncs()["rupiahf"].(func(float64) string)

	cases := []struct {
		name  string
		cents float64
		out   string
	}{
		{"exact", 100000000, "Rp 1.000.000"},
		{"half rupiah rounds up", 900050, "Rp 9.001"},
		{"below half rounds down", 900049, "Rp 9.000"},
		{"negative whole", -25000, "-Rp 250"},
		// Truncating toward zero would show -Rp 250 here.
		{"negative fraction rounds away from zero", -25049.6, "-Rp 251"},
		{"zero", 0, "Rp 0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rupiahf(tc.cents); got != tc.out {
				t.Fatalf("rupiahf(%f) = %q, want %q", tc.cents, got, tc.out)
			}
		})
	}
}

func TestRupiahMatchesFormatRupiah(t *testing.T) {
	rupiah := templateFuncs()["rupiah"].(func(core.Money) string)

	m := core.Money{Cents: -45000000}
	if got, want := rupiah(m), core.FormatRupiah(m.Cents); got != want {
		t.Fatalf("rupiah = %q, want %q", got, want)
	}
}
