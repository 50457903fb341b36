package api

import "testing"

func TestParseAmountMinor(t *testing.T) {
	t.Parallel()

	valid := []struct {
		in   string
		want int64
	}{
		{"50", 5000},
		{"50.00", 5000},
		{"0.01", 1},
		{"10.5", 1050},
		{" 25.50 ", 2550},
	}
	for _, tc := range valid {
		got, err := parseAmountMinor(tc.in)
		if err != nil {
			t.Errorf("parseAmountMinor(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("parseAmountMinor(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}

	invalid := []string{
		"",
		"0",
		"0.00",
		"-1",
		"-0.50", // sign must not vanish into a positive amount
		"+5",
		"1.-5",
		"1.234",
		"1.2.3",
		"abc",
		"92233720368547758079",  // overflows int64 minor units
		"922337203685477580.70", // integer part alone is fine, *100 is not
	}
	for _, in := range invalid {
		if got, err := parseAmountMinor(in); err == nil {
			t.Errorf("parseAmountMinor(%q) = %d, want error", in, got)
		}
	}
}
