package fx

import "testing"

func TestToUSDKnownRates(t *testing.T) {
	if got := ToUSD("BR", 100); got != 20 {
		t.Fatalf("expected 100 BRL -> 20 USD, got %v", got)
	}
	if got := ToUSD("MX", 180); got != 10 {
		t.Fatalf("expected 180 MXN -> 10 USD, got %v", got)
	}
}

func TestToUSDUnknownCountryPassesThrough(t *testing.T) {
	if got := ToUSD("FAKE", 42.5); got != 42.5 {
		t.Fatalf("expected pass-through for unknown country, got %v", got)
	}
	if HasRate("FAKE") {
		t.Fatalf("unexpected rate for FAKE")
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.0},
		{2.675, 2.67},
		{10.004, 10.0},
		{-1.114, -1.11},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
