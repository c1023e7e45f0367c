package fx

import "math"

// Fixed local-currency-per-USD rates. Countries without a rate pass through
// unchanged, which covers imported history already expressed in USD.
var rates = map[string]float64{
	"BR": 5,
	"MX": 18,
}

// Rate returns the local-per-USD rate for a country, or 1 when none is
// configured.
func Rate(country string) float64 {
	if rate, ok := rates[country]; ok {
		return rate
	}
	return 1
}

// ToUSD converts a net local amount to USD. No rounding happens here; callers
// round once at emission so summing across days never compounds drift.
func ToUSD(country string, amount float64) float64 {
	return amount / Rate(country)
}

func HasRate(country string) bool {
	_, ok := rates[country]
	return ok
}

// Round2 is the single emission-boundary rounding step.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
