package slots

// Cumulative two-hour window identifiers. The Nth slot's value is the running
// total from day start through that window, so a later slot subsumes every
// earlier one ("latest slot wins").
var cumulative = []string{
	"00_02", "00_04", "00_06", "00_08", "00_10", "00_12",
	"00_14", "00_16", "00_18", "00_20", "00_22", "00_24",
}

// DeductionSlot holds the non-cumulative Brazil 00:00-03:00 local amount that
// must be subtracted from the cumulative total to avoid double counting.
const DeductionSlot = "BR_00_03"

// ImportSlot marks historical rows whose turnover is already expressed in USD.
const ImportSlot = "IMPORT_USD"

var orderIndex = buildOrderIndex()

func buildOrderIndex() map[string]int {
	index := make(map[string]int, len(cumulative))
	for i, key := range cumulative {
		index[key] = i + 1
	}
	return index
}

// OrderIndex returns the total order of a cumulative slot key. Unrecognized
// keys resolve to 0 so any known slot observed for a player overrides them.
func OrderIndex(slotKey string) int {
	return orderIndex[slotKey]
}

func IsDeduction(slotKey string) bool {
	return slotKey == DeductionSlot
}

// Known reports whether slotKey is accepted on upload: a cumulative window,
// the deduction slot, or the import marker.
func Known(slotKey string) bool {
	if slotKey == DeductionSlot || slotKey == ImportSlot {
		return true
	}
	_, ok := orderIndex[slotKey]
	return ok
}

// Cumulative returns the ordered slot list, earliest window first.
func Cumulative() []string {
	return append([]string(nil), cumulative...)
}
