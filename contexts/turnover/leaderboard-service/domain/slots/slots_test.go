package slots

import "testing"

func TestOrderIndexIsMonotonic(t *testing.T) {
	previous := 0
	for _, slot := range Cumulative() {
		index := OrderIndex(slot)
		if index <= previous {
			t.Fatalf("expected strictly increasing order, slot %q got %d after %d", slot, index, previous)
		}
		previous = index
	}
}

func TestOrderIndexUnknownSlot(t *testing.T) {
	if got := OrderIndex("00_99"); got != 0 {
		t.Fatalf("expected 0 for unknown slot, got %d", got)
	}
	if got := OrderIndex(""); got != 0 {
		t.Fatalf("expected 0 for empty slot, got %d", got)
	}
}

func TestDeductionSlotIsNotCumulative(t *testing.T) {
	if !IsDeduction(DeductionSlot) {
		t.Fatalf("expected %q to be the deduction slot", DeductionSlot)
	}
	if OrderIndex(DeductionSlot) != 0 {
		t.Fatalf("deduction slot must not participate in cumulative ordering")
	}
}

func TestKnownCoversImportAndDeduction(t *testing.T) {
	if !Known(ImportSlot) {
		t.Fatalf("import slot must be known")
	}
	if !Known(DeductionSlot) {
		t.Fatalf("deduction slot must be known")
	}
	if !Known("00_02") || !Known("00_24") {
		t.Fatalf("cumulative endpoints must be known")
	}
	if Known("01_02") {
		t.Fatalf("unexpected slot accepted")
	}
}
