package wire

import "testing"

func TestPriceFieldTable(t *testing.T) {
	cases := map[int]Field{
		1: FieldBid, 2: FieldAsk, 4: FieldLast,
		6: FieldHigh, 7: FieldLow, 9: FieldClose, 14: FieldOpen,
	}
	for code, want := range cases {
		got, ok := PriceField(code)
		if !ok || got != want {
			t.Errorf("PriceField(%d) = %q, %v; want %q", code, got, ok, want)
		}
	}
	if _, ok := PriceField(3); ok {
		t.Errorf("PriceField(3) should miss: 3 is a size tick")
	}
}

func TestSizeFieldTable(t *testing.T) {
	cases := map[int]Field{
		0: FieldBidSize, 3: FieldAskSize, 5: FieldLastSize, 8: FieldVolume,
	}
	for code, want := range cases {
		got, ok := SizeField(code)
		if !ok || got != want {
			t.Errorf("SizeField(%d) = %q, %v; want %q", code, got, ok, want)
		}
	}
}

func TestAuxFieldTable(t *testing.T) {
	cases := map[int]Field{
		21: "avgVolume", 22: "openInterest", 23: "histVol", 24: "impliedVol",
		27: "callOpenInt", 28: "putOpenInt", 29: "callVolume", 30: "putVolume",
		32: FieldBidExch, 33: FieldAskExch, 34: "auctionVolume", 35: "auctionPrice",
		45: FieldLastTimestamp, 48: FieldRTVolume, 49: "halted",
		54: "tradeCount", 55: "tradeRate", 56: "volumeRate",
	}
	for code, want := range cases {
		got, ok := AuxField(code)
		if !ok || got != want {
			t.Errorf("AuxField(%d) = %q, %v; want %q", code, got, ok, want)
		}
	}
	if _, ok := AuxField(99); ok {
		t.Errorf("AuxField(99) should miss")
	}
}

func TestComputationKind(t *testing.T) {
	cases := map[int]Computation{
		10: ComputationBid, 11: ComputationAsk, 12: ComputationLast, 13: ComputationModel,
	}
	for code, want := range cases {
		got, ok := ComputationKind(code)
		if !ok || got != want {
			t.Errorf("ComputationKind(%d) = %q, %v; want %q", code, got, ok, want)
		}
	}
}

func TestStatusCodeSets(t *testing.T) {
	for _, code := range []int{200, 300, 2104, 2106} {
		if !Benign(code) {
			t.Errorf("Benign(%d) = false", code)
		}
	}
	for _, code := range []int{504, 502, 1100, 1300, 2110} {
		if !Disconnect(code) {
			t.Errorf("Disconnect(%d) = false", code)
		}
	}
	if Benign(504) || Disconnect(200) {
		t.Errorf("benign/disconnect sets overlap")
	}
}

func TestMonthFromCode(t *testing.T) {
	// index 即月份：F=1 … Z=12
	want := map[string]int{
		"F": 1, "G": 2, "H": 3, "J": 4, "K": 5, "M": 6,
		"N": 7, "Q": 8, "U": 9, "V": 10, "X": 11, "Z": 12,
	}
	for code, m := range want {
		got, ok := MonthFromCode(code)
		if !ok || got != m {
			t.Errorf("MonthFromCode(%q) = %d, %v; want %d", code, got, ok, m)
		}
	}
	if _, ok := MonthFromCode(""); ok {
		t.Errorf("empty sentinel must not resolve to a month")
	}
	if _, ok := MonthFromCode("A"); ok {
		t.Errorf("unknown month code should miss")
	}
}
