// Package wire holds the static tick/status code tables of the brokerage API.
// The numeric codes are the wire contract and must not drift.
package wire

// Field is a semantic snapshot field name.
type Field string

const (
	FieldBid   Field = "bid"
	FieldAsk   Field = "ask"
	FieldLast  Field = "last"
	FieldHigh  Field = "high"
	FieldLow   Field = "low"
	FieldClose Field = "close"
	FieldOpen  Field = "open"

	FieldBidSize  Field = "bidSize"
	FieldAskSize  Field = "askSize"
	FieldLastSize Field = "lastSize"
	FieldVolume   Field = "volume"

	FieldBidExch Field = "bidExch"
	FieldAskExch Field = "askExch"

	FieldLastTimestamp Field = "lastTimestamp"
	FieldRTVolume      Field = "rtVolume"
)

// priceTicks 价格类 tick 代码表。
var priceTicks = map[int]Field{
	1:  FieldBid,
	2:  FieldAsk,
	4:  FieldLast,
	6:  FieldHigh,
	7:  FieldLow,
	9:  FieldClose,
	14: FieldOpen,
}

// sizeTicks 数量类 tick 代码表。
var sizeTicks = map[int]Field{
	0: FieldBidSize,
	3: FieldAskSize,
	5: FieldLastSize,
	8: FieldVolume,
}

// auxTicks covers the generic/exchange/auction/halted/rate codes.
var auxTicks = map[int]Field{
	21: "avgVolume",
	22: "openInterest",
	23: "histVol",
	24: "impliedVol",
	27: "callOpenInt",
	28: "putOpenInt",
	29: "callVolume",
	30: "putVolume",
	32: FieldBidExch,
	33: FieldAskExch,
	34: "auctionVolume",
	35: "auctionPrice",
	45: FieldLastTimestamp,
	48: FieldRTVolume,
	49: "halted",
	54: "tradeCount",
	55: "tradeRate",
	56: "volumeRate",
}

// PriceField maps a price-tick code to its field name.
func PriceField(code int) (Field, bool) {
	f, ok := priceTicks[code]
	return f, ok
}

// SizeField maps a size-tick code to its field name.
func SizeField(code int) (Field, bool) {
	f, ok := sizeTicks[code]
	return f, ok
}

// AuxField maps a generic/string tick code to its field name.
func AuxField(code int) (Field, bool) {
	f, ok := auxTicks[code]
	return f, ok
}

// Computation identifies which quote an option computation tick refers to.
type Computation string

const (
	ComputationBid   Computation = "bid"
	ComputationAsk   Computation = "ask"
	ComputationLast  Computation = "last"
	ComputationModel Computation = "model"
)

var computations = map[int]Computation{
	10: ComputationBid,
	11: ComputationAsk,
	12: ComputationLast,
	13: ComputationModel,
}

// ComputationKind maps an option computation tick code (10..13).
func ComputationKind(code int) (Computation, bool) {
	c, ok := computations[code]
	return c, ok
}

// API warning codes that are not actually problems and should not be logged.
var benignCodes = map[int]struct{}{
	200:  {},
	300:  {},
	2104: {},
	2106: {},
}

// API error codes indicating loss of the gateway session.
var disconnectCodes = map[int]struct{}{
	504:  {},
	502:  {},
	1100: {},
	1300: {},
	2110: {},
}

// Benign reports whether code is a routine informational status.
func Benign(code int) bool {
	_, ok := benignCodes[code]
	return ok
}

// Disconnect reports whether code signals a lost gateway session.
func Disconnect(code int) bool {
	_, ok := disconnectCodes[code]
	return ok
}

// MonthCodes 期货月份代码，index 即月份（0 为哨兵占位）。
var MonthCodes = [13]string{"", "F", "G", "H", "J", "K", "M", "N", "Q", "U", "V", "X", "Z"}

// MonthFromCode returns the month number (1..12) for a futures month code.
func MonthFromCode(code string) (int, bool) {
	for i := 1; i < len(MonthCodes); i++ {
		if MonthCodes[i] == code {
			return i, true
		}
	}
	return 0, false
}
