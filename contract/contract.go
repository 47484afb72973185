// Package contract resolves instrument encodings into canonical descriptors.
package contract

import "errors"

var (
	ErrInvalidContract    = errors.New("invalid contract parameters")
	ErrUnrecognizedSymbol = errors.New("unrecognized symbol format")
)

// AssetClass 合约类型，取值与网关合约字符串一致。
type AssetClass string

const (
	Stock        AssetClass = "STK"
	Future       AssetClass = "FUT"
	Option       AssetClass = "OPT"
	FutureOption AssetClass = "FOP"
	Cash         AssetClass = "CASH"
	Combo        AssetClass = "BAG"
)

// Right is the option side.
type Right string

const (
	Call Right = "CALL"
	Put  Right = "PUT"
)

// Descriptor identifies a tradable instrument. Immutable once constructed;
// the aggregator references it by subscription id and never mutates it.
type Descriptor struct {
	Symbol     string
	AssetClass AssetClass
	Exchange   string
	Currency   string
	Expiry     string // YYYY-MM-DD, required for FUT/OPT/FOP
	Strike     float64
	Right      Right
	Multiplier string
}

// HasExpiry reports whether the asset class carries an expiry date.
func (c AssetClass) HasExpiry() bool {
	switch c {
	case Future, Option, FutureOption:
		return true
	}
	return false
}

func validAssetClass(c AssetClass) bool {
	switch c {
	case Stock, Future, Option, FutureOption, Cash, Combo:
		return true
	}
	return false
}
