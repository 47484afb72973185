package dispatch

import "ibfeed-go/market"

// Event 入站事件联合类型；传输层反序列化后逐个送入 Dispatcher。
type Event interface {
	isEvent()
}

// PriceTick is a price-field update for one subscription.
type PriceTick struct {
	SubID int
	Code  int
	Value float64
}

// SizeTick is a size-field update.
type SizeTick struct {
	SubID int
	Code  int
	Value float64
}

// GenericTick is a scalar auxiliary update (volatility, open interest...).
type GenericTick struct {
	SubID int
	Code  int
	Value float64
}

// StringTick carries a string-valued tick (rtVolume, lastTimestamp, exchanges).
type StringTick struct {
	SubID int
	Code  int
	Raw   string
}

// OptionComputationTick carries one greeks tuple; Code is 10..13.
type OptionComputationTick struct {
	SubID  int
	Code   int
	Greeks market.Greeks
}

// StatusMessage is an API status/error report, optionally tied to a subscription.
type StatusMessage struct {
	SubID   int
	Code    int
	Message string
}

// ConnectionClosed 网关主动关闭会话。
type ConnectionClosed struct{}

func (PriceTick) isEvent()             {}
func (SizeTick) isEvent()              {}
func (GenericTick) isEvent()           {}
func (StringTick) isEvent()            {}
func (OptionComputationTick) isEvent() {}
func (StatusMessage) isEvent()         {}
func (ConnectionClosed) isEvent()      {}
