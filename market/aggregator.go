// Package market aggregates per-field tick updates into per-subscription snapshots.
package market

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"ibfeed-go/internal/timeutil"
	"ibfeed-go/metrics"
	"ibfeed-go/wire"
)

// ErrNotFound 查询的订阅不存在（未订阅或已退订）。
var ErrNotFound = errors.New("subscription not found")

// Snapshot 单个订阅的最新行情视图。Aggregator 返回的是深拷贝。
type Snapshot struct {
	Fields    map[wire.Field]float64 // 价格/数量字段
	Aux       map[wire.Field]float64 // 低频数值字段（持仓量/波动率/竞价/频率等）
	Exchanges map[wire.Field]string  // bidExch / askExch
	Strings   map[wire.Field]string  // lastTimestamp 及未识别的字符串 tick
}

// Greeks is one option computation tuple.
type Greeks struct {
	ImpliedVol      float64
	Delta           float64
	OptPrice        float64
	PvDividend      float64
	Gamma           float64
	Vega            float64
	Theta           float64
	UnderlyingPrice float64
}

// OptionSnapshot maps computation kind (bid/ask/last/model) to its latest Greeks.
type OptionSnapshot map[wire.Computation]Greeks

// Aggregator 按订阅 id 维护行情快照。单一写入路径（dispatcher）串行调用，
// 读访问可能来自任意 goroutine，整体用一把读写锁保护。
type Aggregator struct {
	mu      sync.RWMutex
	data    map[int]*Snapshot
	options map[int]OptionSnapshot
	log     *zap.Logger
}

// NewAggregator creates an empty aggregator. logger may be nil.
func NewAggregator(logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		data:    make(map[int]*Snapshot),
		options: make(map[int]OptionSnapshot),
		log:     logger,
	}
}

// Subscribe registers an empty snapshot for subID. The caller resolves the
// contract descriptor before requesting data; subID is the only join key.
func (a *Aggregator) Subscribe(subID int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.data[subID]; ok {
		return
	}
	a.data[subID] = newSnapshot()
	metrics.LiveSubscriptions.Set(float64(len(a.data)))
}

// Retire drops all state for subID. Idempotent; ticks racing with retirement
// for a now-unknown id are dropped, they never resurrect the entry.
func (a *Aggregator) Retire(subID int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.data, subID)
	delete(a.options, subID)
	metrics.LiveSubscriptions.Set(float64(len(a.data)))
}

// Live returns the ids of all live subscriptions.
func (a *Aggregator) Live() []int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]int, 0, len(a.data))
	for id := range a.data {
		ids = append(ids, id)
	}
	return ids
}

// ApplyPriceTick applies a price-field update. The -1/negative sentinel the
// feed broadcasts for "no value" is ignored so it cannot clobber a valid quote.
// Codes missing from the price table degrade to unknown auxiliary fields.
func (a *Aggregator) ApplyPriceTick(subID, code int, value float64) (wire.Field, bool) {
	field, ok := wire.PriceField(code)
	if !ok {
		field = wire.Field(strconv.Itoa(code))
		return field, a.setAux(subID, field, value)
	}
	return field, a.setField(subID, field, value)
}

// ApplySizeTick applies a size-field update, same sentinel rule as prices.
func (a *Aggregator) ApplySizeTick(subID, code int, value float64) (wire.Field, bool) {
	field, ok := wire.SizeField(code)
	if !ok {
		field = wire.Field(strconv.Itoa(code))
		return field, a.setAux(subID, field, value)
	}
	return field, a.setField(subID, field, value)
}

// ApplyGenericTick applies a scalar auxiliary update (volatility, open interest...).
func (a *Aggregator) ApplyGenericTick(subID, code int, value float64) (wire.Field, bool) {
	field, ok := wire.AuxField(code)
	if !ok {
		field = wire.Field(strconv.Itoa(code))
	}
	return field, a.setAux(subID, field, value)
}

// ApplyStringTick handles string-valued ticks: rtVolume is decoded and folded
// into the numeric fields, lastTimestamp is normalized to RFC3339 UTC, exchange
// ids land in Exchanges, anything unrecognized is kept raw under its code.
func (a *Aggregator) ApplyStringTick(subID, code int, raw string) (wire.Field, bool) {
	field, known := wire.AuxField(code)
	switch {
	case known && field == wire.FieldRTVolume:
		rt, err := ParseRTVolume(raw)
		if err != nil {
			metrics.RTVolumeParseErrors.Inc()
			a.log.Warn("rtvolume parse failed", zap.Int("subID", subID), zap.Error(err))
			return field, false
		}
		return field, a.applyRTVolume(subID, rt)
	case known && field == wire.FieldLastTimestamp:
		ts, err := timeutil.EpochToUTC(raw)
		if err != nil {
			a.log.Warn("lastTimestamp parse failed", zap.Int("subID", subID), zap.Error(err))
			return field, false
		}
		return field, a.setString(subID, field, ts.Format(time.RFC3339))
	case known && (field == wire.FieldBidExch || field == wire.FieldAskExch):
		return field, a.setExchange(subID, field, raw)
	case known:
		return field, a.setString(subID, field, raw)
	}
	field = wire.Field(strconv.Itoa(code))
	return field, a.setString(subID, field, raw)
}

// ApplyOptionComputation merges one computation tuple. Negative sentinel values
// in the incoming tuple keep whatever was stored before, field by field.
func (a *Aggregator) ApplyOptionComputation(subID int, kind wire.Computation, g Greeks) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.data[subID]; !ok {
		a.dropTick(subID)
		return false
	}
	snap, ok := a.options[subID]
	if !ok {
		snap = make(OptionSnapshot, 4)
		a.options[subID] = snap
	}
	prev := snap[kind]
	snap[kind] = mergeGreeks(prev, g)
	metrics.TicksProcessed.WithLabelValues("option").Inc()
	return true
}

// Snapshot returns a deep copy of the current state for subID.
func (a *Aggregator) Snapshot(subID int) (Snapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	snap, ok := a.data[subID]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap.clone(), nil
}

// OptionSnapshot returns a copy of the option computation state for subID.
// A live subscription that has not received computation ticks yet yields an
// empty (non-nil) snapshot.
func (a *Aggregator) OptionSnapshot(subID int) (OptionSnapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, ok := a.data[subID]; !ok {
		return nil, ErrNotFound
	}
	out := make(OptionSnapshot, len(a.options[subID]))
	for kind, g := range a.options[subID] {
		out[kind] = g
	}
	return out, nil
}

func newSnapshot() *Snapshot {
	return &Snapshot{
		Fields:    make(map[wire.Field]float64),
		Aux:       make(map[wire.Field]float64),
		Exchanges: make(map[wire.Field]string),
		Strings:   make(map[wire.Field]string),
	}
}

func (s *Snapshot) clone() Snapshot {
	out := Snapshot{
		Fields:    make(map[wire.Field]float64, len(s.Fields)),
		Aux:       make(map[wire.Field]float64, len(s.Aux)),
		Exchanges: make(map[wire.Field]string, len(s.Exchanges)),
		Strings:   make(map[wire.Field]string, len(s.Strings)),
	}
	for k, v := range s.Fields {
		out.Fields[k] = v
	}
	for k, v := range s.Aux {
		out.Aux[k] = v
	}
	for k, v := range s.Exchanges {
		out.Exchanges[k] = v
	}
	for k, v := range s.Strings {
		out.Strings[k] = v
	}
	return out
}

func (a *Aggregator) setField(subID int, field wire.Field, value float64) bool {
	if value < 0 {
		// "no value" broadcast; keep the last valid quote
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, ok := a.data[subID]
	if !ok {
		a.dropTick(subID)
		return false
	}
	snap.Fields[field] = value
	metrics.TicksProcessed.WithLabelValues("field").Inc()
	return true
}

func (a *Aggregator) setAux(subID int, field wire.Field, value float64) bool {
	if value < 0 {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, ok := a.data[subID]
	if !ok {
		a.dropTick(subID)
		return false
	}
	snap.Aux[field] = value
	metrics.TicksProcessed.WithLabelValues("aux").Inc()
	return true
}

func (a *Aggregator) setString(subID int, field wire.Field, value string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, ok := a.data[subID]
	if !ok {
		a.dropTick(subID)
		return false
	}
	snap.Strings[field] = value
	metrics.TicksProcessed.WithLabelValues("string").Inc()
	return true
}

func (a *Aggregator) setExchange(subID int, field wire.Field, value string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, ok := a.data[subID]
	if !ok {
		a.dropTick(subID)
		return false
	}
	snap.Exchanges[field] = value
	metrics.TicksProcessed.WithLabelValues("string").Inc()
	return true
}

// RT Volume 拆分后的字段名。
const (
	fieldRTPrice  wire.Field = "rtPrice"
	fieldRTSize   wire.Field = "rtSize"
	fieldRTTime   wire.Field = "rtTime"
	fieldRTVolume wire.Field = "rtVolume"
	fieldRTVwap   wire.Field = "rtVwap"
	fieldRTSingle wire.Field = "rtSingle"
)

func (a *Aggregator) applyRTVolume(subID int, rt RTVolume) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	snap, ok := a.data[subID]
	if !ok {
		a.dropTick(subID)
		return false
	}
	// 同时刷新 last/lastSize；空字段解析为 0，不能覆盖有效成交价
	if rt.Price > 0 {
		snap.Fields[wire.FieldLast] = rt.Price
	}
	if rt.Size > 0 {
		snap.Fields[wire.FieldLastSize] = rt.Size
	}
	snap.Aux[fieldRTPrice] = rt.Price
	snap.Aux[fieldRTSize] = rt.Size
	snap.Aux[fieldRTTime] = rt.Time
	snap.Aux[fieldRTVolume] = rt.TotalVolume
	snap.Aux[fieldRTVwap] = rt.VWAP
	single := 0.0
	if rt.Single {
		single = 1
	}
	snap.Aux[fieldRTSingle] = single
	metrics.TicksProcessed.WithLabelValues("rtvolume").Inc()
	return true
}

func mergeGreeks(prev, next Greeks) Greeks {
	pick := func(old, incoming float64) float64 {
		if incoming < 0 {
			return old
		}
		return incoming
	}
	return Greeks{
		ImpliedVol:      pick(prev.ImpliedVol, next.ImpliedVol),
		Delta:           pickSigned(prev.Delta, next.Delta),
		OptPrice:        pick(prev.OptPrice, next.OptPrice),
		PvDividend:      pick(prev.PvDividend, next.PvDividend),
		Gamma:           pickSigned(prev.Gamma, next.Gamma),
		Vega:            pickSigned(prev.Vega, next.Vega),
		Theta:           pickSigned(prev.Theta, next.Theta),
		UnderlyingPrice: pick(prev.UnderlyingPrice, next.UnderlyingPrice),
	}
}

// pickSigned keeps the prior value only for the explicit -2 sentinel the API
// uses on greeks that can be legitimately negative (delta/theta).
func pickSigned(old, incoming float64) float64 {
	if incoming == -2 {
		return old
	}
	return incoming
}

func (a *Aggregator) dropTick(subID int) {
	// expected race between cancellation and an in-flight tick
	a.log.Debug("tick for unknown subscription dropped", zap.Int("subID", subID))
	metrics.TicksDropped.Inc()
}
