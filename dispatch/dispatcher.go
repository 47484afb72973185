// Package dispatch routes inbound transport events to the aggregator and
// classifier and republishes structured results to registered observers.
package dispatch

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ibfeed-go/market"
	"ibfeed-go/metrics"
	"ibfeed-go/status"
	"ibfeed-go/wire"
)

// TickUpdate 推送给观察者的结构化 tick 结果。
type TickUpdate struct {
	SubID int
	Field wire.Field
	Kind  wire.Computation // option computation ticks only
	Value float64
	Raw   string // string ticks only
}

// StatusUpdate 推送给观察者的状态分类结果。
type StatusUpdate struct {
	SubID   int
	Code    int
	Message string
	Class   status.Classification
}

// Observer receives dispatched results. Implementations must be fast; a slow
// observer is cut off at the dispatcher budget, a panicking one is logged.
type Observer interface {
	OnTick(TickUpdate)
	OnStatus(StatusUpdate)
}

// Dispatcher 事件分发器。HandleEvent 由传输层按到达顺序串行调用。
type Dispatcher struct {
	agg    *market.Aggregator
	budget time.Duration
	log    *zap.Logger

	mu        sync.RWMutex
	observers map[uuid.UUID]Observer
}

// DefaultBudget bounds how long dispatch waits on a single observer.
const DefaultBudget = 50 * time.Millisecond

// NewDispatcher wires a dispatcher to agg. budget <= 0 selects DefaultBudget.
func NewDispatcher(agg *market.Aggregator, budget time.Duration, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Dispatcher{
		agg:       agg,
		budget:    budget,
		log:       logger,
		observers: make(map[uuid.UUID]Observer),
	}
}

// Register adds an observer and returns its handle.
func (d *Dispatcher) Register(o Observer) uuid.UUID {
	id := uuid.New()
	d.mu.Lock()
	d.observers[id] = o
	d.mu.Unlock()
	return id
}

// Unregister removes the observer for the handle; unknown handles are a no-op.
func (d *Dispatcher) Unregister(id uuid.UUID) {
	d.mu.Lock()
	delete(d.observers, id)
	d.mu.Unlock()
}

// HandleEvent applies one inbound event and notifies observers synchronously.
// Nothing here is ever fatal: malformed events degrade inside the aggregator,
// observer failures are isolated.
func (d *Dispatcher) HandleEvent(ev Event) {
	switch e := ev.(type) {
	case PriceTick:
		if field, applied := d.agg.ApplyPriceTick(e.SubID, e.Code, e.Value); applied {
			d.notifyTick(TickUpdate{SubID: e.SubID, Field: field, Value: e.Value})
		}
	case SizeTick:
		if field, applied := d.agg.ApplySizeTick(e.SubID, e.Code, e.Value); applied {
			d.notifyTick(TickUpdate{SubID: e.SubID, Field: field, Value: e.Value})
		}
	case GenericTick:
		if field, applied := d.agg.ApplyGenericTick(e.SubID, e.Code, e.Value); applied {
			d.notifyTick(TickUpdate{SubID: e.SubID, Field: field, Value: e.Value})
		}
	case StringTick:
		if field, applied := d.agg.ApplyStringTick(e.SubID, e.Code, e.Raw); applied {
			d.notifyTick(TickUpdate{SubID: e.SubID, Field: field, Raw: e.Raw})
		}
	case OptionComputationTick:
		kind, ok := wire.ComputationKind(e.Code)
		if !ok {
			d.log.Warn("unknown option computation code", zap.Int("code", e.Code))
			return
		}
		if d.agg.ApplyOptionComputation(e.SubID, kind, e.Greeks) {
			d.notifyTick(TickUpdate{SubID: e.SubID, Field: "optionComputation", Kind: kind})
		}
	case StatusMessage:
		d.handleStatus(e.SubID, e.Code, e.Message)
	case ConnectionClosed:
		// surfaced as a synthetic disconnect so observers share one code path
		d.notifyStatus(StatusUpdate{Code: 0, Message: "connection closed", Class: status.Disconnect})
		metrics.StatusCodes.WithLabelValues(status.Disconnect.String()).Inc()
	}
}

func (d *Dispatcher) handleStatus(subID, code int, message string) {
	class := status.Classify(code)
	metrics.StatusCodes.WithLabelValues(class.String()).Inc()
	if class == status.Benign {
		// routine broker chatter; counted, never surfaced
		d.log.Debug("benign status", zap.Int("code", code), zap.String("message", message))
		return
	}
	d.notifyStatus(StatusUpdate{SubID: subID, Code: code, Message: message, Class: class})
}

func (d *Dispatcher) notifyTick(u TickUpdate) {
	d.eachObserver(func(o Observer) { o.OnTick(u) })
}

func (d *Dispatcher) notifyStatus(u StatusUpdate) {
	d.eachObserver(func(o Observer) { o.OnStatus(u) })
}

// eachObserver runs fn per observer with panic isolation and the time budget.
// A late observer keeps running on its goroutine but dispatch moves on.
func (d *Dispatcher) eachObserver(fn func(Observer)) {
	d.mu.RLock()
	observers := make([]Observer, 0, len(d.observers))
	for _, o := range d.observers {
		observers = append(observers, o)
	}
	d.mu.RUnlock()

	for _, o := range observers {
		done := make(chan struct{})
		go func(o Observer) {
			defer close(done)
			defer func() {
				if r := recover(); r != nil {
					metrics.ObserverErrors.Inc()
					d.log.Error("observer panicked", zap.Any("panic", r))
				}
			}()
			fn(o)
		}(o)
		select {
		case <-done:
		case <-time.After(d.budget):
			metrics.ObserverErrors.Inc()
			d.log.Warn("observer exceeded dispatch budget", zap.Duration("budget", d.budget))
		}
	}
}
