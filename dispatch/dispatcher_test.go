package dispatch_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ibfeed-go/dispatch"
	"ibfeed-go/market"
	"ibfeed-go/status"
	"ibfeed-go/wire"
)

// recordingObserver 收集分发结果供断言。
type recordingObserver struct {
	mu       sync.Mutex
	ticks    []dispatch.TickUpdate
	statuses []dispatch.StatusUpdate
}

func (r *recordingObserver) OnTick(u dispatch.TickUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ticks = append(r.ticks, u)
}

func (r *recordingObserver) OnStatus(u dispatch.StatusUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, u)
}

func (r *recordingObserver) tickCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ticks)
}

func (r *recordingObserver) lastStatus() (dispatch.StatusUpdate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return dispatch.StatusUpdate{}, false
	}
	return r.statuses[len(r.statuses)-1], true
}

func newDispatcher(t *testing.T) (*dispatch.Dispatcher, *market.Aggregator) {
	t.Helper()
	agg := market.NewAggregator(nil)
	return dispatch.NewDispatcher(agg, time.Second, nil), agg
}

func TestDispatcher_RoutesTicksToAggregator(t *testing.T) {
	d, agg := newDispatcher(t)
	agg.Subscribe(1)

	obs := &recordingObserver{}
	d.Register(obs)

	d.HandleEvent(dispatch.PriceTick{SubID: 1, Code: 1, Value: 185.5})
	d.HandleEvent(dispatch.SizeTick{SubID: 1, Code: 0, Value: 300})
	d.HandleEvent(dispatch.GenericTick{SubID: 1, Code: 24, Value: 0.21})
	d.HandleEvent(dispatch.StringTick{SubID: 1, Code: 32, Raw: "ARCA"})

	snap, err := agg.Snapshot(1)
	require.NoError(t, err)
	assert.Equal(t, 185.5, snap.Fields[wire.FieldBid])
	assert.Equal(t, 300.0, snap.Fields[wire.FieldBidSize])
	assert.Equal(t, 0.21, snap.Aux[wire.Field("impliedVol")])
	assert.Equal(t, "ARCA", snap.Exchanges[wire.FieldBidExch])

	assert.Equal(t, 4, obs.tickCount())
	obs.mu.Lock()
	first := obs.ticks[0]
	obs.mu.Unlock()
	assert.Equal(t, 1, first.SubID)
	assert.Equal(t, wire.FieldBid, first.Field)
	assert.Equal(t, 185.5, first.Value)
}

func TestDispatcher_SentinelAndRetiredTicksNotFannedOut(t *testing.T) {
	d, agg := newDispatcher(t)
	agg.Subscribe(1)

	obs := &recordingObserver{}
	d.Register(obs)

	d.HandleEvent(dispatch.PriceTick{SubID: 1, Code: 1, Value: -1}) // sentinel
	d.HandleEvent(dispatch.PriceTick{SubID: 99, Code: 1, Value: 5}) // not live

	assert.Equal(t, 0, obs.tickCount())
}

func TestDispatcher_StatusClassification(t *testing.T) {
	d, _ := newDispatcher(t)
	obs := &recordingObserver{}
	d.Register(obs)

	// benign statuses are suppressed from observers entirely
	d.HandleEvent(dispatch.StatusMessage{Code: 2104, Message: "market data farm ok"})
	_, got := obs.lastStatus()
	assert.False(t, got, "benign status must not be fanned out")

	d.HandleEvent(dispatch.StatusMessage{Code: 504, Message: "not connected"})
	last, got := obs.lastStatus()
	require.True(t, got)
	assert.Equal(t, status.Disconnect, last.Class)
	assert.Equal(t, 504, last.Code)

	d.HandleEvent(dispatch.StatusMessage{SubID: 3, Code: 9999, Message: "weird"})
	last, _ = obs.lastStatus()
	assert.Equal(t, status.Unclassified, last.Class)
	assert.Equal(t, "weird", last.Message)
	assert.Equal(t, 3, last.SubID)
}

func TestDispatcher_ConnectionClosed(t *testing.T) {
	d, _ := newDispatcher(t)
	obs := &recordingObserver{}
	d.Register(obs)

	d.HandleEvent(dispatch.ConnectionClosed{})
	last, got := obs.lastStatus()
	require.True(t, got)
	assert.Equal(t, status.Disconnect, last.Class)
}

func TestDispatcher_OptionComputation(t *testing.T) {
	d, agg := newDispatcher(t)
	agg.Subscribe(2)
	obs := &recordingObserver{}
	d.Register(obs)

	d.HandleEvent(dispatch.OptionComputationTick{
		SubID: 2, Code: 13,
		Greeks: market.Greeks{ImpliedVol: 0.3, Delta: 0.5, OptPrice: 2.2},
	})

	snap, err := agg.OptionSnapshot(2)
	require.NoError(t, err)
	assert.Equal(t, 0.3, snap[wire.ComputationModel].ImpliedVol)

	obs.mu.Lock()
	defer obs.mu.Unlock()
	require.Len(t, obs.ticks, 1)
	assert.Equal(t, wire.ComputationModel, obs.ticks[0].Kind)
}

// panicObserver 第一个观察者崩溃，不得影响后续事件处理。
type panicObserver struct{}

func (panicObserver) OnTick(dispatch.TickUpdate)     { panic("observer bug") }
func (panicObserver) OnStatus(dispatch.StatusUpdate) { panic("observer bug") }

func TestDispatcher_ObserverPanicIsolated(t *testing.T) {
	d, agg := newDispatcher(t)
	agg.Subscribe(1)

	d.Register(panicObserver{})
	healthy := &recordingObserver{}
	d.Register(healthy)

	d.HandleEvent(dispatch.PriceTick{SubID: 1, Code: 4, Value: 10})
	d.HandleEvent(dispatch.PriceTick{SubID: 1, Code: 4, Value: 11})

	snap, err := agg.Snapshot(1)
	require.NoError(t, err)
	assert.Equal(t, 11.0, snap.Fields[wire.FieldLast])
	assert.Equal(t, 2, healthy.tickCount())
}

// slowObserver 阻塞超过预算，分发必须继续。
type slowObserver struct{ release chan struct{} }

func (s *slowObserver) OnTick(dispatch.TickUpdate)     { <-s.release }
func (s *slowObserver) OnStatus(dispatch.StatusUpdate) { <-s.release }

func TestDispatcher_SlowObserverDoesNotStallDispatch(t *testing.T) {
	agg := market.NewAggregator(nil)
	d := dispatch.NewDispatcher(agg, 10*time.Millisecond, nil)
	agg.Subscribe(1)

	slow := &slowObserver{release: make(chan struct{})}
	defer close(slow.release)
	d.Register(slow)
	healthy := &recordingObserver{}
	d.Register(healthy)

	start := time.Now()
	d.HandleEvent(dispatch.PriceTick{SubID: 1, Code: 1, Value: 1})
	d.HandleEvent(dispatch.PriceTick{SubID: 1, Code: 1, Value: 2})
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 500*time.Millisecond, "dispatch stalled on slow observer")
	assert.Equal(t, 2, healthy.tickCount())
}

func TestDispatcher_Unregister(t *testing.T) {
	d, agg := newDispatcher(t)
	agg.Subscribe(1)

	obs := &recordingObserver{}
	handle := d.Register(obs)
	d.HandleEvent(dispatch.PriceTick{SubID: 1, Code: 1, Value: 1})
	d.Unregister(handle)
	d.HandleEvent(dispatch.PriceTick{SubID: 1, Code: 1, Value: 2})

	assert.Equal(t, 1, obs.tickCount())
}
