package gateway

import (
	"encoding/json"
	"fmt"

	"ibfeed-go/dispatch"
	"ibfeed-go/market"
)

// Frame 对应网关桥接器推送的已反序列化事件包装。
type Frame struct {
	Type     string          `json:"type"`
	TickerID int             `json:"tickerId"`
	Code     int             `json:"code"`
	Value    float64         `json:"value"`
	Raw      string          `json:"raw"`
	Message  string          `json:"message"`
	Greeks   json.RawMessage `json:"greeks"`
}

type greeksPayload struct {
	ImpliedVol      float64 `json:"impliedVol"`
	Delta           float64 `json:"delta"`
	OptPrice        float64 `json:"optPrice"`
	PvDividend      float64 `json:"pvDividend"`
	Gamma           float64 `json:"gamma"`
	Vega            float64 `json:"vega"`
	Theta           float64 `json:"theta"`
	UnderlyingPrice float64 `json:"undPrice"`
}

// ParseFrame 解析一条网关消息并转换为分发事件。
func ParseFrame(raw []byte) (dispatch.Event, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}
	switch f.Type {
	case "tickPrice":
		return dispatch.PriceTick{SubID: f.TickerID, Code: f.Code, Value: f.Value}, nil
	case "tickSize":
		return dispatch.SizeTick{SubID: f.TickerID, Code: f.Code, Value: f.Value}, nil
	case "tickGeneric":
		return dispatch.GenericTick{SubID: f.TickerID, Code: f.Code, Value: f.Value}, nil
	case "tickString":
		return dispatch.StringTick{SubID: f.TickerID, Code: f.Code, Raw: f.Raw}, nil
	case "tickOptionComputation":
		var g greeksPayload
		if len(f.Greeks) > 0 {
			if err := json.Unmarshal(f.Greeks, &g); err != nil {
				return nil, fmt.Errorf("parse greeks: %w", err)
			}
		}
		return dispatch.OptionComputationTick{
			SubID: f.TickerID,
			Code:  f.Code,
			Greeks: market.Greeks{
				ImpliedVol:      g.ImpliedVol,
				Delta:           g.Delta,
				OptPrice:        g.OptPrice,
				PvDividend:      g.PvDividend,
				Gamma:           g.Gamma,
				Vega:            g.Vega,
				Theta:           g.Theta,
				UnderlyingPrice: g.UnderlyingPrice,
			},
		}, nil
	case "error":
		return dispatch.StatusMessage{SubID: f.TickerID, Code: f.Code, Message: f.Message}, nil
	case "connectionClosed":
		return dispatch.ConnectionClosed{}, nil
	}
	return nil, fmt.Errorf("parse frame: unknown type %q", f.Type)
}
