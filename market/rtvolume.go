package market

import (
	"fmt"
	"strconv"
	"strings"
)

// RTVolume 是 48 号 tick 的复合串解码结果：
// price;size;time;totalVolume;vwap;singleTradeFlag
type RTVolume struct {
	Price       float64
	Size        float64
	Time        float64 // epoch seconds
	TotalVolume float64
	VWAP        float64
	Single      bool
}

// ParseRTVolume decodes the semicolon-delimited real-time volume string.
// Empty numeric fields (the feed sends them on quiet prints) decode as zero.
func ParseRTVolume(raw string) (RTVolume, error) {
	parts := strings.Split(raw, ";")
	if len(parts) != 6 {
		return RTVolume{}, fmt.Errorf("rtvolume: want 6 fields, got %d in %q", len(parts), raw)
	}
	nums := make([]float64, 5)
	for i := 0; i < 5; i++ {
		if parts[i] == "" {
			continue
		}
		v, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return RTVolume{}, fmt.Errorf("rtvolume: field %d in %q: %w", i, raw, err)
		}
		nums[i] = v
	}
	return RTVolume{
		Price:       nums[0],
		Size:        nums[1],
		Time:        nums[2],
		TotalVolume: nums[3],
		VWAP:        nums[4],
		Single:      parts[5] == "1" || strings.EqualFold(parts[5], "true"),
	}, nil
}
