// Package status classifies inbound API status codes.
package status

import "ibfeed-go/wire"

// Classification 状态码的处置类别。
type Classification int

const (
	// Benign 例行信息（如闭市时段无行情），不进入用户错误路径。
	Benign Classification = iota
	// Disconnect 网关会话丢失，外层传输需要重连并重新订阅。
	Disconnect
	// Unclassified 未知状态码，连同原始码和文本上抛给调用方。
	Unclassified
)

func (c Classification) String() string {
	switch c {
	case Benign:
		return "benign"
	case Disconnect:
		return "disconnect"
	default:
		return "unclassified"
	}
}

// Classify is a pure table lookup; codes in neither set are Unclassified.
func Classify(code int) Classification {
	switch {
	case wire.Benign(code):
		return Benign
	case wire.Disconnect(code):
		return Disconnect
	}
	return Unclassified
}
