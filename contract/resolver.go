package contract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"ibfeed-go/wire"
)

// Params carries caller-supplied fields for ResolveExplicit.
type Params struct {
	Symbol     string
	AssetClass AssetClass
	Exchange   string
	Currency   string
	Expiry     string // YYYY-MM-DD or YYYYMMDD
	Strike     float64
	Right      Right
	Multiplier string
}

// ResolveExplicit builds a descriptor directly from explicit parameters.
// No derivation happens here; required fields per asset class are enforced.
func ResolveExplicit(p Params) (Descriptor, error) {
	if p.Symbol == "" {
		return Descriptor{}, fmt.Errorf("%w: symbol is required", ErrInvalidContract)
	}
	if !validAssetClass(p.AssetClass) {
		return Descriptor{}, fmt.Errorf("%w: unknown asset class %q", ErrInvalidContract, p.AssetClass)
	}
	expiry := p.Expiry
	if p.AssetClass.HasExpiry() {
		if expiry == "" {
			return Descriptor{}, fmt.Errorf("%w: %s requires expiry", ErrInvalidContract, p.AssetClass)
		}
		var err error
		expiry, err = normalizeDate(expiry)
		if err != nil {
			return Descriptor{}, fmt.Errorf("%w: bad expiry %q", ErrInvalidContract, p.Expiry)
		}
	}
	if p.AssetClass == Option || p.AssetClass == FutureOption {
		if p.Strike <= 0 {
			return Descriptor{}, fmt.Errorf("%w: %s requires strike", ErrInvalidContract, p.AssetClass)
		}
		if p.Right != Call && p.Right != Put {
			return Descriptor{}, fmt.Errorf("%w: %s requires right CALL or PUT", ErrInvalidContract, p.AssetClass)
		}
	}
	return Descriptor{
		Symbol:     p.Symbol,
		AssetClass: p.AssetClass,
		Exchange:   p.Exchange,
		Currency:   p.Currency,
		Expiry:     expiry,
		Strike:     p.Strike,
		Right:      p.Right,
		Multiplier: p.Multiplier,
	}, nil
}

// ResolveFromEncodedSymbol parses a compact `<SYMBOL>_<CLASS>` encoding.
//
//	AAPL_STK
//	ESM2016_FUT / ESM16_FUT       (month code + year; expiry = third Friday)
//	AAPL20160425P00105000_OPT     (OCC style: date, right, strike in 1/1000)
//	EURUSD_CASH
func ResolveFromEncodedSymbol(encoded string) (Descriptor, error) {
	idx := strings.LastIndex(encoded, "_")
	if idx <= 0 || idx == len(encoded)-1 {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnrecognizedSymbol, encoded)
	}
	sym, class := encoded[:idx], AssetClass(encoded[idx+1:])

	switch class {
	case Stock, Combo:
		return Descriptor{Symbol: sym, AssetClass: class, Exchange: "SMART", Currency: "USD"}, nil

	case Cash:
		if len(sym) != 6 {
			return Descriptor{}, fmt.Errorf("%w: cash pair %q", ErrUnrecognizedSymbol, sym)
		}
		return Descriptor{
			Symbol:     sym[:3],
			AssetClass: Cash,
			Exchange:   "IDEALPRO",
			Currency:   sym[3:],
		}, nil

	case Future:
		root, expiry, err := parseFutureSymbol(sym)
		if err != nil {
			return Descriptor{}, err
		}
		return Descriptor{
			Symbol:     root,
			AssetClass: Future,
			Exchange:   "GLOBEX",
			Currency:   "USD",
			Expiry:     expiry,
		}, nil

	case Option, FutureOption:
		root, expiry, strike, right, err := parseOptionSymbol(sym)
		if err != nil {
			return Descriptor{}, err
		}
		exchange := "SMART"
		if class == FutureOption {
			exchange = "GLOBEX"
		}
		return Descriptor{
			Symbol:     root,
			AssetClass: class,
			Exchange:   exchange,
			Currency:   "USD",
			Expiry:     expiry,
			Strike:     strike,
			Right:      right,
		}, nil
	}
	return Descriptor{}, fmt.Errorf("%w: asset class %q", ErrUnrecognizedSymbol, class)
}

// parseFutureSymbol splits `<root><monthCode><year>`; the year is four digits,
// or two digits (2000-based) in the short listing form.
func parseFutureSymbol(sym string) (root, expiry string, err error) {
	for _, digits := range []int{4, 2} {
		if len(sym) < digits+2 {
			continue
		}
		yearPart := sym[len(sym)-digits:]
		code := sym[len(sym)-digits-1 : len(sym)-digits]
		year, convErr := strconv.Atoi(yearPart)
		if convErr != nil {
			continue
		}
		month, ok := wire.MonthFromCode(code)
		if !ok {
			continue
		}
		if digits == 2 {
			year += 2000
		}
		return sym[:len(sym)-digits-1], thirdFriday(year, time.Month(month)).Format("2006-01-02"), nil
	}
	return "", "", fmt.Errorf("%w: future symbol %q", ErrUnrecognizedSymbol, sym)
}

// parseOptionSymbol decodes `<root><YYYYMMDD><C|P><8-digit strike in 1/1000>`.
func parseOptionSymbol(sym string) (root, expiry string, strike float64, right Right, err error) {
	if len(sym) < 18 {
		return "", "", 0, "", fmt.Errorf("%w: option symbol %q too short", ErrUnrecognizedSymbol, sym)
	}
	date := sym[len(sym)-17 : len(sym)-9]
	expiry, convErr := normalizeDate(date)
	if convErr != nil {
		return "", "", 0, "", fmt.Errorf("%w: option date %q in %q", ErrUnrecognizedSymbol, date, sym)
	}
	switch sym[len(sym)-9] {
	case 'C':
		right = Call
	case 'P':
		right = Put
	default:
		return "", "", 0, "", fmt.Errorf("%w: option right %q in %q", ErrUnrecognizedSymbol, sym[len(sym)-9], sym)
	}
	milli, convErr := strconv.Atoi(sym[len(sym)-8:])
	if convErr != nil {
		return "", "", 0, "", fmt.Errorf("%w: option strike in %q", ErrUnrecognizedSymbol, sym)
	}
	return sym[:len(sym)-17], expiry, float64(milli) / 1000, right, nil
}

// thirdFriday 返回该月第三个星期五：月初加两周，再顺延到最近的星期五（含当天）。
func thirdFriday(year int, month time.Month) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 14)
	offset := (int(time.Friday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// normalizeDate accepts YYYYMMDD or YYYY-MM-DD and returns YYYY-MM-DD,
// rejecting anything that is not a real calendar date.
func normalizeDate(raw string) (string, error) {
	for _, layout := range []string{"20060102", "2006-01-02"} {
		if d, err := time.Parse(layout, raw); err == nil {
			return d.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("bad date %q", raw)
}
