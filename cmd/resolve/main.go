package main

import (
	"fmt"
	"os"

	"ibfeed-go/contract"
)

// 小工具：把编码合约串解析成规范描述符，便于核对到期日推导。
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: resolve <ENCODED_SYMBOL>...")
		fmt.Fprintln(os.Stderr, "  e.g. resolve AAPL_STK ESM2016_FUT AAPL20160425P00105000_OPT")
		os.Exit(2)
	}
	exitCode := 0
	for _, encoded := range os.Args[1:] {
		desc, err := contract.ResolveFromEncodedSymbol(encoded)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", encoded, err)
			exitCode = 1
			continue
		}
		fmt.Printf("%-28s symbol=%s class=%s exchange=%s currency=%s", encoded,
			desc.Symbol, desc.AssetClass, desc.Exchange, desc.Currency)
		if desc.Expiry != "" {
			fmt.Printf(" expiry=%s", desc.Expiry)
		}
		if desc.AssetClass == contract.Option || desc.AssetClass == contract.FutureOption {
			fmt.Printf(" strike=%g right=%s", desc.Strike, desc.Right)
		}
		fmt.Println()
	}
	os.Exit(exitCode)
}
