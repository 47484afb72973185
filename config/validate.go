package config

import (
	"errors"
	"fmt"
	"strings"

	"ibfeed-go/contract"
)

// Validate ensures required fields are present and subscriptions resolve.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Gateway.Endpoint == "" {
		return errors.New("gateway.endpoint is required (or FEED_GATEWAY_ENDPOINT)")
	}
	if !strings.HasPrefix(cfg.Gateway.Endpoint, "ws://") && !strings.HasPrefix(cfg.Gateway.Endpoint, "wss://") {
		return fmt.Errorf("gateway.endpoint %q must be ws:// or wss://", cfg.Gateway.Endpoint)
	}
	if cfg.Gateway.ClientID < 0 {
		return errors.New("gateway.clientId must be >= 0")
	}
	if cfg.DispatchBudgetMs < 0 {
		return errors.New("dispatchBudgetMs must be >= 0")
	}
	if len(cfg.Subscriptions) == 0 {
		return errors.New("subscriptions config is required")
	}
	seen := make(map[int]struct{}, len(cfg.Subscriptions))
	for _, sub := range cfg.Subscriptions {
		if sub.ID <= 0 {
			return fmt.Errorf("subscription %q id must be > 0", sub.Encoded)
		}
		if _, dup := seen[sub.ID]; dup {
			return fmt.Errorf("subscription id %d is duplicated", sub.ID)
		}
		seen[sub.ID] = struct{}{}
		if _, err := contract.ResolveFromEncodedSymbol(sub.Encoded); err != nil {
			return fmt.Errorf("subscription %d: %w", sub.ID, err)
		}
	}
	return nil
}
