package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ibfeed-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env              string               `yaml:"env"`
	Gateway          GatewayConfig        `yaml:"gateway"`
	Logging          logger.Config        `yaml:"logging"`
	MetricsAddr      string               `yaml:"metricsAddr"`
	DispatchBudgetMs int                  `yaml:"dispatchBudgetMs"`
	Subscriptions    []SubscriptionConfig `yaml:"subscriptions"`
}

type GatewayConfig struct {
	Endpoint string `yaml:"endpoint"` // ws:// or wss:// bridge endpoint
	ClientID int    `yaml:"clientId"`
	Account  string `yaml:"account"`
}

// SubscriptionConfig 一条行情订阅：编码合约串 + 调用方指定的订阅 id。
type SubscriptionConfig struct {
	ID      int    `yaml:"id"`
	Encoded string `yaml:"encoded"` // e.g. AAPL_STK, ESM2016_FUT
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides sensitive fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("FEED_GATEWAY_ENDPOINT"); v != "" {
		cfg.Gateway.Endpoint = v
	}
	if v := os.Getenv("FEED_GATEWAY_ACCOUNT"); v != "" {
		cfg.Gateway.Account = v
	}
	return cfg, Validate(cfg)
}
