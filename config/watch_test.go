package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	updates := make(chan AppConfig, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		_ = Watcher{Path: path, Cooldown: time.Millisecond}.Start(ctx, func(cfg AppConfig) {
			select {
			case updates <- cfg:
			default:
			}
		})
	}()

	// give the watcher a moment to install before rewriting
	time.Sleep(100 * time.Millisecond)
	updated := validYAML + `  - id: 4
    encoded: EURUSD_CASH
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-updates:
		if len(cfg.Subscriptions) != 4 {
			t.Errorf("reloaded config has %d subscriptions, want 4", len(cfg.Subscriptions))
		}
	case <-ctx.Done():
		t.Fatal("no reload observed")
	}
}

func TestWatcher_SkipsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	updates := make(chan AppConfig, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		_ = Watcher{Path: path, Cooldown: time.Millisecond}.Start(ctx, func(cfg AppConfig) {
			updates <- cfg
		})
	}()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("env: ''\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	<-ctx.Done()

	select {
	case cfg := <-updates:
		t.Errorf("invalid config was delivered: %+v", cfg)
	default:
	}
}
