package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"ibfeed-go/config"
	"ibfeed-go/contract"
	"ibfeed-go/dispatch"
	"ibfeed-go/gateway"
	"ibfeed-go/infrastructure/logger"
	"ibfeed-go/internal/timeutil"
	"ibfeed-go/market"
	"ibfeed-go/metrics"
	"ibfeed-go/status"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	metricsAddr := flag.String("metricsAddr", "", "覆盖配置中的 Prometheus 监听地址")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	logg, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logg.Close()

	addr := cfg.MetricsAddr
	if *metricsAddr != "" {
		addr = *metricsAddr
	}
	if addr != "" {
		metrics.StartMetricsServer(addr)
	}

	agg := market.NewAggregator(logg.Logger)
	budget := time.Duration(cfg.DispatchBudgetMs) * time.Millisecond
	disp := dispatch.NewDispatcher(agg, budget, logg.Logger)
	disp.Register(&statusLogger{log: logg})

	runner := &feedRunner{
		cfg:    cfg,
		agg:    agg,
		disp:   disp,
		log:    logg,
		client: gateway.NewFeedClient(cfg.Gateway.Endpoint, logg.Logger),
	}
	if err := runner.applySubscriptions(cfg.Subscriptions); err != nil {
		log.Fatalf("解析订阅失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watchConfig(ctx, *cfgPath, runner, logg)
	go notifyWatchdog(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logg.LogSession("shutdown", zap.String("signal", sig.String()))
		cancel()
	}()

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	runner.loop(ctx)
}

// feedRunner 维护当前订阅集并驱动网关连接循环。
type feedRunner struct {
	cfg    config.AppConfig
	agg    *market.Aggregator
	disp   *dispatch.Dispatcher
	log    *logger.Logger
	client *gateway.FeedClient

	mu   sync.Mutex
	subs []gateway.Subscription
}

// applySubscriptions resolves the configured contracts and reconciles both the
// aggregator and the live gateway session: new ids are subscribed, ids gone
// from the config are retired and unsubscribed. Between sessions the frame
// sends are no-ops; the next connect subscribes the full current set.
func (r *feedRunner) applySubscriptions(configured []config.SubscriptionConfig) error {
	next := make([]gateway.Subscription, 0, len(configured))
	wanted := make(map[int]struct{}, len(configured))
	for _, sc := range configured {
		desc, err := contract.ResolveFromEncodedSymbol(sc.Encoded)
		if err != nil {
			return err
		}
		next = append(next, gateway.Subscription{ID: sc.ID, Contract: desc})
		wanted[sc.ID] = struct{}{}
	}
	live := make(map[int]struct{})
	for _, id := range r.agg.Live() {
		live[id] = struct{}{}
	}
	for id := range live {
		if _, keep := wanted[id]; !keep {
			r.agg.Retire(id)
			if err := r.client.Unsubscribe(id); err != nil && !errors.Is(err, gateway.ErrNoSession) {
				r.log.Warn("unsubscribe failed", zap.Int("id", id), zap.Error(err))
			}
		}
	}
	for _, sub := range next {
		if _, ok := live[sub.ID]; ok {
			continue
		}
		r.agg.Subscribe(sub.ID)
		if err := r.client.Subscribe(sub); err != nil && !errors.Is(err, gateway.ErrNoSession) {
			r.log.Warn("subscribe failed", zap.Int("id", sub.ID), zap.Error(err))
		}
	}
	r.mu.Lock()
	r.subs = next
	r.mu.Unlock()
	return nil
}

func (r *feedRunner) currentSubs() []gateway.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]gateway.Subscription(nil), r.subs...)
}

// loop 连接网关；断开后退避重连并重新订阅当前集合。
func (r *feedRunner) loop(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		r.log.LogSession("connect",
			zap.String("endpoint", r.cfg.Gateway.Endpoint),
			zap.Int("utcOffsetHours", timeutil.UTCOffsetHours(time.Now())),
		)
		err := r.client.Run(ctx, r.disp, r.currentSubs())
		if ctx.Err() != nil {
			return
		}
		metrics.WSReconnects.Inc()
		r.log.LogSession("reconnect",
			zap.Error(err),
			zap.Duration("backoff", backoff),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// statusLogger 把非良性状态写入日志。
type statusLogger struct {
	log *logger.Logger
}

func (s *statusLogger) OnTick(dispatch.TickUpdate) {}

func (s *statusLogger) OnStatus(u dispatch.StatusUpdate) {
	if u.Class == status.Disconnect {
		s.log.LogSession("disconnect", zap.Int("code", u.Code), zap.String("message", u.Message))
		return
	}
	s.log.LogStatus(u.Code, u.Message, u.Class.String())
}

func watchConfig(ctx context.Context, path string, runner *feedRunner, logg *logger.Logger) {
	w := config.Watcher{Path: path, Cooldown: 2 * time.Second}
	_ = w.Start(ctx, func(cfg config.AppConfig) {
		if err := runner.applySubscriptions(cfg.Subscriptions); err != nil {
			logg.Warn("config reload rejected", zap.Error(err))
			return
		}
		logg.LogSession("config_reload", zap.Int("subscriptions", len(cfg.Subscriptions)))
	})
}

// notifyWatchdog 按 systemd 要求的间隔发送存活心跳。
func notifyWatchdog(ctx context.Context) {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}
