package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"market-pulse-go/config"
	"market-pulse-go/gateway"
	"market-pulse-go/infrastructure/logger"
	"market-pulse-go/internal/liquidity"
	"market-pulse-go/internal/pricing"
	"market-pulse-go/internal/runner"
	"market-pulse-go/internal/trade"
	"market-pulse-go/metrics"
)

func main() {
	cfgPath := flag.String("config", "", "config file path, empty for defaults")
	metricsAddr := flag.String("metricsAddr", ":9105", "Prometheus metrics listen address, empty to disable")
	loops := flag.Int("loops", -1, "loop budget override, 0 runs forever, -1 keeps the config value")
	seed := flag.Int64("seed", 0, "RNG seed, 0 seeds from the clock")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *loops >= 0 {
		cfg.Loops = *loops
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Close()

	col := metrics.New(nil)
	metrics.StartServer(*metricsAddr)

	src := *seed
	if src == 0 {
		src = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(src))

	client := &gateway.VenueClient{
		BaseURL:    cfg.Venue.BaseURL,
		HTTPClient: gateway.NewDefaultHTTPClient(),
		Limiter:    gateway.NewTokenBucketLimiter(cfg.Venue.RestRate, cfg.Venue.RestBurst),
	}

	drift := pricing.NewDriftBook(cfg.Drift.StepBps, cfg.Drift.MaxBps)
	makers := &liquidity.Engine{
		Venue:      client,
		Log:        logg,
		Metrics:    col,
		Rng:        rng,
		OffsetBps:  cfg.Maker.OffsetBps,
		Levels:     cfg.Maker.Levels,
		MinResting: cfg.Maker.MinRestingPerSide,
		MaxPasses:  cfg.Maker.ReplenishMaxPasses,
		RoleSlots:  cfg.Trades.RoleSlots,
		Delay:      200 * time.Millisecond,
	}
	trades := &trade.Engine{
		Venue:      client,
		Makers:     makers,
		Drift:      drift,
		Log:        logg,
		Metrics:    col,
		Rng:        rng,
		TradesMin:  cfg.Trades.MinPerMarket,
		TradesMax:  cfg.Trades.MaxPerMarket,
		PickWindow: cfg.Trades.PickWindow,
		RoleSlots:  cfg.Trades.RoleSlots,
	}

	allow := make(map[int]bool, len(cfg.Markets))
	for _, idx := range cfg.Markets {
		allow[idx] = true
	}
	run := &runner.Runner{
		Venue:       client,
		Makers:      makers,
		Trades:      trades,
		Drift:       drift,
		Log:         logg,
		Metrics:     col,
		Rng:         rng,
		Interval:    time.Duration(cfg.Venue.LoopIntervalMs) * time.Millisecond,
		MarketDelay: time.Duration(cfg.Venue.MarketDelayMs) * time.Millisecond,
		ChartWidth:  cfg.Report.ChartWidth,
		Loops:       cfg.Loops,
		Markets:     allow,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *cfgPath != "" {
		watcher, err := config.NewWatcher(*cfgPath, 0)
		if err != nil {
			logg.LogError(err, map[string]interface{}{"path": *cfgPath})
		} else {
			defer watcher.Close()
			onUpdate := func(next config.AppConfig) {
				run.ApplyTunables(runner.Tunables{
					Interval:    time.Duration(next.Venue.LoopIntervalMs) * time.Millisecond,
					MarketDelay: time.Duration(next.Venue.MarketDelayMs) * time.Millisecond,
					TradesMin:   next.Trades.MinPerMarket,
					TradesMax:   next.Trades.MaxPerMarket,
					MinResting:  next.Maker.MinRestingPerSide,
				})
				logg.Info("config reloaded")
			}
			onError := func(err error) {
				logg.LogError(err, map[string]interface{}{"path": *cfgPath})
			}
			if err := watcher.Start(ctx, onUpdate, onError); err != nil {
				logg.LogError(err, map[string]interface{}{"path": *cfgPath})
			}
		}
	}

	if notified, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		logg.Warn("systemd notify failed: " + err.Error())
	} else if notified {
		logg.Info("systemd notified ready")
	}
	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		run.OnIteration = func(int) {
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}

	logg.Info("pulsebot starting")
	if err := run.Run(ctx); err != nil && ctx.Err() == nil {
		logg.LogError(err, nil)
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
		logg.Close()
		os.Exit(1)
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	logg.Info("pulsebot stopped")
}
