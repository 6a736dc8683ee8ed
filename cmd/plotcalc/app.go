package main

import (
	"fmt"
	"log/slog"

	plotcalc "github.com/AbhinitBarua/PlottingCalculator"
	"github.com/AbhinitBarua/PlottingCalculator/internal/config"
	"github.com/AbhinitBarua/PlottingCalculator/internal/metrics"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/file"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/gonumplot"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/memory"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/redis"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
	"gonum.org/v1/plot/vg"
)

// app bundles what every command builds from the configuration.
type app struct {
	svc      *plotcalc.Service
	metrics  *metrics.Metrics
	renderer *gonumplot.Renderer
	close    func() error
}

// newStore opens the configured session store and, for Redis, the matching locker.
func newStore(cfg config.Config) (ports.StateStore, ports.DistributedLocker, func() error, error) {
	switch cfg.Store.Driver {
	case config.DriverRedis:
		prefix := cfg.Store.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		store := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB,
			redis.WithPrefix(prefix),
			redis.WithTTL(cfg.Store.Redis.TTL),
		)
		return store, redis.NewLocker(store.Client(), prefix), store.Close, nil
	case config.DriverFile:
		return file.New(cfg.Store.File.Dir), nil, func() error { return nil }, nil
	case config.DriverMemory:
		return memory.NewStore(), nil, func() error { return nil }, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func newRenderer(cfg config.Config, title string) *gonumplot.Renderer {
	return gonumplot.NewRenderer(
		gonumplot.WithSize(vg.Length(cfg.Plot.Width)*vg.Inch, vg.Length(cfg.Plot.Height)*vg.Inch),
		gonumplot.WithTitle(title),
	)
}

// newApp wires the service to the configured store, metrics and plot defaults.
func newApp(cfg config.Config, logger *slog.Logger, extra ...plotcalc.Option) (*app, error) {
	store, locker, closeStore, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	opts := []plotcalc.Option{
		plotcalc.WithStore(store),
		plotcalc.WithLogger(logger),
		plotcalc.WithDefaultDomain(cfg.Domain()),
		plotcalc.WithPoints(cfg.Plot.Points),
		plotcalc.WithPalette(cfg.PaletteColors()),
		plotcalc.WithInitialFunctions(cfg.Plot.Initial...),
		plotcalc.WithLockTTL(cfg.Store.LockTTL),
	}
	if locker != nil {
		opts = append(opts, plotcalc.WithLocker(locker))
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		opts = append(opts, plotcalc.WithLifecycleHooks(m.Hooks()))
	}

	svc, err := plotcalc.New(append(opts, extra...)...)
	if err != nil {
		_ = closeStore()
		return nil, err
	}
	return &app{
		svc:      svc,
		metrics:  m,
		renderer: newRenderer(cfg, ""),
		close:    closeStore,
	}, nil
}
