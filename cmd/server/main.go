package main

import (
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fleshka4/dex-bridge/internal/config"
	"github.com/fleshka4/dex-bridge/internal/extension/dapp"
	"github.com/fleshka4/dex-bridge/internal/extension/pending"
	"github.com/fleshka4/dex-bridge/internal/infra/chain"
	"github.com/fleshka4/dex-bridge/internal/metrics"
	"github.com/fleshka4/dex-bridge/internal/routing"
	"github.com/fleshka4/dex-bridge/internal/service"
	transport "github.com/fleshka4/dex-bridge/internal/transport/http"
)

func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "cfg/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config.Load: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("newLogger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	providers := chain.Factory{CallTimeout: cfg.RequestTimeout}
	chains := make(map[uint64]transport.ChainStatuser, len(cfg.Chains))
	for id, url := range cfg.RPCURLs() {
		client, err := providers.Open(id, url)
		if err != nil {
			return errors.Wrapf(err, "chain %d", id)
		}
		defer client.Close()
		chains[id] = client
	}

	requests := pending.New(cfg.Pending.Capacity, cfg.Pending.TTL,
		pending.WithLogger(logger.Named("pending")),
		pending.WithEvictHook(func(pending.Info) { m.EvictedPending.Inc() }),
	)

	link := transport.NewBackgroundLink()
	relay, err := dapp.NewHandler(dapp.Config{
		Background: link,
		Pending:    requests,
		NewProvider: func(chainID uint64, rpcURL string) (dapp.Provider, error) {
			client, err := providers.Open(chainID, rpcURL)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		DefaultChainID: cfg.DefaultChainID,
		RPCURLs:        cfg.RPCURLs(),
		Logger:         logger.Named("dapp"),
		Metrics:        m,
	})
	if err != nil {
		return errors.Wrap(err, "dapp.NewHandler")
	}
	defer relay.Close()

	svc := service.NewRouteService(routing.NewComputer(cfg.Registry()), m, logger.Named("routes"))

	srv, err := transport.NewServer(transport.Deps{
		Service:    svc,
		Relay:      relay,
		Background: link,
		Chains:     chains,
		PendingLen: requests.Len,
		Gatherer:   reg,
		Logger:     logger.Named("http"),
	}, &cfg)
	if err != nil {
		return errors.Wrap(err, "transport.NewServer")
	}

	return errors.Wrap(srv.ListenAndServe(cfg.ListenAddr), "srv.ListenAndServe")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "zapcore.ParseLevel")
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
