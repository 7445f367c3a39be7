package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"marketsim/config"
	"marketsim/domain/book"
	"marketsim/domain/engine"
	"marketsim/infra/kafka"
	"marketsim/infra/memory"
	"marketsim/infra/outbox"
	"marketsim/infra/sequence"
	"marketsim/infra/tape"
	"marketsim/jobs/broadcaster"
	"marketsim/jobs/quotes"
	"marketsim/service"
	"marketsim/sim"
	"marketsim/snapshot"
)

func main() {
	cfgPath := flag.String("config", "", "optional config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	// ---------------- Tape ----------------

	tp, err := tape.Open(tape.Config{
		Dir:             cfg.Tape.Dir,
		SegmentSize:     cfg.Tape.SegmentSize,
		SegmentDuration: cfg.Tape.SegmentDuration,
	})
	if err != nil {
		logger.Fatal("tape init failed", zap.Error(err))
	}
	defer tp.Close()

	// ---------------- Outbox ----------------

	ob, err := outbox.Open(cfg.Outbox.Dir)
	if err != nil {
		logger.Fatal("outbox init failed", zap.Error(err))
	}
	defer ob.Close()

	// ---------------- Sequencer ----------------

	seqGen := sequence.New(0)

	// ---------------- Memory ----------------

	pool := memory.NewPool(func() *book.Order {
		return &book.Order{}
	})
	ring := memory.NewRetireRing(1 << 18)
	reader := snapshot.NewReader()

	// ---------------- Engine ----------------

	eng, err := engine.New(engine.Config{
		InitialPrice: cfg.Market.InitialPriceTicks(),
		Spread:       cfg.Market.Spread,
		QuoteQty:     cfg.Market.QuoteQty,
	}, seqGen, pool, ring)
	if err != nil {
		logger.Fatal("engine init failed", zap.Error(err))
	}

	// ---------------- Tape replay ----------------

	if err := service.ReplayTape(cfg.Tape.Dir, eng, seqGen, logger); err != nil {
		logger.Fatal("tape replay failed", zap.Error(err))
	}

	// ---------------- Service ----------------

	svc, err := service.NewEngineService(eng, tp, ob, pool, ring, reader, seqGen, logger)
	if err != nil {
		logger.Fatal("service init failed", zap.Error(err))
	}

	// ---------------- Background jobs ----------------

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				svc.AdvanceEpoch()
			}
		}
	}()

	if cfg.Kafka.Enabled {
		bc, err := broadcaster.New(
			ob,
			cfg.Kafka.Brokers,
			cfg.Kafka.TradeTopic,
			cfg.Kafka.BroadcastInterval,
			logger,
		)
		if err != nil {
			logger.Fatal("broadcaster init failed", zap.Error(err))
		}
		defer bc.Close()
		go bc.Run(ctx)

		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.QuoteTopic)
		defer producer.Close()
		qp := quotes.New(svc, producer, cfg.Market.TickSizeDecimal(), cfg.Kafka.PublishInterval, logger)
		go qp.Run(ctx)
	}

	// ---------------- Simulation ----------------

	src := sim.NewSource(cfg.Sim.Seed, eng, cfg.Sim.LimitDeviation, cfg.Sim.OrderQty)
	driver := sim.NewDriver(svc, src, cfg.Sim.Interval, cfg.Sim.Orders, logger)

	submitted := driver.Run(ctx)

	q := eng.BestQuote()
	logger.Info("simulation finished",
		zap.Int("orders", submitted),
		zap.String("last", cfg.Market.ToPrice(eng.LastPrice()).String()),
		zap.String("bid", cfg.Market.ToPrice(q.Bid).String()),
		zap.String("ask", cfg.Market.ToPrice(q.Ask).String()),
	)

	if err := tp.Sync(); err != nil {
		logger.Error("tape sync failed", zap.Error(err))
	}
}
