package main

import (
	"context"
	"flag"
	"log"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"marketsim/api/grpcserver"
	"marketsim/api/wire"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// ---------------- gRPC ----------------

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		logger.Fatal("listen failed", zap.String("addr", cfg.GRPC.Addr), zap.Error(err))
	}

	grpcSrv := grpc.NewServer()
	wire.RegisterEngineServer(grpcSrv, grpcserver.New(svc, logger))

	logger.Info("engine serving", zap.String("addr", cfg.GRPC.Addr))

	if err := grpcSrv.Serve(lis); err != nil {
		logger.Fatal("gRPC server exited", zap.Error(err))
	}
}
