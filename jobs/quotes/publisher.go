// Package quotes publishes periodic top-of-book snapshots to Kafka
// for downstream renderers and plotters; the core never draws.
package quotes

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"marketsim/domain/engine"
	"marketsim/infra/kafka"
)

// Quoter is the narrow read surface the publisher needs.
type Quoter interface {
	BestQuote() engine.Quote
	LastPrice() int64
}

// Snapshot is the published payload. Prices are decimal strings.
type Snapshot struct {
	Bid  string    `json:"bid,omitempty"`
	Ask  string    `json:"ask,omitempty"`
	Last string    `json:"last"`
	Time time.Time `json:"time"`
}

type Publisher struct {
	quoter   Quoter
	producer *kafka.Producer
	tickSize decimal.Decimal
	interval time.Duration
	log      *zap.Logger
}

func New(
	quoter Quoter,
	producer *kafka.Producer,
	tickSize decimal.Decimal,
	interval time.Duration,
	log *zap.Logger,
) *Publisher {
	return &Publisher{
		quoter:   quoter,
		producer: producer,
		tickSize: tickSize,
		interval: interval,
		log:      log,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	p.log.Info("quote publisher started", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishOnce(ctx)
		}
	}
}

func (p *Publisher) publishOnce(ctx context.Context) {
	snap := p.snapshot()

	payload, err := json.Marshal(snap)
	if err != nil {
		p.log.Error("quote snapshot marshal failed", zap.Error(err))
		return
	}

	key := []byte(strconv.FormatInt(snap.Time.UnixNano(), 10))
	if err := p.producer.Send(ctx, key, payload); err != nil {
		p.log.Warn("quote publish failed", zap.Error(err))
	}
}

func (p *Publisher) snapshot() Snapshot {
	q := p.quoter.BestQuote()
	snap := Snapshot{
		Last: p.price(p.quoter.LastPrice()),
		Time: time.Now(),
	}
	if q.HasBid {
		snap.Bid = p.price(q.Bid)
	}
	if q.HasAsk {
		snap.Ask = p.price(q.Ask)
	}
	return snap
}

func (p *Publisher) price(ticks int64) string {
	return p.tickSize.Mul(decimal.NewFromInt(ticks)).String()
}
