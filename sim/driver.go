package sim

import (
	"context"
	"time"

	"go.uber.org/zap"

	"marketsim/domain/engine"
)

// Submitter is the write surface the driver drives.
type Submitter interface {
	Submit(engine.Request) ([]engine.Trade, error)
}

// Driver feeds source output into the engine with a fixed inter-arrival
// delay. maxOrders == 0 runs until the context is cancelled.
type Driver struct {
	submitter Submitter
	source    *Source
	interval  time.Duration
	maxOrders int
	log       *zap.Logger
}

func NewDriver(
	submitter Submitter,
	source *Source,
	interval time.Duration,
	maxOrders int,
	log *zap.Logger,
) *Driver {
	return &Driver{
		submitter: submitter,
		source:    source,
		interval:  interval,
		maxOrders: maxOrders,
		log:       log,
	}
}

// Run submits orders until cancellation or the order budget runs out.
// Returns the number of orders submitted.
func (d *Driver) Run(ctx context.Context) int {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	submitted := 0
	for {
		select {
		case <-ctx.Done():
			return submitted
		case <-ticker.C:
			req := d.source.Next()
			trades, err := d.submitter.Submit(req)
			if err != nil {
				d.log.Warn("order rejected",
					zap.String("side", req.Side.String()),
					zap.String("kind", req.Kind.String()),
					zap.Error(err))
				continue
			}
			submitted++

			for _, t := range trades {
				d.log.Info("trade",
					zap.Int64("price", t.Price),
					zap.Int64("qty", t.Qty),
					zap.String("taker", t.Taker.String()))
			}

			if d.maxOrders > 0 && submitted >= d.maxOrders {
				return submitted
			}
		}
	}
}
