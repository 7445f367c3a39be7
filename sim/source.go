// Package sim generates the random order flow and paces its arrival.
// It sits outside the matching core: the source only reads the last
// trade price and emits well-formed requests, and the driver only
// calls Submit.
package sim

import (
	"math"
	"math/rand"

	"marketsim/domain/book"
	"marketsim/domain/engine"
)

// PriceRef supplies the reference price the source centers its limit
// orders on.
type PriceRef interface {
	LastPrice() int64
}

// Source produces one random order request per Next call: a coin flip
// for side, a coin flip for market-vs-limit, and for limit orders a
// price within ±deviation of the last trade price.
type Source struct {
	rng       *rand.Rand
	ref       PriceRef
	deviation float64
	qty       int64
}

func NewSource(seed int64, ref PriceRef, deviation float64, qty int64) *Source {
	return &Source{
		rng:       rand.New(rand.NewSource(seed)),
		ref:       ref,
		deviation: deviation,
		qty:       qty,
	}
}

func (s *Source) Next() engine.Request {
	side := book.Bid
	if s.rng.Intn(2) == 1 {
		side = book.Ask
	}

	if s.rng.Intn(2) == 1 {
		return engine.Request{Side: side, Kind: engine.Market, Qty: s.qty}
	}

	dev := (s.rng.Float64()*2 - 1) * s.deviation
	price := int64(math.Round(float64(s.ref.LastPrice()) * (1 + dev)))
	if price < 1 {
		price = 1
	}
	return engine.Request{Side: side, Kind: engine.Limit, Price: price, Qty: s.qty}
}
