package engine

import (
	"time"

	"github.com/google/uuid"

	"marketsim/domain/book"
)

type Kind uint8

const (
	// Market executes immediately against the best opposite price.
	Market Kind = iota
	// Limit executes up to its price bound and rests otherwise.
	Limit
)

func (k Kind) String() string {
	if k == Market {
		return "market"
	}
	return "limit"
}

// Request is one incoming order. Price is in ticks and only read for
// limit orders.
type Request struct {
	Side  book.Side
	Kind  Kind
	Price int64
	Qty   int64
}

// Trade is emitted once per match and immutable once produced.
type Trade struct {
	ID      uuid.UUID
	Price   int64
	Qty     int64
	BuySeq  uint64
	SellSeq uint64
	Taker   book.Side
	Time    time.Time
}

// Quote is the top-of-book view consumed by observers and by the
// order source to center its random deviation.
type Quote struct {
	Bid    int64
	Ask    int64
	HasBid bool
	HasAsk bool
}

// Spread returns ask-bid when both sides are quoted.
func (q Quote) Spread() (int64, bool) {
	if !q.HasBid || !q.HasAsk {
		return 0, false
	}
	return q.Ask - q.Bid, true
}
