package book

import "errors"

// ErrInvalidOrder rejects requests with a non-positive price or quantity.
// The book is never mutated when this error is returned.
var ErrInvalidOrder = errors.New("book: invalid order: price and quantity must be positive")

type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// Opposite returns the side an incoming order executes against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// OrderID identifies a resting order. It equals the order's arrival
// sequence, which is unique for the lifetime of a run.
type OrderID uint64

type Status uint8

const (
	Active Status = iota
	Inactive
)

// Order is a resting limit order. Price is in ticks. Qty is the
// remaining unfilled quantity and stays positive while the order is
// resident; an order consumed down to zero is unlinked immediately.
//
// Orders are pooled: next/prev intrusive links keep price-level queues
// allocation-free, and Reset prepares an order for reuse.
type Order struct {
	ID     OrderID
	Side   Side
	Price  int64
	Qty    int64
	Seq    uint64
	Status Status

	next *Order
	prev *Order
}

func (o *Order) Reset() { *o = Order{} }

// Next walks the FIFO queue within a price level.
func (o *Order) Next() *Order { return o.next }
