package book

// PriceQty is a top-of-book view: the best price on a side and the
// total quantity resting at that price level.
type PriceQty struct {
	Price int64
	Qty   int64
}

// Fill reports one consumption step against a resting order.
type Fill struct {
	Price int64
	Qty   int64
	Maker OrderID
}

// OrderBook holds the resting orders of both sides. It exclusively
// owns every resident Order; callers receive copies or short-lived
// views, never retained references.
type OrderBook struct {
	bids *levelTree
	asks *levelTree
	byID map[OrderID]*Order
}

func New() *OrderBook {
	return &OrderBook{
		bids: newLevelTree(),
		asks: newLevelTree(),
		byID: make(map[OrderID]*Order),
	}
}

func (b *OrderBook) side(s Side) *levelTree {
	if s == Bid {
		return b.bids
	}
	return b.asks
}

// Insert adds o as a resting order. The caller owns filling in Side,
// Price, Qty, and Seq; the book assigns the ID from Seq. Rejects
// non-positive price or quantity with ErrInvalidOrder and no mutation.
func (b *OrderBook) Insert(o *Order) (OrderID, error) {
	if o.Price <= 0 || o.Qty <= 0 {
		return 0, ErrInvalidOrder
	}
	o.ID = OrderID(o.Seq)
	o.Status = Active
	b.side(o.Side).Upsert(o.Price).enqueue(o)
	b.byID[o.ID] = o
	return o.ID, nil
}

// BestBid returns the highest bid level, if any.
func (b *OrderBook) BestBid() (PriceQty, bool) {
	lvl := b.bids.Max()
	if lvl == nil {
		return PriceQty{}, false
	}
	return PriceQty{Price: lvl.Price, Qty: lvl.TotalQty}, true
}

// BestAsk returns the lowest ask level, if any.
func (b *OrderBook) BestAsk() (PriceQty, bool) {
	lvl := b.asks.Min()
	if lvl == nil {
		return PriceQty{}, false
	}
	return PriceQty{Price: lvl.Price, Qty: lvl.TotalQty}, true
}

// TopOrder returns price, remaining quantity, and sequence of the
// order at the front of the given side's best level.
func (b *OrderBook) TopOrder(s Side) (price, qty int64, seq uint64, ok bool) {
	var lvl *PriceLevel
	if s == Bid {
		lvl = b.bids.Max()
	} else {
		lvl = b.asks.Min()
	}
	if lvl == nil || lvl.head == nil {
		return 0, 0, 0, false
	}
	h := lvl.head
	return h.Price, h.Qty, h.Seq, true
}

// PeekCross reports whether an executable trade exists: both sides
// non-empty and best bid at or above best ask.
func (b *OrderBook) PeekCross() bool {
	bid := b.bids.Max()
	ask := b.asks.Min()
	return bid != nil && ask != nil && bid.Price >= ask.Price
}

// ConsumeTop decrements the front order of the side's best level by up
// to qty, never more than the order holds. An order consumed to zero
// is unlinked and returned so the caller can recycle it; a partially
// consumed order stays at the front. Returns ok=false when the side is
// empty. Callers wanting more than the front order holds repeat the
// call against the new top.
func (b *OrderBook) ConsumeTop(s Side, qty int64) (Fill, *Order, bool) {
	var lvl *PriceLevel
	if s == Bid {
		lvl = b.bids.Max()
	} else {
		lvl = b.asks.Min()
	}
	if lvl == nil || lvl.head == nil {
		return Fill{}, nil, false
	}

	head := lvl.head
	take := qty
	if take > head.Qty {
		take = head.Qty
	}
	head.Qty -= take
	lvl.TotalQty -= take

	fill := Fill{Price: lvl.Price, Qty: take, Maker: head.ID}
	if head.Qty > 0 {
		return fill, nil, true
	}

	b.unlink(lvl, head, s)
	return fill, head, true
}

// Remove deletes the order with the given id, returning it for
// recycling. An absent id is a no-op, not an error.
func (b *OrderBook) Remove(id OrderID) *Order {
	o, ok := b.byID[id]
	if !ok {
		return nil
	}
	lvl := b.side(o.Side).Find(o.Price)
	if lvl == nil {
		delete(b.byID, id)
		return o
	}
	b.unlink(lvl, o, o.Side)
	return o
}

func (b *OrderBook) unlink(lvl *PriceLevel, o *Order, s Side) {
	o.Status = Inactive
	lvl.unlink(o)
	if lvl.head == nil {
		b.side(s).Delete(lvl.Price)
	}
	delete(b.byID, o.ID)
}

// BidsWalk visits bid levels best to worst.
func (b *OrderBook) BidsWalk(fn func(*PriceLevel) bool) {
	b.bids.Descend(fn)
}

// AsksWalk visits ask levels best to worst.
func (b *OrderBook) AsksWalk(fn func(*PriceLevel) bool) {
	b.asks.Ascend(fn)
}

// Sizes returns the number of bid and ask price levels.
func (b *OrderBook) Sizes() (bidLevels, askLevels int) {
	return b.bids.Size(), b.asks.Size()
}

// RestingQty sums the remaining quantity on both sides. Used by
// conservation checks.
func (b *OrderBook) RestingQty() int64 {
	var total int64
	b.bids.Ascend(func(lvl *PriceLevel) bool {
		total += lvl.TotalQty
		return true
	})
	b.asks.Ascend(func(lvl *PriceLevel) bool {
		total += lvl.TotalQty
		return true
	})
	return total
}

// Clear resets both sides. Used when rebuilding from the tape.
func (b *OrderBook) Clear() {
	b.bids.Clear()
	b.asks.Clear()
	b.byID = make(map[OrderID]*Order)
}
