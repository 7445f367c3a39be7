package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"marketsim/domain/book"
	"marketsim/infra/memory"
	"marketsim/infra/sequence"
)

// ErrInvalidOrder mirrors book.ErrInvalidOrder for callers that only
// import the engine.
var ErrInvalidOrder = book.ErrInvalidOrder

// drainBudget bounds the cross-resolution loop. The loop converges
// because every pass either consumes resting quantity or moves the
// reference price onto the stale order's level; hitting the budget
// means the book logic is broken and continuing would corrupt output.
const drainBudget = 1 << 20

// Config fixes the engine's market parameters at construction.
type Config struct {
	// InitialPrice seeds the reference price, in ticks.
	InitialPrice int64
	// Spread is the market maker's full quoted spread as a fraction
	// of the reference price, e.g. 0.005 for 0.5%.
	Spread float64
	// QuoteQty is the quantity on each market-maker quote. Zero
	// disables seeding and replenishment.
	QuoteQty int64
}

func (c Config) validate() error {
	if c.InitialPrice <= 0 {
		return errors.New("engine: initial price must be positive")
	}
	if c.Spread <= 0 || c.Spread >= 1 {
		return errors.New("engine: spread must be in (0,1)")
	}
	if c.QuoteQty < 0 {
		return errors.New("engine: quote quantity must not be negative")
	}
	return nil
}

// Engine owns the order book and the market state for the lifetime of
// a run. It is single-writer; see the package comment.
type Engine struct {
	cfg       Config
	book      *book.OrderBook
	seq       *sequence.Sequencer
	pool      *memory.Pool[book.Order]
	ring      *memory.RetireRing
	lastPrice int64

	// The market maker's own resting quote. Zero means no quote on
	// that side; sequence IDs start at 1, so 0 is never a valid ID.
	mmBid book.OrderID
	mmAsk book.OrderID
}

// New builds an engine and, when QuoteQty > 0, seeds the initial
// symmetric market-maker quote around InitialPrice.
func New(
	cfg Config,
	seq *sequence.Sequencer,
	pool *memory.Pool[book.Order],
	ring *memory.RetireRing,
) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		book:      book.New(),
		seq:       seq,
		pool:      pool,
		ring:      ring,
		lastPrice: cfg.InitialPrice,
	}
	e.requote()
	return e, nil
}

// Validate checks a request without touching any state. Submit applies
// the same checks; services call this first so rejected requests never
// reach the tape.
func Validate(req Request) error {
	if req.Side != book.Bid && req.Side != book.Ask {
		return ErrInvalidOrder
	}
	if req.Kind != Market && req.Kind != Limit {
		return ErrInvalidOrder
	}
	if req.Qty <= 0 {
		return ErrInvalidOrder
	}
	if req.Kind == Limit && req.Price <= 0 {
		return ErrInvalidOrder
	}
	return nil
}

// Submit runs one request to a terminal outcome and returns the trades
// it produced, in execution order. A market order against an empty
// opposite side is a defined no-op: no trades, no mutation. Rejected
// requests leave all state untouched.
func (e *Engine) Submit(req Request) ([]Trade, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	seq := e.seq.Next()
	var trades []Trade

	switch req.Kind {
	case Market:
		e.take(req.Side, seq, req.Qty, 0, &trades)
	case Limit:
		remaining := e.take(req.Side, seq, req.Qty, req.Price, &trades)
		if remaining > 0 {
			e.rest(req.Side, req.Price, remaining, seq)
		}
	}

	e.drain(&trades)
	return trades, nil
}

// take consumes liquidity from the opposite side until qty is filled,
// the limit stops crossing, or the side empties. limit == 0 means no
// price bound (market order). Trades print at the resting side's
// price: price improvement goes to the maker. Returns unfilled qty.
func (e *Engine) take(side book.Side, seq uint64, qty, limit int64, trades *[]Trade) int64 {
	opp := side.Opposite()
	for qty > 0 {
		price, _, makerSeq, ok := e.book.TopOrder(opp)
		if !ok {
			break
		}
		if limit > 0 && !crosses(side, limit, price) {
			break
		}

		fill, exhausted, ok := e.book.ConsumeTop(opp, qty)
		if !ok {
			break
		}
		qty -= fill.Qty
		*trades = append(*trades, e.trade(side, seq, makerSeq, fill))
		if exhausted != nil {
			e.retire(exhausted)
		}
		e.requote()
	}
	return qty
}

func crosses(side book.Side, limit, restingPrice int64) bool {
	if side == book.Bid {
		return limit >= restingPrice
	}
	return limit <= restingPrice
}

// rest inserts the unfilled remainder as a resting order.
func (e *Engine) rest(side book.Side, price, qty int64, seq uint64) book.OrderID {
	o := e.alloc()
	*o = book.Order{Side: side, Price: price, Qty: qty, Seq: seq}
	id, err := e.book.Insert(o)
	if err != nil {
		// Validate already vetted price and qty.
		panic(fmt.Sprintf("engine: rest rejected: %v", err))
	}
	return id
}

// trade records the fill as a trade event and moves the reference
// price onto it.
func (e *Engine) trade(taker book.Side, takerSeq, makerSeq uint64, fill book.Fill) Trade {
	buySeq, sellSeq := takerSeq, makerSeq
	if taker == book.Ask {
		buySeq, sellSeq = makerSeq, takerSeq
	}
	e.lastPrice = fill.Price
	return Trade{
		ID:      uuid.New(),
		Price:   fill.Price,
		Qty:     fill.Qty,
		BuySeq:  buySeq,
		SellSeq: sellSeq,
		Taker:   taker,
		Time:    time.Now(),
	}
}

// requote withdraws the market maker's previous quote and inserts a
// fresh symmetric one around the reference price, so after any trade
// the maker's spread recenters on the last price. Customer limit
// orders are never withdrawn. Flooring the bid and ceiling the ask
// keeps bid < ask strictly for any positive spread.
func (e *Engine) requote() {
	if e.cfg.QuoteQty <= 0 {
		return
	}
	e.withdraw(&e.mmBid)
	e.withdraw(&e.mmAsk)

	half := e.cfg.Spread / 2
	ref := float64(e.lastPrice)
	bid := int64(math.Floor(ref * (1 - half)))
	ask := int64(math.Ceil(ref * (1 + half)))
	if bid > 0 {
		e.mmBid = e.rest(book.Bid, bid, e.cfg.QuoteQty, e.seq.Next())
	}
	e.mmAsk = e.rest(book.Ask, ask, e.cfg.QuoteQty, e.seq.Next())
}

// withdraw pulls one maker quote from the book. A quote already fully
// consumed (or drained away) makes Remove a no-op.
func (e *Engine) withdraw(id *book.OrderID) {
	if *id == 0 {
		return
	}
	if o := e.book.Remove(*id); o != nil {
		e.retire(o)
	}
	*id = 0
}

// drain resolves crossed state until quiescence. Replenishing at a new
// reference price can cross stale resting orders on the other side, so
// insertion and matching both funnel through here before Submit
// returns. In each pass the younger top order is the taker and the
// trade prints at the older order's price.
func (e *Engine) drain(trades *[]Trade) {
	for i := 0; e.book.PeekCross(); i++ {
		if i >= drainBudget {
			panic("engine: book still crossed after drain budget; matching state corrupt")
		}

		_, bidQty, bidSeq, _ := e.book.TopOrder(book.Bid)
		_, askQty, askSeq, _ := e.book.TopOrder(book.Ask)

		qty := bidQty
		if askQty < qty {
			qty = askQty
		}

		taker, takerSeq, makerSeq := book.Bid, bidSeq, askSeq
		makerSide := book.Ask
		if askSeq > bidSeq {
			taker, takerSeq, makerSeq = book.Ask, askSeq, bidSeq
			makerSide = book.Bid
		}

		// Consume the maker first to capture its price, then the
		// taker's resting remainder.
		fill, exhausted, ok := e.book.ConsumeTop(makerSide, qty)
		if !ok {
			panic("engine: crossed book lost its maker side")
		}
		if exhausted != nil {
			e.retire(exhausted)
		}
		_, takerGone, ok := e.book.ConsumeTop(makerSide.Opposite(), qty)
		if !ok {
			panic("engine: crossed book lost its taker side")
		}
		if takerGone != nil {
			e.retire(takerGone)
		}

		*trades = append(*trades, e.trade(taker, takerSeq, makerSeq, fill))
		e.requote()
	}

	e.assertUncrossed()
}

// assertUncrossed enforces the post-drain invariant. A crossed book
// here is a programming error; downstream prices would be meaningless,
// so abort instead of continuing.
func (e *Engine) assertUncrossed() {
	bid, okBid := e.book.BestBid()
	ask, okAsk := e.book.BestAsk()
	if okBid && okAsk && bid.Price >= ask.Price {
		panic(fmt.Sprintf(
			"engine: no-cross invariant violated: bid %d >= ask %d", bid.Price, ask.Price))
	}
}

func (e *Engine) alloc() *book.Order {
	if e.pool != nil {
		return e.pool.Get()
	}
	return &book.Order{}
}

func (e *Engine) retire(o *book.Order) {
	if e.ring == nil {
		return
	}
	if !e.ring.Enqueue(o) {
		panic("engine: retire ring full")
	}
}

// --- queries ---

// BestQuote returns the top of book.
func (e *Engine) BestQuote() Quote {
	var q Quote
	if bid, ok := e.book.BestBid(); ok {
		q.Bid, q.HasBid = bid.Price, true
	}
	if ask, ok := e.book.BestAsk(); ok {
		q.Ask, q.HasAsk = ask.Price, true
	}
	return q
}

// LastPrice returns the most recent trade price, or the initial price
// before any trade.
func (e *Engine) LastPrice() int64 {
	return e.lastPrice
}

// Book exposes the order book for read-side walks (depth snapshots).
// Callers must hold a reader epoch while walking.
func (e *Engine) Book() *book.OrderBook {
	return e.book
}
