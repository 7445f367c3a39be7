package snapshot

import (
	"time"

	"github.com/google/uuid"

	"marketsim/domain/book"
)

// Level is one aggregated price level in a depth snapshot.
type Level struct {
	Price  int64 `json:"price"`
	Qty    int64 `json:"qty"`
	Orders int   `json:"orders"`
}

// Depth is a captured view of the book at a point in time, best levels
// first on both sides.
type Depth struct {
	ID      uuid.UUID `json:"id"`
	TakenAt time.Time `json:"taken_at"`
	Bids    []Level   `json:"bids"`
	Asks    []Level   `json:"asks"`
}

// Capture walks both sides down to maxLevels per side (0 = unlimited).
// The caller must hold a Reader between Begin and End for the walk.
func Capture(b *book.OrderBook, maxLevels int) Depth {
	d := Depth{
		ID:      uuid.New(),
		TakenAt: time.Now(),
	}
	b.BidsWalk(func(lvl *book.PriceLevel) bool {
		d.Bids = append(d.Bids, Level{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.OrderCount})
		return maxLevels == 0 || len(d.Bids) < maxLevels
	})
	b.AsksWalk(func(lvl *book.PriceLevel) bool {
		d.Asks = append(d.Asks, Level{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.OrderCount})
		return maxLevels == 0 || len(d.Asks) < maxLevels
	})
	return d
}
