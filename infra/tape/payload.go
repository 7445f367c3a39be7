package tape

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// OrderPayload is the wire form of an order request on the tape.
//
// Wire schema (proto3 equivalent):
//
//	message OrderPayload {
//	  uint32 side  = 1; // 0=bid 1=ask
//	  uint32 kind  = 2; // 0=market 1=limit
//	  int64  price = 3; // ticks, limit orders only
//	  int64  qty   = 4;
//	}
type OrderPayload struct {
	Side  uint32
	Kind  uint32
	Price int64
	Qty   int64
}

var errTruncatedPayload = errors.New("tape: truncated order payload")

func (p *OrderPayload) Marshal() []byte {
	b := make([]byte, 0, 24)
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Side))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Kind))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Price))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(p.Qty))
	return b
}

func (p *OrderPayload) Unmarshal(b []byte) error {
	*p = OrderPayload{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if typ != protowire.VarintType {
			// Unknown field shapes are skipped, not rejected, so the
			// schema can grow without breaking old readers.
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		switch num {
		case 1:
			p.Side = uint32(v)
		case 2:
			p.Kind = uint32(v)
		case 3:
			p.Price = int64(v)
		case 4:
			p.Qty = int64(v)
		}
	}
	if p.Qty == 0 {
		return fmt.Errorf("%w: missing qty", errTruncatedPayload)
	}
	return nil
}
