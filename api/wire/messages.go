// Package wire carries the gRPC message types for the engine API.
// Encoding is protobuf wire format, hand-framed with
// encoding/protowire against the schema in marketsim.proto.
package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Message is what the Codec can carry.
type Message interface {
	MarshalWire() ([]byte, error)
	UnmarshalWire(data []byte) error
}

// field iterates wire-format fields, handing each to fn. Unknown
// fields are skipped so schemas can evolve.
func fields(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		if err := fn(num, typ, b[:n]); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func varint(v []byte) (uint64, error) {
	x, n := protowire.ConsumeVarint(v)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return x, nil
}

func bytesField(v []byte) ([]byte, error) {
	x, n := protowire.ConsumeBytes(v)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return x, nil
}

// --- SubmitOrderRequest ---

type SubmitOrderRequest struct {
	Side  uint32
	Kind  uint32
	Price int64
	Qty   int64
}

func (m *SubmitOrderRequest) MarshalWire() ([]byte, error) {
	b := make([]byte, 0, 24)
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Side))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Kind))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Price))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Qty))
	return b, nil
}

func (m *SubmitOrderRequest) UnmarshalWire(data []byte) error {
	*m = SubmitOrderRequest{}
	return fields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if typ != protowire.VarintType {
			return nil
		}
		x, err := varint(v)
		if err != nil {
			return err
		}
		switch num {
		case 1:
			m.Side = uint32(x)
		case 2:
			m.Kind = uint32(x)
		case 3:
			m.Price = int64(x)
		case 4:
			m.Qty = int64(x)
		}
		return nil
	})
}

// --- Trade ---

type Trade struct {
	Id      string
	Price   int64
	Qty     int64
	BuySeq  uint64
	SellSeq uint64
	Taker   uint32
	TimeNs  int64
}

func (m *Trade) MarshalWire() ([]byte, error) {
	b := make([]byte, 0, 64)
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, m.Id)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Price))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Qty))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, m.BuySeq)
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, m.SellSeq)
	b = protowire.AppendTag(b, 6, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Taker))
	b = protowire.AppendTag(b, 7, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.TimeNs))
	return b, nil
}

func (m *Trade) UnmarshalWire(data []byte) error {
	*m = Trade{}
	return fields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		switch num {
		case 1:
			if typ != protowire.BytesType {
				return nil
			}
			s, err := bytesField(v)
			if err != nil {
				return err
			}
			m.Id = string(s)
		default:
			if typ != protowire.VarintType {
				return nil
			}
			x, err := varint(v)
			if err != nil {
				return err
			}
			switch num {
			case 2:
				m.Price = int64(x)
			case 3:
				m.Qty = int64(x)
			case 4:
				m.BuySeq = x
			case 5:
				m.SellSeq = x
			case 6:
				m.Taker = uint32(x)
			case 7:
				m.TimeNs = int64(x)
			}
		}
		return nil
	})
}

// --- SubmitOrderResponse ---

type SubmitOrderResponse struct {
	Trades []*Trade
}

func (m *SubmitOrderResponse) MarshalWire() ([]byte, error) {
	var b []byte
	for _, t := range m.Trades {
		tb, err := t.MarshalWire()
		if err != nil {
			return nil, err
		}
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendBytes(b, tb)
	}
	return b, nil
}

func (m *SubmitOrderResponse) UnmarshalWire(data []byte) error {
	*m = SubmitOrderResponse{}
	return fields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num != 1 || typ != protowire.BytesType {
			return nil
		}
		tb, err := bytesField(v)
		if err != nil {
			return err
		}
		t := new(Trade)
		if err := t.UnmarshalWire(tb); err != nil {
			return err
		}
		m.Trades = append(m.Trades, t)
		return nil
	})
}

// --- QuoteRequest / QuoteResponse ---

type QuoteRequest struct{}

func (m *QuoteRequest) MarshalWire() ([]byte, error)    { return nil, nil }
func (m *QuoteRequest) UnmarshalWire(data []byte) error { return nil }

type QuoteResponse struct {
	HasBid bool
	Bid    int64
	HasAsk bool
	Ask    int64
	Last   int64
}

func (m *QuoteResponse) MarshalWire() ([]byte, error) {
	b := make([]byte, 0, 32)
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, boolVarint(m.HasBid))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Bid))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, boolVarint(m.HasAsk))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Ask))
	b = protowire.AppendTag(b, 5, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Last))
	return b, nil
}

func (m *QuoteResponse) UnmarshalWire(data []byte) error {
	*m = QuoteResponse{}
	return fields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if typ != protowire.VarintType {
			return nil
		}
		x, err := varint(v)
		if err != nil {
			return err
		}
		switch num {
		case 1:
			m.HasBid = x != 0
		case 2:
			m.Bid = int64(x)
		case 3:
			m.HasAsk = x != 0
		case 4:
			m.Ask = int64(x)
		case 5:
			m.Last = int64(x)
		}
		return nil
	})
}

// --- DepthRequest / DepthResponse ---

type DepthRequest struct {
	MaxLevels uint32
}

func (m *DepthRequest) MarshalWire() ([]byte, error) {
	b := make([]byte, 0, 8)
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.MaxLevels))
	return b, nil
}

func (m *DepthRequest) UnmarshalWire(data []byte) error {
	*m = DepthRequest{}
	return fields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if num == 1 && typ == protowire.VarintType {
			x, err := varint(v)
			if err != nil {
				return err
			}
			m.MaxLevels = uint32(x)
		}
		return nil
	})
}

type Level struct {
	Price  int64
	Qty    int64
	Orders uint32
}

func (m *Level) MarshalWire() ([]byte, error) {
	b := make([]byte, 0, 24)
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Price))
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Qty))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Orders))
	return b, nil
}

func (m *Level) UnmarshalWire(data []byte) error {
	*m = Level{}
	return fields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if typ != protowire.VarintType {
			return nil
		}
		x, err := varint(v)
		if err != nil {
			return err
		}
		switch num {
		case 1:
			m.Price = int64(x)
		case 2:
			m.Qty = int64(x)
		case 3:
			m.Orders = uint32(x)
		}
		return nil
	})
}

type DepthResponse struct {
	Bids []*Level
	Asks []*Level
}

func (m *DepthResponse) MarshalWire() ([]byte, error) {
	var b []byte
	appendLevels := func(num protowire.Number, levels []*Level) error {
		for _, l := range levels {
			lb, err := l.MarshalWire()
			if err != nil {
				return err
			}
			b = protowire.AppendTag(b, num, protowire.BytesType)
			b = protowire.AppendBytes(b, lb)
		}
		return nil
	}
	if err := appendLevels(1, m.Bids); err != nil {
		return nil, err
	}
	if err := appendLevels(2, m.Asks); err != nil {
		return nil, err
	}
	return b, nil
}

func (m *DepthResponse) UnmarshalWire(data []byte) error {
	*m = DepthResponse{}
	return fields(data, func(num protowire.Number, typ protowire.Type, v []byte) error {
		if typ != protowire.BytesType || (num != 1 && num != 2) {
			return nil
		}
		lb, err := bytesField(v)
		if err != nil {
			return err
		}
		l := new(Level)
		if err := l.UnmarshalWire(lb); err != nil {
			return err
		}
		if num == 1 {
			m.Bids = append(m.Bids, l)
		} else {
			m.Asks = append(m.Asks, l)
		}
		return nil
	})
}

func boolVarint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
