package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestSubmitOrderRequest_Roundtrip(t *testing.T) {
	in := SubmitOrderRequest{Side: 1, Kind: 0, Price: 1_002_500, Qty: 100}

	b, err := in.MarshalWire()
	require.NoError(t, err)

	var out SubmitOrderRequest
	require.NoError(t, out.UnmarshalWire(b))
	assert.Equal(t, in, out)
}

func TestSubmitOrderResponse_Roundtrip(t *testing.T) {
	in := SubmitOrderResponse{
		Trades: []*Trade{
			{Id: "t-1", Price: 1_002_500, Qty: 100, BuySeq: 3, SellSeq: 2, Taker: 0, TimeNs: 1_700_000_000_000_000_000},
			{Id: "t-2", Price: 1_005_007, Qty: 40, BuySeq: 3, SellSeq: 5, Taker: 1, TimeNs: 1_700_000_000_000_000_500},
		},
	}

	b, err := in.MarshalWire()
	require.NoError(t, err)

	var out SubmitOrderResponse
	require.NoError(t, out.UnmarshalWire(b))
	require.Len(t, out.Trades, 2)
	for i := range in.Trades {
		assert.Equal(t, *in.Trades[i], *out.Trades[i])
	}
}

func TestQuoteResponse_Roundtrip(t *testing.T) {
	in := QuoteResponse{HasBid: true, Bid: 999_993, HasAsk: true, Ask: 1_005_007, Last: 1_002_500}

	b, err := in.MarshalWire()
	require.NoError(t, err)

	var out QuoteResponse
	require.NoError(t, out.UnmarshalWire(b))
	assert.Equal(t, in, out)
}

func TestDepthResponse_Roundtrip(t *testing.T) {
	in := DepthResponse{
		Bids: []*Level{{Price: 999_993, Qty: 100, Orders: 1}, {Price: 997_500, Qty: 100, Orders: 1}},
		Asks: []*Level{{Price: 1_002_500, Qty: 90, Orders: 1}},
	}

	b, err := in.MarshalWire()
	require.NoError(t, err)

	var out DepthResponse
	require.NoError(t, out.UnmarshalWire(b))
	require.Len(t, out.Bids, 2)
	require.Len(t, out.Asks, 1)
	assert.Equal(t, *in.Bids[1], *out.Bids[1])
	assert.Equal(t, *in.Asks[0], *out.Asks[0])
}

func TestUnmarshal_SkipsUnknownFields(t *testing.T) {
	// A future writer may append fields; old readers must not choke.
	in := SubmitOrderRequest{Side: 0, Kind: 1, Price: 5, Qty: 7}
	b, err := in.MarshalWire()
	require.NoError(t, err)

	b = protowire.AppendTag(b, 99, protowire.VarintType)
	b = protowire.AppendVarint(b, 12345)
	b = protowire.AppendTag(b, 100, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))

	var out SubmitOrderRequest
	require.NoError(t, out.UnmarshalWire(b))
	assert.Equal(t, in, out)
}

func TestUnmarshal_RejectsGarbage(t *testing.T) {
	var out SubmitOrderRequest
	require.Error(t, out.UnmarshalWire([]byte{0xFF, 0xFF, 0xFF}))
}

func TestCodec(t *testing.T) {
	c := Codec{}
	assert.Equal(t, CodecName, c.Name())

	in := &QuoteRequest{}
	b, err := c.Marshal(in)
	require.NoError(t, err)
	require.NoError(t, c.Unmarshal(b, &QuoteResponse{}))

	// Non-Message values are rejected, not silently encoded.
	_, err = c.Marshal(struct{}{})
	require.Error(t, err)
	require.Error(t, c.Unmarshal(nil, struct{}{}))
}
