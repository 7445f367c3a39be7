package grpcserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketsim/api/wire"
	"marketsim/domain/book"
	"marketsim/domain/engine"
	"marketsim/infra/memory"
	"marketsim/infra/sequence"
	"marketsim/infra/tape"
	"marketsim/service"
	"marketsim/snapshot"
)

func newServer(t *testing.T) *Server {
	t.Helper()

	tp, err := tape.Open(tape.Config{
		Dir:             t.TempDir(),
		SegmentSize:     2 * 1024 * 1024,
		SegmentDuration: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Close() })

	seqGen := sequence.New(0)
	pool := memory.NewPool(func() *book.Order { return &book.Order{} })
	ring := memory.NewRetireRing(1 << 10)
	reader := snapshot.NewReader()

	eng, err := engine.New(engine.Config{
		InitialPrice: 1_000_000,
		Spread:       0.005,
		QuoteQty:     100,
	}, seqGen, pool, ring)
	require.NoError(t, err)

	svc, err := service.NewEngineService(eng, tp, nil, pool, ring, reader, seqGen, zap.NewNop())
	require.NoError(t, err)
	return New(svc, zap.NewNop())
}

func TestServer_SubmitOrder(t *testing.T) {
	s := newServer(t)

	resp, err := s.SubmitOrder(context.Background(), &wire.SubmitOrderRequest{
		Side: uint32(book.Bid),
		Kind: uint32(engine.Market),
		Qty:  100,
	})
	require.NoError(t, err)
	require.Len(t, resp.Trades, 1)

	tr := resp.Trades[0]
	assert.Equal(t, int64(1_002_500), tr.Price)
	assert.Equal(t, int64(100), tr.Qty)
	assert.Equal(t, uint32(book.Bid), tr.Taker)
	assert.NotEmpty(t, tr.Id)
	assert.NotZero(t, tr.TimeNs)
}

func TestServer_SubmitOrderInvalidArgument(t *testing.T) {
	s := newServer(t)

	_, err := s.SubmitOrder(context.Background(), &wire.SubmitOrderRequest{
		Side: uint32(book.Bid),
		Kind: uint32(engine.Limit),
		Qty:  10,
	})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestServer_GetQuote(t *testing.T) {
	s := newServer(t)

	q, err := s.GetQuote(context.Background(), &wire.QuoteRequest{})
	require.NoError(t, err)
	assert.True(t, q.HasBid)
	assert.True(t, q.HasAsk)
	assert.Equal(t, int64(997_500), q.Bid)
	assert.Equal(t, int64(1_002_500), q.Ask)
	assert.Equal(t, int64(1_000_000), q.Last)
}

func TestServer_GetDepth(t *testing.T) {
	s := newServer(t)

	d, err := s.GetDepth(context.Background(), &wire.DepthRequest{MaxLevels: 5})
	require.NoError(t, err)
	require.Len(t, d.Bids, 1)
	require.Len(t, d.Asks, 1)
	assert.Equal(t, int64(997_500), d.Bids[0].Price)
	assert.Equal(t, uint32(1), d.Bids[0].Orders)
}
