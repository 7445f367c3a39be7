package service

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketsim/domain/book"
	"marketsim/domain/engine"
	"marketsim/infra/memory"
	"marketsim/infra/outbox"
	"marketsim/infra/sequence"
	"marketsim/infra/tape"
	"marketsim/snapshot"
)

const initialTicks = 1_000_000

type harness struct {
	svc    *EngineService
	eng    *engine.Engine
	tape   *tape.Tape
	outbox *outbox.Outbox
	seqGen *sequence.Sequencer
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	tp, err := tape.Open(tape.Config{
		Dir:             dir,
		SegmentSize:     2 * 1024 * 1024,
		SegmentDuration: time.Hour,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Close() })

	ob, err := outbox.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ob.Close() })

	seqGen := sequence.New(0)
	pool := memory.NewPool(func() *book.Order { return &book.Order{} })
	ring := memory.NewRetireRing(1 << 10)
	reader := snapshot.NewReader()

	eng, err := engine.New(engine.Config{
		InitialPrice: initialTicks,
		Spread:       0.005,
		QuoteQty:     100,
	}, seqGen, pool, ring)
	require.NoError(t, err)

	svc, err := NewEngineService(eng, tp, ob, pool, ring, reader, seqGen, zap.NewNop())
	require.NoError(t, err)

	return &harness{
		svc:    svc,
		eng:    eng,
		tape:   tp,
		outbox: ob,
		seqGen: seqGen,
		dir:    dir,
	}
}

func TestEngineService_SubmitRecordsAndPersists(t *testing.T) {
	h := newHarness(t)

	trades, err := h.svc.Submit(engine.Request{Side: book.Bid, Kind: engine.Market, Qty: 100})
	require.NoError(t, err)
	require.Len(t, trades, 1)

	// The trade landed in the outbox as NEW with a versioned JSON body.
	e, err := h.outbox.Get(1)
	require.NoError(t, err)
	assert.Equal(t, outbox.StateNew, e.State)

	var ev struct {
		V     int    `json:"v"`
		ID    string `json:"id"`
		Price int64  `json:"price"`
		Qty   int64  `json:"qty"`
		Taker string `json:"taker"`
	}
	require.NoError(t, json.Unmarshal(e.Payload, &ev))
	assert.Equal(t, 1, ev.V)
	assert.Equal(t, trades[0].ID.String(), ev.ID)
	assert.Equal(t, int64(1_002_500), ev.Price)
	assert.Equal(t, int64(100), ev.Qty)
	assert.Equal(t, "bid", ev.Taker)

	// The request intent is on the tape.
	require.NoError(t, h.tape.Sync())
	count := 0
	_, err = tape.Replay(h.dir, func(rec *tape.Record) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEngineService_RejectedRequestsNeverReachTape(t *testing.T) {
	h := newHarness(t)

	_, err := h.svc.Submit(engine.Request{Side: book.Bid, Kind: engine.Limit, Price: 0, Qty: 10})
	require.ErrorIs(t, err, engine.ErrInvalidOrder)

	require.NoError(t, h.tape.Sync())
	count := 0
	_, err = tape.Replay(h.dir, func(rec *tape.Record) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestEngineService_Depth(t *testing.T) {
	h := newHarness(t)

	d := h.svc.Depth(0)
	require.Len(t, d.Bids, 1)
	require.Len(t, d.Asks, 1)
	assert.Equal(t, int64(997_500), d.Bids[0].Price)
	assert.Equal(t, int64(1_002_500), d.Asks[0].Price)
	assert.Equal(t, int64(100), d.Bids[0].Qty)

	// maxLevels caps each side independently.
	_, err := h.svc.Submit(engine.Request{Side: book.Bid, Kind: engine.Market, Qty: 10})
	require.NoError(t, err)
	capped := h.svc.Depth(1)
	assert.Len(t, capped.Bids, 1)
	assert.Len(t, capped.Asks, 1)
}

func TestEngineService_TradeCounterResumesPastOutbox(t *testing.T) {
	dir := t.TempDir()

	// An earlier run left three unpublished trades behind.
	ob, err := outbox.Open(dir)
	require.NoError(t, err)
	for seq := uint64(1); seq <= 3; seq++ {
		require.NoError(t, ob.PutNew(seq, []byte(`{"held":true}`)))
	}
	t.Cleanup(func() { _ = ob.Close() })

	seqGen := sequence.New(0)
	pool := memory.NewPool(func() *book.Order { return &book.Order{} })
	ring := memory.NewRetireRing(1 << 10)
	reader := snapshot.NewReader()
	eng, err := engine.New(engine.Config{
		InitialPrice: initialTicks,
		Spread:       0.005,
		QuoteQty:     100,
	}, seqGen, pool, ring)
	require.NoError(t, err)

	svc, err := NewEngineService(eng, nil, ob, pool, ring, reader, seqGen, zap.NewNop())
	require.NoError(t, err)

	trades, err := svc.Submit(engine.Request{Side: book.Bid, Kind: engine.Market, Qty: 100})
	require.NoError(t, err)
	require.Len(t, trades, 1)

	// The new trade lands after the high-water mark, not on top of it.
	e, err := ob.Get(4)
	require.NoError(t, err)
	assert.Equal(t, outbox.StateNew, e.State)
	for seq := uint64(1); seq <= 3; seq++ {
		held, err := ob.Get(seq)
		require.NoError(t, err)
		assert.Equal(t, `{"held":true}`, string(held.Payload))
	}
}

func TestEngineService_ConcurrentSubmits(t *testing.T) {
	h := newHarness(t)

	const (
		workers = 8
		perWork = 50
	)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		side := book.Bid
		if w%2 == 1 {
			side = book.Ask
		}
		wg.Add(1)
		go func(side book.Side) {
			defer wg.Done()
			for i := 0; i < perWork; i++ {
				_, err := h.svc.Submit(engine.Request{Side: side, Kind: engine.Market, Qty: 1})
				assert.NoError(t, err)
			}
		}(side)
	}
	wg.Wait()

	// Every market order of one lot fills exactly once, and each fill
	// got its own outbox slot.
	maxSeq, err := h.outbox.MaxSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(workers*perWork), maxSeq)

	q := h.svc.BestQuote()
	assert.Less(t, q.Bid, q.Ask)
}

func TestReplayTape_RebuildsState(t *testing.T) {
	h := newHarness(t)

	reqs := []engine.Request{
		{Side: book.Bid, Kind: engine.Market, Qty: 100},
		{Side: book.Ask, Kind: engine.Market, Qty: 40},
		{Side: book.Bid, Kind: engine.Limit, Price: 1_001_000, Qty: 25},
	}
	for _, req := range reqs {
		_, err := h.svc.Submit(req)
		require.NoError(t, err)
	}
	require.NoError(t, h.tape.Sync())

	wantLast := h.eng.LastPrice()
	wantQuote := h.eng.BestQuote()

	// Fresh engine, same tape.
	seqGen := sequence.New(0)
	eng, err := engine.New(engine.Config{
		InitialPrice: initialTicks,
		Spread:       0.005,
		QuoteQty:     100,
	}, seqGen, nil, nil)
	require.NoError(t, err)

	require.NoError(t, ReplayTape(h.dir, eng, seqGen, zap.NewNop()))

	assert.Equal(t, wantLast, eng.LastPrice())
	assert.Equal(t, wantQuote, eng.BestQuote())
	// Reset moved the sequencer past the last tape record.
	assert.Greater(t, seqGen.Current(), uint64(0))
}

func TestReplayTape_EmptyDirIsNoop(t *testing.T) {
	seqGen := sequence.New(0)
	eng, err := engine.New(engine.Config{
		InitialPrice: initialTicks,
		Spread:       0.005,
		QuoteQty:     100,
	}, seqGen, nil, nil)
	require.NoError(t, err)

	require.NoError(t, ReplayTape(t.TempDir(), eng, seqGen, zap.NewNop()))
	assert.Equal(t, int64(initialTicks), eng.LastPrice())
}
