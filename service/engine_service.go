package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"marketsim/domain/book"
	"marketsim/domain/engine"
	"marketsim/infra/memory"
	"marketsim/infra/outbox"
	"marketsim/infra/sequence"
	"marketsim/infra/tape"
	"marketsim/snapshot"
)

// EngineService wires all dependencies. No globals.
type EngineService struct {
	engine *engine.Engine
	tape   *tape.Tape
	outbox *outbox.Outbox
	pool   *memory.Pool[book.Order]
	ring   *memory.RetireRing
	reader *snapshot.Reader
	seqGen *sequence.Sequencer
	log    *zap.Logger

	// mu is the single writer lock: the whole submit-and-drain
	// sequence, including the trade counter, runs under it.
	mu       sync.Mutex
	tradeSeq uint64
}

func NewEngineService(
	eng *engine.Engine,
	t *tape.Tape,
	ob *outbox.Outbox,
	pool *memory.Pool[book.Order],
	ring *memory.RetireRing,
	reader *snapshot.Reader,
	seqGen *sequence.Sequencer,
	log *zap.Logger,
) (*EngineService, error) {
	s := &EngineService{
		engine: eng,
		tape:   t,
		outbox: ob,
		pool:   pool,
		ring:   ring,
		reader: reader,
		seqGen: seqGen,
		log:    log,
	}

	// The outbox is persistent; resume the trade counter past what an
	// earlier run wrote so unpublished entries are never overwritten.
	if ob != nil {
		maxSeq, err := ob.MaxSeq()
		if err != nil {
			return nil, fmt.Errorf("outbox max seq: %w", err)
		}
		s.tradeSeq = maxSeq
	}
	return s, nil
}

// tradeEvent is the persisted/published form of a trade.
type tradeEvent struct {
	V       int       `json:"v"`
	ID      string    `json:"id"`
	Price   int64     `json:"price"`
	Qty     int64     `json:"qty"`
	BuySeq  uint64    `json:"buy_seq"`
	SellSeq uint64    `json:"sell_seq"`
	Taker   string    `json:"taker"`
	Time    time.Time `json:"time"`
}

//
// Commands
//

// Submit validates, records, and executes one order request. The tape
// intent is written before matching so a crash mid-run can be replayed;
// rejected requests never reach the tape.
func (s *EngineService) Submit(req engine.Request) ([]engine.Trade, error) {
	if err := engine.Validate(req); err != nil {
		return nil, err
	}

	// One writer at a time. The gRPC server submits from arbitrary
	// goroutines, but the book and the trade counter are single-writer.
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tape != nil {
		payload := tape.OrderPayload{
			Side:  uint32(req.Side),
			Kind:  uint32(req.Kind),
			Price: req.Price,
			Qty:   req.Qty,
		}
		rec := tape.NewRecord(tape.RecordOrder, s.seqGen.Next(), payload.Marshal())
		if err := s.tape.Append(rec); err != nil {
			return nil, fmt.Errorf("tape append: %w", err)
		}
	}

	trades, err := s.engine.Submit(req)
	if err != nil {
		return nil, err
	}

	for _, t := range trades {
		s.persistTrade(t)
	}
	return trades, nil
}

func (s *EngineService) persistTrade(t engine.Trade) {
	if s.outbox == nil {
		return
	}
	s.tradeSeq++
	ev := tradeEvent{
		V:       1,
		ID:      t.ID.String(),
		Price:   t.Price,
		Qty:     t.Qty,
		BuySeq:  t.BuySeq,
		SellSeq: t.SellSeq,
		Taker:   t.Taker.String(),
		Time:    t.Time,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("trade event marshal failed", zap.Error(err))
		return
	}
	if err := s.outbox.PutNew(s.tradeSeq, payload); err != nil {
		s.log.Error("trade outbox write failed",
			zap.Uint64("trade_seq", s.tradeSeq), zap.Error(err))
	}
}

//
// Queries
//

func (s *EngineService) BestQuote() engine.Quote {
	return s.engine.BestQuote()
}

func (s *EngineService) LastPrice() int64 {
	return s.engine.LastPrice()
}

// Depth returns a consistent depth snapshot, best levels first.
func (s *EngineService) Depth(maxLevels int) snapshot.Depth {
	s.reader.Begin()
	defer s.reader.End()
	return snapshot.Capture(s.engine.Book(), maxLevels)
}

//
// Reclamation
//

// AdvanceEpoch returns retired orders to the pool once no snapshot
// reader can still see them. Called periodically by a background job.
func (s *EngineService) AdvanceEpoch() {
	memory.AdvanceEpochAndReclaim(s.ring, s.pool, s.reader.Epoch())
}
