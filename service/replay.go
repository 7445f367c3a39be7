package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"marketsim/domain/book"
	"marketsim/domain/engine"
	"marketsim/infra/sequence"
	"marketsim/infra/tape"
)

// ReplayTape rebuilds engine state by resubmitting every recorded
// request in arrival order. Matching is deterministic, so the book and
// price path come out identical to the original run. Must run before
// the service accepts traffic; trades produced during replay are not
// re-persisted.
func ReplayTape(
	dir string,
	eng *engine.Engine,
	seqGen *sequence.Sequencer,
	log *zap.Logger,
) error {
	lastSeq, err := tape.Replay(dir, func(rec *tape.Record) error {
		if rec.Type != tape.RecordOrder {
			return nil
		}

		var p tape.OrderPayload
		if err := p.Unmarshal(rec.Data); err != nil {
			return fmt.Errorf("record %d: %w", rec.Seq, err)
		}

		req := engine.Request{
			Side:  book.Side(p.Side),
			Kind:  engine.Kind(p.Kind),
			Price: p.Price,
			Qty:   p.Qty,
		}
		if _, err := eng.Submit(req); err != nil {
			// The tape only holds validated requests; a rejection
			// here means the tape and engine disagree.
			if errors.Is(err, engine.ErrInvalidOrder) {
				return fmt.Errorf("record %d rejected on replay", rec.Seq)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Tape sequencing resumes after the highest replayed record.
	seqGen.Reset(lastSeq)

	log.Info("tape replay complete",
		zap.Uint64("last_seq", lastSeq),
		zap.Int64("last_price", eng.LastPrice()))
	return nil
}
