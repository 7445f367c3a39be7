// Package snapshot provides consistent read-side views of the book:
// an epoch-guarded Reader and a depth snapshot entity for observers.
package snapshot

import "marketsim/infra/memory"

// Reader marks the bounds of a consistent read. While a reader is
// inside Begin/End, retired orders from its epoch are not recycled.
type Reader struct {
	epoch *memory.ReaderEpoch
}

func NewReader() *Reader {
	return &Reader{
		epoch: memory.NewReaderEpoch(),
	}
}

// Begin marks the start of a consistent snapshot.
func (r *Reader) Begin() {
	r.epoch.Enter()
}

// End marks the end of a snapshot.
func (r *Reader) End() {
	r.epoch.Exit()
}

// Epoch exposes the underlying epoch for reclaimers.
func (r *Reader) Epoch() *memory.ReaderEpoch {
	return r.epoch
}
