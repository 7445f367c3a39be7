package tape

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
}

// Tape appends framed records to the current segment and rotates by
// size or age. Single writer; replay happens before writes begin.
type Tape struct {
	dir        string
	segSize    int64
	segDur     time.Duration
	current    *segment
	segIndex   int
	lastRotate time.Time
}

func Open(cfg Config) (*Tape, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}

	// Resume after the highest existing segment rather than
	// overwriting it.
	index, err := nextIndex(cfg.Dir)
	if err != nil {
		return nil, err
	}
	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, err
	}

	return &Tape{
		dir:        cfg.Dir,
		segSize:    cfg.SegmentSize,
		segDur:     cfg.SegmentDuration,
		current:    seg,
		segIndex:   index,
		lastRotate: time.Now(),
	}, nil
}

func (t *Tape) Append(r *Record) error {
	payloadLen := uint32(len(r.Data))

	buf := make([]byte, 1+8+8+4+payloadLen+4)
	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[21:], r.Data)

	crc := checksum(buf[:21+payloadLen])
	binary.BigEndian.PutUint32(buf[21+payloadLen:], crc)

	if err := t.current.append(buf); err != nil {
		return err
	}

	if t.current.offset >= t.segSize ||
		(t.segDur > 0 && time.Since(t.lastRotate) >= t.segDur) {
		return t.rotate()
	}
	return nil
}

func (t *Tape) rotate() error {
	_ = t.current.sync()
	_ = t.current.close()
	t.segIndex++

	seg, err := openSegment(t.dir, t.segIndex)
	if err != nil {
		return err
	}
	t.current = seg
	t.lastRotate = time.Now()
	return nil
}

// TruncateBefore removes whole segments whose records all have
// sequence <= seq. Partial segments are kept.
func (t *Tape) TruncateBefore(seq uint64) error {
	files, err := filepath.Glob(filepath.Join(t.dir, "segment-*.tape"))
	if err != nil {
		return err
	}
	for _, path := range files {
		if path == t.current.file.Name() {
			continue
		}
		maxSeq, err := maxSeqInSegment(path)
		if err != nil {
			continue
		}
		if maxSeq <= seq {
			_ = os.Remove(path)
		}
	}
	return nil
}

func (t *Tape) Sync() error {
	return t.current.sync()
}

func (t *Tape) Close() error {
	_ = t.current.sync()
	return t.current.close()
}

func nextIndex(dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "segment-*.tape"))
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}
	sort.Strings(files)
	last := filepath.Base(files[len(files)-1])
	var index int
	if _, err := fmt.Sscanf(last, "segment-%06d.tape", &index); err != nil {
		return 0, err
	}
	return index + 1, nil
}
