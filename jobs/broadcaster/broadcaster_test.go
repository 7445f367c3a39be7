package broadcaster

import (
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketsim/infra/outbox"
)

// fakeProducer overrides just what drainOnce touches.
type fakeProducer struct {
	sarama.SyncProducer
	sent []*sarama.ProducerMessage
	fail bool
}

func (f *fakeProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if f.fail {
		return 0, 0, errors.New("broker unavailable")
	}
	f.sent = append(f.sent, msg)
	return 0, int64(len(f.sent)), nil
}

func newBroadcaster(t *testing.T, producer sarama.SyncProducer) (*Broadcaster, *outbox.Outbox) {
	t.Helper()
	ob, err := outbox.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = ob.Close() })

	return &Broadcaster{
		outbox:   ob,
		producer: producer,
		topic:    "trades",
		interval: time.Second,
		log:      zap.NewNop(),
	}, ob
}

func TestDrainOnce_PublishesAndAcks(t *testing.T) {
	fp := &fakeProducer{}
	b, ob := newBroadcaster(t, fp)

	require.NoError(t, ob.PutNew(1, []byte("trade-1")))
	require.NoError(t, ob.PutNew(2, []byte("trade-2")))

	b.drainOnce()

	require.Len(t, fp.sent, 2)
	assert.Equal(t, "trades", fp.sent[0].Topic)

	for seq := uint64(1); seq <= 2; seq++ {
		e, err := ob.Get(seq)
		require.NoError(t, err)
		assert.Equal(t, outbox.StateAcked, e.State, "seq %d", seq)
	}
}

func TestDrainOnce_FailureReturnsToNewWithRetry(t *testing.T) {
	fp := &fakeProducer{fail: true}
	b, ob := newBroadcaster(t, fp)

	require.NoError(t, ob.PutNew(1, []byte("trade-1")))

	b.drainOnce()

	e, err := ob.Get(1)
	require.NoError(t, err)
	assert.Equal(t, outbox.StateNew, e.State)
	assert.Equal(t, uint32(1), e.Retries)

	// A later pass against a healthy broker delivers it.
	fp.fail = false
	b.drainOnce()

	e, err = ob.Get(1)
	require.NoError(t, err)
	assert.Equal(t, outbox.StateAcked, e.State)
	require.Len(t, fp.sent, 1)
	assert.Equal(t, sarama.ByteEncoder([]byte("trade-1")), fp.sent[0].Value)
}

func TestDrainOnce_SkipsAlreadyPublished(t *testing.T) {
	fp := &fakeProducer{}
	b, ob := newBroadcaster(t, fp)

	require.NoError(t, ob.PutNew(1, []byte("trade-1")))
	require.NoError(t, ob.SetState(1, outbox.StateAcked, 0))

	b.drainOnce()
	assert.Empty(t, fp.sent)
}
