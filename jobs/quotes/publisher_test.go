package quotes

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketsim/domain/engine"
)

type fakeQuoter struct {
	quote engine.Quote
	last  int64
}

func (f fakeQuoter) BestQuote() engine.Quote { return f.quote }
func (f fakeQuoter) LastPrice() int64        { return f.last }

func tick() decimal.Decimal { return decimal.RequireFromString("0.0001") }

func TestSnapshot_DecimalPrices(t *testing.T) {
	q := fakeQuoter{
		quote: engine.Quote{Bid: 999_993, HasBid: true, Ask: 1_005_007, HasAsk: true},
		last:  1_002_500,
	}
	p := New(q, nil, tick(), time.Second, zap.NewNop())

	snap := p.snapshot()
	assert.Equal(t, "99.9993", snap.Bid)
	assert.Equal(t, "100.5007", snap.Ask)
	assert.Equal(t, "100.25", snap.Last)
	assert.False(t, snap.Time.IsZero())
}

func TestSnapshot_OmitsMissingSides(t *testing.T) {
	q := fakeQuoter{
		quote: engine.Quote{Ask: 1_002_500, HasAsk: true},
		last:  1_000_000,
	}
	p := New(q, nil, tick(), time.Second, zap.NewNop())

	payload, err := json.Marshal(p.snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.NotContains(t, decoded, "bid")
	assert.Equal(t, "100.25", decoded["ask"])
	assert.Equal(t, "100", decoded["last"])
}
