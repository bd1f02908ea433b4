package settlement

import (
	"testing"

	"clobd/internal/common"
	"github.com/stretchr/testify/assert"
)

type spyLedger struct {
	pulls, pushes []string
}

func (s *spyLedger) Pull(asset common.AssetID, trader string, amount common.Quantity) error {
	s.pulls = append(s.pulls, string(asset))
	return nil
}

func (s *spyLedger) Push(asset common.AssetID, trader string, amount common.Quantity) error {
	s.pushes = append(s.pushes, string(asset))
	return nil
}

func TestDriverRoutesToConfiguredAssets(t *testing.T) {
	spy := &spyLedger{}
	d := NewDriver(spy, "USD", "AAPL")

	assert.NoError(t, d.PullNumeraire("alice", 100))
	assert.NoError(t, d.PullIndex("bob", 5))
	assert.NoError(t, d.PushNumeraire("bob", 100))
	assert.NoError(t, d.PushIndex("alice", 5))

	assert.Equal(t, []string{"USD", "AAPL"}, spy.pulls)
	assert.Equal(t, []string{"USD", "AAPL"}, spy.pushes)
}

func TestPushZeroIsNoop(t *testing.T) {
	spy := &spyLedger{}
	d := NewDriver(spy, "USD", "AAPL")
	assert.NoError(t, d.PushNumeraire("alice", 0))
	assert.Empty(t, spy.pushes)
}
