package wire

import (
	"testing"

	"clobd/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrderRoundTrip(t *testing.T) {
	m := NewOrderMessage{
		Kind:     common.Limit,
		Side:     common.Bid,
		Price:    common.Price(150),
		Quantity: common.Quantity(2500),
		Trader:   "alice",
	}
	encoded := m.Encode()

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	got, ok := decoded.(NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, m, got)
}

func TestCancelOrderRoundTrip(t *testing.T) {
	m := CancelOrderMessage{OrderID: common.OrderID(42)}
	decoded, err := Decode(m.Encode())
	require.NoError(t, err)

	got, ok := decoded.(CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, m, got)
}

func TestDepthQueryRoundTrip(t *testing.T) {
	m := DepthQueryMessage{Price: common.Price(99)}
	decoded, err := Decode(m.Encode())
	require.NoError(t, err)

	got, ok := decoded.(DepthQueryMessage)
	require.True(t, ok)
	assert.Equal(t, m, got)
}

func TestLogBookAndHeartbeatRoundTrip(t *testing.T) {
	decoded, err := Decode(LogBookMessage{}.Encode())
	require.NoError(t, err)
	assert.Equal(t, LogBook, decoded.GetType())

	hb := make([]byte, 2)
	decoded, err = Decode(hb)
	require.NoError(t, err)
	assert.Equal(t, Heartbeat, decoded.GetType())
}

func TestDecodeTooShortMessage(t *testing.T) {
	_, err := Decode([]byte{0})
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestDecodeUnknownMessageType(t *testing.T) {
	_, err := Decode([]byte{0xFF, 0xFF})
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestReportSerializeRoundTrip(t *testing.T) {
	r := Report{
		Type:         ExecutionReport,
		OrderID:      common.OrderID(7),
		Side:         common.Ask,
		Quantity:     common.Quantity(12),
		Price:        common.Price(300),
		Counterparty: "bob",
		Err:          "",
	}
	got, err := DeserializeReport(r.Serialize())
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestReportSerializeWithError(t *testing.T) {
	r := Report{
		Type: ErrorReport,
		Err:  "engine: insufficient liquidity",
	}
	got, err := DeserializeReport(r.Serialize())
	require.NoError(t, err)
	assert.Equal(t, r, got)
}
