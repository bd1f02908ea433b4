package server

import (
	"net"
	"testing"
	"time"

	"clobd/internal/common"
	"clobd/internal/engine"
	"clobd/internal/wire"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openLedger never fails a Pull or Push; it exists only to let these
// tests drive a real engine.Book without asserting on balances.
type openLedger struct{}

func (openLedger) Pull(common.AssetID, string, common.Quantity) error { return nil }
func (openLedger) Push(common.AssetID, string, common.Quantity) error { return nil }

// newTestServer wires a real Server to one end of a net.Pipe (sessionConn,
// registered with the server as a client) and hands the test the other
// end (readEnd) to read whatever the server writes back.
func newTestServer(t *testing.T) (srv *Server, readEnd net.Conn, address string) {
	t.Helper()
	book := engine.New(openLedger{}, "USD", "IDX")
	readEnd, sessionConn := net.Pipe()
	t.Cleanup(func() { _ = readEnd.Close(); _ = sessionConn.Close() })

	srv = New("127.0.0.1", 0, book)
	srv.addSession(sessionConn)
	return srv, readEnd, sessionConn.RemoteAddr().String()
}

func TestHandleMessageNewOrderPlaces(t *testing.T) {
	srv, readEnd, address := newTestServer(t)

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 256)
		n, err := readEnd.Read(buf)
		require.NoError(t, err)
		done <- buf[:n]
	}()

	err := srv.handleMessage(clientMessage{
		address: address,
		message: wire.NewOrderMessage{
			Kind:     common.Limit,
			Side:     common.Bid,
			Price:    common.Price(10),
			Quantity: common.Quantity(100),
			Trader:   "alice",
		},
	})
	require.NoError(t, err)

	raw := <-done
	report, err := wire.DeserializeReport(raw)
	require.NoError(t, err)
	assert.Equal(t, wire.ExecutionReport, report.Type)
	assert.Equal(t, common.OrderID(1), report.OrderID)

	trader, ok := srv.traderOf(address)
	require.True(t, ok)
	assert.Equal(t, "alice", trader)
}

func TestHandleMessageCancelOrderByOwner(t *testing.T) {
	srv, readEnd, address := newTestServer(t)

	go func() {
		buf := make([]byte, 256)
		_, _ = readEnd.Read(buf)
	}()

	require.NoError(t, srv.handleMessage(clientMessage{
		address: address,
		message: wire.NewOrderMessage{
			Kind: common.Limit, Side: common.Bid,
			Price: common.Price(10), Quantity: common.Quantity(100), Trader: "alice",
		},
	}))

	err := srv.handleMessage(clientMessage{
		address: address,
		message: wire.CancelOrderMessage{OrderID: common.OrderID(1)},
	})
	assert.NoError(t, err)
}

func TestHandleMessageDepthQueryRepliesTwice(t *testing.T) {
	srv, readEnd, address := newTestServer(t)

	// Three frames arrive: the placement ack, then the two depth reports.
	reports := make(chan []byte, 3)
	go func() {
		for i := 0; i < 3; i++ {
			buf := make([]byte, 256)
			n, err := readEnd.Read(buf)
			if err != nil {
				return
			}
			reports <- buf[:n]
		}
	}()

	require.NoError(t, srv.handleMessage(clientMessage{
		address: address,
		message: wire.NewOrderMessage{
			Kind: common.Limit, Side: common.Bid,
			Price: common.Price(10), Quantity: common.Quantity(100), Trader: "alice",
		},
	}))

	err := srv.handleMessage(clientMessage{
		address: address,
		message: wire.DepthQueryMessage{Price: common.Price(10)},
	})
	require.NoError(t, err)

	<-reports // placement ack
	first, err := wire.DeserializeReport(<-reports)
	require.NoError(t, err)
	second, err := wire.DeserializeReport(<-reports)
	require.NoError(t, err)
	assert.Equal(t, common.Bid, first.Side)
	assert.Equal(t, common.Quantity(100), first.Quantity)
	assert.Equal(t, common.Ask, second.Side)
	assert.Equal(t, common.Quantity(0), second.Quantity)
}

// collectReports drains conn into a buffered channel of raw report
// frames, one per Read, until the connection is closed (at test
// cleanup). Each side of this test receives two frames (a placement
// ack and a fill), so a single Read per connection isn't enough.
func collectReports(conn net.Conn) chan []byte {
	out := make(chan []byte, 8)
	go func() {
		for {
			buf := make([]byte, 256)
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			out <- buf[:n]
		}
	}()
	return out
}

// namedConn gives a net.Pipe end its own RemoteAddr. Every net.Pipe end
// reports the same "pipe" address, so two plain pipe sessions would share
// one key in the server's address-keyed session map.
type namedConn struct {
	net.Conn
	addr string
}

type namedAddr string

func (namedAddr) Network() string  { return "pipe" }
func (a namedAddr) String() string { return string(a) }

func (c namedConn) RemoteAddr() net.Addr { return namedAddr(c.addr) }

func TestFillNotifiesBothCounterparties(t *testing.T) {
	book := engine.New(openLedger{}, "USD", "IDX")
	askRead, askConn := net.Pipe()
	bidRead, bidConn := net.Pipe()
	t.Cleanup(func() {
		_ = askRead.Close()
		_ = askConn.Close()
		_ = bidRead.Close()
		_ = bidConn.Close()
	})

	srv := New("127.0.0.1", 0, book)
	srv.addSession(namedConn{Conn: askConn, addr: "ask"})
	srv.addSession(namedConn{Conn: bidConn, addr: "bid"})
	askAddr := "ask"
	bidAddr := "bid"

	askReports := collectReports(askRead)
	bidReports := collectReports(bidRead)

	require.NoError(t, srv.handleMessage(clientMessage{
		address: askAddr,
		message: wire.NewOrderMessage{
			Kind: common.Limit, Side: common.Ask,
			Price: common.Price(10), Quantity: common.Quantity(5), Trader: "maker",
		},
	}))

	require.NoError(t, srv.handleMessage(clientMessage{
		address: bidAddr,
		message: wire.NewOrderMessage{
			Kind: common.Limit, Side: common.Bid,
			Price: common.Price(10), Quantity: common.Quantity(50), Trader: "taker",
		},
	}))

	askFill := findReport(t, askReports, wire.FillReport)
	assert.Equal(t, "taker", askFill.Counterparty)

	bidFill := findReport(t, bidReports, wire.FillReport)
	assert.Equal(t, "maker", bidFill.Counterparty)
}

// findReport reads frames off reports until one decodes to the wanted
// type, failing the test if none arrives promptly.
func findReport(t *testing.T, reports chan []byte, want wire.ReportType) wire.Report {
	t.Helper()
	for i := 0; i < 4; i++ {
		select {
		case raw := <-reports:
			r, err := wire.DeserializeReport(raw)
			require.NoError(t, err)
			if r.Type == want {
				return r
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for report type %v", want)
		}
	}
	t.Fatalf("no report of type %v arrived", want)
	return wire.Report{}
}

func TestHandleMessageUnknownTypeErrors(t *testing.T) {
	srv, _, address := newTestServer(t)
	err := srv.handleMessage(clientMessage{
		address: address,
		message: unknownMessage{},
	})
	assert.ErrorIs(t, err, wire.ErrInvalidMessageType)
}

type unknownMessage struct{}

func (unknownMessage) GetType() wire.MessageType { return wire.MessageType(99) }
