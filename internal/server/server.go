// Package server is the TCP front door: it accepts client connections,
// decodes internal/wire messages off them, drives internal/engine.Book,
// and writes back execution/error reports. Grounded on the teacher's
// internal/net.Server (Run/handleConnection/sessionHandler), adapted
// from a single global client-session map keyed by connection address
// to one additionally tagged with a google/uuid session id, and from
// the teacher's AssetType-per-message routing to clobd's single fixed
// trading pair.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"clobd/internal/common"
	"clobd/internal/engine"
	"clobd/internal/wire"
	"clobd/internal/workerpool"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 30 * time.Second
)

var (
	ErrImproperConversion = errors.New("server: improper task type")
	ErrClientDoesNotExist = errors.New("server: client session does not exist")
)

// clientSession tracks one live TCP connection and the trader name it
// has been associated with since its first NewOrder message — clobd has
// no login handshake, so a connection's trader identity is whatever
// name last rode in on a NewOrderMessage from it.
type clientSession struct {
	id     uuid.UUID
	conn   net.Conn
	trader string
}

type clientMessage struct {
	address string
	message wire.Message
}

// Server is the exchange's TCP listener for one trading pair.
type Server struct {
	address string
	port    int
	book    *engine.Book

	pool *workerpool.Pool

	sessionsMu sync.Mutex
	sessions   map[string]*clientSession

	inbox  chan clientMessage
	cancel context.CancelFunc
}

// New returns a server that will listen on address:port and drive book.
// It installs itself as book's Reporter, so fills are pushed back to
// both counterparties' connections as they happen.
func New(address string, port int, book *engine.Book) *Server {
	s := &Server{
		address:  address,
		port:     port,
		book:     book,
		pool:     workerpool.New(defaultNWorkers),
		sessions: make(map[string]*clientSession),
		inbox:    make(chan clientMessage, 1),
	}
	book.SetReporter(s)
	return s
}

// OrderPlaced satisfies engine.Reporter. Placement acknowledgement is
// already sent synchronously from handleMessage, so this is a no-op
// hook kept for symmetry with Filled.
func (s *Server) OrderPlaced(*common.Order) {}

// Filled satisfies engine.Reporter, pushing a FillReport to whichever
// sessions the taker and maker are connected from (if either still is —
// a trader need not stay connected for its resting order to fill).
func (s *Server) Filled(taker, maker *common.Order, quantity common.Quantity, price common.Price) {
	if addr, ok := s.addressOfTrader(taker.Trader); ok {
		s.sendReport(addr, wire.Report{
			Type: wire.FillReport, OrderID: taker.ID, Side: taker.Side,
			Quantity: quantity, Price: price, Counterparty: maker.Trader,
		})
	}
	if addr, ok := s.addressOfTrader(maker.Trader); ok {
		s.sendReport(addr, wire.Report{
			Type: wire.FillReport, OrderID: maker.ID, Side: maker.Side,
			Quantity: quantity, Price: price, Counterparty: taker.Trader,
		})
	}
}

func (s *Server) addressOfTrader(trader string) (string, bool) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	for addr, sess := range s.sessions {
		if sess.trader == trader {
			return addr, true
		}
	}
	return "", false
}

// Run blocks, accepting connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("server: unable to start listener")
		return
	}
	defer func() {
		if cerr := listener.Close(); cerr != nil {
			log.Error().Err(cerr).Msg("server: unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Run(t, s.handleConnection)
		return nil
	})
	t.Go(func() error {
		return s.sessionLoop(t)
	})

	log.Info().Str("address", listener.Addr().String()).Msg("server: listening")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("server: error accepting connection")
				continue
			}
			sess := s.addSession(conn)
			log.Info().Str("session", sess.id.String()).Str("address", conn.RemoteAddr().String()).Msg("server: client connected")
			s.pool.AddTask(conn)
		}
	}
}

// Shutdown cancels the server's context, unblocking Run.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) sessionLoop(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case msg := <-s.inbox:
			if err := s.handleMessage(msg); err != nil {
				log.Error().Err(err).Str("address", msg.address).Msg("server: error handling message")
				s.sendError(msg.address, err)
			}
		}
	}
}

func (s *Server) handleMessage(msg clientMessage) error {
	switch msg.message.GetType() {
	case wire.NewOrder:
		m, ok := msg.message.(wire.NewOrderMessage)
		if !ok {
			return wire.ErrInvalidMessageType
		}
		s.setTrader(msg.address, m.Trader)

		id, err := s.book.Place(engine.PlaceRequest{
			Kind:     m.Kind,
			Side:     m.Side,
			Price:    m.Price,
			Quantity: m.Quantity,
		}, m.Trader)
		if err != nil {
			return err
		}
		s.sendReport(msg.address, wire.Report{
			Type:     wire.ExecutionReport,
			OrderID:  id,
			Side:     m.Side,
			Quantity: m.Quantity,
			Price:    m.Price,
		})
		return nil

	case wire.CancelOrder:
		m, ok := msg.message.(wire.CancelOrderMessage)
		if !ok {
			return wire.ErrInvalidMessageType
		}
		trader, _ := s.traderOf(msg.address)
		return s.book.Cancel(m.OrderID, trader)

	case wire.DepthQuery:
		m, ok := msg.message.(wire.DepthQueryMessage)
		if !ok {
			return wire.ErrInvalidMessageType
		}
		bid, ask := s.book.Depth(m.Price)
		s.sendReport(msg.address, wire.Report{
			Type:     wire.ExecutionReport,
			Side:     common.Bid,
			Quantity: bid,
			Price:    m.Price,
		})
		s.sendReport(msg.address, wire.Report{
			Type:     wire.ExecutionReport,
			Side:     common.Ask,
			Quantity: ask,
			Price:    m.Price,
		})
		return nil

	case wire.LogBook:
		s.logBook()
		return nil

	case wire.Heartbeat:
		return nil

	default:
		return wire.ErrInvalidMessageType
	}
}

func (s *Server) logBook() {
	bids := s.book.AllBidPrices()
	asks := s.book.AllAskPrices()
	log.Info().Ints64("bids", pricesAsInt64(bids)).Ints64("asks", pricesAsInt64(asks)).Msg("server: book snapshot")
}

func pricesAsInt64(prices []common.Price) []int64 {
	out := make([]int64, len(prices))
	for i, p := range prices {
		out[i] = int64(p)
	}
	return out
}

// handleConnection is one worker-pool task: read exactly one message off
// conn, hand it to the session loop, then resubmit the connection for
// its next message. Any error here is fatal to this connection only.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("server: failed setting deadline")
		s.closeSession(conn)
		return nil
	}

	buf := make([]byte, maxRecvSize)
	select {
	case <-t.Dying():
		return nil
	default:
		n, err := conn.Read(buf)
		if err != nil {
			s.closeSession(conn)
			return nil
		}

		message, err := wire.Decode(buf[:n])
		if err != nil {
			log.Error().Err(err).Str("address", conn.RemoteAddr().String()).Msg("server: error decoding message")
			s.sendError(conn.RemoteAddr().String(), err)
			s.pool.AddTask(conn)
			return nil
		}

		s.inbox <- clientMessage{address: conn.RemoteAddr().String(), message: message}
		s.pool.AddTask(conn)
	}
	return nil
}

func (s *Server) sendReport(address string, r wire.Report) {
	s.sessionsMu.Lock()
	sess, ok := s.sessions[address]
	s.sessionsMu.Unlock()
	if !ok {
		return
	}
	if _, err := sess.conn.Write(r.Serialize()); err != nil {
		log.Error().Err(err).Str("address", address).Msg("server: unable to write report")
		s.closeSession(sess.conn)
	}
}

func (s *Server) sendError(address string, cause error) {
	s.sendReport(address, wire.Report{Type: wire.ErrorReport, Err: cause.Error()})
}

func (s *Server) addSession(conn net.Conn) *clientSession {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	sess := &clientSession{id: uuid.New(), conn: conn}
	s.sessions[conn.RemoteAddr().String()] = sess
	return sess
}

func (s *Server) closeSession(conn net.Conn) {
	address := conn.RemoteAddr().String()
	s.sessionsMu.Lock()
	delete(s.sessions, address)
	s.sessionsMu.Unlock()
	_ = conn.Close()
}

func (s *Server) setTrader(address, trader string) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	if sess, ok := s.sessions[address]; ok {
		sess.trader = trader
	}
}

func (s *Server) traderOf(address string) (string, bool) {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	sess, ok := s.sessions[address]
	if !ok {
		return "", false
	}
	return sess.trader, true
}
