// Package wire is the binary protocol spoken over the exchange's TCP
// connections: order placement, cancellation, depth queries, and book
// introspection requests in one direction, execution and error reports
// in the other. Framing follows the teacher's fixed-width-header-plus-
// trailing-string convention (internal/net/messages.go), generalized
// from a single-ticker AssetType/Ticker header to clobd's single fixed
// trading pair.
package wire

import (
	"encoding/binary"
	"errors"

	"clobd/internal/common"
)

var (
	ErrInvalidMessageType = errors.New("wire: invalid message type")
	ErrMessageTooShort    = errors.New("wire: message too short")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	DepthQuery
	LogBook
)

type ReportType uint8

const (
	ExecutionReport ReportType = iota
	ErrorReport
	FillReport
)

// Message is anything that arrived off the wire and has been parsed
// into a concrete request type.
type Message interface {
	GetType() MessageType
}

const (
	baseHeaderLen      = 2 // type
	newOrderHeaderLen  = 1 + 1 + 8 + 8 + 1
	cancelOrderBodyLen = 8
	depthQueryBodyLen  = 8
	reportFixedBodyLen = 1 + 8 + 1 + 8 + 8 + 2 + 4
)

// Decode reads the 2-byte type header off msg and dispatches to the
// matching body parser.
func Decode(msg []byte) (Message, error) {
	if len(msg) < baseHeaderLen {
		return nil, ErrMessageTooShort
	}
	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[2:]

	switch typeOf {
	case Heartbeat:
		return HeartbeatMessage{}, nil
	case NewOrder:
		return decodeNewOrder(body)
	case CancelOrder:
		return decodeCancelOrder(body)
	case DepthQuery:
		return decodeDepthQuery(body)
	case LogBook:
		return LogBookMessage{}, nil
	default:
		return nil, ErrInvalidMessageType
	}
}

type HeartbeatMessage struct{}

func (HeartbeatMessage) GetType() MessageType { return Heartbeat }

// NewOrderMessage requests placement of one order. Price is meaningless
// when Kind is Market and callers must not read it in that case.
type NewOrderMessage struct {
	Kind     common.Kind
	Side     common.Side
	Price    common.Price
	Quantity common.Quantity
	Trader   string
}

func (NewOrderMessage) GetType() MessageType { return NewOrder }

func decodeNewOrder(msg []byte) (NewOrderMessage, error) {
	if len(msg) < newOrderHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m := NewOrderMessage{
		Kind:     common.Kind(msg[0]),
		Side:     common.Side(msg[1]),
		Price:    common.Price(binary.BigEndian.Uint64(msg[2:10])),
		Quantity: common.Quantity(binary.BigEndian.Uint64(msg[10:18])),
	}
	traderLen := int(msg[18])
	if len(msg) < newOrderHeaderLen+traderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m.Trader = string(msg[newOrderHeaderLen : newOrderHeaderLen+traderLen])
	return m, nil
}

// Encode serializes a NewOrderMessage for a client to send.
func (m NewOrderMessage) Encode() []byte {
	buf := make([]byte, baseHeaderLen+newOrderHeaderLen+len(m.Trader))
	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	buf[2] = byte(m.Kind)
	buf[3] = byte(m.Side)
	binary.BigEndian.PutUint64(buf[4:12], uint64(m.Price))
	binary.BigEndian.PutUint64(buf[12:20], uint64(m.Quantity))
	buf[20] = byte(len(m.Trader))
	copy(buf[21:], m.Trader)
	return buf
}

// CancelOrderMessage requests cancellation of a resting order by id.
type CancelOrderMessage struct {
	OrderID common.OrderID
}

func (CancelOrderMessage) GetType() MessageType { return CancelOrder }

func decodeCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < cancelOrderBodyLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	return CancelOrderMessage{OrderID: common.OrderID(binary.BigEndian.Uint64(msg[0:8]))}, nil
}

func (m CancelOrderMessage) Encode() []byte {
	buf := make([]byte, baseHeaderLen+cancelOrderBodyLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	binary.BigEndian.PutUint64(buf[2:10], uint64(m.OrderID))
	return buf
}

// DepthQueryMessage asks for resting depth at a single price.
type DepthQueryMessage struct {
	Price common.Price
}

func (DepthQueryMessage) GetType() MessageType { return DepthQuery }

func decodeDepthQuery(msg []byte) (DepthQueryMessage, error) {
	if len(msg) < depthQueryBodyLen {
		return DepthQueryMessage{}, ErrMessageTooShort
	}
	return DepthQueryMessage{Price: common.Price(binary.BigEndian.Uint64(msg[0:8]))}, nil
}

func (m DepthQueryMessage) Encode() []byte {
	buf := make([]byte, baseHeaderLen+depthQueryBodyLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(DepthQuery))
	binary.BigEndian.PutUint64(buf[2:10], uint64(m.Price))
	return buf
}

// LogBookMessage asks the server to dump its book to its own log.
type LogBookMessage struct{}

func (LogBookMessage) GetType() MessageType { return LogBook }

func (LogBookMessage) Encode() []byte {
	buf := make([]byte, baseHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(LogBook))
	return buf
}

// Report is an execution or error notification sent back to a client.
// Price and Quantity are float64-free: both travel as the same integer
// types the engine uses internally, unlike the teacher's float64 price
// wire encoding, since clobd prices and quantities are always exact
// integers.
type Report struct {
	Type         ReportType
	OrderID      common.OrderID
	Side         common.Side
	Quantity     common.Quantity
	Price        common.Price
	Counterparty string
	Err          string
}

// Serialize packs a Report into its wire form.
func (r Report) Serialize() []byte {
	total := reportFixedBodyLen + len(r.Counterparty) + len(r.Err)
	buf := make([]byte, total)
	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], uint64(r.OrderID))
	buf[9] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[10:18], uint64(r.Quantity))
	binary.BigEndian.PutUint64(buf[18:26], uint64(r.Price))
	binary.BigEndian.PutUint16(buf[26:28], uint16(len(r.Counterparty)))
	binary.BigEndian.PutUint32(buf[28:32], uint32(len(r.Err)))

	offset := reportFixedBodyLen
	copy(buf[offset:], r.Counterparty)
	offset += len(r.Counterparty)
	copy(buf[offset:], r.Err)
	return buf
}

// DeserializeReport is the client-side counterpart to Report.Serialize,
// used by cmd/clobctl to render what the server sends back.
func DeserializeReport(buf []byte) (Report, error) {
	if len(buf) < reportFixedBodyLen {
		return Report{}, ErrMessageTooShort
	}
	r := Report{
		Type:     ReportType(buf[0]),
		OrderID:  common.OrderID(binary.BigEndian.Uint64(buf[1:9])),
		Side:     common.Side(buf[9]),
		Quantity: common.Quantity(binary.BigEndian.Uint64(buf[10:18])),
		Price:    common.Price(binary.BigEndian.Uint64(buf[18:26])),
	}
	counterpartyLen := int(binary.BigEndian.Uint16(buf[26:28]))
	errLen := int(binary.BigEndian.Uint32(buf[28:32]))
	if len(buf) < reportFixedBodyLen+counterpartyLen+errLen {
		return Report{}, ErrMessageTooShort
	}
	offset := reportFixedBodyLen
	r.Counterparty = string(buf[offset : offset+counterpartyLen])
	offset += counterpartyLen
	r.Err = string(buf[offset : offset+errLen])
	return r, nil
}
