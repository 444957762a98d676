package appsync

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/five82/tick/internal/todo"
)

// Stream delivers items from a push subscription until closed.
type Stream interface {
	// Events is closed when the stream ends.
	Events() <-chan todo.Item
	// Err reports why the stream ended; nil after Close.
	Err() error
	Close() error
}

var _ Stream = (*Subscription)(nil)

// ErrSubscriptionClosed is returned by Err when the server completed the stream.
var ErrSubscriptionClosed = errors.New("subscription completed by server")

const (
	handshakeTimeout      = 10 * time.Second
	defaultKeepAliveLimit = 5 * time.Minute
	eventBuffer           = 16
)

// Subscription is one registered onCreateTodo subscription on its own
// websocket connection.
type Subscription struct {
	conn   *websocket.Conn
	id     string
	events chan todo.Item
	done   chan struct{}

	writeMu sync.Mutex
	errMu   sync.Mutex
	err     error

	closeOnce sync.Once
	finished  chan struct{}
	keepAlive time.Duration
	logger    *log.Logger
	skipped   atomic.Int64
}

// SubscribeCreated opens a realtime connection and registers onCreateTodo.
// It returns once the server acknowledged the subscription.
func (c *Client) SubscribeCreated(ctx context.Context) (Stream, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	connURL, err := c.connectURL()
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, connURL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial realtime: %w", err)
	}

	sub := &Subscription{
		conn:      conn,
		id:        uuid.NewString(),
		events:    make(chan todo.Item, eventBuffer),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		keepAlive: defaultKeepAliveLimit,
		logger:    c.logger,
	}
	if err := sub.handshake(c.authHeaders(), opOnCreateTodo); err != nil {
		_ = conn.Close()
		return nil, err
	}
	go sub.readLoop(opOnCreateTodo.field)
	return sub, nil
}

func (c *Client) connectURL() (string, error) {
	header, err := json.Marshal(c.authHeaders())
	if err != nil {
		return "", fmt.Errorf("encode auth header: %w", err)
	}
	u := *c.realtime
	q := url.Values{}
	q.Set("header", base64.StdEncoding.EncodeToString(header))
	q.Set("payload", base64.StdEncoding.EncodeToString([]byte("{}")))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Subscription) handshake(auth map[string]string, op operation) error {
	_ = s.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))

	if err := s.write(Message{Type: msgConnectionInit}); err != nil {
		return fmt.Errorf("send connection_init: %w", err)
	}
	ack, err := s.await(msgConnectionAck)
	if err != nil {
		return err
	}
	var payload AckPayload
	if len(ack.Payload) > 0 && json.Unmarshal(ack.Payload, &payload) == nil && payload.ConnectionTimeoutMs > 0 {
		s.keepAlive = time.Duration(payload.ConnectionTimeoutMs) * time.Millisecond
	}

	data, err := json.Marshal(Request{Query: op.document, OperationName: op.name, Variables: map[string]any{}})
	if err != nil {
		return fmt.Errorf("encode subscription: %w", err)
	}
	start, err := json.Marshal(StartPayload{
		Data:       string(data),
		Extensions: StartExtension{Authorization: auth},
	})
	if err != nil {
		return fmt.Errorf("encode start payload: %w", err)
	}
	if err := s.write(Message{ID: s.id, Type: msgStart, Payload: start}); err != nil {
		return fmt.Errorf("send start: %w", err)
	}
	if _, err := s.await(msgStartAck); err != nil {
		return err
	}

	_ = s.conn.SetReadDeadline(time.Now().Add(s.keepAlive))
	return nil
}

// await reads frames until one of type want arrives. Keep-alives are skipped;
// error frames end the wait.
func (s *Subscription) await(want string) (Message, error) {
	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			return Message{}, fmt.Errorf("await %s: %w", want, err)
		}
		switch msg.Type {
		case want:
			return msg, nil
		case msgKeepAlive:
			continue
		case msgConnectionError, msgError:
			return Message{}, fmt.Errorf("await %s: %w", want, payloadError(msg))
		}
	}
}

func (s *Subscription) readLoop(field string) {
	defer close(s.finished)
	defer close(s.events)

	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			s.setErrUnlessClosing(fmt.Errorf("read realtime: %w", err))
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.keepAlive))

		switch msg.Type {
		case msgKeepAlive:
		case msgData:
			if msg.ID != s.id {
				continue
			}
			// A null or malformed event (AppSync sends null when field
			// authorization filters the record) leaves the stream open.
			item, err := decodeEvent(msg.Payload, field)
			if err != nil {
				s.skipped.Add(1)
				s.logger.Printf("skip %s event: %v", field, err)
				continue
			}
			select {
			case s.events <- item:
			case <-s.done:
				return
			}
		case msgError, msgConnectionError:
			s.setErrUnlessClosing(payloadError(msg))
			return
		case msgComplete:
			s.setErrUnlessClosing(ErrSubscriptionClosed)
			return
		}
	}
}

func decodeEvent(payload json.RawMessage, field string) (todo.Item, error) {
	var envelope Response
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return todo.Item{}, fmt.Errorf("decode event: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return todo.Item{}, &ResponseError{Operation: field, Errors: envelope.Errors}
	}
	var item todo.Item
	if err := decodeField(envelope.Data, field, &item); err != nil {
		return todo.Item{}, err
	}
	return item, nil
}

func payloadError(msg Message) error {
	var envelope Response
	if len(msg.Payload) > 0 && json.Unmarshal(msg.Payload, &envelope) == nil && len(envelope.Errors) > 0 {
		return &ResponseError{Operation: msg.Type, Errors: envelope.Errors}
	}
	return fmt.Errorf("realtime %s frame", msg.Type)
}

// Events returns the channel of created items.
func (s *Subscription) Events() <-chan todo.Item {
	return s.events
}

// Err reports why the stream ended.
func (s *Subscription) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

// Skipped reports how many data frames could not be decoded and were dropped.
func (s *Subscription) Skipped() int {
	return int(s.skipped.Load())
}

// Close sends stop, closes the connection and waits for the reader to exit.
// It is safe to call more than once.
func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.write(Message{ID: s.id, Type: msgStop})
		_ = s.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		err = s.conn.Close()
		<-s.finished
	})
	return err
}

func (s *Subscription) setErr(err error) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// setErrUnlessClosing records err unless Close started, in which case the
// stream ending is expected.
func (s *Subscription) setErrUnlessClosing(err error) {
	select {
	case <-s.done:
	default:
		s.setErr(err)
	}
}

func (s *Subscription) write(msg Message) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(handshakeTimeout))
	return s.conn.WriteJSON(msg)
}

func (s *Subscription) writeControl(kind int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteControl(kind, data, time.Now().Add(time.Second))
}
