// Package appsynctest provides an in-memory GraphQL todo backend that speaks
// the same HTTP and realtime protocols as the managed service, for tests.
package appsynctest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/five82/tick/internal/appsync"
	"github.com/five82/tick/internal/todo"
)

// Server is a fake todo backend.
type Server struct {
	srv    *httptest.Server
	apiKey string

	mu       sync.Mutex
	items    []todo.Item
	failures map[string]string
	gates    map[string]*gate
	calls    map[string]int
	subs     map[*subscriber]struct{}
}

type gate struct {
	ch   chan struct{}
	once sync.Once
}

func (g *gate) open() {
	g.once.Do(func() { close(g.ch) })
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
	ids  map[string]struct{}
}

var upgrader = websocket.Upgrader{
	Subprotocols: []string{"graphql-ws"},
	CheckOrigin:  func(*http.Request) bool { return true },
}

// NewServer starts a fake backend. When apiKey is non-empty every request
// must present it.
func NewServer(apiKey string) *Server {
	s := &Server{
		apiKey:   apiKey,
		failures: make(map[string]string),
		gates:    make(map[string]*gate),
		calls:    make(map[string]int),
		subs:     make(map[*subscriber]struct{}),
	}
	r := mux.NewRouter()
	r.HandleFunc("/graphql", s.handleGraphQL).Methods(http.MethodPost)
	r.HandleFunc("/graphql/realtime", s.handleRealtime).Methods(http.MethodGet)
	s.srv = httptest.NewServer(r)
	return s
}

// URL returns the GraphQL HTTP endpoint.
func (s *Server) URL() string {
	return s.srv.URL + "/graphql"
}

// Close shuts the server down and drops realtime connections.
func (s *Server) Close() {
	s.mu.Lock()
	for sub := range s.subs {
		_ = sub.conn.Close()
	}
	for op, g := range s.gates {
		g.open()
		delete(s.gates, op)
	}
	s.mu.Unlock()
	s.srv.Close()
}

// Seed replaces the stored items.
func (s *Server) Seed(items ...todo.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]todo.Item(nil), items...)
}

// Items returns the stored items, most recent first.
func (s *Server) Items() []todo.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]todo.Item(nil), s.items...)
}

// Fail makes every call of operation (e.g. "CreateTodo") answer with a
// GraphQL error. An empty message clears the failure.
func (s *Server) Fail(operation, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if message == "" {
		delete(s.failures, operation)
		return
	}
	s.failures[operation] = message
}

// Hold blocks calls of operation until the returned release func runs.
func (s *Server) Hold(operation string) (release func()) {
	g := &gate{ch: make(chan struct{})}
	s.mu.Lock()
	s.gates[operation] = g
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		if s.gates[operation] == g {
			delete(s.gates, operation)
		}
		s.mu.Unlock()
		g.open()
	}
}

// Calls returns how many times operation was requested.
func (s *Server) Calls(operation string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[operation]
}

// Publish stores item as if another client created it and pushes it to
// subscribers. A missing ID is generated.
func (s *Server) Publish(item todo.Item) todo.Item {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.items = append([]todo.Item{item}, s.items...)
	s.mu.Unlock()
	s.broadcast(item)
	return item
}

// WaitSubscribers waits until at least n subscriptions are registered.
func (s *Server) WaitSubscribers(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.subscriptionCount() >= n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s.subscriptionCount() >= n
}

func (s *Server) subscriptionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for sub := range s.subs {
		sub.mu.Lock()
		n += len(sub.ids)
		sub.mu.Unlock()
	}
	return n
}

func (s *Server) authorized(header func(string) string) bool {
	if s.apiKey == "" {
		return true
	}
	return header("x-api-key") == s.apiKey
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r.Header.Get) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req appsync.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	op := req.OperationName
	s.mu.Lock()
	s.calls[op]++
	held := s.gates[op]
	failure := s.failures[op]
	s.mu.Unlock()

	if held != nil {
		select {
		case <-held.ch:
		case <-r.Context().Done():
			return
		}
	}
	if failure != "" {
		writeJSON(w, appsync.Response{Errors: []appsync.GraphQLError{{Message: failure, ErrorType: "Injected"}}})
		return
	}

	data, err := s.execute(op, req.Variables)
	if err != nil {
		writeJSON(w, appsync.Response{Errors: []appsync.GraphQLError{{Message: err.Error()}}})
		return
	}
	raw, _ := json.Marshal(data)
	writeJSON(w, appsync.Response{Data: raw})
}

func (s *Server) execute(op string, vars map[string]any) (map[string]any, error) {
	var input todo.Item
	if raw, ok := vars["input"]; ok {
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &input); err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}
	}

	switch op {
	case "ListTodos":
		return map[string]any{"listTodos": appsync.TodoConnection{Items: s.Items()}}, nil
	case "CreateTodo":
		input.ID = uuid.NewString()
		s.mu.Lock()
		s.items = append([]todo.Item{input}, s.items...)
		s.mu.Unlock()
		s.broadcast(input)
		return map[string]any{"createTodo": input}, nil
	case "UpdateTodo":
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.items {
			if s.items[i].ID == input.ID {
				s.items[i] = input
				return map[string]any{"updateTodo": input}, nil
			}
		}
		return nil, fmt.Errorf("todo %s not found", input.ID)
	case "DeleteTodo":
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := range s.items {
			if s.items[i].ID == input.ID {
				deleted := s.items[i]
				s.items = append(s.items[:i], s.items[i+1:]...)
				return map[string]any{"deleteTodo": deleted}, nil
			}
		}
		return nil, fmt.Errorf("todo %s not found", input.ID)
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

func (s *Server) handleRealtime(w http.ResponseWriter, r *http.Request) {
	header := decodeHeader(r.URL.Query().Get("header"))
	if !s.authorized(func(k string) string { return header[k] }) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := &subscriber{conn: conn, ids: make(map[string]struct{})}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		var msg appsync.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "connection_init":
			payload, _ := json.Marshal(appsync.AckPayload{ConnectionTimeoutMs: 300000})
			_ = sub.send(appsync.Message{Type: "connection_ack", Payload: payload})
		case "start":
			var start appsync.StartPayload
			if err := json.Unmarshal(msg.Payload, &start); err != nil || !strings.Contains(start.Data, "onCreateTodo") {
				_ = sub.send(errorFrame(msg.ID, "unsupported subscription"))
				continue
			}
			if !s.authorized(func(k string) string { return start.Extensions.Authorization[k] }) {
				_ = sub.send(errorFrame(msg.ID, "unauthorized"))
				continue
			}
			sub.mu.Lock()
			sub.ids[msg.ID] = struct{}{}
			sub.mu.Unlock()
			_ = sub.send(appsync.Message{ID: msg.ID, Type: "start_ack"})
		case "stop":
			sub.mu.Lock()
			delete(sub.ids, msg.ID)
			sub.mu.Unlock()
			_ = sub.send(appsync.Message{ID: msg.ID, Type: "complete"})
		}
	}
}

// PublishData pushes data verbatim as the data of an onCreateTodo event,
// without storing anything. It lets tests send events a real backend may
// emit, such as a null record.
func (s *Server) PublishData(data json.RawMessage) {
	payload, _ := json.Marshal(appsync.Response{Data: data})
	s.push(payload)
}

func (s *Server) broadcast(item todo.Item) {
	data, _ := json.Marshal(map[string]any{"onCreateTodo": item})
	payload, _ := json.Marshal(appsync.Response{Data: data})
	s.push(payload)
}

func (s *Server) push(payload json.RawMessage) {
	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub.mu.Lock()
		ids := make([]string, 0, len(sub.ids))
		for id := range sub.ids {
			ids = append(ids, id)
		}
		sub.mu.Unlock()
		for _, id := range ids {
			_ = sub.send(appsync.Message{ID: id, Type: "data", Payload: payload})
		}
	}
}

func (sub *subscriber) send(msg appsync.Message) error {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	return sub.conn.WriteJSON(msg)
}

func errorFrame(id, message string) appsync.Message {
	payload, _ := json.Marshal(appsync.Response{Errors: []appsync.GraphQLError{{Message: message}}})
	return appsync.Message{ID: id, Type: "error", Payload: payload}
}

func decodeHeader(encoded string) map[string]string {
	out := map[string]string{}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
