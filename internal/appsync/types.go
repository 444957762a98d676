package appsync

import (
	"encoding/json"
	"strings"

	"github.com/five82/tick/internal/todo"
)

// Request is the body of a GraphQL POST.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Response is the GraphQL response envelope.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError is one entry of a GraphQL errors array.
type GraphQLError struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType,omitempty"`
}

// ResponseError reports GraphQL-level errors returned with a 200 response.
type ResponseError struct {
	Operation string
	Errors    []GraphQLError
}

func (e *ResponseError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msg := ge.Message
		if ge.ErrorType != "" {
			msg = ge.ErrorType + ": " + msg
		}
		msgs = append(msgs, msg)
	}
	return e.Operation + " failed: " + strings.Join(msgs, "; ")
}

// TodoConnection mirrors the listTodos result.
type TodoConnection struct {
	Items     []todo.Item `json:"items"`
	NextToken *string     `json:"nextToken,omitempty"`
}

// CreateTodoInput is the createTodo mutation input.
type CreateTodoInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ClientID    string `json:"clientId"`
	Completed   bool   `json:"completed"`
}

// UpdateTodoInput is the updateTodo mutation input. The whole record is sent.
type UpdateTodoInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ClientID    string `json:"clientId"`
	Completed   bool   `json:"completed"`
}

// DeleteTodoInput is the deleteTodo mutation input.
type DeleteTodoInput struct {
	ID string `json:"id"`
}

func createInput(item todo.Item) CreateTodoInput {
	return CreateTodoInput{
		Name:        item.Name,
		Description: item.Description,
		ClientID:    item.ClientID,
		Completed:   item.Completed,
	}
}

func updateInput(item todo.Item) UpdateTodoInput {
	return UpdateTodoInput{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		ClientID:    item.ClientID,
		Completed:   item.Completed,
	}
}

// realtime protocol frames

const (
	msgConnectionInit  = "connection_init"
	msgConnectionAck   = "connection_ack"
	msgConnectionError = "connection_error"
	msgStart           = "start"
	msgStartAck        = "start_ack"
	msgData            = "data"
	msgKeepAlive       = "ka"
	msgError           = "error"
	msgComplete        = "complete"
	msgStop            = "stop"
)

// Message is one frame of the realtime websocket protocol.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StartPayload registers a subscription on an open connection. Data holds
// the JSON-encoded Request as a string.
type StartPayload struct {
	Data       string         `json:"data"`
	Extensions StartExtension `json:"extensions"`
}

// StartExtension carries the authorization headers for a start frame.
type StartExtension struct {
	Authorization map[string]string `json:"authorization"`
}

// AckPayload is the payload of connection_ack.
type AckPayload struct {
	ConnectionTimeoutMs int `json:"connectionTimeoutMs"`
}
