// Package appsync is the client for the managed GraphQL todo backend.
//
// # Overview
//
// Queries and mutations are POSTed as {query, operationName, variables} JSON
// to the GraphQL endpoint. A non-empty errors array in the response becomes a
// *ResponseError; transport failures and HTTP status >= 400 are wrapped
// errors. Requests carry either an x-api-key header or an Authorization
// header holding the user's ID token.
//
// # Operations
//
//   - listTodos             -> ListTodos
//   - createTodo(input)     -> CreateTodo
//   - updateTodo(input)     -> UpdateTodo (full record)
//   - deleteTodo(input{id}) -> DeleteTodo
//   - onCreateTodo          -> SubscribeCreated
//
// # Realtime
//
// SubscribeCreated opens a websocket (subprotocol graphql-ws) to the realtime
// endpoint. The auth headers travel base64-encoded in the header query
// parameter. The exchange is:
//
//	client                         server
//	connection_init        ───→
//	                       ←───   connection_ack {connectionTimeoutMs}
//	start {id, payload}    ───→
//	                       ←───   start_ack
//	                       ←───   data / ka ...
//	stop {id}              ───→
//	                       ←───   complete
//
// A data frame that does not decode to an item, such as the null record
// sent when field authorization filters an event, is logged through
// Options.Logger, counted by Skipped and dropped; the stream stays open.
// Only a transport failure, an error frame or a complete frame ends it.
//
// A missing keep-alive within connectionTimeoutMs ends the stream with an
// error. There is no reconnect; callers decide what a dropped stream means.
//
// The realtime URL is derived from the HTTP endpoint unless configured:
// managed hosts swap appsync-api for appsync-realtime-api, other hosts use
// <path>/realtime.
package appsync
