// Package ws provides the session gateway: WebSocket connection handling
// and message routing for project collaboration sessions.
//
// The package implements:
//   - Gateway: upgrades connections, runs the join handshake and
//     authorization, and routes validated messages to the project's hub
//   - Conn: one participant's connection, acting as the hub's delivery sink
//   - Message: the tagged inbound wire envelope with per-type validation
//
// Key behaviors:
//   - Authorization is checked before any hub attach; refusals close the
//     connection with a policy-violation close frame
//   - Malformed inbound messages are dropped with a logged warning and never
//     terminate the connection
//   - Ping/pong deadlines act as the heartbeat backstop, so a silently
//     dropped connection is detached within the pong window
package ws
