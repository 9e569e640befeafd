// Package realtime is the client side of the CRM push channel.
//
// A Client keeps one WebSocket open to <api host>/api/v1/ws, reconnecting
// with exponential backoff after a drop, sending a ping every heartbeat
// interval and dispatching decoded inbound events to registered handlers.
// Sends are fire-and-forget: while not connected they are logged and dropped.
//
// Monitor is a thin consumer on top of a Client that tracks connection state,
// the last event seen and a bounded per-conversation message Inbox.
package realtime
