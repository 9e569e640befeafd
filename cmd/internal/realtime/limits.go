package realtime

import "time"

const (
	// Max bytes per inbound frame.
	maxFrameBytes = 1 << 20 // 1 MiB

	// Ping cadence while connected.
	heartbeatInterval = 30 * time.Second

	// Reconnect schedule: baseDelay * 2^(attempt-1) for attempt 1..maxAttempts.
	baseDelay   = 1 * time.Second
	maxAttempts = 5

	dialTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second

	// Per-conversation typing throttle window; the limit is off by default.
	typingWindow = 3 * time.Second

	// Inbox bound per conversation.
	inboxMaxMessages = 500
)
