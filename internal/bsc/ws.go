package bsc

import "context"

// WSClient defines the BSC WebSocket subscription interface.
type WSClient interface {
	// SubscribeLogs subscribes to contract logs matching the filter.
	SubscribeLogs(ctx context.Context, filter LogFilter) (<-chan LogEvent, error)

	// Close closes the WebSocket connection.
	Close() error
}

// LogFilter selects contract logs for an eth_subscribe("logs") subscription.
type LogFilter struct {
	// Addresses restricts logs to these emitting contracts.
	Addresses []string
	// Topics filters by indexed topic position; each position lists
	// accepted values.
	Topics [][]string
}

// LogEvent is a single log notification from the node.
type LogEvent struct {
	Address     string
	Topics      []string
	Data        string
	BlockNumber int64
	TxHash      string
	Removed     bool
}
