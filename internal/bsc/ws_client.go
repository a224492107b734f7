package bsc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
)

// logEventBuffer sizes each subscription channel; delivery blocks once
// the buffer is full, so slow consumers stall the stream rather than
// losing events.
const logEventBuffer = 4096

// subscribeTimeout bounds the wait for an eth_subscribe confirmation.
const subscribeTimeout = 30 * time.Second

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// DialTimeout bounds the WebSocket handshake.
	DialTimeout time.Duration
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the reconnect backoff.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval between ping frames.
	PingInterval time.Duration
	// ReadTimeout is the idle limit; pongs and messages extend it.
	ReadTimeout time.Duration
	// WriteTimeout bounds each frame write.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		DialTimeout:       10 * time.Second,
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// logSub couples a subscription's filter with its delivery channel.
// The node assigns a fresh id after every reconnect, so the registry
// key moves while the sub itself stays.
type logSub struct {
	filter LogFilter
	events chan LogEvent
}

// WSClientImpl implements WSClient over gorilla/websocket with
// automatic reconnect and resubscription. A supervisor goroutine owns
// the connection: it reads until the connection breaks, redials with
// exponential backoff, and replays the open subscriptions.
type WSClientImpl struct {
	endpoint string
	config   WSClientConfig

	// mu guards conn, subs, and pending. Reads happen on the
	// supervisor goroutine only; every write goes through mu.
	mu      sync.Mutex
	conn    *websocket.Conn
	subs    map[string]*logSub     // node subscription id -> sub
	pending map[uint64]chan string // eth_subscribe call id -> confirm

	callID atomic.Uint64
	closed atomic.Bool
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewWSClient dials the endpoint and starts the supervisor and ping
// goroutines. The context bounds only the initial dial.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClientImpl, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	c := &WSClientImpl{
		endpoint: endpoint,
		config:   cfg,
		subs:     make(map[string]*logSub),
		pending:  make(map[uint64]chan string),
		done:     make(chan struct{}),
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	c.wg.Add(2)
	go c.run()
	go c.pingLoop()

	return c, nil
}

// dial opens a connection and installs the pong handler that keeps the
// read deadline moving on quiet subscriptions.
func (c *WSClientImpl) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.config.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", c.endpoint, err)
	}

	conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
	})
	return conn, nil
}

// SubscribeLogs subscribes to contract logs matching the filter.
func (c *WSClientImpl) SubscribeLogs(ctx context.Context, filter LogFilter) (<-chan LogEvent, error) {
	if c.closed.Load() {
		return nil, fmt.Errorf("websocket client closed")
	}

	subID, err := c.requestSubscription(ctx, filter)
	if err != nil {
		return nil, err
	}

	sub := &logSub{filter: filter, events: make(chan LogEvent, logEventBuffer)}
	c.mu.Lock()
	c.subs[subID] = sub
	c.mu.Unlock()

	return sub.events, nil
}

// requestSubscription sends eth_subscribe and waits for the node to
// assign a subscription id.
func (c *WSClientImpl) requestSubscription(ctx context.Context, filter LogFilter) (string, error) {
	id := c.callID.Add(1)

	params := make(map[string]interface{})
	if len(filter.Addresses) > 0 {
		params["address"] = filter.Addresses
	}
	if len(filter.Topics) > 0 {
		params["topics"] = filter.Topics
	}

	confirm := make(chan string, 1)

	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		return "", fmt.Errorf("websocket not connected")
	}
	c.pending[id] = confirm
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	err := c.conn.WriteJSON(wsCall{
		JSONRPC: "2.0",
		ID:      id,
		Method:  "eth_subscribe",
		Params:  []interface{}{"logs", params},
	})
	c.mu.Unlock()

	if err != nil {
		c.dropPending(id)
		return "", fmt.Errorf("eth_subscribe: %w", err)
	}

	select {
	case subID := <-confirm:
		if subID == "" {
			return "", fmt.Errorf("eth_subscribe rejected by node")
		}
		return subID, nil
	case <-time.After(subscribeTimeout):
		c.dropPending(id)
		return "", fmt.Errorf("eth_subscribe: no confirmation within %s", subscribeTimeout)
	case <-ctx.Done():
		c.dropPending(id)
		return "", ctx.Err()
	case <-c.done:
		return "", fmt.Errorf("websocket client closed")
	}
}

// Close closes the connection and every subscription channel. Safe to
// call more than once.
func (c *WSClientImpl) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	close(c.done)

	c.mu.Lock()
	if c.conn != nil {
		c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.conn.Close()
	}
	for id, sub := range c.subs {
		close(sub.events)
		delete(c.subs, id)
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	c.mu.Unlock()

	c.wg.Wait()
	return nil
}

// run is the connection supervisor: read until the connection breaks,
// then redial and replay subscriptions, until the client closes.
func (c *WSClientImpl) run() {
	defer c.wg.Done()

	for {
		c.readUntilError()
		if c.closed.Load() {
			return
		}
		if !c.redial() {
			return
		}
	}
}

// readUntilError consumes frames from the current connection and
// returns on the first read failure.
func (c *WSClientImpl) readUntilError() {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		c.dispatch(msg)
	}
}

// redial reconnects with exponential backoff, swaps the connection in,
// and kicks off subscription replay. Returns false when the client was
// closed while waiting.
func (c *WSClientImpl) redial() bool {
	delay := c.config.ReconnectDelay

	for {
		select {
		case <-c.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.config.DialTimeout)
		conn, err := c.dial(ctx)
		cancel()

		if err == nil {
			c.mu.Lock()
			old := c.conn
			c.conn = conn
			c.mu.Unlock()
			if old != nil {
				old.Close()
			}
			// Replay needs the supervisor back in its read loop to see
			// the confirmations, so it runs on its own goroutine.
			go c.replaySubscriptions()
			return true
		}

		delay *= 2
		if delay > c.config.MaxReconnectDelay {
			delay = c.config.MaxReconnectDelay
		}
	}
}

// replaySubscriptions re-issues eth_subscribe for every open
// subscription and re-keys the registry under the fresh ids. A sub
// that fails to replay stays registered and is retried after the next
// reconnect.
func (c *WSClientImpl) replaySubscriptions() {
	c.mu.Lock()
	snapshot := make(map[string]*logSub, len(c.subs))
	for id, sub := range c.subs {
		snapshot[id] = sub
	}
	c.mu.Unlock()

	for oldID, sub := range snapshot {
		ctx, cancel := context.WithTimeout(context.Background(), subscribeTimeout)
		newID, err := c.requestSubscription(ctx, sub.filter)
		cancel()
		if err != nil {
			continue
		}

		c.mu.Lock()
		delete(c.subs, oldID)
		c.subs[newID] = sub
		c.mu.Unlock()
	}
}

// dispatch routes one frame: subscription notifications by method,
// confirmations and errors by call id.
func (c *WSClientImpl) dispatch(msg []byte) {
	var env wsEnvelope
	if err := json.Unmarshal(msg, &env); err != nil {
		return
	}

	switch {
	case env.Method == "eth_subscription" && env.Params != nil:
		c.deliver(env.Params.Subscription, env.Params.Result)
	case env.Error != nil:
		c.resolvePending(env.ID, "")
	case len(env.Result) > 0:
		var subID string
		if json.Unmarshal(env.Result, &subID) == nil {
			c.resolvePending(env.ID, subID)
		}
	}
}

// deliver hands a log to its subscription channel, blocking until the
// consumer takes it or the client closes.
func (c *WSClientImpl) deliver(subID string, payload wsLogPayload) {
	c.mu.Lock()
	sub := c.subs[subID]
	c.mu.Unlock()
	if sub == nil {
		return
	}

	ev := LogEvent{
		Address: payload.Address,
		Topics:  payload.Topics,
		Data:    payload.Data,
		TxHash:  payload.TransactionHash,
		Removed: payload.Removed,
	}
	if payload.BlockNumber != "" {
		if n, err := hexutil.DecodeBig(payload.BlockNumber); err == nil {
			ev.BlockNumber = n.Int64()
		}
	}

	select {
	case sub.events <- ev:
	case <-c.done:
	}
}

func (c *WSClientImpl) resolvePending(id uint64, subID string) {
	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()
	if ok {
		ch <- subID
	}
}

func (c *WSClientImpl) dropPending(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// pingLoop keeps the connection alive; a dead connection surfaces as a
// read error on the supervisor, which reconnects.
func (c *WSClientImpl) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.conn != nil {
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
				c.conn.WriteMessage(websocket.PingMessage, nil)
			}
			c.mu.Unlock()
		}
	}
}

// JSON-RPC frames for the subscription protocol.

type wsCall struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// wsEnvelope covers every inbound frame: confirmations carry ID and
// Result, notifications carry Method and Params, failures carry Error.
type wsEnvelope struct {
	ID     uint64                `json:"id"`
	Method string                `json:"method"`
	Result json.RawMessage       `json:"result"`
	Params *wsSubscriptionParams `json:"params"`
	Error  *wsError              `json:"error"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wsSubscriptionParams struct {
	Subscription string       `json:"subscription"`
	Result       wsLogPayload `json:"result"`
}

type wsLogPayload struct {
	Address         string   `json:"address"`
	Topics          []string `json:"topics"`
	Data            string   `json:"data"`
	BlockNumber     string   `json:"blockNumber"`
	TransactionHash string   `json:"transactionHash"`
	Removed         bool     `json:"removed"`
}
