package bsc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newWSServer starts a WebSocket test server; handler runs once per
// connection and the connection closes when it returns.
func newWSServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http")
}

// holdOpen drains frames until the peer disconnects.
func holdOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// readCall reads one frame and decodes it as a JSON-RPC call.
func readCall(conn *websocket.Conn) (wsCall, error) {
	var call wsCall
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return call, err
	}
	err = json.Unmarshal(msg, &call)
	return call, err
}

func TestWSClient_DialAndClose(t *testing.T) {
	url := newWSServer(t, holdOpen)

	client, err := NewWSClient(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if !client.closed.Load() {
		t.Error("client should report closed")
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestWSClient_DialFailure(t *testing.T) {
	_, err := NewWSClient(context.Background(), "ws://127.0.0.1:1", nil)
	if err == nil {
		t.Fatal("expected dial error")
	}
}

func TestWSClient_SubscribeLogs(t *testing.T) {
	const subID = "0x9cef478923ff08bf67fde6c64013158d"

	url := newWSServer(t, func(conn *websocket.Conn) {
		call, err := readCall(conn)
		if err != nil {
			return
		}
		if call.Method != "eth_subscribe" {
			t.Errorf("method = %s, want eth_subscribe", call.Method)
		}
		if len(call.Params) != 2 || call.Params[0] != "logs" {
			t.Errorf("params = %v, want [logs, filter]", call.Params)
		}

		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0", "id": call.ID, "result": subID,
		})
		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"method":  "eth_subscription",
			"params": map[string]interface{}{
				"subscription": subID,
				"result": map[string]interface{}{
					"address":         "0xca143ce32fe78f1f7019d7d551a6402fc5350c73",
					"topics":          []string{"0xaaa", "0xbbb", "0xccc"},
					"data":            "0xdeadbeef",
					"blockNumber":     "0x2af8f2",
					"transactionHash": "0xabc123",
				},
			},
		})
		holdOpen(conn)
	})

	client, err := NewWSClient(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	events, err := client.SubscribeLogs(context.Background(), LogFilter{
		Addresses: []string{"0xca143ce32fe78f1f7019d7d551a6402fc5350c73"},
		Topics:    [][]string{{"0xaaa"}},
	})
	if err != nil {
		t.Fatalf("SubscribeLogs: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Address != "0xca143ce32fe78f1f7019d7d551a6402fc5350c73" {
			t.Errorf("address = %s", ev.Address)
		}
		if len(ev.Topics) != 3 {
			t.Errorf("topics = %d, want 3", len(ev.Topics))
		}
		if ev.BlockNumber != 0x2af8f2 {
			t.Errorf("block = %d, want %d", ev.BlockNumber, 0x2af8f2)
		}
		if ev.TxHash != "0xabc123" {
			t.Errorf("tx hash = %s", ev.TxHash)
		}
		if ev.Removed {
			t.Error("event should not be marked removed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for log event")
	}
}

func TestWSClient_SubscribeRejected(t *testing.T) {
	url := newWSServer(t, func(conn *websocket.Conn) {
		call, err := readCall(conn)
		if err != nil {
			return
		}
		conn.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0", "id": call.ID,
			"error": map[string]interface{}{"code": -32600, "message": "bad filter"},
		})
		holdOpen(conn)
	})

	client, err := NewWSClient(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	_, err = client.SubscribeLogs(context.Background(), LogFilter{})
	if err == nil {
		t.Fatal("expected rejection error")
	}
	if !strings.Contains(err.Error(), "rejected") {
		t.Errorf("error = %v, want rejection", err)
	}
}

func TestWSClient_SubscribeAfterClose(t *testing.T) {
	url := newWSServer(t, holdOpen)

	client, err := NewWSClient(context.Background(), url, nil)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	client.Close()

	if _, err := client.SubscribeLogs(context.Background(), LogFilter{}); err == nil {
		t.Error("expected error subscribing after close")
	}
}

func TestWSClient_CustomConfig(t *testing.T) {
	url := newWSServer(t, holdOpen)

	config := &WSClientConfig{
		DialTimeout:       5 * time.Second,
		ReconnectDelay:    100 * time.Millisecond,
		MaxReconnectDelay: 1 * time.Second,
		PingInterval:      5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      5 * time.Second,
	}

	client, err := NewWSClient(context.Background(), url, config)
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if client.config.PingInterval != 5*time.Second {
		t.Errorf("PingInterval = %v, want 5s", client.config.PingInterval)
	}
	if client.config.DialTimeout != 5*time.Second {
		t.Errorf("DialTimeout = %v, want 5s", client.config.DialTimeout)
	}
}
