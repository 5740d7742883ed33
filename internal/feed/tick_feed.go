// Package feed streams live price ticks from the screener's websocket
// endpoint into the snapshot provider's trend windows.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	reconnectDelay = 2 * time.Second
)

// PriceTick is one live trade-price observation for a token.
type PriceTick struct {
	Token     string    `json:"token"`
	PriceUSD  float64   `json:"priceUsd"`
	VolumeUSD float64   `json:"volumeUsd"`
	Timestamp time.Time `json:"timestamp"`
}

// TickHandler receives each decoded tick.
type TickHandler func(tick PriceTick)

type wsCommand struct {
	Type   string   `json:"type"`
	Tokens []string `json:"tokens"`
}

// TickFeed maintains a websocket subscription for a set of tokens and invokes
// the handler for every tick. It reconnects with a fixed delay on disconnect
// and restores the subscription after reconnect.
type TickFeed struct {
	wsURL   string
	handler TickHandler
	logger  *slog.Logger

	mu     sync.Mutex
	tokens map[string]bool
	conn   *websocket.Conn

	closeOnce sync.Once
	done      chan struct{}
}

// NewTickFeed creates a feed for the given websocket URL.
func NewTickFeed(wsURL string, handler TickHandler, logger *slog.Logger) *TickFeed {
	return &TickFeed{
		wsURL:   wsURL,
		handler: handler,
		logger:  logger.With(slog.String("component", "tick_feed")),
		tokens:  make(map[string]bool),
		done:    make(chan struct{}),
	}
}

// Watch adds tokens to the subscription. Safe to call while running; the
// delta is pushed on the live connection when one exists.
func (f *TickFeed) Watch(tokens ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var added []string
	for _, t := range tokens {
		if !f.tokens[t] {
			f.tokens[t] = true
			added = append(added, t)
		}
	}
	if len(added) > 0 && f.conn != nil {
		_ = f.send(wsCommand{Type: "subscribe", Tokens: added})
	}
}

// Unwatch removes tokens from the subscription.
func (f *TickFeed) Unwatch(tokens ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed []string
	for _, t := range tokens {
		if f.tokens[t] {
			delete(f.tokens, t)
			removed = append(removed, t)
		}
	}
	if len(removed) > 0 && f.conn != nil {
		_ = f.send(wsCommand{Type: "unsubscribe", Tokens: removed})
	}
}

// Run connects and reads ticks until ctx is cancelled or Close is called.
func (f *TickFeed) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		if err := f.runConnection(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn("tick feed disconnected, reconnecting",
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

// Close stops the feed permanently.
func (f *TickFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

func (f *TickFeed) runConnection(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect: %w", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	f.mu.Lock()
	f.conn = conn
	subscribe := make([]string, 0, len(f.tokens))
	for t := range f.tokens {
		subscribe = append(subscribe, t)
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.conn = nil
		f.mu.Unlock()
	}()

	if len(subscribe) > 0 {
		f.mu.Lock()
		err := f.send(wsCommand{Type: "subscribe", Tokens: subscribe})
		f.mu.Unlock()
		if err != nil {
			return fmt.Errorf("feed: subscribe: %w", err)
		}
	}

	// Ping loop keeps the connection alive; exits with the read loop.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ticker.C:
				f.mu.Lock()
				if f.conn != nil {
					_ = f.conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = f.conn.WriteMessage(websocket.PingMessage, nil)
				}
				f.mu.Unlock()
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("feed: read: %w", err)
		}

		var tick PriceTick
		if err := json.Unmarshal(msg, &tick); err != nil {
			f.logger.Debug("skipping undecodable tick", slog.String("error", err.Error()))
			continue
		}
		if tick.Token == "" || tick.PriceUSD <= 0 {
			continue
		}
		if f.handler != nil {
			f.handler(tick)
		}
	}
}

// send writes a command on the live connection. Caller must hold f.mu.
func (f *TickFeed) send(cmd wsCommand) error {
	_ = f.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return f.conn.WriteJSON(cmd)
}
