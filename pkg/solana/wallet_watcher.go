package solana

import (
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	// Connection states
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"

	// Reconnect settings
	maxReconnectAttempts = 10
	reconnectDelay       = 5 * time.Second

	// Maximum consecutive errors before a wallet watch is abandoned
	maxErrorCount = 6
)

// ActivityCallback is invoked for every transaction signature that mentions
// a watched wallet
type ActivityCallback func(wallet, signature string)

// walletConnection tracks the WebSocket subscription for one wallet
type walletConnection struct {
	Wallet      string
	Conn        *websocket.Conn
	Status      string
	LastMessage time.Time
	ReconnectCh chan bool
	StopCh      chan bool
	Callback    ActivityCallback
	mu          sync.RWMutex
	errorCount  int
}

// WalletWatcher maintains logsSubscribe subscriptions for tracked wallets so
// wallet activity reaches consumers faster than the polling cadence
type WalletWatcher struct {
	connections sync.Map // map[string]*walletConnection
	wsEndpoint  string
}

// NewWalletWatcher creates a watcher using the given Solana WebSocket endpoint
func NewWalletWatcher(wsEndpoint string) *WalletWatcher {
	return &WalletWatcher{wsEndpoint: wsEndpoint}
}

// Watch starts monitoring a wallet address. Watching an already watched
// wallet is a no-op.
func (w *WalletWatcher) Watch(wallet string, callback ActivityCallback) error {
	if _, exists := w.connections.Load(wallet); exists {
		log.WithFields(log.Fields{
			"wallet": wallet,
		}).Info("Wallet already watched, skipping")
		return nil
	}

	if _, err := solana.PublicKeyFromBase58(wallet); err != nil {
		return fmt.Errorf("invalid wallet address %s: %w", wallet, err)
	}

	conn := &walletConnection{
		Wallet:      wallet,
		Status:      StateDisconnected,
		ReconnectCh: make(chan bool, 1),
		StopCh:      make(chan bool, 1),
		Callback:    callback,
	}
	w.connections.Store(wallet, conn)

	go w.connectAndWatch(conn)

	log.WithFields(log.Fields{
		"wallet": wallet,
	}).Info("Wallet watch created")
	return nil
}

// Unwatch stops monitoring a wallet address
func (w *WalletWatcher) Unwatch(wallet string) error {
	value, exists := w.connections.Load(wallet)
	if !exists {
		return fmt.Errorf("no watch for wallet %s", wallet)
	}

	conn := value.(*walletConnection)
	close(conn.StopCh)
	w.connections.Delete(wallet)
	log.WithFields(log.Fields{
		"wallet": wallet,
	}).Info("Wallet watch stopped")
	return nil
}

// Status returns the connection state for a watched wallet
func (w *WalletWatcher) Status(wallet string) (string, error) {
	value, exists := w.connections.Load(wallet)
	if !exists {
		return StateDisconnected, fmt.Errorf("no watch for wallet %s", wallet)
	}
	conn := value.(*walletConnection)
	conn.mu.RLock()
	defer conn.mu.RUnlock()
	return conn.Status, nil
}

// ActiveWallets returns the state of every watched wallet
func (w *WalletWatcher) ActiveWallets() map[string]string {
	result := make(map[string]string)
	w.connections.Range(func(key, value interface{}) bool {
		conn := value.(*walletConnection)
		conn.mu.RLock()
		result[key.(string)] = conn.Status
		conn.mu.RUnlock()
		return true
	})
	return result
}

// incrementErrorCount returns true when the watch should be abandoned
func (w *WalletWatcher) incrementErrorCount(conn *walletConnection) bool {
	conn.mu.Lock()
	defer conn.mu.Unlock()

	conn.errorCount++
	log.WithFields(log.Fields{
		"wallet":      conn.Wallet,
		"error_count": conn.errorCount,
		"max_errors":  maxErrorCount,
	}).Warn("Error count increased")

	return conn.errorCount >= maxErrorCount
}

func (w *WalletWatcher) resetErrorCount(conn *walletConnection) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	conn.errorCount = 0
}

// connectAndWatch handles the WebSocket connection lifecycle for one wallet
func (w *WalletWatcher) connectAndWatch(conn *walletConnection) {
	reconnectAttempts := 0

	for {
		select {
		case <-conn.StopCh:
			log.WithFields(log.Fields{
				"wallet": conn.Wallet,
			}).Info("Stopping wallet watch")
			if conn.Conn != nil {
				conn.Conn.Close()
			}
			return
		default:
			conn.mu.Lock()
			conn.Status = StateConnecting
			conn.mu.Unlock()

			c, _, err := websocket.DefaultDialer.Dial(w.wsEndpoint, nil)
			if err != nil {
				log.WithFields(log.Fields{
					"wallet": conn.Wallet,
					"error":  err.Error(),
				}).Error("Failed to connect to Solana WebSocket")
				reconnectAttempts++

				if w.incrementErrorCount(conn) || reconnectAttempts >= maxReconnectAttempts {
					log.WithFields(log.Fields{
						"wallet":             conn.Wallet,
						"reconnect_attempts": reconnectAttempts,
					}).Error("Abandoning wallet watch after repeated failures")
					w.Unwatch(conn.Wallet)
					return
				}
				time.Sleep(reconnectDelay)
				continue
			}

			conn.mu.Lock()
			conn.Conn = c
			conn.Status = StateConnected
			conn.mu.Unlock()

			reconnectAttempts = 0
			w.resetErrorCount(conn)
			log.WithFields(log.Fields{
				"wallet": conn.Wallet,
			}).Info("Connected to Solana WebSocket")

			subscribeMsg := map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      1,
				"method":  "logsSubscribe",
				"params": []interface{}{
					map[string]interface{}{
						"mentions": []string{conn.Wallet},
					},
					map[string]interface{}{
						"commitment": "confirmed",
					},
				},
			}

			if err := c.WriteJSON(subscribeMsg); err != nil {
				log.WithFields(log.Fields{
					"wallet": conn.Wallet,
					"error":  err.Error(),
				}).Error("Failed to send subscription message")
				c.Close()
				if w.incrementErrorCount(conn) {
					w.Unwatch(conn.Wallet)
					return
				}
				time.Sleep(reconnectDelay)
				continue
			}

			go w.readMessages(conn)

			select {
			case <-conn.ReconnectCh:
				log.WithFields(log.Fields{
					"wallet": conn.Wallet,
				}).Info("Reconnect requested")
				c.Close()
				time.Sleep(reconnectDelay)
			case <-conn.StopCh:
				c.Close()
				return
			}
		}
	}
}

// readMessages reads subscription notifications until the connection drops
func (w *WalletWatcher) readMessages(conn *walletConnection) {
	defer func() {
		conn.mu.Lock()
		if conn.Conn != nil {
			conn.Conn.Close()
		}
		conn.Status = StateDisconnected
		conn.mu.Unlock()

		// Trigger reconnect
		select {
		case conn.ReconnectCh <- true:
		default:
		}
	}()

	for {
		conn.mu.RLock()
		c := conn.Conn
		conn.mu.RUnlock()

		if c == nil {
			return
		}

		var msg struct {
			ID     interface{} `json:"id"`
			Result interface{} `json:"result"`
			Method string      `json:"method"`
			Params struct {
				Result struct {
					Value struct {
						Signature string      `json:"signature"`
						Err       interface{} `json:"err"`
					} `json:"value"`
				} `json:"result"`
			} `json:"params"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			log.WithFields(log.Fields{
				"wallet": conn.Wallet,
				"error":  err.Error(),
			}).Error("Error reading message")
			if w.incrementErrorCount(conn) {
				w.Unwatch(conn.Wallet)
			}
			return
		}

		w.resetErrorCount(conn)

		conn.mu.Lock()
		conn.LastMessage = time.Now()
		conn.mu.Unlock()

		// Subscription confirmation carries an id, notifications a method
		if msg.ID != nil {
			log.WithFields(log.Fields{
				"wallet":          conn.Wallet,
				"subscription_id": msg.Result,
			}).Info("Subscription confirmed")
			continue
		}

		if msg.Method != "logsNotification" {
			continue
		}
		if msg.Params.Result.Value.Err != nil {
			continue
		}
		signature := msg.Params.Result.Value.Signature
		if signature == "" {
			continue
		}

		if conn.Callback != nil {
			conn.Callback(conn.Wallet, signature)
		}
	}
}
