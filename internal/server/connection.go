package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"jokerwhist/internal/game"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	identity    string
	sessionID   string
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	gameService *GameService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, gameService *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		gameService: gameService,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close() // Ignore close errors
		return ErrConnectionClosed
	}
}

// SetIdentity associates this connection with an authenticated identity
func (c *Connection) SetIdentity(identity string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
}

// GetIdentity returns the authenticated identity
func (c *Connection) GetIdentity() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// SetSession associates this connection with a session
func (c *Connection) SetSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
}

// GetSession returns the associated session ID
func (c *Connection) GetSession() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }() // Ignore close errors during cleanup

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // Ignore close errors during cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "identity", c.GetIdentity())

	switch msg.Type {
	case MessageTypeAuth:
		var data AuthData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse auth data")
			return
		}
		c.handleAuth(data)

	case MessageTypeCreateSession:
		var data CreateSessionData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse create session data")
			return
		}
		c.handleCreateSession(data)

	case MessageTypeRejoin:
		var data RejoinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse rejoin data")
			return
		}
		c.handleRejoin(data)

	case MessageTypeDraw:
		var data DrawData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse draw data")
			return
		}
		c.withRunner(func(runner *SessionRunner) {
			runner.SubmitDraw(c.GetIdentity(), data.CardIndex)
		})

	case MessageTypeBid:
		var data BidData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse bid data")
			return
		}
		c.withRunner(func(runner *SessionRunner) {
			runner.SubmitBid(c.GetIdentity(), data.Bid)
		})

	case MessageTypePlayCard:
		var data PlayCardData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse play data")
			return
		}
		c.withRunner(func(runner *SessionRunner) {
			runner.SubmitPlay(c.GetIdentity(), data.Card)
		})

	case MessageTypeChat:
		var data ChatData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse chat data")
			return
		}
		c.withRunner(func(runner *SessionRunner) {
			runner.Chat(c.GetIdentity(), data.Text)
		})

	case MessageTypeForceResign:
		var data ForceResignData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse force resign data")
			return
		}
		c.withRunner(func(runner *SessionRunner) {
			runner.ForceResign(c.GetIdentity(), game.Seat(data.Seat))
		})

	default:
		c.sendError("unknown_message_type", "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{
		Code:    code,
		Message: message,
	})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}

	_ = c.SendMessage(errorMsg) // Ignore send errors during error handling
}

func (c *Connection) handleAuth(data AuthData) {
	c.logger.Info("Auth request", "identity", data.Identity)

	// Simple authentication - just accept any non-empty identity
	if data.Identity == "" {
		c.sendError("invalid_auth", "Identity required")
		return
	}

	c.SetIdentity(data.Identity)

	// A returning identity is attached to its session so broadcasts
	// reach this connection; reclaiming the seat still needs a rejoin.
	if c.gameService != nil {
		if sessionID, ok := c.gameService.SessionFor(data.Identity); ok {
			c.SetSession(sessionID)
		}
	}

	response, _ := NewMessage(MessageTypeAuthResponse, AuthResponseData{
		Success:  true,
		Identity: data.Identity,
	})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleCreateSession(data CreateSessionData) {
	c.logger.Info("Create session request", "identity", c.GetIdentity(), "seats", len(data.Seats))

	if c.gameService == nil {
		c.sendError("service_unavailable", "Game service not available")
		return
	}
	if c.GetIdentity() == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}

	sessionID, err := c.gameService.CreateSession(data.Seats)
	if err != nil {
		c.sendError("create_failed", err.Error())
		return
	}

	// Attach every already-connected human in the request so the
	// opening draw broadcast reaches them.
	if server := c.gameService.server; server != nil {
		for _, seat := range data.Seats {
			if !seat.Bot && seat.Identity != "" {
				server.AssociateSession(seat.Identity, sessionID)
			}
		}
	}
	c.SetSession(sessionID)

	response, _ := NewMessage(MessageTypeSessionCreated, SessionCreatedData{
		SessionID: sessionID,
	})
	_ = c.SendMessage(response) // Ignore send errors
}

func (c *Connection) handleRejoin(data RejoinData) {
	c.logger.Info("Rejoin request", "identity", c.GetIdentity(), "session", data.SessionID)

	if c.gameService == nil {
		c.sendError("service_unavailable", "Game service not available")
		return
	}
	if c.GetIdentity() == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}

	runner, ok := c.gameService.Runner(data.SessionID)
	if !ok {
		c.sendError("session_not_found", "No such session: "+data.SessionID)
		return
	}

	c.SetSession(data.SessionID)
	runner.Rejoin(c.GetIdentity())
}

// withRunner resolves the connection's session runner and runs fn, or
// reports the appropriate error to the client.
func (c *Connection) withRunner(fn func(*SessionRunner)) {
	if c.gameService == nil {
		c.sendError("service_unavailable", "Game service not available")
		return
	}
	if c.GetIdentity() == "" {
		c.sendError("not_authenticated", "Must authenticate first")
		return
	}
	runner, ok := c.gameService.RunnerForIdentity(c.GetIdentity())
	if !ok {
		c.sendError("no_session", "Not in a session")
		return
	}
	fn(runner)
}
