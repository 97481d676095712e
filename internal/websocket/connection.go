package websocket

import (
	"context"
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/jdy4236/mask/internal/domain"
	"github.com/jdy4236/mask/pkg/logger"
	"github.com/jdy4236/mask/service"
)

const sendBuffer = 256

// Connection is a single authenticated WebSocket client. It implements
// domain.Session; the transport owns it, the registry only references it.
type Connection struct {
	ws        *websocket.Conn
	send      chan domain.ChatMessage
	id        string
	principal domain.Principal
	chat      service.ChatService
	logger    logger.Logger
	rootCtx   context.Context

	mu          sync.RWMutex
	displayName string
	closed      bool
}

// NewConnection wraps an upgraded, authenticated socket. The caller must
// register it with the chat service and then start its pumps.
func NewConnection(ctx context.Context, ws *websocket.Conn, id string, principal domain.Principal, chat service.ChatService, log logger.Logger) *Connection {
	return &Connection{
		ws:          ws,
		send:        make(chan domain.ChatMessage, sendBuffer),
		id:          id,
		principal:   principal,
		chat:        chat,
		logger:      log,
		rootCtx:     ctx,
		displayName: principal.Nickname,
	}
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) Principal() domain.Principal { return c.principal }

func (c *Connection) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayName
}

func (c *Connection) setDisplayName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.displayName = name
}

// Deliver enqueues an event without blocking. A session with a full or
// closed send queue reports false; the caller drops the event.
func (c *Connection) Deliver(msg domain.ChatMessage) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// shutdown closes the send queue exactly once. Deliver is excluded by the
// mutex, so it can never write into a closed channel.
func (c *Connection) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump consumes client commands until the socket fails or closes, then
// runs disconnect cleanup so no room retains a dead session.
func (c *Connection) ReadPump() {
	defer func() {
		c.chat.Disconnect(c)
		c.shutdown()
		c.ws.Close()
	}()

	for {
		var msg domain.ChatMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Errorf("read error on session %s: %v", c.id, err)
			}
			return
		}
		c.dispatch(msg)
	}
}

// WritePump drains the send queue onto the socket.
func (c *Connection) WritePump() {
	defer c.ws.Close()
	for msg := range c.send {
		if err := c.ws.WriteJSON(msg); err != nil {
			c.logger.Errorf("write error on session %s: %v", c.id, err)
			return
		}
	}
}

func (c *Connection) dispatch(msg domain.ChatMessage) {
	ctx := c.rootCtx

	switch msg.Type {
	case domain.MessageTypeJoin:
		if msg.Nickname != "" {
			c.setDisplayName(msg.Nickname)
		}
		if err := c.chat.JoinRoom(ctx, c, msg.Room, msg.Password); err != nil {
			c.fail(err)
		}

	case domain.MessageTypeLeave:
		if err := c.chat.LeaveRoom(ctx, c, msg.Room); err != nil {
			c.fail(err)
		}

	case domain.MessageTypeChat:
		if err := c.chat.SendMessage(ctx, c, msg.Room, msg.Content); err != nil {
			c.fail(err)
		}

	case domain.MessageTypeVerify:
		ok, err := c.chat.VerifyRoomPassword(ctx, msg.Room, msg.Password)
		if err != nil {
			c.fail(err)
			return
		}
		result := domain.ChatMessage{Type: domain.MessageTypeVerification, Room: msg.Room, Success: &ok}
		if !ok {
			result.Content = "invalid password"
		}
		c.Deliver(result)

	case domain.MessageTypeSearch:
		rooms, err := c.chat.SearchRooms(ctx, msg.Query)
		if err != nil {
			c.fail(err)
			return
		}
		c.Deliver(domain.ChatMessage{Type: domain.MessageTypeRooms, Rooms: rooms})

	case domain.MessageTypeRoomList:
		rooms, err := c.chat.ListRooms(ctx)
		if err != nil {
			c.fail(err)
			return
		}
		c.Deliver(domain.ChatMessage{Type: domain.MessageTypeRooms, Rooms: rooms})

	default:
		c.Deliver(domain.ErrorMessage("unknown command"))
	}
}

// fail reports an operation failure to this session only. Domain errors keep
// their message; anything else is reported generically.
func (c *Connection) fail(err error) {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrPasswordRequired),
		errors.Is(err, domain.ErrInvalidPassword),
		errors.Is(err, domain.ErrRoomFull),
		errors.Is(err, domain.ErrNicknameTaken),
		errors.Is(err, domain.ErrNotMember):
		c.Deliver(domain.ErrorMessage(err.Error()))
	default:
		c.logger.Errorf("session %s: %v", c.id, err)
		c.Deliver(domain.ErrorMessage("internal server error"))
	}
}
