package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jdy4236/mask/internal/access"
	"github.com/jdy4236/mask/internal/activity"
	"github.com/jdy4236/mask/internal/auth"
	"github.com/jdy4236/mask/internal/crypto"
	"github.com/jdy4236/mask/internal/domain"
	"github.com/jdy4236/mask/internal/registry"
	"github.com/jdy4236/mask/internal/store"
	"github.com/jdy4236/mask/pkg/logger"
)

// SignalPublisher raises stats signals toward the aggregator.
type SignalPublisher interface {
	PublishSignal(sig domain.Signal) error
}

// CreateRoomParams carries the explicit room-create operation's input. The
// password is plaintext here and stored only as a bcrypt hash.
type CreateRoomParams struct {
	ID               string
	Name             string
	Category         string
	IsPrivate        bool
	Password         string
	ParticipantLimit int
	LifespanMinutes  int
}

// ChatService defines the relay's room and session operations. All state
// mutations flow through here so that per-room ordering and the
// persist-then-broadcast contract hold everywhere.
type ChatService interface {
	Connect(sess domain.Session) error
	Disconnect(sess domain.Session)

	JoinRoom(ctx context.Context, sess domain.Session, roomID, password string) error
	LeaveRoom(ctx context.Context, sess domain.Session, roomID string) error
	SendMessage(ctx context.Context, sess domain.Session, roomID, content string) error
	VerifyRoomPassword(ctx context.Context, roomID, password string) (bool, error)

	ListRooms(ctx context.Context) ([]domain.RoomInfo, error)
	SearchRooms(ctx context.Context, query string) ([]domain.RoomInfo, error)
	CreateRoom(ctx context.Context, creator domain.Principal, params CreateRoomParams) (domain.RoomInfo, error)
	DeleteRoom(ctx context.Context, requester domain.Principal, roomID string) error
}

type chatService struct {
	store    store.Store
	registry *registry.Registry
	tracker  *activity.Tracker
	cipher   *crypto.Cipher
	signals  SignalPublisher
	logger   logger.Logger
	now      func() time.Time
}

// NewChatService builds the relay core. A non-nil cipher encrypts message
// content before it is persisted; a nil cipher stores content as-is.
func NewChatService(st store.Store, reg *registry.Registry, tracker *activity.Tracker, cipher *crypto.Cipher, signals SignalPublisher, log logger.Logger) ChatService {
	return &chatService{
		store:    st,
		registry: reg,
		tracker:  tracker,
		cipher:   cipher,
		signals:  signals,
		logger:   log.WithModule("chat"),
		now:      time.Now,
	}
}

func (c *chatService) Connect(sess domain.Session) error {
	if err := c.registry.Register(sess); err != nil {
		return err
	}
	c.logger.Infof("session %s connected (user=%s role=%s)", sess.ID(), sess.Principal().ID, sess.Principal().Role)
	c.signal(domain.Signal{Type: domain.SignalMembershipChanged})
	return nil
}

// Disconnect removes the session from every room it had joined, with full
// leave semantics per room. Closing the session first makes this atomic with
// respect to concurrent joins: the session cannot be simultaneously removed
// and newly joining.
func (c *chatService) Disconnect(sess domain.Session) {
	rooms := c.registry.CloseSession(sess.ID())
	for _, roomID := range rooms {
		_ = c.registry.WithRoom(roomID, func(r *registry.Room) error {
			if r.Remove(sess.ID()) {
				c.announceLeave(r, sess.DisplayName())
			}
			return nil
		})
	}
	c.registry.Remove(sess.ID())
	c.logger.Infof("session %s disconnected, left %d room(s)", sess.ID(), len(rooms))
	c.signal(domain.Signal{Type: domain.SignalMembershipChanged})
}

func (c *chatService) JoinRoom(ctx context.Context, sess domain.Session, roomID, password string) error {
	room, err := c.findLiveRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if err := access.CheckJoin(room, password); err != nil {
		return err
	}

	err = c.registry.WithRoom(roomID, func(r *registry.Room) error {
		if r.Has(sess.ID()) {
			return nil
		}
		if room.ParticipantLimit > 0 && len(r.Members()) >= room.ParticipantLimit {
			return domain.ErrRoomFull
		}
		for _, member := range r.Members() {
			if member.DisplayName() == sess.DisplayName() {
				return domain.ErrNicknameTaken
			}
		}

		// History goes to the joiner before it becomes a member, inside the
		// room's critical section, so no live broadcast can precede it.
		history, err := c.loadHistory(ctx, roomID)
		if err != nil {
			return err
		}
		sess.Deliver(domain.ChatMessage{
			Type:     domain.MessageTypePrevMessages,
			Room:     roomID,
			Messages: history,
		})

		if err := r.Add(sess); err != nil {
			return err
		}

		r.Broadcast(domain.ChatMessage{
			Type:  domain.MessageTypeRoomUsers,
			Room:  roomID,
			Users: r.Roster(),
		})
		r.Broadcast(domain.SystemMessage(roomID,
			fmt.Sprintf("%s joined the room", sess.DisplayName()),
			c.now().Format(domain.TimeLayout)))
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Infof("%s joined room %s", sess.DisplayName(), roomID)
	c.signal(domain.Signal{Type: domain.SignalMembershipChanged, Room: roomID})
	return nil
}

// LeaveRoom is idempotent: leaving a room the session is not in announces
// nothing and raises no error.
func (c *chatService) LeaveRoom(ctx context.Context, sess domain.Session, roomID string) error {
	removed := false
	err := c.registry.WithRoom(roomID, func(r *registry.Room) error {
		if r.Remove(sess.ID()) {
			removed = true
			c.announceLeave(r, sess.DisplayName())
		}
		return nil
	})
	if err != nil && !errors.Is(err, domain.ErrRoomNotFound) {
		return err
	}
	if removed {
		c.logger.Infof("%s left room %s", sess.DisplayName(), roomID)
		c.signal(domain.Signal{Type: domain.SignalMembershipChanged, Room: roomID})
	}
	return nil
}

// announceLeave broadcasts the post-mutation roster and the departure
// message. Must run inside the room's critical section.
func (c *chatService) announceLeave(r *registry.Room, nickname string) {
	r.Broadcast(domain.ChatMessage{
		Type:  domain.MessageTypeRoomUsers,
		Room:  r.ID(),
		Users: r.Roster(),
	})
	r.Broadcast(domain.SystemMessage(r.ID(),
		fmt.Sprintf("%s left the room", nickname),
		c.now().Format(domain.TimeLayout)))
}

// SendMessage persists then broadcasts, as one step from the caller's view:
// if persistence fails nothing is broadcast, and because both happen inside
// the room's critical section every member observes messages in persistence
// order.
func (c *chatService) SendMessage(ctx context.Context, sess domain.Session, roomID, content string) error {
	stored := content
	if c.cipher != nil {
		sealed, err := c.cipher.Encrypt(content)
		if err != nil {
			return fmt.Errorf("failed to encrypt message: %w", err)
		}
		stored = sealed
	}

	var created time.Time
	err := c.registry.WithRoom(roomID, func(r *registry.Room) error {
		if !r.Has(sess.ID()) {
			return domain.ErrNotMember
		}

		msg := &store.Message{
			RoomID:    roomID,
			SenderID:  sess.Principal().ID,
			Content:   stored,
			CreatedAt: c.now(),
		}
		if err := c.store.CreateMessage(ctx, msg); err != nil {
			return fmt.Errorf("failed to persist message: %w", err)
		}
		created = msg.CreatedAt

		r.Broadcast(domain.ChatMessage{
			Type:      domain.MessageTypeChat,
			Room:      roomID,
			Sender:    sess.DisplayName(),
			Content:   content,
			Timestamp: created.Format(domain.TimeLayout),
		})
		return nil
	})
	if err != nil {
		return err
	}

	c.tracker.Record(roomID)
	c.signal(domain.Signal{Type: domain.SignalMessageSent, Room: roomID})
	return nil
}

// VerifyRoomPassword checks a password without joining. Used by clients to
// pre-validate before issuing the join command.
func (c *chatService) VerifyRoomPassword(ctx context.Context, roomID, password string) (bool, error) {
	room, err := c.findLiveRoom(ctx, roomID)
	if err != nil {
		return false, err
	}
	switch err := access.CheckJoin(room, password); {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrPasswordRequired), errors.Is(err, domain.ErrInvalidPassword):
		return false, nil
	default:
		return false, err
	}
}

func (c *chatService) ListRooms(ctx context.Context) ([]domain.RoomInfo, error) {
	rooms, err := c.store.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	return c.toRoomInfos(rooms), nil
}

func (c *chatService) SearchRooms(ctx context.Context, query string) ([]domain.RoomInfo, error) {
	rooms, err := c.store.SearchRooms(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	return c.toRoomInfos(rooms), nil
}

func (c *chatService) CreateRoom(ctx context.Context, creator domain.Principal, params CreateRoomParams) (domain.RoomInfo, error) {
	if params.ID == "" || params.Name == "" || params.Category == "" {
		return domain.RoomInfo{}, fmt.Errorf("room id, name, and category are required")
	}
	if params.IsPrivate && params.Password == "" {
		return domain.RoomInfo{}, domain.ErrPasswordRequired
	}

	if _, err := c.store.FindRoom(ctx, params.ID); err == nil {
		return domain.RoomInfo{}, domain.ErrRoomExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.RoomInfo{}, err
	}

	room := &store.Room{
		ID:               params.ID,
		Name:             params.Name,
		Category:         params.Category,
		IsPrivate:        params.IsPrivate,
		ParticipantLimit: params.ParticipantLimit,
		LifespanMinutes:  params.LifespanMinutes,
		CreatedBy:        creator.ID,
		CreatedAt:        c.now(),
	}
	if params.IsPrivate {
		hash, err := auth.HashPassword(params.Password)
		if err != nil {
			return domain.RoomInfo{}, fmt.Errorf("failed to hash room password: %w", err)
		}
		room.Password = hash
	}

	if err := c.store.CreateRoom(ctx, room); err != nil {
		return domain.RoomInfo{}, err
	}
	c.registry.ResetRoom(room.ID)

	c.logger.Infof("room %s created by %s (private=%t)", room.ID, creator.ID, room.IsPrivate)
	c.signal(domain.Signal{Type: domain.SignalRoomCreated, Room: room.ID})
	return toRoomInfo(*room), nil
}

// DeleteRoom removes the room and all of its messages, evicting any live
// members. Only the creator (or an admin) may delete a room.
func (c *chatService) DeleteRoom(ctx context.Context, requester domain.Principal, roomID string) error {
	room, err := c.store.FindRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrRoomNotFound
		}
		return err
	}
	if room.CreatedBy != requester.ID && !requester.IsAdmin() {
		return domain.ErrNotRoomOwner
	}

	if err := c.store.DeleteRoom(ctx, roomID); err != nil {
		return err
	}

	evicted := c.registry.DropRoom(roomID)
	notice := domain.SystemMessage(roomID, "room has been deleted", c.now().Format(domain.TimeLayout))
	for _, sess := range evicted {
		sess.Deliver(notice)
	}
	c.tracker.Forget(roomID)

	c.logger.Infof("room %s deleted by %s, evicted %d member(s)", roomID, requester.ID, len(evicted))
	c.signal(domain.Signal{Type: domain.SignalRoomDeleted, Room: roomID})
	if len(evicted) > 0 {
		c.signal(domain.Signal{Type: domain.SignalMembershipChanged, Room: roomID})
	}
	return nil
}

// findLiveRoom resolves a room id, treating an expired lifespan as absence.
func (c *chatService) findLiveRoom(ctx context.Context, roomID string) (*store.Room, error) {
	room, err := c.store.FindRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	if room.Expired(c.now()) {
		return nil, domain.ErrRoomNotFound
	}
	return room, nil
}

// loadHistory returns a room's persisted messages as wire events, ascending
// by creation time, with sender ids resolved to nicknames.
func (c *chatService) loadHistory(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	msgs, err := c.store.ListRoomMessages(ctx, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load room history: %w", err)
	}

	nicknames := make(map[string]string)
	history := make([]domain.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		nickname, ok := nicknames[msg.SenderID]
		if !ok {
			if user, err := c.store.FindUserByID(ctx, msg.SenderID); err == nil {
				nickname = user.Nickname
			} else {
				nickname = "unknown"
			}
			nicknames[msg.SenderID] = nickname
		}
		content := msg.Content
		if c.cipher != nil {
			// Rows written before encryption was enabled pass through as-is.
			if plain, err := c.cipher.Decrypt(msg.Content); err == nil {
				content = plain
			}
		}
		history = append(history, domain.ChatMessage{
			Type:      domain.MessageTypeChat,
			Room:      roomID,
			Sender:    nickname,
			Content:   content,
			Timestamp: msg.CreatedAt.Format(domain.TimeLayout),
		})
	}
	return history, nil
}

func (c *chatService) toRoomInfos(rooms []store.Room) []domain.RoomInfo {
	now := c.now()
	infos := make([]domain.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		if room.Expired(now) {
			continue
		}
		infos = append(infos, toRoomInfo(room))
	}
	return infos
}

func toRoomInfo(room store.Room) domain.RoomInfo {
	return domain.RoomInfo{
		ID:               room.ID,
		Name:             room.Name,
		Category:         room.Category,
		IsPrivate:        room.IsPrivate,
		ParticipantLimit: room.ParticipantLimit,
		CreatedBy:        room.CreatedBy,
	}
}

func (c *chatService) signal(sig domain.Signal) {
	if c.signals == nil {
		return
	}
	if err := c.signals.PublishSignal(sig); err != nil {
		c.logger.Errorf("failed to publish %s signal: %v", sig.Type, err)
	}
}
