package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the narrow gateway over persisted users, rooms, and messages. The
// relay core depends on this interface, not on a concrete schema.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	CountUsers(ctx context.Context) (int64, error)
	// CountUsersCreatedBetween counts users with start <= createdAt < end.
	CountUsersCreatedBetween(ctx context.Context, start, end time.Time) (int64, error)
	ListAdminUsers(ctx context.Context) ([]User, error)

	CreateRoom(ctx context.Context, room *Room) error
	FindRoom(ctx context.Context, id string) (*Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	// SearchRooms matches the query case-insensitively against room name and
	// category.
	SearchRooms(ctx context.Context, query string) ([]Room, error)
	CountRooms(ctx context.Context) (int64, error)
	// DeleteRoom removes the room and all of its messages in one transaction.
	DeleteRoom(ctx context.Context, id string) error

	CreateMessage(ctx context.Context, msg *Message) error
	// ListRoomMessages returns a room's messages in ascending creation order.
	ListRoomMessages(ctx context.Context, roomID string) ([]Message, error)
	CountMessages(ctx context.Context) (int64, error)
	// CountMessagesCreatedBetween counts messages with start <= createdAt < end.
	CountMessagesCreatedBetween(ctx context.Context, start, end time.Time) (int64, error)

	// Ping probes connectivity with a trivial round trip.
	Ping(ctx context.Context) error
	Close() error
}
