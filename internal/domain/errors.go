package domain

import "errors"

var (
	// ErrUnauthenticated is returned when a connection's bearer token is
	// missing, malformed, expired, or its subject no longer exists.
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomExists       = errors.New("room already exists")
	ErrPasswordRequired = errors.New("password required")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrRoomFull         = errors.New("room is full")
	ErrNicknameTaken    = errors.New("nickname already in use")

	// ErrNotMember is returned when a session sends to a room it has not
	// joined.
	ErrNotMember = errors.New("not a member of room")

	// ErrNotRoomOwner is returned when a session tries to delete a room it
	// did not create.
	ErrNotRoomOwner = errors.New("not the room owner")
)
