// Package registry is the authoritative in-memory mapping of rooms to live
// sessions. It is the single source of truth for who is in which room right
// now; nothing here is persisted.
//
// Mutations for a single room are serialized through that room's mutex, so a
// roster built inside WithRoom always reflects the state strictly after the
// mutation that produced it. Unrelated rooms proceed in parallel.
package registry

import (
	"errors"
	"sync"

	"github.com/jdy4236/mask/internal/domain"
)

// ErrSessionClosed is returned when a join races a disconnect for the same
// session: a closing session can never enter a room.
var ErrSessionClosed = errors.New("session is closed")

// ErrSessionExists is returned when a session id is registered twice.
var ErrSessionExists = errors.New("session already registered")

type sessionState struct {
	session domain.Session
	rooms   map[string]struct{}
	closed  bool
}

// Room is the live membership of one room id, valid only inside WithRoom.
// The members slice is read under the room lock and mutated under the room
// lock plus reg.mu, so MemberCounts can read lengths under reg.mu alone.
type Room struct {
	reg     *Registry
	id      string
	members []domain.Session // join order
	deleted bool
}

type Registry struct {
	mu        sync.Mutex
	sessions  map[string]*sessionState
	rooms     map[string]*Room
	roomLocks sync.Map // room id -> *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*sessionState),
		rooms:    make(map[string]*Room),
	}
}

// lockRoom serializes all membership and message-stream mutations for one
// room id. Locks are never dropped from the map; the set of room ids is
// bounded by the store.
func (reg *Registry) lockRoom(id string) *sync.Mutex {
	v, _ := reg.roomLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu
}

// Register binds a connected session to the registry. It must be called once
// per connection, before any room command for that session is handled.
func (reg *Registry) Register(sess domain.Session) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.sessions[sess.ID()]; exists {
		return ErrSessionExists
	}
	reg.sessions[sess.ID()] = &sessionState{
		session: sess,
		rooms:   make(map[string]struct{}),
	}
	return nil
}

// CloseSession marks the session closed and returns the rooms it was still
// joined to. Once closed the session can no longer join any room, so the
// returned snapshot is complete: a later join either finished before the
// close (and is in the snapshot) or fails with ErrSessionClosed.
func (reg *Registry) CloseSession(sessionID string) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	st, ok := reg.sessions[sessionID]
	if !ok {
		return nil
	}
	st.closed = true
	rooms := make([]string, 0, len(st.rooms))
	for id := range st.rooms {
		rooms = append(rooms, id)
	}
	return rooms
}

// Remove drops a closed session from the registry entirely. Call after its
// per-room cleanup is done.
func (reg *Registry) Remove(sessionID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.sessions, sessionID)
}

// WithRoom runs fn inside the room's critical section, creating the
// membership entry on first use. Store I/O that must be ordered with the
// room's message stream (history load, message persistence) belongs inside
// fn; everything else belongs outside. A room dropped by DropRoom stays in
// the map as a tombstone, so callers racing the delete get
// domain.ErrRoomNotFound instead of a fresh, unbacked entry.
func (reg *Registry) WithRoom(roomID string, fn func(r *Room) error) error {
	mu := reg.lockRoom(roomID)
	defer mu.Unlock()

	reg.mu.Lock()
	r, ok := reg.rooms[roomID]
	if !ok {
		r = &Room{reg: reg, id: roomID}
		reg.rooms[roomID] = r
	}
	reg.mu.Unlock()

	if r.deleted {
		return domain.ErrRoomNotFound
	}
	return fn(r)
}

// DropRoom evicts all members and tombstones the membership entry. Used when
// the room itself is deleted; ResetRoom lifts the tombstone once the id is
// valid again. Returns the sessions that were evicted.
func (reg *Registry) DropRoom(roomID string) []domain.Session {
	mu := reg.lockRoom(roomID)
	defer mu.Unlock()

	reg.mu.Lock()
	defer reg.mu.Unlock()
	r, ok := reg.rooms[roomID]
	if !ok {
		// Never-joined rooms still get a tombstone, or a join racing the
		// delete would create a fresh entry.
		reg.rooms[roomID] = &Room{reg: reg, id: roomID, deleted: true}
		return nil
	}
	if r.deleted {
		return nil
	}

	r.deleted = true
	evicted := r.members
	r.members = nil
	for _, sess := range evicted {
		if st, ok := reg.sessions[sess.ID()]; ok {
			delete(st.rooms, roomID)
		}
	}
	return evicted
}

// ResetRoom removes the tombstone left by DropRoom so the id can hold
// members again. Called when a room is (re)created in the store.
func (reg *Registry) ResetRoom(roomID string) {
	mu := reg.lockRoom(roomID)
	defer mu.Unlock()

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if r, ok := reg.rooms[roomID]; ok && r.deleted {
		delete(reg.rooms, roomID)
	}
}

// SessionCount is the number of live connections. A session counts once
// regardless of how many rooms it joined.
func (reg *Registry) SessionCount() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	n := 0
	for _, st := range reg.sessions {
		if !st.closed {
			n++
		}
	}
	return n
}

// AdminSessions filters the live session set by role at call time. There is
// deliberately no separately maintained admin registry.
func (reg *Registry) AdminSessions() []domain.Session {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	var admins []domain.Session
	for _, st := range reg.sessions {
		if !st.closed && st.session.Principal().IsAdmin() {
			admins = append(admins, st.session)
		}
	}
	return admins
}

// MemberCounts returns the current member count per room with at least one
// member.
func (reg *Registry) MemberCounts() map[string]int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	counts := make(map[string]int, len(reg.rooms))
	for id, r := range reg.rooms {
		if n := len(r.members); n > 0 {
			counts[id] = n
		}
	}
	return counts
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// Members returns the sessions currently joined, in join order. The slice
// must not be retained past the critical section.
func (r *Room) Members() []domain.Session {
	return r.members
}

// Roster builds the client-facing member list, in join order.
func (r *Room) Roster() []domain.RoomUser {
	roster := make([]domain.RoomUser, 0, len(r.members))
	for _, sess := range r.members {
		roster = append(roster, domain.RoomUser{ID: sess.ID(), Nickname: sess.DisplayName()})
	}
	return roster
}

// Has reports whether the session is currently a member.
func (r *Room) Has(sessionID string) bool {
	for _, sess := range r.members {
		if sess.ID() == sessionID {
			return true
		}
	}
	return false
}

// Add joins the session to the room. It fails if the session was never
// registered or is closing; adding an existing member is a no-op.
func (r *Room) Add(sess domain.Session) error {
	if r.Has(sess.ID()) {
		return nil
	}
	r.reg.mu.Lock()
	defer r.reg.mu.Unlock()
	st, ok := r.reg.sessions[sess.ID()]
	if !ok || st.closed {
		return ErrSessionClosed
	}
	st.rooms[r.id] = struct{}{}
	r.members = append(r.members, sess)
	return nil
}

// Remove takes the session out of the room. Removing a non-member is a
// no-op; the return value reports whether the session was actually present.
func (r *Room) Remove(sessionID string) bool {
	for i, sess := range r.members {
		if sess.ID() == sessionID {
			r.reg.mu.Lock()
			r.members = append(r.members[:i], r.members[i+1:]...)
			if st, ok := r.reg.sessions[sessionID]; ok {
				delete(st.rooms, r.id)
			}
			r.reg.mu.Unlock()
			return true
		}
	}
	return false
}

// Broadcast delivers msg to every current member. Sessions that can no
// longer accept events are skipped; disconnect cleanup removes them.
func (r *Room) Broadcast(msg domain.ChatMessage) {
	for _, sess := range r.members {
		sess.Deliver(msg)
	}
}
