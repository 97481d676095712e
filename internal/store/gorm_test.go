package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) Store {
	t.Helper()
	st, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestUserLookup(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	user := &User{
		ID:           "u1",
		Nickname:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "x",
		Role:         "user",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, st.CreateUser(ctx, user))

	found, err := st.FindUserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Nickname)

	byEmail, err := st.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", byEmail.ID)

	_, err = st.FindUserByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := st.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestListAdminUsers(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateUser(ctx, &User{ID: "u1", Nickname: "alice", Email: "a@x", Role: "user"}))
	require.NoError(t, st.CreateUser(ctx, &User{ID: "u2", Nickname: "root", Email: "r@x", Role: "admin"}))

	admins, err := st.ListAdminUsers(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "u2", admins[0].ID)
}

// Range counts use closed-open [start, end) buckets: a row exactly at the
// start is counted, a row exactly at the end is not.
func TestCountUsersCreatedBetween(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateUser(ctx, &User{ID: "u1", Nickname: "a", Email: "a@x", CreatedAt: base}))
	require.NoError(t, st.CreateUser(ctx, &User{ID: "u2", Nickname: "b", Email: "b@x", CreatedAt: base.Add(30 * time.Minute)}))
	require.NoError(t, st.CreateUser(ctx, &User{ID: "u3", Nickname: "c", Email: "c@x", CreatedAt: base.Add(time.Hour)}))

	count, err := st.CountUsersCreatedBetween(ctx, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	count, err = st.CountUsersCreatedBetween(ctx, base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSearchRooms(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateRoom(ctx, &Room{ID: "r1", Name: "General Talk", Category: "General"}))
	require.NoError(t, st.CreateRoom(ctx, &Room{ID: "r2", Name: "Gaming", Category: "Games"}))
	require.NoError(t, st.CreateRoom(ctx, &Room{ID: "r3", Name: "Music", Category: "Arts"}))

	rooms, err := st.SearchRooms(ctx, "gam")
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.Equal(t, "r2", rooms[0].ID)

	rooms, err = st.SearchRooms(ctx, "GENERAL")
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.Equal(t, "r1", rooms[0].ID)
}

func TestDeleteRoomCascades(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	require.NoError(t, st.CreateRoom(ctx, &Room{ID: "r1", Name: "Doomed", Category: "General"}))
	require.NoError(t, st.CreateMessage(ctx, &Message{RoomID: "r1", SenderID: "u1", Content: "one", CreatedAt: time.Now()}))
	require.NoError(t, st.CreateMessage(ctx, &Message{RoomID: "r1", SenderID: "u1", Content: "two", CreatedAt: time.Now()}))

	require.NoError(t, st.DeleteRoom(ctx, "r1"))

	_, err := st.FindRoom(ctx, "r1")
	assert.ErrorIs(t, err, ErrNotFound)

	msgs, err := st.ListRoomMessages(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	assert.ErrorIs(t, st.DeleteRoom(ctx, "r1"), ErrNotFound)
}

func TestListRoomMessagesAscending(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateMessage(ctx, &Message{RoomID: "r1", SenderID: "u1", Content: "second", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, st.CreateMessage(ctx, &Message{RoomID: "r1", SenderID: "u1", Content: "first", CreatedAt: base}))
	require.NoError(t, st.CreateMessage(ctx, &Message{RoomID: "r2", SenderID: "u1", Content: "other room", CreatedAt: base}))

	msgs, err := st.ListRoomMessages(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
}

func TestRoomExpiry(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	eternal := Room{ID: "r1", CreatedAt: created}
	assert.False(t, eternal.Expired(created.Add(1000*time.Hour)))

	bounded := Room{ID: "r2", CreatedAt: created, LifespanMinutes: 30}
	assert.False(t, bounded.Expired(created.Add(29*time.Minute)))
	assert.True(t, bounded.Expired(created.Add(30*time.Minute)))
}

func TestPing(t *testing.T) {
	st := setupStore(t)
	assert.NoError(t, st.Ping(context.Background()))
}
