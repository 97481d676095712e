package stats

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdy4236/mask/internal/activity"
	"github.com/jdy4236/mask/internal/domain"
	"github.com/jdy4236/mask/internal/registry"
	"github.com/jdy4236/mask/internal/store"
	"github.com/jdy4236/mask/pkg/logger"
)

type fakeSource struct {
	mu      sync.Mutex
	handler func(domain.Signal)
}

func (f *fakeSource) SubscribeSignals(handleFunc func(domain.Signal)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = handleFunc
	return nil
}

func (f *fakeSource) emit(sig domain.Signal) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(sig)
	}
}

type fakeSession struct {
	id        string
	principal domain.Principal

	mu     sync.Mutex
	events []domain.ChatMessage
}

func (s *fakeSession) ID() string                  { return s.id }
func (s *fakeSession) Principal() domain.Principal { return s.principal }
func (s *fakeSession) DisplayName() string         { return s.principal.Nickname }

func (s *fakeSession) Deliver(msg domain.ChatMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, msg)
	return true
}

func (s *fakeSession) received() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatMessage, len(s.events))
	copy(out, s.events)
	return out
}

func setupAggregator(t *testing.T) (*Aggregator, store.Store, *registry.Registry, *fakeSource) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	reg := registry.NewRegistry()
	tracker := activity.NewTracker()
	source := &fakeSource{}
	log := logger.NewLogger("error", "")
	agg := NewAggregator(st, reg, tracker, NewSampler(time.Minute, 10, log), source, time.Minute, log)
	return agg, st, reg, source
}

func TestComputeTotals(t *testing.T) {
	agg, st, reg, _ := setupAggregator(t)
	ctx := context.Background()

	require.NoError(t, st.CreateUser(ctx, &store.User{ID: "u1", Nickname: "alice", Email: "a@x.io", PasswordHash: "h", Role: "user"}))
	require.NoError(t, st.CreateUser(ctx, &store.User{ID: "u2", Nickname: "bob", Email: "b@x.io", PasswordHash: "h", Role: "admin"}))
	require.NoError(t, st.CreateRoom(ctx, &store.Room{ID: "general", Name: "General", Category: "misc"}))
	require.NoError(t, st.CreateMessage(ctx, &store.Message{RoomID: "general", SenderID: "u1", Content: "hi", CreatedAt: time.Now()}))

	admin := &fakeSession{id: "s1", principal: domain.Principal{ID: "u2", Nickname: "bob", Role: domain.RoleAdmin}}
	require.NoError(t, reg.Register(admin))

	snap := agg.Compute(ctx)
	assert.Empty(t, snap.Degraded)
	assert.Equal(t, int64(1), snap.Totals.TotalRooms)
	assert.Equal(t, int64(2), snap.Totals.TotalUsers)
	assert.Equal(t, int64(1), snap.Totals.TotalMessages)
	assert.Equal(t, 1, snap.Totals.Connections)

	require.Len(t, snap.Rooms, 1)
	assert.Equal(t, "general", snap.Rooms[0].ID)
	assert.Equal(t, 0, snap.Rooms[0].UserCount)
	assert.False(t, snap.Rooms[0].IsActive)

	assert.Equal(t, "connected", snap.System.Database)

	require.Len(t, snap.AdminUsers, 1)
	assert.Equal(t, "bob", snap.AdminUsers[0].Nickname)
}

func TestComputeHistogramShape(t *testing.T) {
	agg, st, _, _ := setupAggregator(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	agg.now = func() time.Time { return base }

	// One signup in the current hour, one in the previous, one outside the
	// 24h window.
	require.NoError(t, st.CreateUser(ctx, &store.User{ID: "u1", Nickname: "n1", Email: "1@x.io", PasswordHash: "h", CreatedAt: base.Add(-10 * time.Minute)}))
	require.NoError(t, st.CreateUser(ctx, &store.User{ID: "u2", Nickname: "n2", Email: "2@x.io", PasswordHash: "h", CreatedAt: base.Add(-70 * time.Minute)}))
	require.NoError(t, st.CreateUser(ctx, &store.User{ID: "u3", Nickname: "n3", Email: "3@x.io", PasswordHash: "h", CreatedAt: base.Add(-25 * time.Hour)}))

	snap := agg.Compute(ctx)
	require.Len(t, snap.HourlySignups, hourlyBuckets)
	require.Len(t, snap.DailyMessages, dailyBuckets)

	newest := snap.HourlySignups[len(snap.HourlySignups)-1]
	assert.Equal(t, "14:00", newest.Label)
	assert.Equal(t, int64(1), newest.Count)

	previous := snap.HourlySignups[len(snap.HourlySignups)-2]
	assert.Equal(t, "13:00", previous.Label)
	assert.Equal(t, int64(1), previous.Count)

	total := int64(0)
	for _, b := range snap.HourlySignups {
		total += b.Count
	}
	assert.Equal(t, int64(2), total)
}

func TestComputeDegradesAfterClose(t *testing.T) {
	agg, st, _, _ := setupAggregator(t)
	require.NoError(t, st.Close())

	snap := agg.Compute(context.Background())
	assert.NotEmpty(t, snap.Degraded)
	assert.Contains(t, snap.Degraded, "totalRooms")
	assert.Equal(t, "disconnected", snap.System.Database)
}

func TestTriggerCoalesces(t *testing.T) {
	agg, _, _, _ := setupAggregator(t)
	for i := 0; i < 10; i++ {
		agg.Trigger()
	}
	// Only a single pass is pending.
	<-agg.trigger
	select {
	case <-agg.trigger:
		t.Fatal("expected a coalesced single trigger")
	default:
	}
}

func TestRunPushesToAdminsOnly(t *testing.T) {
	agg, _, reg, source := setupAggregator(t)

	admin := &fakeSession{id: "s-admin", principal: domain.Principal{ID: "u1", Nickname: "adm", Role: domain.RoleAdmin}}
	user := &fakeSession{id: "s-user", principal: domain.Principal{ID: "u2", Nickname: "usr", Role: domain.RoleUser}}
	require.NoError(t, reg.Register(admin))
	require.NoError(t, reg.Register(user))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = agg.Run(ctx)
		close(done)
	}()

	source.emit(domain.Signal{Type: domain.SignalMessageSent, Room: "general"})

	require.Eventually(t, func() bool {
		return len(admin.received()) >= 7
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done

	types := make(map[domain.MessageType]bool)
	for _, ev := range admin.received() {
		types[ev.Type] = true
	}
	for _, want := range []domain.MessageType{
		domain.MessageTypeAdminTotals,
		domain.MessageTypeAdminRoomDetails,
		domain.MessageTypeAdminUserStats,
		domain.MessageTypeAdminMessageStats,
		domain.MessageTypeAdminSystemStatus,
		domain.MessageTypeAdminResourceUsage,
		domain.MessageTypeAdminUsers,
	} {
		assert.True(t, types[want], "missing event %s", want)
	}

	assert.Empty(t, user.received())
}
