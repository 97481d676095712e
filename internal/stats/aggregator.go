package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jdy4236/mask/internal/activity"
	"github.com/jdy4236/mask/internal/domain"
	"github.com/jdy4236/mask/internal/registry"
	"github.com/jdy4236/mask/internal/store"
	"github.com/jdy4236/mask/pkg/logger"
)

const (
	hourlyBuckets = 24
	dailyBuckets  = 30
	probeTimeout  = 2 * time.Second
)

// SignalSource delivers stats signals raised by the chat pipeline.
type SignalSource interface {
	SubscribeSignals(handleFunc func(domain.Signal)) error
}

// Aggregator recomputes the statistics snapshot whenever a signal arrives
// and pushes it to every connected session with the admin role. Signals
// coalesce: a burst arriving during one recomputation is covered by a single
// follow-up pass.
type Aggregator struct {
	store          store.Store
	registry       *registry.Registry
	tracker        *activity.Tracker
	sampler        *Sampler
	source         SignalSource
	log            logger.Logger
	activityWindow time.Duration

	trigger chan struct{}
	started time.Time
	now     func() time.Time
}

func NewAggregator(
	st store.Store,
	reg *registry.Registry,
	tracker *activity.Tracker,
	sampler *Sampler,
	source SignalSource,
	activityWindow time.Duration,
	log logger.Logger,
) *Aggregator {
	return &Aggregator{
		store:          st,
		registry:       reg,
		tracker:        tracker,
		sampler:        sampler,
		source:         source,
		log:            log.WithModule("stats"),
		activityWindow: activityWindow,
		trigger:        make(chan struct{}, 1),
		started:        time.Now(),
		now:            time.Now,
	}
}

// Run subscribes to the signal stream and serves recomputations until the
// context is cancelled.
func (a *Aggregator) Run(ctx context.Context) error {
	if err := a.source.SubscribeSignals(func(sig domain.Signal) {
		a.log.Debugf("signal %s room=%s", sig.Type, sig.Room)
		a.Trigger()
	}); err != nil {
		return fmt.Errorf("failed to subscribe to signals: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-a.trigger:
			snapshot := a.Compute(ctx)
			a.push(snapshot)
		}
	}
}

// Trigger requests one recomputation. Triggers arriving while a pass is in
// flight collapse into a single pending pass, so the aggregator never falls
// permanently behind and never pushes a value older than the newest signal.
func (a *Aggregator) Trigger() {
	select {
	case a.trigger <- struct{}{}:
	default:
	}
}

// Compute builds a snapshot. A failing sub-computation degrades its field
// and is listed in Degraded; it never aborts the whole snapshot.
func (a *Aggregator) Compute(ctx context.Context) domain.StatsSnapshot {
	now := a.now()
	snap := domain.StatsSnapshot{}

	degrade := func(field string, err error) {
		a.log.Warnf("stats field %s degraded: %v", field, err)
		snap.Degraded = append(snap.Degraded, field)
	}

	if rooms, err := a.store.CountRooms(ctx); err != nil {
		degrade("totalRooms", err)
	} else {
		snap.Totals.TotalRooms = rooms
	}
	if users, err := a.store.CountUsers(ctx); err != nil {
		degrade("totalUsers", err)
	} else {
		snap.Totals.TotalUsers = users
	}
	if msgs, err := a.store.CountMessages(ctx); err != nil {
		degrade("totalMessages", err)
	} else {
		snap.Totals.TotalMessages = msgs
	}
	snap.Totals.Connections = a.registry.SessionCount()

	if rooms, err := a.store.ListRooms(ctx); err != nil {
		degrade("rooms", err)
	} else {
		counts := a.registry.MemberCounts()
		details := make([]domain.RoomDetail, 0, len(rooms))
		for _, room := range rooms {
			details = append(details, domain.RoomDetail{
				ID:        room.ID,
				Name:      room.Name,
				Category:  room.Category,
				IsPrivate: room.IsPrivate,
				UserCount: counts[room.ID],
				IsActive:  a.tracker.IsActive(room.ID, a.activityWindow),
			})
		}
		snap.Rooms = details
	}

	hourly, err := a.histogram(ctx, now.Truncate(time.Hour), time.Hour, hourlyBuckets, "15:04", a.store.CountUsersCreatedBetween)
	if err != nil {
		degrade("hourlySignups", err)
	}
	snap.HourlySignups = hourly

	daily, err := a.histogram(ctx, dayStart(now), 24*time.Hour, dailyBuckets, "01-02", a.store.CountMessagesCreatedBetween)
	if err != nil {
		degrade("dailyMessages", err)
	}
	snap.DailyMessages = daily

	snap.System = domain.SystemStatus{
		Database: a.probe(ctx),
		Uptime:   time.Since(a.started).Round(time.Second).String(),
	}

	if a.sampler != nil {
		snap.Resources = a.sampler.Window()
	}

	if admins, err := a.store.ListAdminUsers(ctx); err != nil {
		degrade("adminUsers", err)
	} else {
		list := make([]domain.AdminUser, 0, len(admins))
		for _, u := range admins {
			list = append(list, domain.AdminUser{
				ID:        u.ID,
				Nickname:  u.Nickname,
				Email:     u.Email,
				CreatedAt: u.CreatedAt.Format(domain.TimeLayout),
			})
		}
		snap.AdminUsers = list
	}

	return snap
}

// histogram counts entities per fixed-width closed-open bucket, oldest
// first, with the newest bucket covering [latest, latest+width).
func (a *Aggregator) histogram(
	ctx context.Context,
	latest time.Time,
	width time.Duration,
	buckets int,
	labelLayout string,
	count func(context.Context, time.Time, time.Time) (int64, error),
) ([]domain.HistogramBucket, error) {
	out := make([]domain.HistogramBucket, 0, buckets)
	for i := buckets - 1; i >= 0; i-- {
		start := latest.Add(-time.Duration(i) * width)
		end := start.Add(width)
		n, err := count(ctx, start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.HistogramBucket{Label: start.Format(labelLayout), Count: n})
	}
	return out, nil
}

func (a *Aggregator) probe(ctx context.Context) string {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := a.store.Ping(probeCtx); err != nil {
		a.log.Warnf("store probe failed: %v", err)
		return "disconnected"
	}
	return "connected"
}

// push fans the snapshot out to elevated sessions only, as the event
// vocabulary the admin console consumes.
func (a *Aggregator) push(snap domain.StatsSnapshot) {
	admins := a.registry.AdminSessions()
	if len(admins) == 0 {
		return
	}

	events := []domain.ChatMessage{
		{Type: domain.MessageTypeAdminTotals, Data: snap.Totals},
		{Type: domain.MessageTypeAdminRoomDetails, Data: snap.Rooms},
		{Type: domain.MessageTypeAdminUserStats, Data: snap.HourlySignups},
		{Type: domain.MessageTypeAdminMessageStats, Data: snap.DailyMessages},
		{Type: domain.MessageTypeAdminSystemStatus, Data: snap.System},
		{Type: domain.MessageTypeAdminResourceUsage, Data: snap.Resources},
		{Type: domain.MessageTypeAdminUsers, Data: snap.AdminUsers},
	}
	for _, sess := range admins {
		for _, ev := range events {
			sess.Deliver(ev)
		}
	}
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
