// ABOUTME: Poll-driven reminder scheduler with single-flight ticks
// ABOUTME: Due rows are delivered at most once and removed whether or not delivery succeeds

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ashgrove/guildkeeper/internal/chat"
	"github.com/ashgrove/guildkeeper/internal/store"
)

// ErrPastDue is returned when a reminder's due time is not in the future.
var ErrPastDue = errors.New("due time is in the past")

// ErrTooFarOut is returned when a due time exceeds the configured horizon.
var ErrTooFarOut = errors.New("due time beyond maximum horizon")

// ErrReminderLimit is returned when a user is at their reminder cap.
var ErrReminderLimit = errors.New("reminder limit reached")

// ErrDuplicateReminder is returned when the same (guild, user, content)
// reminder already exists.
var ErrDuplicateReminder = errors.New("reminder already exists")

// Options tune the scheduler. Zero values pick the defaults.
type Options struct {
	Interval   time.Duration // poll interval, default 30s
	MaxPerUser int           // reminders per user per guild, default 10
	MaxHorizon time.Duration // furthest allowed due time, default 365 days
}

func (o *Options) fill() {
	if o.Interval <= 0 {
		o.Interval = 30 * time.Second
	}
	if o.MaxPerUser <= 0 {
		o.MaxPerUser = 10
	}
	if o.MaxHorizon <= 0 {
		o.MaxHorizon = 365 * 24 * time.Hour
	}
}

// Service scans for due reminders on a fixed interval and delivers them
// to their destination channels. Delivery is at most once: a due row is
// removed after the attempt regardless of the outcome.
type Service struct {
	store  *store.Store
	chat   chat.Client
	opts   Options
	logger *slog.Logger
	flight singleflight.Group
}

// New builds a reminder scheduler.
func New(st *store.Store, client chat.Client, opts Options) *Service {
	opts.fill()
	return &Service{
		store:  st,
		chat:   client,
		opts:   opts,
		logger: slog.Default().With("component", "scheduler"),
	}
}

// Run polls until ctx is cancelled. The first scan happens immediately.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.opts.Interval)

	s.Tick(ctx)

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one due-reminder pass. Concurrent calls collapse into the
// in-flight pass instead of starting a second scan.
func (s *Service) Tick(ctx context.Context) {
	s.flight.Do("tick", func() (any, error) {
		s.deliverDue(ctx)
		return nil, nil
	})
}

func (s *Service) deliverDue(ctx context.Context) {
	if !s.chat.Connected() {
		s.logger.Debug("skipping tick, connection down")
		return
	}

	due, err := s.store.DueReminders(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Error("scanning due reminders failed", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	ids := make([]string, 0, len(due))
	for _, r := range due {
		ids = append(ids, r.ID)

		content := fmt.Sprintf("⏰ Reminder for <@%d>: %s", r.UserID, r.Content)
		if err := s.chat.SendMessage(ctx, r.ChannelID, content); err != nil {
			// Attempted is final: the row still comes out below.
			s.logger.Warn("reminder delivery failed",
				"reminder", r.ID, "channel", r.ChannelID, "error", err)
		}
	}

	n, err := s.store.DeleteReminders(ctx, ids)
	if err != nil {
		s.logger.Error("removing delivered reminders failed", "error", err)
		return
	}
	s.logger.Info("reminder pass complete", "due", len(due), "removed", n)
}

// Schedule validates and persists a new reminder. The guards here belong
// to the creation side, not the delivery loop: per-user cap, duplicate
// (guild, user, content) rejection, and a due time that is in the future
// but within the horizon.
func (s *Service) Schedule(ctx context.Context, guildID, userID, channelID uint64, due time.Time, content string) (*store.Reminder, error) {
	now := time.Now().UTC()
	if !due.After(now) {
		return nil, ErrPastDue
	}
	if due.After(now.Add(s.opts.MaxHorizon)) {
		return nil, ErrTooFarOut
	}

	n, err := s.store.CountUserReminders(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	if n >= s.opts.MaxPerUser {
		return nil, ErrReminderLimit
	}

	exists, err := s.store.ReminderExists(ctx, guildID, userID, content)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateReminder
	}

	r := &store.Reminder{
		GuildID:   guildID,
		UserID:    userID,
		ChannelID: channelID,
		DueAt:     due.UTC(),
		Content:   content,
	}

	sess := s.store.NewSession()
	if _, err := sess.Guild(ctx, guildID); err != nil {
		return nil, err
	}
	sess.Insert(r)
	if _, err := sess.Commit(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("reminder scheduled", "reminder", r.ID, "guild", guildID,
		"user", userID, "due", r.DueAt)
	return r, nil
}
