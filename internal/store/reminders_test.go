// ABOUTME: Tests for reminder queries: due scans, batch removal, guards

package store

import (
	"context"
	"testing"
	"time"
)

func insertReminder(t *testing.T, s *Store, guildID, userID, channelID uint64, due time.Time, content string) *Reminder {
	t.Helper()
	ctx := context.Background()
	sess := s.NewSession()
	if _, err := sess.Guild(ctx, guildID); err != nil {
		t.Fatalf("ensuring guild: %v", err)
	}
	r := &Reminder{GuildID: guildID, UserID: userID, ChannelID: channelID, DueAt: due, Content: content}
	sess.Insert(r)
	if _, err := sess.Commit(ctx); err != nil {
		t.Fatalf("inserting reminder: %v", err)
	}
	return r
}

func TestDueReminders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertReminder(t, s, 1, 2, 3, now.Add(-time.Minute), "past")
	insertReminder(t, s, 1, 2, 3, now, "now-ish")
	insertReminder(t, s, 1, 2, 3, now.Add(time.Hour), "future")

	due, err := s.DueReminders(ctx, now)
	if err != nil {
		t.Fatalf("DueReminders failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due reminders: got %d, want 2", len(due))
	}
	if due[0].Content != "past" {
		t.Errorf("order: got %q first, want %q", due[0].Content, "past")
	}
}

func TestDeleteReminders_Batch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	r1 := insertReminder(t, s, 1, 2, 3, now, "a")
	r2 := insertReminder(t, s, 1, 2, 3, now, "b")
	insertReminder(t, s, 1, 2, 3, now.Add(time.Hour), "keep")

	n, err := s.DeleteReminders(ctx, []string{r1.ID, r2.ID})
	if err != nil {
		t.Fatalf("DeleteReminders failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted: got %d, want 2", n)
	}

	left, err := s.Reminders(ctx, ReminderFilter{GuildID: 1})
	if err != nil {
		t.Fatalf("Reminders failed: %v", err)
	}
	if len(left) != 1 || left[0].Content != "keep" {
		t.Errorf("remaining reminders wrong: %+v", left)
	}

	// Empty batch is a no-op.
	if n, err := s.DeleteReminders(ctx, nil); err != nil || n != 0 {
		t.Errorf("empty batch: got (%d, %v), want (0, nil)", n, err)
	}
}

func TestReminderExistsAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	due := time.Now().UTC().Add(time.Hour)

	insertReminder(t, s, 1, 2, 3, due, "water the plants")
	insertReminder(t, s, 1, 2, 3, due, "walk the dog")
	insertReminder(t, s, 1, 9, 3, due, "water the plants")

	exists, err := s.ReminderExists(ctx, 1, 2, "water the plants")
	if err != nil {
		t.Fatalf("ReminderExists failed: %v", err)
	}
	if !exists {
		t.Error("expected existing reminder to be found")
	}

	exists, err = s.ReminderExists(ctx, 1, 2, "feed the cat")
	if err != nil {
		t.Fatalf("ReminderExists failed: %v", err)
	}
	if exists {
		t.Error("unexpected match for unknown content")
	}

	n, err := s.CountUserReminders(ctx, 1, 2)
	if err != nil {
		t.Fatalf("CountUserReminders failed: %v", err)
	}
	if n != 2 {
		t.Errorf("count: got %d, want 2", n)
	}
}

func TestReminders_Paging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC()

	for i := 0; i < 5; i++ {
		insertReminder(t, s, 1, 2, 3, base.Add(time.Duration(i)*time.Minute), string(rune('a'+i)))
	}

	page, err := s.Reminders(ctx, ReminderFilter{GuildID: 1, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("Reminders failed: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("page size: got %d, want 2", len(page))
	}
	if page[0].Content != "c" || page[1].Content != "d" {
		t.Errorf("page contents: got %q, %q, want c, d", page[0].Content, page[1].Content)
	}
}
