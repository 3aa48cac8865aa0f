// ABOUTME: Tests for read-only guild fetches, eager-loading, and small child tables

package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGuild_NotFoundIsNotAnError(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Guild(context.Background(), 12345)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGuild_ReadHasNoSideEffects(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Guild(ctx, 77); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// Reads never materialize a row.
	if _, err := s.Guild(ctx, 77); !errors.Is(err, ErrNotFound) {
		t.Errorf("read created a row: %v", err)
	}
}

func TestGuild_EagerLoadsIncludes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := s.NewSession()
	g, _ := sess.Guild(ctx, 20)
	rg := &RoleGroup{GuildID: g.GuildID, Name: "pronouns"}
	sess.Insert(rg)
	sess.Insert(&RoleConfig{GroupID: rg.ID, Name: "they", RoleID: 301})
	sess.Insert(&Quote{GuildID: g.GuildID, AuthorID: 1, CreatorID: 2, ChannelID: 3, MessageID: 4, Content: "hi"})
	sess.Insert(&Reminder{GuildID: g.GuildID, UserID: 1, ChannelID: 3, DueAt: time.Now().Add(time.Hour), Content: "soon"})
	sess.Insert(&JokeTimeout{GuildID: g.GuildID, UserID: 1, NextUseAt: time.Now().Add(time.Hour)})
	sess.Insert(&RegexChannel{GuildID: g.GuildID, ChannelID: 3, Pattern: `^\d+$`})
	if _, err := sess.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got, err := s.Guild(ctx, 20,
		IncludeRoleGroups, IncludeQuotes, IncludeReminders, IncludeJokeTimeouts, IncludeRegexChannels)
	if err != nil {
		t.Fatalf("Guild failed: %v", err)
	}

	if len(got.RoleGroups) != 1 || len(got.RoleGroups[0].Roles) != 1 {
		t.Errorf("role groups not loaded: %+v", got.RoleGroups)
	}
	if len(got.Quotes) != 1 {
		t.Errorf("quotes not loaded: %+v", got.Quotes)
	}
	if len(got.Reminders) != 1 {
		t.Errorf("reminders not loaded: %+v", got.Reminders)
	}
	if len(got.JokeTimeouts) != 1 {
		t.Errorf("joke timeouts not loaded: %+v", got.JokeTimeouts)
	}
	if len(got.RegexChannels) != 1 {
		t.Errorf("regex channels not loaded: %+v", got.RegexChannels)
	}

	// Without includes the collections stay empty.
	bare, err := s.Guild(ctx, 20)
	if err != nil {
		t.Fatalf("Guild failed: %v", err)
	}
	if bare.RoleGroups != nil || bare.Quotes != nil {
		t.Error("includes loaded without being requested")
	}
}

func TestJokeTimeout_OnePerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	next := time.Now().UTC().Add(30 * time.Minute)
	sess := s.NewSession()
	if _, err := sess.Guild(ctx, 30); err != nil {
		t.Fatalf("Guild failed: %v", err)
	}
	jt := &JokeTimeout{GuildID: 30, UserID: 8, NextUseAt: next}
	sess.Insert(jt)
	if _, err := sess.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got, err := s.JokeTimeout(ctx, 30, 8)
	if err != nil {
		t.Fatalf("JokeTimeout failed: %v", err)
	}
	if !got.NextUseAt.Equal(next) {
		t.Errorf("next_use_at: got %v, want %v", got.NextUseAt, next)
	}

	// Second insert for the same (guild, user) violates the primary key.
	dup := s.NewSession()
	dup.Insert(&JokeTimeout{GuildID: 30, UserID: 8, NextUseAt: next.Add(time.Hour)})
	if _, err := dup.Commit(ctx); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// Updates move the cooldown instead.
	upd := s.NewSession()
	got.NextUseAt = next.Add(2 * time.Hour)
	upd.Update(got)
	if _, err := upd.Commit(ctx); err != nil {
		t.Fatalf("update Commit failed: %v", err)
	}
	moved, err := s.JokeTimeout(ctx, 30, 8)
	if err != nil {
		t.Fatalf("JokeTimeout failed: %v", err)
	}
	if !moved.NextUseAt.Equal(next.Add(2 * time.Hour)) {
		t.Errorf("cooldown not moved: %v", moved.NextUseAt)
	}

	if _, err := s.JokeTimeout(ctx, 30, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestRegexChannel_OnePerChannel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := s.NewSession()
	if _, err := sess.Guild(ctx, 40); err != nil {
		t.Fatalf("Guild failed: %v", err)
	}
	sess.Insert(&RegexChannel{GuildID: 40, ChannelID: 600, Pattern: `^!`, DeleteOnFail: true})
	if _, err := sess.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	rc, err := s.RegexChannelFor(ctx, 600)
	if err != nil {
		t.Fatalf("RegexChannelFor failed: %v", err)
	}
	if rc.Pattern != `^!` || !rc.DeleteOnFail {
		t.Errorf("regex channel wrong: %+v", rc)
	}

	dup := s.NewSession()
	dup.Insert(&RegexChannel{GuildID: 40, ChannelID: 600, Pattern: `^\?`})
	if _, err := dup.Commit(ctx); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}
