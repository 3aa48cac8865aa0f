// ABOUTME: Tests for quote queries: filters, paging, uniqueness rules

package store

import (
	"context"
	"errors"
	"testing"
)

func insertQuote(t *testing.T, s *Store, guildID, authorID, messageID uint64, content string) *Quote {
	t.Helper()
	ctx := context.Background()
	sess := s.NewSession()
	if _, err := sess.Guild(ctx, guildID); err != nil {
		t.Fatalf("ensuring guild: %v", err)
	}
	q := &Quote{GuildID: guildID, AuthorID: authorID, CreatorID: 1, ChannelID: 5, MessageID: messageID, Content: content}
	sess.Insert(q)
	if _, err := sess.Commit(ctx); err != nil {
		t.Fatalf("inserting quote: %v", err)
	}
	return q
}

func TestQuotes_Filters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertQuote(t, s, 1, 100, 1000, "the cake is a lie")
	insertQuote(t, s, 1, 100, 1001, "stay awhile and listen")
	insertQuote(t, s, 1, 200, 1002, "it's dangerous to go alone")
	insertQuote(t, s, 2, 100, 1003, "cake for everyone")

	all, err := s.Quotes(ctx, 1, QuoteFilter{})
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("guild 1 quotes: got %d, want 3", len(all))
	}

	byAuthor, err := s.Quotes(ctx, 1, QuoteFilter{AuthorID: 100})
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}
	if len(byAuthor) != 2 {
		t.Errorf("author quotes: got %d, want 2", len(byAuthor))
	}

	byContent, err := s.Quotes(ctx, 1, QuoteFilter{Contains: "cake"})
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}
	if len(byContent) != 1 || byContent[0].MessageID != 1000 {
		t.Errorf("content filter wrong: %+v", byContent)
	}

	paged, err := s.Quotes(ctx, 1, QuoteFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("Quotes failed: %v", err)
	}
	if len(paged) != 1 || paged[0].MessageID != 1001 {
		t.Errorf("paging wrong: %+v", paged)
	}
}

func TestQuote_DuplicateAuthorContentRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	insertQuote(t, s, 1, 100, 1000, "never say never")

	// Different message, same (guild, author, content).
	sess := s.NewSession()
	sess.Insert(&Quote{GuildID: 1, AuthorID: 100, CreatorID: 1, ChannelID: 5, MessageID: 2000, Content: "never say never"})
	_, err := sess.Commit(ctx)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	// Same content by a different author is fine.
	insertQuote(t, s, 1, 300, 2001, "never say never")
}

func TestQuoteByMessage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := insertQuote(t, s, 1, 100, 777, "quoted once")

	got, err := s.QuoteByMessage(ctx, 777)
	if err != nil {
		t.Fatalf("QuoteByMessage failed: %v", err)
	}
	if got.ID != want.ID {
		t.Errorf("quote id: got %s, want %s", got.ID, want.ID)
	}

	if _, err := s.QuoteByMessage(ctx, 778); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
