package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"relaybot/internal/domain"
)

// Both backends must satisfy the same contract, so the suite runs
// against each.
func stores(t *testing.T) map[string]domain.TranscriptStore {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "transcripts.db"), slog.Default())
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	return map[string]domain.TranscriptStore{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func textEntry(s domain.Sender, content string) domain.ConversationEntry {
	return domain.ConversationEntry{Kind: domain.EntryText, Content: content, Sender: s}
}

func TestStore_AppendPreservesArrivalOrder(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()

			for i := 0; i < 5; i++ {
				err := store.Append(ctx, 1001, textEntry(domain.SenderUser, fmt.Sprintf("msg %d", i)))
				if err != nil {
					t.Fatalf("append %d: %v", i, err)
				}
			}

			got, err := store.History(ctx, 1001)
			if err != nil {
				t.Fatalf("history: %v", err)
			}
			if len(got) != 5 {
				t.Fatalf("history length = %d, want 5", len(got))
			}
			for i, e := range got {
				if want := fmt.Sprintf("msg %d", i); e.Content != want {
					t.Fatalf("entry %d content = %q, want %q", i, e.Content, want)
				}
			}
		})
	}
}

func TestStore_UnknownUserHasEmptyHistory(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			got, err := store.History(context.Background(), 555)
			if err != nil {
				t.Fatalf("history: %v", err)
			}
			if len(got) != 0 {
				t.Fatalf("history for unknown user = %v, want empty", got)
			}
		})
	}
}

func TestStore_EnsureReportsFirstContact(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()

			created, err := store.Ensure(ctx, 1001)
			if err != nil {
				t.Fatalf("ensure: %v", err)
			}
			if !created {
				t.Fatal("first ensure should report creation")
			}
			created, err = store.Ensure(ctx, 1001)
			if err != nil {
				t.Fatalf("second ensure: %v", err)
			}
			if created {
				t.Fatal("second ensure must not report creation")
			}
		})
	}
}

func TestStore_KnownUsersInFirstContactOrder(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()

			for _, id := range []domain.UserID{30, 10, 20} {
				if _, err := store.Ensure(ctx, id); err != nil {
					t.Fatalf("ensure %d: %v", id, err)
				}
			}
			// Appending to a known user must not re-register it.
			if err := store.Append(ctx, 10, textEntry(domain.SenderUser, "hi")); err != nil {
				t.Fatalf("append: %v", err)
			}

			got, err := store.KnownUsers(ctx)
			if err != nil {
				t.Fatalf("known users: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("known users = %v, want 3 entries", got)
			}
		})
	}
}

func TestStore_ProfileOverwrite(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()

			if _, ok, _ := store.Profile(ctx, 1001); ok {
				t.Fatal("profile should not exist yet")
			}

			err := store.SaveProfile(ctx, 1001, domain.UserProfile{FirstName: "Ann", Username: "ann"})
			if err != nil {
				t.Fatalf("save profile: %v", err)
			}
			err = store.SaveProfile(ctx, 1001, domain.UserProfile{FirstName: "Ann", LastName: "Lee", Username: "annlee"})
			if err != nil {
				t.Fatalf("overwrite profile: %v", err)
			}

			p, ok, err := store.Profile(ctx, 1001)
			if err != nil || !ok {
				t.Fatalf("profile: ok=%v err=%v", ok, err)
			}
			if p.Username != "annlee" || p.LastName != "Lee" {
				t.Fatalf("profile = %+v, want latest values", p)
			}
		})
	}
}

func TestStore_MediaEntryRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			defer store.Close()
			ctx := context.Background()

			entry := domain.ConversationEntry{
				Kind:    domain.EntryMedia,
				Content: "vacation photo",
				Media:   domain.MediaPhoto,
				Ref:     "file-abc123",
				Sender:  domain.SenderUser,
			}
			if err := store.Append(ctx, 1001, entry); err != nil {
				t.Fatalf("append: %v", err)
			}

			got, err := store.History(ctx, 1001)
			if err != nil || len(got) != 1 {
				t.Fatalf("history: %v (%d entries)", err, len(got))
			}
			e := got[0]
			if e.Kind != domain.EntryMedia || e.Media != domain.MediaPhoto || e.Ref != "file-abc123" {
				t.Fatalf("entry = %+v, want media fields preserved", e)
			}
		})
	}
}
