package menu

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relaybot/internal/domain"
)

func TestEntryContent_CaptionWinsOverPlaceholder(t *testing.T) {
	r := NewRenderer(DefaultTemplates())

	got := r.EntryContent(domain.Payload{Kind: domain.PayloadPhoto, Caption: "look"})
	if got != "look" {
		t.Fatalf("got %q", got)
	}

	got = r.EntryContent(domain.Payload{Kind: domain.PayloadPhoto})
	if !strings.HasPrefix(got, "[") {
		t.Fatalf("placeholder should be bracketed, got %q", got)
	}
}

func TestEntryContent_DocumentFileName(t *testing.T) {
	r := NewRenderer(DefaultTemplates())

	got := r.EntryContent(domain.Payload{Kind: domain.PayloadDocument, FileName: "report.pdf"})
	if !strings.Contains(got, "report.pdf") {
		t.Fatalf("got %q", got)
	}
}

func TestEntryContent_StickerEmoji(t *testing.T) {
	r := NewRenderer(DefaultTemplates())

	got := r.EntryContent(domain.Payload{Kind: domain.PayloadSticker, Emoji: "😀"})
	if !strings.Contains(got, "😀") {
		t.Fatalf("got %q", got)
	}
	// Missing emoji falls back to a placeholder, never an empty label.
	got = r.EntryContent(domain.Payload{Kind: domain.PayloadSticker})
	if !strings.Contains(got, "?") {
		t.Fatalf("got %q", got)
	}
}

func TestDisplayName_FallsBackToDash(t *testing.T) {
	r := NewRenderer(DefaultTemplates())

	notice := r.NewUserNotice(5, domain.UserProfile{})
	if !strings.Contains(notice, "-") {
		t.Fatalf("notice = %q", notice)
	}
}

func TestRegistryError_MapsAllViolations(t *testing.T) {
	r := NewRenderer(DefaultTemplates())

	cases := []error{
		domain.ErrAlreadyOperator,
		domain.ErrNotAnOperator,
		domain.ErrCannotRemoveSelf,
		domain.ErrCannotRemovePrimary,
	}
	seen := map[string]bool{}
	for _, err := range cases {
		msg := r.RegistryError(err)
		if msg == "" || msg == err.Error() {
			t.Fatalf("%v should map to a template string, got %q", err, msg)
		}
		if seen[msg] {
			t.Fatalf("duplicate notice %q", msg)
		}
		seen[msg] = true
	}

	other := errors.New("disk full")
	if got := r.RegistryError(other); got != "disk full" {
		t.Fatalf("unknown errors pass through, got %q", got)
	}
}

func TestHistoryMediaCaption_SkipsPlaceholders(t *testing.T) {
	r := NewRenderer(DefaultTemplates())

	withCaption := r.HistoryMediaCaption(domain.ConversationEntry{
		Kind: domain.EntryMedia, Media: domain.MediaPhoto,
		Content: "look", Sender: domain.SenderUser,
	})
	if !strings.Contains(withCaption, "look") {
		t.Fatalf("got %q", withCaption)
	}

	placeholder := r.HistoryMediaCaption(domain.ConversationEntry{
		Kind: domain.EntryMedia, Media: domain.MediaVoice,
		Content: "[voice message]", Sender: domain.SenderUser,
	})
	if strings.Contains(placeholder, "[voice message]") {
		t.Fatalf("placeholder content must not repeat in the caption: %q", placeholder)
	}
}

func TestLoadTemplates_OverridesSelectedStrings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "templates.yaml")
	content := "guidance: \"Use die Antwort-Taste.\"\nbuttonReply: \"Antworten\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tpl, err := LoadTemplates(path, slog.Default())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tpl.Guidance != "Use die Antwort-Taste." {
		t.Fatalf("guidance = %q", tpl.Guidance)
	}
	if tpl.ButtonReply != "Antworten" {
		t.Fatalf("buttonReply = %q", tpl.ButtonReply)
	}
	// Untouched strings keep their defaults.
	if tpl.UserAck != DefaultTemplates().UserAck {
		t.Fatalf("userAck should stay default, got %q", tpl.UserAck)
	}
}

func TestLoadTemplates_MissingFileUsesDefaults(t *testing.T) {
	tpl, err := LoadTemplates(filepath.Join(t.TempDir(), "absent.yaml"), slog.Default())
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if tpl.Guidance != DefaultTemplates().Guidance {
		t.Fatal("expected defaults")
	}
}

func TestLoadTemplates_RejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("guidance: [unclosed"), 0o644)

	if _, err := LoadTemplates(path, slog.Default()); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}
