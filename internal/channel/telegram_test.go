package channel

import (
	"strings"
	"testing"
	"unicode/utf8"

	"relaybot/internal/domain"
	"relaybot/internal/menu"
)

func TestSplitMessage_ShortTextStaysWhole(t *testing.T) {
	chunks := splitMessage("hello", 4000)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestSplitMessage_PrefersNewlineBoundary(t *testing.T) {
	text := strings.Repeat("x", 80) + "\n" + strings.Repeat("y", 60)
	chunks := splitMessage(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	if !strings.HasSuffix(chunks[0], "x") || !strings.HasPrefix(chunks[1], "\ny") {
		t.Fatalf("split should land on the newline: %q | %q", chunks[0], chunks[1])
	}
}

func TestSplitMessage_HardCutWithoutNewline(t *testing.T) {
	text := strings.Repeat("z", 250)
	chunks := splitMessage(text, 100)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Fatalf("chunk %d exceeds limit: %d bytes", i, len(c))
		}
	}
	if strings.Join(chunks, "") != text {
		t.Fatal("chunks must reassemble to the original text")
	}
}

func TestSplitMessage_HardCutKeepsRunesIntact(t *testing.T) {
	// Two-byte runes with an odd byte limit: a naive cut lands
	// mid-rune and produces invalid UTF-8 on both sides.
	text := strings.Repeat("é", 120)
	chunks := splitMessage(text, 101)
	for i, c := range chunks {
		if len(c) > 101 {
			t.Fatalf("chunk %d exceeds limit: %d bytes", i, len(c))
		}
		if !utf8.ValidString(c) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, c)
		}
	}
	if strings.Join(chunks, "") != text {
		t.Fatal("chunks must reassemble to the original text")
	}
}

func TestSplitMessage_IgnoresEarlyNewline(t *testing.T) {
	// A newline in the front half is a worse cut than the hard limit.
	text := "a\n" + strings.Repeat("b", 150)
	chunks := splitMessage(text, 100)
	if len(chunks[0]) != 100 {
		t.Fatalf("first chunk = %d bytes, want hard cut at 100", len(chunks[0]))
	}
}

func TestMarkupFor_ReplyAction(t *testing.T) {
	tr := &Telegram{buttons: menu.DefaultTemplates()}

	mk := tr.markupFor(&domain.Action{Kind: domain.ActionReplyTo, UserID: 1001})
	if len(mk.InlineKeyboard) != 1 || len(mk.InlineKeyboard[0]) != 1 {
		t.Fatalf("keyboard = %+v", mk.InlineKeyboard)
	}
	btn := mk.InlineKeyboard[0][0]
	if btn.CallbackData == nil || *btn.CallbackData != domain.ReplyToken(1001) {
		t.Fatalf("callback = %v", btn.CallbackData)
	}
}

func TestMarkupFor_AdminMenuCoversAllTokens(t *testing.T) {
	tr := &Telegram{buttons: menu.DefaultTemplates()}

	mk := tr.markupFor(&domain.Action{Kind: domain.ActionAdminMenu})
	want := map[string]bool{
		domain.TokenMenuListUsers:   false,
		domain.TokenMenuStats:       false,
		domain.TokenMenuAddOperator: false,
		domain.TokenMenuRemoveOp:    false,
		domain.TokenMenuClose:       false,
	}
	for _, row := range mk.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				want[*btn.CallbackData] = true
			}
		}
	}
	for token, seen := range want {
		if !seen {
			t.Errorf("menu missing button for %s", token)
		}
	}
}

func TestMarkupFor_UserListEndsWithBack(t *testing.T) {
	tr := &Telegram{buttons: menu.DefaultTemplates()}

	mk := tr.markupFor(&domain.Action{
		Kind:  domain.ActionUserList,
		Users: []domain.UserID{1001, 1002},
	})
	if len(mk.InlineKeyboard) != 3 {
		t.Fatalf("rows = %d, want one per user plus back", len(mk.InlineKeyboard))
	}
	first := mk.InlineKeyboard[0][0]
	if first.CallbackData == nil || *first.CallbackData != domain.ReplyToken(1001) {
		t.Fatalf("first row callback = %v", first.CallbackData)
	}
	last := mk.InlineKeyboard[2][0]
	if last.CallbackData == nil || *last.CallbackData != domain.TokenBackToMenu {
		t.Fatalf("last row callback = %v", last.CallbackData)
	}
}
