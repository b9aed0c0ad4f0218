package channel

import (
	"errors"
	"testing"
	"time"

	"relaybot/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func privateMessage(from int64, mutate func(*tgbotapi.Message)) tgbotapi.Update {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: from, FirstName: "Ann", UserName: "ann"},
		Chat: &tgbotapi.Chat{ID: from, Type: "private"},
		Date: 1700000000,
	}
	mutate(msg)
	return tgbotapi.Update{Message: msg}
}

func TestClassify_Text(t *testing.T) {
	up := privateMessage(1001, func(m *tgbotapi.Message) { m.Text = "hello" })

	ev, ok := classifyUpdate(up)
	if !ok {
		t.Fatal("update should be routable")
	}
	if ev.Sender != 1001 {
		t.Fatalf("sender = %d", ev.Sender)
	}
	if ev.Payload.Kind != domain.PayloadText || ev.Payload.Text != "hello" {
		t.Fatalf("payload = %+v", ev.Payload)
	}
	if ev.Profile.FirstName != "Ann" || ev.Profile.Username != "ann" {
		t.Fatalf("profile = %+v", ev.Profile)
	}
}

func TestClassify_Command(t *testing.T) {
	up := privateMessage(1001, func(m *tgbotapi.Message) {
		m.Text = "/add_admin 42"
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 10}}
	})

	ev, ok := classifyUpdate(up)
	if !ok {
		t.Fatal("update should be routable")
	}
	if ev.Payload.Kind != domain.PayloadCommand || ev.Payload.Command != "add_admin" || ev.Payload.Text != "42" {
		t.Fatalf("payload = %+v", ev.Payload)
	}
}

func TestClassify_PhotoTakesLargestSize(t *testing.T) {
	up := privateMessage(1001, func(m *tgbotapi.Message) {
		m.Photo = []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90},
			{FileID: "large", Width: 800},
		}
		m.Caption = "look"
	})

	ev, _ := classifyUpdate(up)
	if ev.Payload.Kind != domain.PayloadPhoto || ev.Payload.Ref != "large" || ev.Payload.Caption != "look" {
		t.Fatalf("payload = %+v", ev.Payload)
	}
}

func TestClassify_MediaKinds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*tgbotapi.Message)
		kind   domain.PayloadKind
		ref    string
	}{
		{"video", func(m *tgbotapi.Message) { m.Video = &tgbotapi.Video{FileID: "v1"} }, domain.PayloadVideo, "v1"},
		{"voice", func(m *tgbotapi.Message) { m.Voice = &tgbotapi.Voice{FileID: "o1"} }, domain.PayloadVoice, "o1"},
		{"audio", func(m *tgbotapi.Message) { m.Audio = &tgbotapi.Audio{FileID: "a1"} }, domain.PayloadAudio, "a1"},
		{"document", func(m *tgbotapi.Message) { m.Document = &tgbotapi.Document{FileID: "d1", FileName: "r.pdf"} }, domain.PayloadDocument, "d1"},
		{"sticker", func(m *tgbotapi.Message) { m.Sticker = &tgbotapi.Sticker{FileID: "s1", Emoji: "😀"} }, domain.PayloadSticker, "s1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, ok := classifyUpdate(privateMessage(1001, tc.mutate))
			if !ok {
				t.Fatal("update should be routable")
			}
			if ev.Payload.Kind != tc.kind || ev.Payload.Ref != tc.ref {
				t.Fatalf("payload = %+v", ev.Payload)
			}
		})
	}
}

func TestClassify_DocumentFileName(t *testing.T) {
	up := privateMessage(1001, func(m *tgbotapi.Message) {
		m.Document = &tgbotapi.Document{FileID: "d1", FileName: "report.pdf"}
	})
	ev, _ := classifyUpdate(up)
	if ev.Payload.FileName != "report.pdf" {
		t.Fatalf("payload = %+v", ev.Payload)
	}
}

func TestClassify_UnsupportedContent(t *testing.T) {
	up := privateMessage(1001, func(m *tgbotapi.Message) {
		m.Location = &tgbotapi.Location{Latitude: 1, Longitude: 2}
	})
	ev, ok := classifyUpdate(up)
	if !ok {
		t.Fatal("update should still be routable")
	}
	if ev.Payload.Kind != domain.PayloadUnsupported {
		t.Fatalf("payload = %+v", ev.Payload)
	}
}

func TestClassify_CallbackQuery(t *testing.T) {
	up := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: 9, FirstName: "Op"},
		Data: domain.ReplyToken(1001),
	}}
	ev, ok := classifyUpdate(up)
	if !ok {
		t.Fatal("callback should be routable")
	}
	if ev.Payload.Kind != domain.PayloadButton || ev.Payload.Text != domain.ReplyToken(1001) {
		t.Fatalf("payload = %+v", ev.Payload)
	}
	if ev.Sender != 9 {
		t.Fatalf("sender = %d", ev.Sender)
	}
}

func TestClassify_SkipsGroupsAndNoise(t *testing.T) {
	group := tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 1001},
		Chat: &tgbotapi.Chat{ID: -5000, Type: "group"},
		Text: "hello all",
	}}
	if _, ok := classifyUpdate(group); ok {
		t.Fatal("group messages are not routable")
	}
	if _, ok := classifyUpdate(tgbotapi.Update{}); ok {
		t.Fatal("empty update is not routable")
	}
	emptyCb := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		From: &tgbotapi.User{ID: 9},
	}}
	if _, ok := classifyUpdate(emptyCb); ok {
		t.Fatal("callback without data is not routable")
	}
}

func TestTranslateErr(t *testing.T) {
	rl := translateErr(&tgbotapi.Error{
		Code:               429,
		Message:            "Too Many Requests",
		ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7},
	})
	var rle *domain.RateLimitedError
	if !errors.As(rl, &rle) || rle.Wait != 7*time.Second {
		t.Fatalf("429 → %#v", rl)
	}

	tr := translateErr(&tgbotapi.Error{Code: 502, Message: "Bad Gateway"})
	var te *domain.TransientError
	if !errors.As(tr, &te) {
		t.Fatalf("502 → %#v", tr)
	}

	plain := translateErr(&tgbotapi.Error{Code: 400, Message: "Bad Request"})
	if errors.As(plain, &rle) || errors.As(plain, &te) {
		t.Fatalf("400 should stay unclassified, got %#v", plain)
	}

	net := translateErr(errors.New("dial tcp: timeout"))
	if !errors.As(net, &te) {
		t.Fatalf("network error should be transient, got %#v", net)
	}
}
