package channel

import (
	"strings"
	"time"

	"relaybot/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// classifyUpdate turns a raw Telegram update into an inbound event.
// Updates that carry nothing routable (edits, channel posts, empty
// callbacks) yield ok=false.
func classifyUpdate(update tgbotapi.Update) (domain.InboundEvent, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.From == nil || cq.Data == "" {
			return domain.InboundEvent{}, false
		}
		return domain.InboundEvent{
			Sender:  domain.UserID(cq.From.ID),
			Profile: profileOf(cq.From),
			Payload: domain.Payload{Kind: domain.PayloadButton, Text: cq.Data},
			Time:    time.Now(),
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return domain.InboundEvent{}, false
	}
	// Group chats are out of scope; the mediator is one-on-one.
	if !msg.Chat.IsPrivate() {
		return domain.InboundEvent{}, false
	}

	return domain.InboundEvent{
		Sender:  domain.UserID(msg.From.ID),
		Profile: profileOf(msg.From),
		Payload: classifyMessage(msg),
		Time:    time.Unix(int64(msg.Date), 0),
	}, true
}

func classifyMessage(msg *tgbotapi.Message) domain.Payload {
	switch {
	case msg.IsCommand():
		return domain.Payload{
			Kind:    domain.PayloadCommand,
			Command: msg.Command(),
			Text:    strings.TrimSpace(msg.CommandArguments()),
		}
	case len(msg.Photo) > 0:
		// Telegram sends several resolutions; the last is the largest.
		return domain.Payload{
			Kind:    domain.PayloadPhoto,
			Ref:     msg.Photo[len(msg.Photo)-1].FileID,
			Caption: msg.Caption,
		}
	case msg.Video != nil:
		return domain.Payload{
			Kind:    domain.PayloadVideo,
			Ref:     msg.Video.FileID,
			Caption: msg.Caption,
		}
	case msg.Voice != nil:
		return domain.Payload{
			Kind: domain.PayloadVoice,
			Ref:  msg.Voice.FileID,
		}
	case msg.Audio != nil:
		return domain.Payload{
			Kind:     domain.PayloadAudio,
			Ref:      msg.Audio.FileID,
			Caption:  msg.Caption,
			FileName: msg.Audio.FileName,
		}
	case msg.Document != nil:
		return domain.Payload{
			Kind:     domain.PayloadDocument,
			Ref:      msg.Document.FileID,
			Caption:  msg.Caption,
			FileName: msg.Document.FileName,
		}
	case msg.Sticker != nil:
		return domain.Payload{
			Kind:  domain.PayloadSticker,
			Ref:   msg.Sticker.FileID,
			Emoji: msg.Sticker.Emoji,
		}
	case msg.Text != "":
		return domain.Payload{Kind: domain.PayloadText, Text: msg.Text}
	}
	// Locations, contacts, polls and the rest are acknowledged but not
	// relayed with content.
	return domain.Payload{Kind: domain.PayloadUnsupported}
}

func profileOf(u *tgbotapi.User) domain.UserProfile {
	return domain.UserProfile{
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.UserName,
	}
}
