package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"relaybot/internal/bus"
	"relaybot/internal/domain"
	"relaybot/internal/menu"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	telegramMaxMsgLen  = 4000
	telegramPollPeriod = 30 // long-poll timeout, seconds
)

// Telegram connects the relay to the Telegram Bot API: it polls for
// updates, publishes them as inbound events, and implements
// domain.Transport for everything outbound.
type Telegram struct {
	bot     *tgbotapi.BotAPI
	buttons menu.Templates
	logger  *slog.Logger
}

type Config struct {
	Token    string
	ProxyURL string // optional SOCKS5/HTTP proxy for the Bot API
	Buttons  menu.Templates
	Logger   *slog.Logger
}

func NewTelegram(cfg Config) (*Telegram, error) {
	client := http.DefaultClient
	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("proxy url: %w", err)
		}
		client = &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxy)},
			Timeout:   time.Duration(telegramPollPeriod+10) * time.Second,
		}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Logger.Info("telegram bot connected",
		"username", bot.Self.UserName,
		"id", bot.Self.ID,
	)
	return &Telegram{bot: bot, buttons: cfg.Buttons, logger: cfg.Logger}, nil
}

// Run polls for updates until ctx is cancelled, publishing every
// routable update on the bus. Callback queries are acknowledged here so
// the client stops its spinner regardless of what the relay does next.
func (t *Telegram) Run(ctx context.Context, b *bus.InMemoryBus) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = telegramPollPeriod
	updates := t.bot.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram polling stopping")
			t.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if cq := update.CallbackQuery; cq != nil {
				if _, err := t.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
					t.logger.Warn("callback ack failed", "err", err)
				}
			}
			if ev, ok := classifyUpdate(update); ok {
				b.Publish(ev)
			}
		}
	}
}

// SendText delivers text to a user, splitting messages that exceed the
// Telegram limit. A keyboard, when requested, rides on the last chunk.
func (t *Telegram) SendText(ctx context.Context, dest domain.UserID, text string, action *domain.Action) error {
	chunks := splitMessage(text, telegramMaxMsgLen)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg := tgbotapi.NewMessage(int64(dest), chunk)
		if i == len(chunks)-1 && action != nil {
			msg.ReplyMarkup = t.markupFor(action)
		}
		if _, err := t.bot.Send(msg); err != nil {
			return translateErr(err)
		}
	}
	return nil
}

// splitMessage cuts text into chunks of at most maxLen bytes, preferring
// a newline boundary in the back half of the chunk. A hard cut backs off
// to a rune boundary so no chunk carries a torn multi-byte character.
func splitMessage(text string, maxLen int) []string {
	var chunks []string
	for len(text) > 0 {
		chunk := text
		if len(chunk) > maxLen {
			cutAt := strings.LastIndex(chunk[:maxLen], "\n")
			if cutAt < maxLen/2 {
				cutAt = maxLen
				for cutAt > 0 && !utf8.RuneStart(text[cutAt]) {
					cutAt--
				}
				if cutAt == 0 {
					cutAt = maxLen
				}
			}
			chunk = text[:cutAt]
			text = text[cutAt:]
		} else {
			text = ""
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// SendMedia re-sends a stored attachment by its file reference.
func (t *Telegram) SendMedia(ctx context.Context, dest domain.UserID, kind domain.MediaKind, ref, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	chatID := int64(dest)
	file := tgbotapi.FileID(ref)

	var msg tgbotapi.Chattable
	switch kind {
	case domain.MediaPhoto:
		m := tgbotapi.NewPhoto(chatID, file)
		m.Caption = caption
		msg = m
	case domain.MediaVideo:
		m := tgbotapi.NewVideo(chatID, file)
		m.Caption = caption
		msg = m
	case domain.MediaVoice:
		m := tgbotapi.NewVoice(chatID, file)
		m.Caption = caption
		msg = m
	case domain.MediaAudio:
		m := tgbotapi.NewAudio(chatID, file)
		m.Caption = caption
		msg = m
	case domain.MediaDocument:
		m := tgbotapi.NewDocument(chatID, file)
		m.Caption = caption
		msg = m
	case domain.MediaSticker:
		// Stickers cannot carry captions.
		msg = tgbotapi.NewSticker(chatID, file)
	default:
		return fmt.Errorf("unsupported media kind %d", kind)
	}

	if _, err := t.bot.Send(msg); err != nil {
		return translateErr(err)
	}
	return nil
}

// markupFor builds the inline keyboard for an outbound action.
func (t *Telegram) markupFor(action *domain.Action) tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData

	switch action.Kind {
	case domain.ActionReplyTo:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				btn(t.buttons.ButtonReply, domain.ReplyToken(action.UserID)),
			),
		)
	case domain.ActionAdminMenu:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				btn(t.buttons.ButtonListUsers, domain.TokenMenuListUsers),
				btn(t.buttons.ButtonStats, domain.TokenMenuStats),
			),
			tgbotapi.NewInlineKeyboardRow(
				btn(t.buttons.ButtonAdd, domain.TokenMenuAddOperator),
				btn(t.buttons.ButtonRemove, domain.TokenMenuRemoveOp),
			),
			tgbotapi.NewInlineKeyboardRow(
				btn(t.buttons.ButtonClose, domain.TokenMenuClose),
			),
		)
	case domain.ActionUserList:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(action.Users)+1)
		for _, u := range action.Users {
			label := fmt.Sprintf(t.buttons.ButtonUser, int64(u))
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				btn(label, domain.ReplyToken(u)),
			))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			btn(t.buttons.ButtonBack, domain.TokenBackToMenu),
		))
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	case domain.ActionCancel:
		// Any menu token aborts a pending workflow; Close doubles as
		// the cancel affordance.
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				btn(t.buttons.ButtonCancel, domain.TokenMenuClose),
			),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup()
}

// translateErr maps Bot API failures onto the retry policy's error
// classes. A response with retry_after becomes a rate-limit error
// carrying the mandated wait; a failed HTTP round trip is transient.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests || apiErr.RetryAfter > 0 {
			wait := time.Duration(apiErr.RetryAfter) * time.Second
			if wait <= 0 {
				wait = time.Second
			}
			return &domain.RateLimitedError{Wait: wait, Err: err}
		}
		if apiErr.Code >= http.StatusInternalServerError {
			return &domain.TransientError{Err: err}
		}
		return err
	}
	// No API response at all means the request never completed.
	return &domain.TransientError{Err: err}
}
