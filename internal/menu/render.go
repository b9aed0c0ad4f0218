package menu

import (
	"errors"
	"fmt"
	"strings"

	"relaybot/internal/domain"
)

// Renderer formats semantic relay outcomes into display strings.
type Renderer struct {
	t Templates
}

func NewRenderer(t Templates) *Renderer {
	return &Renderer{t: t}
}

// Buttons returns the template set so the transport adapter can label
// its keyboards.
func (r *Renderer) Buttons() Templates { return r.t }

func (r *Renderer) displayName(p domain.UserProfile) string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		name = "-"
	}
	return name
}

func (r *Renderer) username(p domain.UserProfile) string {
	if p.Username == "" {
		return r.t.UsernameAbsent
	}
	return p.Username
}

func (r *Renderer) Greeting(p domain.UserProfile, operator bool) string {
	if operator {
		return fmt.Sprintf(r.t.GreetingOperator, p.FirstName)
	}
	return fmt.Sprintf(r.t.GreetingUser, p.FirstName)
}

func (r *Renderer) Help(operator bool) string {
	if operator {
		return r.t.HelpOperator
	}
	return r.t.HelpUser
}

// KindLabel names a payload variant for operator-facing summaries.
func (r *Renderer) KindLabel(k domain.PayloadKind) string {
	switch k {
	case domain.PayloadText:
		return r.t.KindText
	case domain.PayloadPhoto:
		return r.t.KindPhoto
	case domain.PayloadVideo:
		return r.t.KindVideo
	case domain.PayloadVoice:
		return r.t.KindVoice
	case domain.PayloadDocument:
		return r.t.KindDocument
	case domain.PayloadAudio:
		return r.t.KindAudio
	case domain.PayloadSticker:
		return r.t.KindSticker
	}
	return r.t.KindUnsupported
}

func (r *Renderer) mediaLabel(k domain.MediaKind) string {
	switch k {
	case domain.MediaPhoto:
		return r.t.KindPhoto
	case domain.MediaVideo:
		return r.t.KindVideo
	case domain.MediaVoice:
		return r.t.KindVoice
	case domain.MediaDocument:
		return r.t.KindDocument
	case domain.MediaAudio:
		return r.t.KindAudio
	case domain.MediaSticker:
		return r.t.KindSticker
	}
	return r.t.KindText
}

// EntryContent derives the transcript display text for a payload: the
// message body or caption when present, a placeholder label otherwise.
func (r *Renderer) EntryContent(p domain.Payload) string {
	switch p.Kind {
	case domain.PayloadText:
		return p.Text
	case domain.PayloadPhoto:
		if p.Caption != "" {
			return p.Caption
		}
		return r.t.PhotoNoCaption
	case domain.PayloadVideo:
		if p.Caption != "" {
			return p.Caption
		}
		return r.t.VideoNoCaption
	case domain.PayloadVoice:
		return r.t.VoicePlaceholder
	case domain.PayloadDocument:
		if p.Caption != "" {
			return p.Caption
		}
		if p.FileName != "" {
			return fmt.Sprintf(r.t.DocumentLabel, p.FileName)
		}
		return r.t.DocumentNoName
	case domain.PayloadAudio:
		if p.Caption != "" {
			return p.Caption
		}
		return r.t.AudioPlaceholder
	case domain.PayloadSticker:
		emoji := p.Emoji
		if emoji == "" {
			emoji = "?"
		}
		return fmt.Sprintf(r.t.StickerLabel, emoji)
	}
	return r.t.UnsupportedContent
}

func (r *Renderer) NewUserNotice(user domain.UserID, p domain.UserProfile) string {
	return fmt.Sprintf(r.t.NewUserNotice, r.displayName(p), r.username(p), int64(user))
}

func (r *Renderer) BroadcastSummary(user domain.UserID, p domain.UserProfile, payload domain.Payload) string {
	return fmt.Sprintf(r.t.BroadcastSummary,
		r.KindLabel(payload.Kind), r.displayName(p), r.username(p), int64(user), r.EntryContent(payload))
}

func (r *Renderer) ForwardCaption(kind domain.MediaKind, user domain.UserID) string {
	return fmt.Sprintf(r.t.ForwardCaption, r.mediaLabel(kind), int64(user))
}

func (r *Renderer) UserAck() string       { return r.t.UserAck }
func (r *Renderer) UserAckFailed() string { return r.t.UserAckFailed }

func (r *Renderer) ReplyPrompt(target domain.UserID) string {
	return fmt.Sprintf(r.t.ReplyPrompt, int64(target))
}

func (r *Renderer) HistoryHeader() string { return r.t.HistoryHeader }
func (r *Renderer) HistoryEmpty() string  { return r.t.HistoryEmpty }

func (r *Renderer) senderLabel(s domain.Sender) string {
	if s == domain.SenderOperator {
		return r.t.SenderOperator
	}
	return r.t.SenderUser
}

// HistoryLine formats a text entry for replay.
func (r *Renderer) HistoryLine(e domain.ConversationEntry) string {
	return r.senderLabel(e.Sender) + ": " + e.Content
}

// HistoryMediaCaption formats the caption attached to a replayed media
// entry: sender label, media type, and the stored content when it is
// more than a placeholder.
func (r *Renderer) HistoryMediaCaption(e domain.ConversationEntry) string {
	caption := fmt.Sprintf("%s (%s)", r.senderLabel(e.Sender), r.mediaLabel(e.Media))
	if e.Content != "" && !strings.HasPrefix(e.Content, "[") {
		caption += ": " + e.Content
	}
	return caption
}

func (r *Renderer) ReplyDelivered(target domain.UserID) string {
	return fmt.Sprintf(r.t.ReplyDelivered, int64(target))
}

func (r *Renderer) ReplyFailed(target domain.UserID) string {
	return fmt.Sprintf(r.t.ReplyFailed, int64(target))
}

func (r *Renderer) ReplyTextOnly() string { return r.t.ReplyTextOnly }

func (r *Renderer) ReplyForUser(text string) string {
	return fmt.Sprintf(r.t.ReplyForwardText, text)
}

func (r *Renderer) Cancelled() string { return r.t.Cancelled }
func (r *Renderer) Guidance() string  { return r.t.Guidance }

func (r *Renderer) AddPrompt() string { return r.t.AddPrompt }

func (r *Renderer) RemovePrompt(removable []domain.UserID) string {
	var sb strings.Builder
	for _, id := range removable {
		fmt.Fprintf(&sb, "  - ID: %d\n", int64(id))
	}
	return fmt.Sprintf(r.t.RemovePrompt, strings.TrimRight(sb.String(), "\n"))
}

func (r *Renderer) NoRemovable() string { return r.t.NoRemovable }
func (r *Renderer) FormatError() string { return r.t.FormatError }

func (r *Renderer) OperatorAdded(id domain.UserID) string {
	return fmt.Sprintf(r.t.OperatorAdded, int64(id))
}

func (r *Renderer) OperatorRemoved(id domain.UserID) string {
	return fmt.Sprintf(r.t.OperatorRemoved, int64(id))
}

// RegistryError translates a registry violation into its notice.
func (r *Renderer) RegistryError(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyOperator):
		return r.t.ErrAlready
	case errors.Is(err, domain.ErrCannotRemoveSelf):
		return r.t.ErrSelf
	case errors.Is(err, domain.ErrCannotRemovePrimary):
		return r.t.ErrPrimary
	case errors.Is(err, domain.ErrNotAnOperator):
		return r.t.ErrNotOperator
	}
	return err.Error()
}

func (r *Renderer) AddUsage() string    { return r.t.AddUsage }
func (r *Renderer) RemoveUsage() string { return r.t.RemoveUsage }

func (r *Renderer) MenuTitle() string  { return r.t.MenuTitle }
func (r *Renderer) MenuClosed() string { return r.t.MenuClosed }

func (r *Renderer) Stats(operators, users, messages int) string {
	return fmt.Sprintf(r.t.Stats, operators, users, messages)
}

func (r *Renderer) UserListHeader() string { return r.t.UserListHeader }
func (r *Renderer) UserListEmpty() string  { return r.t.UserListEmpty }

func (r *Renderer) UserListLine(id domain.UserID, p domain.UserProfile) string {
	return fmt.Sprintf(r.t.UserListLine, r.displayName(p), r.username(p), int64(id))
}
func (r *Renderer) NotAuthorized() string  { return r.t.NotAuthorized }
func (r *Renderer) InternalError() string  { return r.t.InternalError }
