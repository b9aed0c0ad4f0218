package domain

import "time"

// Sender tags which side of the conversation produced an entry.
type Sender int

const (
	SenderUser Sender = iota
	SenderOperator
)

// EntryKind distinguishes plain text entries from media entries.
type EntryKind int

const (
	EntryText EntryKind = iota
	EntryMedia
)

// MediaKind tags the original media type of a transcript entry so it
// can be re-sent by reference during history replay.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaPhoto
	MediaVideo
	MediaVoice
	MediaDocument
	MediaAudio
	MediaSticker
)

// ConversationEntry is one record in a user's transcript. Entries are
// append-only: once stored they are never mutated or deleted.
type ConversationEntry struct {
	Kind    EntryKind
	Content string // display text: the message body, caption, or a placeholder label
	Media   MediaKind
	Ref     string // transport file reference, empty for pure text
	Sender  Sender
	At      time.Time
}
