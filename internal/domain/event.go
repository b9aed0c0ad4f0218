package domain

import "time"

// UserID is the transport-issued identity of a user or operator.
type UserID int64

// UserProfile caches the display attributes last seen for a user.
// Overwritten on every inbound message so it always reflects the
// latest known values.
type UserProfile struct {
	FirstName string
	LastName  string
	Username  string
}

// PayloadKind is the closed set of inbound payload variants. Adding a
// media kind means extending this enum and the switches over it.
type PayloadKind int

const (
	PayloadText PayloadKind = iota
	PayloadPhoto
	PayloadVideo
	PayloadVoice
	PayloadDocument
	PayloadAudio
	PayloadSticker
	PayloadCommand
	PayloadButton
	PayloadUnsupported
)

// Payload is one inbound message body. Which fields are meaningful
// depends on Kind:
//
//	Text:     Text
//	media:    Ref, Caption (FileName for documents, Emoji for stickers)
//	Command:  Command (name without slash), Text (raw arguments)
//	Button:   Text (opaque callback token)
type Payload struct {
	Kind     PayloadKind
	Text     string
	Caption  string
	Ref      string
	FileName string
	Emoji    string
	Command  string
}

// IsMedia reports whether the payload carries a transport file reference.
func (p Payload) IsMedia() bool {
	switch p.Kind {
	case PayloadPhoto, PayloadVideo, PayloadVoice, PayloadDocument, PayloadAudio, PayloadSticker:
		return true
	}
	return false
}

// MediaKind maps a media payload to its transcript media tag.
// Returns MediaNone for non-media payloads.
func (p Payload) MediaKind() MediaKind {
	switch p.Kind {
	case PayloadPhoto:
		return MediaPhoto
	case PayloadVideo:
		return MediaVideo
	case PayloadVoice:
		return MediaVoice
	case PayloadDocument:
		return MediaDocument
	case PayloadAudio:
		return MediaAudio
	case PayloadSticker:
		return MediaSticker
	}
	return MediaNone
}

// InboundEvent is one message as received from the transport.
type InboundEvent struct {
	Sender  UserID
	Profile UserProfile
	Payload Payload
	Time    time.Time
}
