package domain

import "context"

// ActionKind selects which button layout accompanies an outbound text.
// The core emits only the semantic action; the menu package and the
// transport adapter decide labels and layout.
type ActionKind int

const (
	ActionReplyTo    ActionKind = iota // one "reply to this user" button
	ActionAdminMenu                    // the admin panel
	ActionUserList                     // one reply button per known user
	ActionCancel                       // abort the current workflow
)

// Action is a semantic button attachment for an outbound text message.
type Action struct {
	Kind   ActionKind
	UserID UserID   // target for ActionReplyTo
	Users  []UserID // targets for ActionUserList
}

// Transport sends outbound payloads to a destination identity. Both
// operations may fail with a RateLimitedError, a TransientError, or any
// other error; retrying is the caller's concern.
type Transport interface {
	SendText(ctx context.Context, dest UserID, text string, action *Action) error
	SendMedia(ctx context.Context, dest UserID, kind MediaKind, ref, caption string) error
}
