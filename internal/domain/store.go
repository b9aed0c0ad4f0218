package domain

import "context"

// TranscriptStore keeps the append-only per-user message history and
// the cached user profiles. Transcripts are created lazily on first
// contact and live until the store is closed; there is no eviction.
type TranscriptStore interface {
	// Ensure lazily creates the transcript for a user and reports
	// whether this call created it (first-ever contact).
	Ensure(ctx context.Context, user UserID) (created bool, err error)

	// Append adds one entry to a user's transcript, creating it if
	// needed. Entries are kept in arrival order.
	Append(ctx context.Context, user UserID, entry ConversationEntry) error

	// History returns the full transcript for a user, oldest first.
	// Unknown users yield an empty slice, not an error.
	History(ctx context.Context, user UserID) ([]ConversationEntry, error)

	// KnownUsers lists every user with a transcript, in first-contact order.
	KnownUsers(ctx context.Context) ([]UserID, error)

	// SaveProfile overwrites the cached display attributes for a user.
	SaveProfile(ctx context.Context, user UserID, p UserProfile) error

	// Profile returns the cached attributes and whether any were stored.
	Profile(ctx context.Context, user UserID) (UserProfile, bool, error)

	Close() error
}
