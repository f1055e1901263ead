package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// ErrInvalidTimezone marks a malformed IANA timezone identifier. This is
	// a programming error, not an environmental one, and is the one condition
	// the stats engine surfaces to its caller instead of swallowing.
	ErrInvalidTimezone = errors.New("invalid timezone identifier")

	// ErrDocumentNotFound is returned by point reads when no document exists
	// at the given path. A miss on the first-ever write for a user, day, or
	// language pair is expected and handled by creating the document.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUnknownEventType marks a practice event that is neither "listened"
	// nor "viewed".
	ErrUnknownEventType = errors.New("unknown practice event type")

	// ErrEmptyUserID marks an engine constructed without a user identity.
	ErrEmptyUserID = errors.New("user id must not be empty")
)
