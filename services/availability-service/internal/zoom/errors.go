package zoom

import (
	"fmt"

	"github.com/google/uuid"
)

// TokenError reports a failed token exchange for one integration. The
// integration identifier is attached by the caller that knows it; the client
// itself only sees auth material.
type TokenError struct {
	IntegrationID uuid.UUID
	Err           error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token acquisition failed for integration %s: %v", e.IntegrationID, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// DirectoryError reports a failed users listing for one account.
type DirectoryError struct {
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("directory fetch failed: %v", e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// MeetingsError reports a failed meetings listing for a single user. It must
// not abort sibling fetches; the scheduler decides what to do with it.
type MeetingsError struct {
	UserID    string
	UserEmail string
	Err       error
}

func (e *MeetingsError) Error() string {
	return fmt.Sprintf("meeting fetch failed for user %s: %v", e.UserEmail, e.Err)
}

func (e *MeetingsError) Unwrap() error { return e.Err }

// apiError carries the status and decoded error body of a non-success
// Zoom API response.
type apiError struct {
	Status int
	Code   string
	Reason string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("zoom api status %d: %s (%s)", e.Status, e.Code, e.Reason)
	}
	return fmt.Sprintf("zoom api status %d", e.Status)
}
