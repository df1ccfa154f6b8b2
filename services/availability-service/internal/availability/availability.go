// Package availability holds the pure scheduling domain: normalized meeting
// intervals and the window query over them. Nothing here touches the network
// or the clock; callers pass explicit instants.
package availability

import (
	"time"

	"github.com/google/uuid"
)

// Meeting is one upcoming meeting as an absolute half-open interval.
// End is always strictly after Start.
type Meeting struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

// Overlaps reports whether the meeting intersects the half-open window
// [windowStart, windowEnd). A meeting ending exactly at windowStart, or
// starting exactly at windowEnd, does not overlap.
func (m Meeting) Overlaps(windowStart, windowEnd time.Time) bool {
	return m.Start.Before(windowEnd) && m.End.After(windowStart)
}

// UserMeetings is the meeting set of one user, tagged with the integration
// it was fetched under. AdminEmail is display-only; IntegrationID is the
// grouping key.
type UserMeetings struct {
	IntegrationID uuid.UUID `json:"integration_id"`
	AdminEmail    string    `json:"admin_email"`
	UserEmail     string    `json:"user_email"`
	Meetings      []Meeting `json:"meetings"`
}

// FindAvailable returns the emails of users with no meeting overlapping
// [windowStart, windowEnd). A user with no meetings is trivially available.
// Output order follows input order.
func FindAvailable(users []UserMeetings, windowStart, windowEnd time.Time) []string {
	available := make([]string, 0, len(users))

	for _, user := range users {
		busy := false
		for _, meeting := range user.Meetings {
			if meeting.Overlaps(windowStart, windowEnd) {
				busy = true
				break
			}
		}
		if !busy {
			available = append(available, user.UserEmail)
		}
	}

	return available
}
