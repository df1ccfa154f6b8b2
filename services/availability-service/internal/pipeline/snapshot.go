package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/availability"
)

// AdminGroup collects the per-user meeting sets of one integration. The
// integration id is the grouping key; the admin email is carried for
// display.
type AdminGroup struct {
	IntegrationID uuid.UUID                   `json:"integration_id"`
	AdminEmail    string                      `json:"admin_email"`
	Users         []availability.UserMeetings `json:"users"`
}

// Snapshot is the point-in-time output of one pipeline run and the sole
// input to availability queries. It carries no freshness guarantee beyond
// "as of TakenAt".
type Snapshot struct {
	TakenAt  time.Time    `json:"taken_at"`
	Groups   []AdminGroup `json:"groups"`
	Warnings []string     `json:"warnings,omitempty"`
}

// FlatUsers returns every per-user meeting set across all groups, in group
// order.
func (s *Snapshot) FlatUsers() []availability.UserMeetings {
	var users []availability.UserMeetings
	for _, group := range s.Groups {
		users = append(users, group.Users...)
	}
	return users
}
