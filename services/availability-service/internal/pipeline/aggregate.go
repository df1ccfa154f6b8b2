package pipeline

import (
	"github.com/google/uuid"

	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/availability"
)

// groupByIntegration groups per-user meeting sets under their owning
// integration. Group order follows first arrival; a user email repeated
// within one integration keeps only its first occurrence.
func groupByIntegration(users []availability.UserMeetings) []AdminGroup {
	index := make(map[uuid.UUID]int)
	seen := make(map[uuid.UUID]map[string]bool)

	var groups []AdminGroup
	for _, user := range users {
		pos, ok := index[user.IntegrationID]
		if !ok {
			pos = len(groups)
			index[user.IntegrationID] = pos
			seen[user.IntegrationID] = make(map[string]bool)
			groups = append(groups, AdminGroup{
				IntegrationID: user.IntegrationID,
				AdminEmail:    user.AdminEmail,
			})
		}

		if seen[user.IntegrationID][user.UserEmail] {
			continue
		}
		seen[user.IntegrationID][user.UserEmail] = true

		groups[pos].Users = append(groups[pos].Users, user)
	}

	return groups
}
