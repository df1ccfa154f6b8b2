package pipeline

import (
	"time"

	"github.com/b1rigu/ZoomScheduleLister/internal/models"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/availability"
)

// normalizeMeetings converts provider-native entries into absolute
// intervals: end = start + duration minutes. An entry with an unparseable
// start time, or with a non-positive duration when no fallback duration is
// configured, is dropped and counted rather than guessed at.
func normalizeMeetings(raw []models.ZoomMeeting, fallback time.Duration) ([]availability.Meeting, int) {
	meetings := make([]availability.Meeting, 0, len(raw))
	dropped := 0

	for _, entry := range raw {
		start, err := time.Parse(time.RFC3339, entry.StartTime)
		if err != nil {
			dropped++
			continue
		}

		duration := time.Duration(entry.Duration) * time.Minute
		if duration <= 0 {
			if fallback <= 0 {
				dropped++
				continue
			}
			duration = fallback
		}

		meetings = append(meetings, availability.Meeting{
			Start: start,
			End:   start.Add(duration),
		})
	}

	return meetings, dropped
}
