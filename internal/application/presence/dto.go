package presence

import (
	"time"

	"github.com/ShanyuJung/GoalKit-sub000/internal/domain/presence"
	"github.com/google/uuid"
)

// StatusResponse is the API shape of one member's presence record
type StatusResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	State       string    `json:"state"`
	LastChanged time.Time `json:"last_changed"`
}

func toStatusResponses(statuses []presence.Status) []StatusResponse {
	responses := make([]StatusResponse, len(statuses))
	for i, status := range statuses {
		responses[i] = StatusResponse{
			UserID:      status.UserID,
			DisplayName: status.DisplayName,
			State:       string(status.State),
			LastChanged: status.LastChanged,
		}
	}
	return responses
}
