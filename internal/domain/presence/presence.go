package presence

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// State is a user's connection state on a board
type State string

const (
	StateOnline  State = "online"
	StateOffline State = "offline"
)

// Status is the per-user presence record for one project. LastChanged is
// the server timestamp of the most recent state transition.
type Status struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	State       State     `json:"state"`
	LastChanged time.Time `json:"last_changed"`
}

// Online reports whether the status marks the user as connected
func (s Status) Online() bool {
	return s.State == StateOnline
}

// Store tracks per-user presence per project. Online records carry a
// lease: a record that is not refreshed within the configured TTL expires
// and the user is reported offline, covering crashed clients that never
// send an explicit disconnect.
type Store interface {
	// SetOnline marks the user online and starts (or refreshes) the lease
	SetOnline(ctx context.Context, projectID uuid.UUID, status Status) error

	// Heartbeat refreshes the lease of an online user
	Heartbeat(ctx context.Context, projectID, userID uuid.UUID) error

	// SetOffline records the disconnect time; the offline record is kept
	// so peers can render "last seen"
	SetOffline(ctx context.Context, projectID uuid.UUID, status Status) error

	// List returns the presence records of every user currently known on
	// the project, expired leases rendered as offline
	List(ctx context.Context, projectID uuid.UUID) ([]Status, error)
}
