package api

import "time"

// Projects known to the hub.
const (
	ProjectNightcord = "nightcord"
	Project25ji      = "25ji"
	ProjectNako      = "nako"
)

// Profile is the hub's own profile document for the user. Its fields are owned
// by the resource server and passed through untouched.
type Profile map[string]any

// Stats are per-project usage counters, keyed by counter name.
type Stats map[string]any

// Achievement is one unlocked or pending achievement.
type Achievement struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Project     string     `json:"project,omitempty"`
	Icon        string     `json:"icon,omitempty"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

func (a Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}

type Achievements struct {
	Achievements []Achievement `json:"achievements"`
	Total        int           `json:"total"`
}

// Activity is one entry of the user's timeline.
type Activity struct {
	ID        string         `json:"id"`
	Project   string         `json:"project"`
	EventType string         `json:"event_type"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type ActivityPage struct {
	Activities []Activity `json:"activities"`
	Total      int        `json:"total"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

// SyncData is the opaque per-project state the hub keeps for the user.
type SyncData map[string]any

// Event is a user event reported to the hub.
type Event struct {
	Project   string         `json:"project"`
	EventType string         `json:"event_type"`
	Metadata  map[string]any `json:"metadata"`
}

// EventReceipt is the hub's acknowledgement of a reported event.
type EventReceipt map[string]any
