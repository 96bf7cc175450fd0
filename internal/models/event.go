package models

import "github.com/google/uuid"

type EventEntity string

const (
	EntityProject    EventEntity = "project"
	EntityFile       EventEntity = "file"
	EntityUnreviewed EventEntity = "unreviewed_file"
	EntityDeployment EventEntity = "deployment"
	EntityHistory    EventEntity = "history"
)

// LifecycleEvent is a row in the events table. Clients subscribe to it
// through Supabase Realtime to follow their files through the pipeline.
type LifecycleEvent struct {
	UserID   uuid.UUID      `json:"user_id"`
	Entity   EventEntity    `json:"entity"`
	EntityID uuid.UUID      `json:"entity_id"`
	Event    string         `json:"event"`
	Payload  map[string]any `json:"payload"`
}
