package model

import (
	"time"

	"gorm.io/datatypes"
)

// ChaseEvent records one decision or incident of a fleeing agent.
type ChaseEvent struct {
	ID         int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Room       string         `gorm:"index:idx_event_room;size:64;not null" json:"room"`
	AgentID    string         `gorm:"index:idx_event_agent;size:36;not null" json:"agent_id"`
	Kind       string         `gorm:"size:32;not null" json:"kind"`
	Mode       string         `gorm:"size:16" json:"mode"`
	RefugeID   string         `gorm:"size:64" json:"refuge_id"`
	PathLength float64        `json:"path_length"`
	Attempts   int            `json:"attempts"`
	Waypoints  datatypes.JSON `json:"waypoints"`
	Cause      string         `gorm:"size:32" json:"cause"`
	GameTime   string         `gorm:"size:16" json:"game_time"`
	CreatedAt  time.Time      `gorm:"index:idx_event_created;autoCreateTime:milli" json:"created_at"`
}
