package model

import "time"

// ClockState is the persisted game clock of one room.
type ClockState struct {
	Room      string    `gorm:"primaryKey;size:64" json:"room"`
	Hour      int       `gorm:"not null" json:"hour"`
	Minute    int       `gorm:"not null" json:"minute"`
	Second    float64   `gorm:"not null" json:"second"`
	Scale     float64   `gorm:"not null" json:"scale"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:milli" json:"updated_at"`
}
