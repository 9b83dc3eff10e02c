package models

import "time"

// Invocation is a persisted record of a single tool invocation, written
// asynchronously after the response has been shaped.
type Invocation struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       string    `gorm:"type:varchar(64);index;not null" json:"user_id"`
	Tool         string    `gorm:"type:varchar(255);index;not null" json:"tool"`
	Args         string    `gorm:"type:text" json:"args,omitempty"`
	Result       string    `gorm:"type:text" json:"result,omitempty"`
	ErrorMessage string    `gorm:"type:text" json:"error_message,omitempty"`
	DurationMs   int64     `json:"duration_ms"`
	Success      bool      `gorm:"index" json:"success"`
}
