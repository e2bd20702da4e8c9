package models

import (
	"time"
)

// TaskFailure is the dead-letter record of a background task that
// exhausted its retries
type TaskFailure struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	TaskName  string    `gorm:"type:varchar(100);not null;index" json:"task_name"`
	Attempts  int       `gorm:"not null" json:"attempts"`
	LastError string    `gorm:"type:text" json:"last_error,omitempty"`
	FailedAt  time.Time `gorm:"not null;index" json:"failed_at"`
}

// TableName specifies the table name for GORM
func (TaskFailure) TableName() string {
	return "task_failures"
}

// DefaultMaxAttempts before a task is dead-lettered
const DefaultMaxAttempts = 3

// GetNextRetryDelay returns the backoff before retry number attempts+1
func GetNextRetryDelay(attempts int) time.Duration {
	// 1s, 5s, 30s
	delays := []time.Duration{
		1 * time.Second,
		5 * time.Second,
		30 * time.Second,
	}

	if attempts < 0 {
		return delays[0]
	}
	if attempts >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[attempts]
}
