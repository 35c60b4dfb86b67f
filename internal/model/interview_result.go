package model

import (
	"time"

	"gorm.io/gorm"
)

// InterviewResult archives a completed interview.
type InterviewResult struct {
	ID           uint           `gorm:"primarykey" json:"id" copier:"-"`
	SessionID    string         `json:"session_id" gorm:"not null;uniqueIndex;size:64"`
	Topic        string         `json:"topic" gorm:"not null;index"`
	ClientID     string         `json:"client_id" gorm:"index"`
	Questions    []string       `json:"questions" gorm:"serializer:json;type:text"`
	Answers      []string       `json:"answers" gorm:"serializer:json;type:text"`
	Scores       []int          `json:"scores" gorm:"serializer:json;type:text"`
	AverageScore float64        `json:"average_score"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  time.Time      `json:"completed_at" copier:"-"`
	CreatedAt    time.Time      `json:"created_at" copier:"-"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
