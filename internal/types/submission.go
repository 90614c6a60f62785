package types

import (
  "time"
  "github.com/google/uuid"
)

const (
  SubmissionStatusLive     = "live"
  SubmissionStatusArchived = "archived"
)

type Submission struct {
  ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
  AuthorID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
  Text       string     `gorm:"column:text;not null" json:"text"`
  Status     string     `gorm:"column:status;not null;index" json:"status"` // live|archived
  CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
  LastEdited time.Time  `gorm:"column:last_edited;not null" json:"last_edited"`
}

func (Submission) TableName() string { return "submission" }
