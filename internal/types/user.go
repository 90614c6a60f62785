package types

import (
  "time"
  "github.com/google/uuid"
)

type User struct {
  ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
  Email            string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
  DisplayName      string     `gorm:"column:display_name;not null" json:"display_name"`
  LiveSubmissionID *uuid.UUID `gorm:"type:uuid;column:live_submission_id;index" json:"live_submission_id,omitempty"`
  CreatedAt        time.Time  `gorm:"not null" json:"created_at"`
  UpdatedAt        time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }
