package types

import (
  "time"
  "github.com/google/uuid"
)

// PostAuthorDisplaySystem is the display name attached to generated opening
// posts. Generated posts have no author user (AuthorID stays nil).
const PostAuthorDisplaySystem = "Thread Starter"

type Post struct {
  ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
  ThreadID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"thread_id"`
  Thread        *Thread    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ThreadID;references:ID" json:"thread,omitempty"`
  Text          string     `gorm:"column:text;not null" json:"text"`
  AuthorID      *uuid.UUID `gorm:"type:uuid;column:author_id;index" json:"author_id,omitempty"`
  AuthorDisplay string     `gorm:"column:author_display;not null" json:"author_display"`
  CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
}

func (Post) TableName() string { return "post" }
