package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

type Thread struct {
  ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
  Title       string         `gorm:"column:title;not null" json:"title"`
  GeneratedAt time.Time      `gorm:"column:generated_at;not null;index" json:"generated_at"`
  Metadata    datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata"`
  CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
  UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Thread) TableName() string { return "thread" }
