package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	IncentiveStatusDraft     = "draft"
	IncentiveStatusPublished = "published"
	IncentiveStatusExpired   = "expired"
	IncentiveStatusCancelled = "cancelled"
)

type Incentive struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Author      *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Title       string         `gorm:"not null;column:title" json:"title"`
	Description string         `gorm:"column:description" json:"description"`
	Rules       string         `gorm:"column:rules" json:"rules"`
	AIContent   datatypes.JSON `gorm:"type:jsonb;column:ai_content" json:"ai_content,omitempty"`
	Status      string         `gorm:"not null;default:draft;index;column:status" json:"status"`
	StartDate   *time.Time     `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate     *time.Time     `gorm:"index;column:end_date" json:"end_date,omitempty"`
	PublishedAt *time.Time     `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (Incentive) TableName() string { return "incentive" }
