package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SessionStatusDraft     = "draft"
	SessionStatusPublished = "published"
	SessionStatusCompleted = "completed"
	SessionStatusCancelled = "cancelled"
)

type Session struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Author         *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:AuthorID;references:ID" json:"author,omitempty"`
	Title          string         `gorm:"not null;column:title" json:"title"`
	Description    string         `gorm:"column:description" json:"description"`
	Rules          string         `gorm:"column:rules" json:"rules"`
	Status         string         `gorm:"not null;default:draft;index;column:status" json:"status"`
	StartTime      *time.Time     `gorm:"column:start_time" json:"start_time,omitempty"`
	EndTime        *time.Time     `gorm:"index;column:end_time" json:"end_time,omitempty"`
	ReadinessScore int            `gorm:"not null;default:0;column:readiness_score" json:"readiness_score"`
	TopicID        *uuid.UUID     `gorm:"type:uuid;index" json:"topic_id,omitempty"`
	Topic          *Topic         `gorm:"constraint:OnDelete:SET NULL;foreignKey:TopicID;references:ID" json:"topic,omitempty"`
	AudienceID     *uuid.UUID     `gorm:"type:uuid;index" json:"audience_id,omitempty"`
	Audience       *Audience      `gorm:"constraint:OnDelete:SET NULL;foreignKey:AudienceID;references:ID" json:"audience,omitempty"`
	ToneID         *uuid.UUID     `gorm:"type:uuid;index" json:"tone_id,omitempty"`
	Tone           *Tone          `gorm:"constraint:OnDelete:SET NULL;foreignKey:ToneID;references:ID" json:"tone,omitempty"`
	CategoryID     *uuid.UUID     `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category       *Category      `gorm:"constraint:OnDelete:SET NULL;foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	TrainerID      *uuid.UUID     `gorm:"type:uuid;index" json:"trainer_id,omitempty"`
	Trainer        *Trainer       `gorm:"constraint:OnDelete:SET NULL;foreignKey:TrainerID;references:ID" json:"trainer,omitempty"`
	LocationID     *uuid.UUID     `gorm:"type:uuid;index" json:"location_id,omitempty"`
	Location       *Location      `gorm:"constraint:OnDelete:SET NULL;foreignKey:LocationID;references:ID" json:"location,omitempty"`
	PromoHeadline  string         `gorm:"column:promo_headline" json:"promo_headline"`
	PromoBlurb     string         `gorm:"column:promo_blurb" json:"promo_blurb"`
	SocialPost     string         `gorm:"column:social_post" json:"social_post"`
	OutlineDraft   datatypes.JSON `gorm:"type:jsonb;column:outline_draft" json:"outline_draft,omitempty"`
	PublishedAt    *time.Time     `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "session" }

// SessionContentVersion snapshots the editable content fields each time
// they change. Historical versions are never rewritten by imports.
type SessionContentVersion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID   uuid.UUID `gorm:"type:uuid;not null;index" json:"session_id"`
	Session     *Session  `gorm:"constraint:OnDelete:CASCADE;foreignKey:SessionID;references:ID" json:"-"`
	Version     int       `gorm:"not null;column:version" json:"version"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"column:description" json:"description"`
	Rules       string    `gorm:"column:rules" json:"rules"`
	CreatedBy   uuid.UUID `gorm:"type:uuid;column:created_by" json:"created_by"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (SessionContentVersion) TableName() string { return "session_content_version" }
