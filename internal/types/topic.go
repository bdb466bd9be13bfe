package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Topic has no status machine; it is mutated in place by edits or AI
// enhancement.
type Topic struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string         `gorm:"uniqueIndex;not null;column:name" json:"name"`
	Description      string         `gorm:"column:description" json:"description"`
	Enhancement      datatypes.JSON `gorm:"type:jsonb;column:enhancement" json:"enhancement,omitempty"`
	LearningOutcomes string         `gorm:"column:learning_outcomes" json:"learning_outcomes"`
	TrainerNotes     string         `gorm:"column:trainer_notes" json:"trainer_notes"`
	MaterialsNeeded  string         `gorm:"column:materials_needed" json:"materials_needed"`
	DeliveryGuidance string         `gorm:"column:delivery_guidance" json:"delivery_guidance"`
	Active           bool           `gorm:"not null;default:true;column:active" json:"active"`
	CategoryID       *uuid.UUID     `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category         *Category      `gorm:"constraint:OnDelete:SET NULL;foreignKey:CategoryID;references:ID" json:"category,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (Topic) TableName() string { return "topic" }
