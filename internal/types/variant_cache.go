package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// VariantCacheEntry caches one AI-generated outline variant, keyed by the
// sha256 of the canonical generation request plus the variant index (0..3).
// Entries past ExpiresAt are logically invalid and get purged.
type VariantCacheEntry struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RequestHash  string         `gorm:"not null;uniqueIndex:idx_variant_cache_key;column:request_hash" json:"request_hash"`
	VariantIndex int            `gorm:"not null;uniqueIndex:idx_variant_cache_key;column:variant_index" json:"variant_index"`
	Payload      datatypes.JSON `gorm:"type:jsonb;not null;column:payload" json:"payload"`
	HitCount     int            `gorm:"not null;default:0;column:hit_count" json:"hit_count"`
	LastAccessed time.Time      `gorm:"not null;column:last_accessed" json:"last_accessed"`
	ExpiresAt    time.Time      `gorm:"not null;index;column:expires_at" json:"expires_at"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (VariantCacheEntry) TableName() string { return "variant_cache_entry" }
