package models

import "time"

// AuditLog stores fire-and-forget audit entries. Writes go through the audit
// sink which swallows failures, so nothing in this model may be relied on for
// correctness.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Action     string    `gorm:"type:varchar(100);not null;index" json:"action"`
	EntityType string    `gorm:"type:varchar(100);not null;index" json:"entity_type"`
	EntityID   string    `gorm:"type:varchar(191);not null" json:"entity_id"`
	ActorID    string    `gorm:"type:varchar(191)" json:"actor_id"`
	Details    string    `gorm:"type:longtext" json:"details"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
