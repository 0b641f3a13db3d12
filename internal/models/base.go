package models

import (
	"time"

	"bankroll/internal/idgen"

	"gorm.io/gorm"
)

// Base contains the storage handle and bookkeeping columns shared by every
// document. Rows are never physically deleted, so there is no DeletedAt.
type Base struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 handle for new records
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = idgen.Handle()
	}
	return nil
}
