package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/portal_backend/config"
	"gorm.io/gorm/clause"
)

// IdempotencyKey provides durable, DB-backed idempotency for scheduled jobs.
// Unique constraint: (owner_id, handler_name, entity_key).
type IdempotencyKey struct {
	ID          int       `gorm:"primary_key" json:"id"`
	OwnerId     string    `gorm:"size:64;not null;index:uniq_idem,unique" json:"owner_id"`
	HandlerName string    `gorm:"size:100;not null;index:uniq_idem,unique" json:"handler_name"`
	EntityKey   string    `gorm:"size:255;not null;index:uniq_idem,unique" json:"entity_key"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// ClaimIdempotencyKey records that the given action happened. Returns false
// when the key already exists, meaning a previous run (or a concurrent one)
// already did the work.
func ClaimIdempotencyKey(ctx context.Context, ownerId string, handlerName string, entityKey string) (bool, error) {
	db := config.GetDB()

	key := IdempotencyKey{
		OwnerId:     ownerId,
		HandlerName: handlerName,
		EntityKey:   entityKey,
	}
	result := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&key)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
