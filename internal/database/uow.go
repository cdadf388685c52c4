package database

import (
	"context"

	"gorm.io/gorm"

	"storeops-system/internal/audit"
	"storeops-system/internal/inventory"
)

// GormUnitOfWork binds an audit store and an inventory store to one
// database transaction, so audit generation and completion commit or
// roll back as a whole.
type GormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) Do(ctx context.Context, fn func(store audit.Store, inv inventory.Store) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewAuditStore(tx), NewInventoryStore(tx))
	})
}
