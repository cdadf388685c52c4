package inventory

import (
	"context"
	"errors"

	"storeops-system/internal/database/models"
)

var ErrNotFound = errors.New("inventory item not found")

// ErrNegativeStock is returned when an adjustment would push the on-hand
// quantity below zero.
var ErrNegativeStock = errors.New("adjustment would result in negative stock")

// MovementRef ties a stock movement to the document that caused it.
type MovementRef struct {
	ReferenceType models.ReferenceType
	ReferenceID   string
	Notes         *string
	CreatedBy     int64
}

// Store exposes the on-hand snapshot reads the audit generator needs and
// the delta-based adjustment primitive the completion controller writes
// through. Adjustments are increments, never overwrites, so concurrent
// sales-driven changes are not clobbered.
type Store interface {
	ItemsByWarehouse(ctx context.Context, warehouseID int32) ([]models.InventoryItem, error)
	ItemByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	OnHandQuantity(ctx context.Context, productID int32, inventoryItemID int64) (int32, error)

	// AdjustQuantity applies delta to the item's on-hand quantity and
	// writes a stock movement row in the same transaction. Returns the
	// new quantity.
	AdjustQuantity(ctx context.Context, inventoryItemID int64, delta int32, ref MovementRef) (int32, error)
}
