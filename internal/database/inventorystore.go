package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"storeops-system/internal/database/models"
	"storeops-system/internal/inventory"
)

// InventoryStore is the gorm-backed implementation of inventory.Store.
type InventoryStore struct {
	db *gorm.DB
}

func NewInventoryStore(db *gorm.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

func (s *InventoryStore) ItemsByWarehouse(ctx context.Context, warehouseID int32) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("warehouse_id = ?", warehouseID).
		Order("id").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *InventoryStore) ItemByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("Bin.Shelf.Aisle.Zone").
		First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("inventory item %d: %w", id, inventory.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

func (s *InventoryStore) OnHandQuantity(ctx context.Context, productID int32, inventoryItemID int64) (int32, error) {
	var item models.InventoryItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", inventoryItemID, productID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("inventory item %d for product %d: %w", inventoryItemID, productID, inventory.ErrNotFound)
		}
		return 0, err
	}
	return item.OnHandQuantity, nil
}

// AdjustQuantity increments the on-hand quantity in place and records
// the movement. The guard in the WHERE clause rejects adjustments that
// would go negative without a read-modify-write race window.
func (s *InventoryStore) AdjustQuantity(ctx context.Context, inventoryItemID int64, delta int32, ref inventory.MovementRef) (int32, error) {
	res := s.db.WithContext(ctx).Model(&models.InventoryItem{}).
		Where("id = ? AND on_hand_quantity + ? >= 0", inventoryItemID, delta).
		Updates(map[string]interface{}{
			"on_hand_quantity": gorm.Expr("on_hand_quantity + ?", delta),
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.InventoryItem{}).Where("id = ?", inventoryItemID).Count(&count).Error; err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, fmt.Errorf("inventory item %d: %w", inventoryItemID, inventory.ErrNotFound)
		}
		return 0, fmt.Errorf("inventory item %d by %d: %w", inventoryItemID, delta, inventory.ErrNegativeStock)
	}

	var item models.InventoryItem
	if err := s.db.WithContext(ctx).First(&item, inventoryItemID).Error; err != nil {
		return 0, err
	}

	referenceID := ref.ReferenceID
	movement := models.StockMovement{
		InventoryItemID: inventoryItemID,
		ProductID:       item.ProductID,
		WarehouseID:     item.WarehouseID,
		MovementType:    models.MovementTypeAdjustment,
		Quantity:        delta,
		ReferenceType:   ref.ReferenceType,
		ReferenceID:     &referenceID,
		Notes:           ref.Notes,
		CreatedBy:       ref.CreatedBy,
		CreatedAt:       time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&movement).Error; err != nil {
		return 0, err
	}

	return item.OnHandQuantity, nil
}

func (s *InventoryStore) ListMovements(ctx context.Context, productID *int32, warehouseID *int32, limit, offset int) ([]models.StockMovement, int64, error) {
	var movements []models.StockMovement
	var total int64

	query := s.db.WithContext(ctx).Model(&models.StockMovement{})
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Offset(offset).Limit(limit)
	}
	if err := query.Order("created_at DESC").Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}
