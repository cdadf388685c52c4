package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"storeops-system/internal/audit"
	"storeops-system/internal/database/models"
)

// AuditStore is the gorm-backed implementation of audit.Store.
type AuditStore struct {
	db *gorm.DB
}

func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) CreateAudit(ctx context.Context, a *models.Audit) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *AuditStore) AuditByID(ctx context.Context, id int64) (*models.Audit, error) {
	var a models.Audit
	if err := s.db.WithContext(ctx).Preload("Warehouse").First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("audit %d: %w", id, audit.ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}

func (s *AuditStore) ListAudits(ctx context.Context, f audit.AuditFilter) ([]models.Audit, int64, error) {
	var audits []models.Audit
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Audit{}).Preload("Warehouse")
	if f.Status != nil {
		query = query.Where("status = ?", *f.Status)
	}
	if f.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *f.WarehouseID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		query = query.Offset(f.Offset).Limit(f.Limit)
	}
	if err := query.Order("created_at DESC").Find(&audits).Error; err != nil {
		return nil, 0, err
	}

	return audits, total, nil
}

func (s *AuditStore) DeleteAudit(ctx context.Context, id int64) error {
	// Items and assignments go with the audit via the FK cascade.
	res := s.db.WithContext(ctx).Delete(&models.Audit{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("audit %d: %w", id, audit.ErrNotFound)
	}
	return nil
}

func (s *AuditStore) TransitionAudit(ctx context.Context, auditID int64, from []models.AuditStatus, to models.AuditStatus, startDate, endDate *time.Time) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if startDate != nil {
		updates["start_date"] = startDate
	}
	if endDate != nil {
		updates["end_date"] = endDate
	}

	res := s.db.WithContext(ctx).Model(&models.Audit{}).
		Where("id = ? AND status IN ?", auditID, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Audit{}).Where("id = ?", auditID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("audit %d: %w", auditID, audit.ErrNotFound)
		}
		return fmt.Errorf("audit %d not transitionable to %s: %w", auditID, to, audit.ErrInvalidState)
	}
	return nil
}

func (s *AuditStore) CreateItems(ctx context.Context, items []models.AuditItem) error {
	return s.db.WithContext(ctx).CreateInBatches(items, 500).Error
}

func (s *AuditStore) ItemByID(ctx context.Context, id int64) (*models.AuditItem, error) {
	var item models.AuditItem
	err := s.db.WithContext(ctx).
		Preload("Product").
		Preload("InventoryItem.Bin.Shelf.Aisle.Zone").
		First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("audit item %d: %w", id, audit.ErrNotFound)
		}
		return nil, err
	}
	return &item, nil
}

func (s *AuditStore) ItemsByAudit(ctx context.Context, auditID int64, f audit.ItemFilter) ([]models.AuditItem, int64, error) {
	var items []models.AuditItem
	var total int64

	query := s.db.WithContext(ctx).Model(&models.AuditItem{}).
		Where("audit_items.audit_id = ?", auditID).
		Preload("Product").
		Preload("InventoryItem.Bin.Shelf.Aisle.Zone")

	if f.Status != nil {
		query = query.Where("audit_items.status = ?", *f.Status)
	}
	if f.Zone != nil {
		if *f.Zone == audit.UnassignedZone {
			query = query.
				Joins("JOIN inventory_items ON inventory_items.id = audit_items.inventory_item_id").
				Where("inventory_items.bin_id IS NULL")
		} else {
			query = query.
				Joins("JOIN inventory_items ON inventory_items.id = audit_items.inventory_item_id").
				Joins("JOIN bins ON bins.id = inventory_items.bin_id").
				Joins("JOIN shelves ON shelves.id = bins.shelf_id").
				Joins("JOIN aisles ON aisles.id = shelves.aisle_id").
				Joins("JOIN zones ON zones.id = aisles.zone_id").
				Where("zones.zone_code = ? OR zones.zone_name = ?", *f.Zone, *f.Zone)
		}
	}
	if f.Search != nil {
		search := "%" + *f.Search + "%"
		query = query.
			Joins("JOIN inventory_products ON inventory_products.id = audit_items.product_id").
			Where("inventory_products.product_code ILIKE ? OR inventory_products.product_name ILIKE ?", search, search)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if f.Limit > 0 {
		query = query.Offset(f.Offset).Limit(f.Limit)
	}
	if err := query.Order("audit_items.id").Find(&items).Error; err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func (s *AuditStore) UpdateItem(ctx context.Context, item *models.AuditItem, expectedVersion int32) error {
	newVersion := expectedVersion + 1

	res := s.db.WithContext(ctx).Model(&models.AuditItem{}).
		Where("id = ? AND version = ?", item.ID, expectedVersion).
		Updates(map[string]interface{}{
			"counted_quantity": item.CountedQuantity,
			"discrepancy":      item.Discrepancy,
			"status":           item.Status,
			"notes":            item.Notes,
			"counted_by_id":    item.CountedByID,
			"counted_at":       item.CountedAt,
			"adjusted":         item.Adjusted,
			"version":          newVersion,
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.AuditItem{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("audit item %d: %w", item.ID, audit.ErrNotFound)
		}
		return fmt.Errorf("audit item %d was modified concurrently: %w", item.ID, audit.ErrConflict)
	}

	item.Version = newVersion
	return nil
}

func (s *AuditStore) CreateAssignment(ctx context.Context, assignment *models.AuditAssignment) error {
	return s.db.WithContext(ctx).Create(assignment).Error
}

func (s *AuditStore) AssignmentsByAudit(ctx context.Context, auditID int64) ([]models.AuditAssignment, error) {
	var assignments []models.AuditAssignment
	if err := s.db.WithContext(ctx).Where("audit_id = ?", auditID).Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}
