package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"storeops-system/internal/database/models"
	"storeops-system/internal/inventory"
)

// Generator materializes the point-in-time expected-quantity snapshot
// that a physical count is checked against.
type Generator struct {
	uow UnitOfWork
	log *logrus.Logger
}

func NewGenerator(uow UnitOfWork, log *logrus.Logger) *Generator {
	return &Generator{uow: uow, log: log}
}

// Start snapshots every inventory line of the audit's warehouse into a
// PENDING audit item and moves the audit to IN_PROGRESS. Everything runs
// in one transaction: a failure part-way leaves no items behind, and a
// concurrent Start loses on the conditional status flip. Later changes
// to live inventory do not touch the captured expected quantities.
func (g *Generator) Start(ctx context.Context, auditID, userID int64) (int, error) {
	var created int

	err := g.uow.Do(ctx, func(store Store, inv inventory.Store) error {
		audit, err := store.AuditByID(ctx, auditID)
		if err != nil {
			return err
		}
		if audit.Status != models.AuditStatusPlanned {
			return fmt.Errorf("audit %s is %s: %w", audit.AuditNumber, audit.Status, ErrInvalidState)
		}

		stocks, err := inv.ItemsByWarehouse(ctx, audit.WarehouseID)
		if err != nil {
			return fmt.Errorf("snapshot warehouse %d: %w", audit.WarehouseID, err)
		}

		now := time.Now()
		if err := store.TransitionAudit(ctx, auditID,
			[]models.AuditStatus{models.AuditStatusPlanned},
			models.AuditStatusInProgress, &now, nil); err != nil {
			return err
		}

		items := make([]models.AuditItem, 0, len(stocks))
		for _, stock := range stocks {
			items = append(items, models.AuditItem{
				AuditID:          auditID,
				ProductID:        stock.ProductID,
				InventoryItemID:  stock.ID,
				ExpectedQuantity: stock.OnHandQuantity,
				Status:           models.AuditItemStatusPending,
			})
		}
		if len(items) > 0 {
			if err := store.CreateItems(ctx, items); err != nil {
				return fmt.Errorf("create audit items: %w", err)
			}
		}

		created = len(items)
		return nil
	})
	if err != nil {
		return 0, err
	}

	g.log.WithFields(logrus.Fields{
		"audit_id":   auditID,
		"item_count": created,
		"started_by": userID,
	}).Info("audit started")

	return created, nil
}
