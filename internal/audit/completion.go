package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"

	"storeops-system/internal/database/models"
	"storeops-system/internal/inventory"
)

const completionLockTTL = 30 * time.Second

// Controller closes an audit out: completion reconciles accepted counts
// into live inventory, cancellation just ends the exercise. Both
// transitions are terminal.
type Controller struct {
	uow    UnitOfWork
	locker *redislock.Client
	log    *logrus.Logger
}

// NewController builds the completion controller. locker may be nil, in
// which case the conditional status flip inside the transaction is the
// only guard against concurrent completions; with a locker the second
// caller fails fast without opening a transaction.
func NewController(uow UnitOfWork, locker *redislock.Client, log *logrus.Logger) *Controller {
	return &Controller{uow: uow, locker: locker, log: log}
}

type CompletionResult struct {
	Audit         *models.Audit
	AdjustedItems int
}

// Complete flips the audit to COMPLETED and, in the same transaction,
// writes one delta adjustment per line whose recorded count differs from
// the snapshot, marking those lines RECONCILED. Lines never counted stay
// PENDING and are assumed still correct. Any adjustment failure rolls
// everything back and leaves the audit IN_PROGRESS. Lines already
// adjusted by an earlier attempt are skipped, so a retry cannot apply a
// correction twice.
func (c *Controller) Complete(ctx context.Context, auditID, userID int64) (*CompletionResult, error) {
	if c.locker != nil {
		lock, err := c.locker.Obtain(ctx, fmt.Sprintf("audit:complete:%d", auditID), completionLockTTL, nil)
		if err == nil {
			defer lock.Release(ctx)
		} else if errors.Is(err, redislock.ErrNotObtained) {
			return nil, fmt.Errorf("audit %d completion already in flight: %w", auditID, ErrConflict)
		} else {
			// Lock service down: the transactional status flip below
			// still keeps completion single-winner.
			c.log.WithField("audit_id", auditID).WithError(err).Warn("completion lock unavailable")
		}
	}

	result := &CompletionResult{}

	err := c.uow.Do(ctx, func(store Store, inv inventory.Store) error {
		audit, err := store.AuditByID(ctx, auditID)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := store.TransitionAudit(ctx, auditID,
			[]models.AuditStatus{models.AuditStatusInProgress},
			models.AuditStatusCompleted, nil, &now); err != nil {
			return err
		}

		items, _, err := store.ItemsByAudit(ctx, auditID, ItemFilter{})
		if err != nil {
			return err
		}

		for i := range items {
			item := &items[i]
			if item.CountedQuantity == nil || item.Adjusted {
				continue
			}
			if item.Discrepancy == nil || *item.Discrepancy == 0 {
				continue
			}

			delta := *item.Discrepancy
			if _, err := inv.AdjustQuantity(ctx, item.InventoryItemID, delta, inventory.MovementRef{
				ReferenceType: models.ReferenceTypeAudit,
				ReferenceID:   audit.AuditNumber,
				CreatedBy:     userID,
			}); err != nil {
				return fmt.Errorf("adjust inventory item %d by %d: %w", item.InventoryItemID, delta, err)
			}

			item.Status = models.AuditItemStatusReconciled
			item.Adjusted = true
			if err := store.UpdateItem(ctx, item, item.Version); err != nil {
				return err
			}
			result.AdjustedItems++
		}

		result.Audit, err = store.AuditByID(ctx, auditID)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"audit_id":       auditID,
		"audit_number":   result.Audit.AuditNumber,
		"adjusted_items": result.AdjustedItems,
		"completed_by":   userID,
	}).Info("audit completed")

	return result, nil
}

// Cancel ends the audit without touching inventory. Allowed from PLANNED
// and IN_PROGRESS only; irreversible.
func (c *Controller) Cancel(ctx context.Context, auditID, userID int64) (*models.Audit, error) {
	var audit *models.Audit

	err := c.uow.Do(ctx, func(store Store, inv inventory.Store) error {
		if _, err := store.AuditByID(ctx, auditID); err != nil {
			return err
		}

		now := time.Now()
		if err := store.TransitionAudit(ctx, auditID,
			[]models.AuditStatus{models.AuditStatusPlanned, models.AuditStatusInProgress},
			models.AuditStatusCancelled, nil, &now); err != nil {
			return err
		}

		var err error
		audit, err = store.AuditByID(ctx, auditID)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"audit_id":     auditID,
		"audit_number": audit.AuditNumber,
		"cancelled_by": userID,
	}).Info("audit cancelled")

	return audit, nil
}
