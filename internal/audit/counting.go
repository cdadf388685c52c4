package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"storeops-system/internal/database/models"
)

// Engine performs the per-line state transitions of a running audit.
// It never touches live inventory; corrections happen at completion.
type Engine struct {
	store Store
	log   *logrus.Logger
}

func NewEngine(store Store, log *logrus.Logger) *Engine {
	return &Engine{store: store, log: log}
}

type CountInput struct {
	CountedQuantity int32
	Notes           *string
	UserID          int64
}

type DiscrepancyInput struct {
	MissingQuantity int32
	Notes           *string
	UserID          int64
}

type StatusInput struct {
	Status models.AuditItemStatus
	Notes  *string
	UserID int64
}

// SubmitCount records a physical count for the item and derives the
// variance. A zero variance closes the line as COUNTED; anything else
// flags it as DISCREPANCY. Recounts overwrite the previous value until
// the line reaches a locked state (COUNTED or RECONCILED); no count
// history is kept. A concurrent writer on the same line gets ErrConflict.
func (e *Engine) SubmitCount(ctx context.Context, itemID int64, in CountInput) (*models.AuditItem, error) {
	if in.CountedQuantity < 0 {
		return nil, invalidInput("counted_quantity", "must be a non-negative integer")
	}

	item, audit, err := e.openItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if locked(item.Status) {
		return nil, fmt.Errorf("item %d of audit %s is %s and locked against recounts: %w",
			item.ID, audit.AuditNumber, item.Status, ErrInvalidState)
	}

	now := time.Now()
	counted := in.CountedQuantity
	discrepancy := counted - item.ExpectedQuantity

	item.CountedQuantity = &counted
	item.Discrepancy = &discrepancy
	item.CountedByID = &in.UserID
	item.CountedAt = &now
	if in.Notes != nil {
		item.Notes = in.Notes
	}
	if discrepancy == 0 {
		item.Status = models.AuditItemStatusCounted
	} else {
		item.Status = models.AuditItemStatusDiscrepancy
	}

	if err := e.store.UpdateItem(ctx, item, item.Version); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"audit_id":    item.AuditID,
		"item_id":     item.ID,
		"counted":     counted,
		"discrepancy": discrepancy,
		"counted_by":  in.UserID,
	}).Info("count submitted")

	return item, nil
}

// SubmitDiscrepancy reports how many units are missing against the
// expected quantity and otherwise behaves exactly like SubmitCount with
// the derived value. A missing quantity of zero therefore closes the
// line as COUNTED.
func (e *Engine) SubmitDiscrepancy(ctx context.Context, itemID int64, in DiscrepancyInput) (*models.AuditItem, error) {
	if in.MissingQuantity < 0 {
		return nil, invalidInput("missing_quantity", "must be a non-negative integer")
	}

	item, err := e.store.ItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if in.MissingQuantity > item.ExpectedQuantity {
		return nil, invalidInput("missing_quantity",
			fmt.Sprintf("cannot exceed expected quantity %d", item.ExpectedQuantity))
	}

	return e.SubmitCount(ctx, itemID, CountInput{
		CountedQuantity: item.ExpectedQuantity - in.MissingQuantity,
		Notes:           in.Notes,
		UserID:          in.UserID,
	})
}

// SetStatus assigns a status directly; the main use is accepting a
// variance by moving DISCREPANCY to RECONCILED. Lines that reached a
// locked state only reopen through Reopen, and a line with a recorded
// count never goes back to PENDING through this path.
func (e *Engine) SetStatus(ctx context.Context, itemID int64, in StatusInput) (*models.AuditItem, error) {
	item, audit, err := e.openItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if in.Status == item.Status {
		return item, nil
	}
	if locked(item.Status) {
		return nil, fmt.Errorf("item %d of audit %s is %s and locked against status changes: %w",
			item.ID, audit.AuditNumber, item.Status, ErrInvalidState)
	}
	if in.Status == models.AuditItemStatusPending && item.CountedQuantity != nil {
		return nil, fmt.Errorf("item %d has a recorded count and cannot return to PENDING: %w",
			item.ID, ErrInvalidState)
	}
	if in.Status != models.AuditItemStatusPending && item.CountedQuantity == nil {
		return nil, fmt.Errorf("item %d has no recorded count: %w", item.ID, ErrInvalidState)
	}

	item.Status = in.Status
	if in.Notes != nil {
		item.Notes = in.Notes
	}

	if err := e.store.UpdateItem(ctx, item, item.Version); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"audit_id": item.AuditID,
		"item_id":  item.ID,
		"status":   item.Status.String(),
		"set_by":   in.UserID,
	}).Info("item status set")

	return item, nil
}

// Reopen is the privileged recount path: it clears the recorded count
// and returns the line to PENDING while the audit is still running.
// Notes stay in place as a trace of the earlier attempt.
func (e *Engine) Reopen(ctx context.Context, itemID, userID int64) (*models.AuditItem, error) {
	item, audit, err := e.openItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Status == models.AuditItemStatusPending {
		return nil, fmt.Errorf("item %d of audit %s was never counted: %w",
			item.ID, audit.AuditNumber, ErrInvalidState)
	}

	item.Status = models.AuditItemStatusPending
	item.CountedQuantity = nil
	item.Discrepancy = nil
	item.CountedByID = nil
	item.CountedAt = nil

	if err := e.store.UpdateItem(ctx, item, item.Version); err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"audit_id":    item.AuditID,
		"item_id":     item.ID,
		"reopened_by": userID,
	}).Info("item reopened for recount")

	return item, nil
}

// openItem loads the item and verifies its audit is still accepting
// count writes.
func (e *Engine) openItem(ctx context.Context, itemID int64) (*models.AuditItem, *models.Audit, error) {
	item, err := e.store.ItemByID(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	audit, err := e.store.AuditByID(ctx, item.AuditID)
	if err != nil {
		return nil, nil, err
	}
	if audit.Status != models.AuditStatusInProgress {
		return nil, nil, fmt.Errorf("audit %s is %s and not accepting counts: %w",
			audit.AuditNumber, audit.Status, ErrInvalidState)
	}
	return item, audit, nil
}

func locked(status models.AuditItemStatus) bool {
	return status == models.AuditItemStatusCounted || status == models.AuditItemStatusReconciled
}
