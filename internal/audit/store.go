package audit

import (
	"context"
	"time"

	"storeops-system/internal/database/models"
	"storeops-system/internal/inventory"
)

type AuditFilter struct {
	Status      *models.AuditStatus
	WarehouseID *int32
	Limit       int
	Offset      int
}

type ItemFilter struct {
	Status *models.AuditItemStatus
	Zone   *string
	Search *string
	Limit  int
	Offset int
}

// Store is the persistence surface the audit engine works against. The
// gorm implementation lives in internal/database; tests use an in-memory
// fake.
type Store interface {
	CreateAudit(ctx context.Context, audit *models.Audit) error
	AuditByID(ctx context.Context, id int64) (*models.Audit, error)
	ListAudits(ctx context.Context, f AuditFilter) ([]models.Audit, int64, error)
	DeleteAudit(ctx context.Context, id int64) error

	// TransitionAudit flips the audit status with a conditional single-row
	// update: the write applies only when the current status is one of
	// `from`. Returns ErrInvalidState when the condition does not hold,
	// ErrNotFound when the audit does not exist.
	TransitionAudit(ctx context.Context, auditID int64, from []models.AuditStatus, to models.AuditStatus, startDate, endDate *time.Time) error

	CreateItems(ctx context.Context, items []models.AuditItem) error
	ItemByID(ctx context.Context, id int64) (*models.AuditItem, error)
	ItemsByAudit(ctx context.Context, auditID int64, f ItemFilter) ([]models.AuditItem, int64, error)

	// UpdateItem persists the item only when the stored version still
	// equals expectedVersion, bumping Version by one. Returns ErrConflict
	// when another writer got there first.
	UpdateItem(ctx context.Context, item *models.AuditItem, expectedVersion int32) error

	CreateAssignment(ctx context.Context, assignment *models.AuditAssignment) error
	AssignmentsByAudit(ctx context.Context, auditID int64) ([]models.AuditAssignment, error)
}

// UnitOfWork runs fn with store views bound to one database transaction.
// Audit generation and completion use it so the status flip, the item
// fan-out and the inventory adjustments commit or roll back together.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(store Store, inv inventory.Store) error) error
}
