package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"storeops-system/internal/database/models"
)

// Service covers audit lifecycle bookkeeping outside the counting path:
// creation, listing, deletion and counter assignments.
type Service struct {
	store Store
	log   *logrus.Logger
}

func NewService(store Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

type CreateInput struct {
	WarehouseID int32
	Notes       *string
	CreatedByID int64
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Audit, error) {
	if in.WarehouseID == 0 {
		return nil, invalidInput("warehouse_id", "must be provided")
	}

	audit := &models.Audit{
		AuditNumber: fmt.Sprintf("AUD-%d-%d", in.WarehouseID, time.Now().Unix()),
		WarehouseID: in.WarehouseID,
		Status:      models.AuditStatusPlanned,
		Notes:       in.Notes,
		CreatedByID: in.CreatedByID,
	}

	if err := s.store.CreateAudit(ctx, audit); err != nil {
		return nil, fmt.Errorf("create audit: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"audit_number": audit.AuditNumber,
		"warehouse_id": audit.WarehouseID,
	}).Info("audit created")

	return audit, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Audit, error) {
	return s.store.AuditByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f AuditFilter) ([]models.Audit, int64, error) {
	return s.store.ListAudits(ctx, f)
}

// Items lists the line items of one audit. The audit is looked up first
// so a missing audit surfaces as NotFound rather than an empty list.
func (s *Service) Items(ctx context.Context, auditID int64, f ItemFilter) ([]models.AuditItem, int64, error) {
	if _, err := s.store.AuditByID(ctx, auditID); err != nil {
		return nil, 0, err
	}
	return s.store.ItemsByAudit(ctx, auditID, f)
}

// Delete removes an audit and, through the cascade, all of its items.
// Only audits that never ran or were cancelled can be deleted.
func (s *Service) Delete(ctx context.Context, id int64) error {
	audit, err := s.store.AuditByID(ctx, id)
	if err != nil {
		return err
	}
	if audit.Status != models.AuditStatusPlanned && audit.Status != models.AuditStatusCancelled {
		return fmt.Errorf("audit %s is %s: %w", audit.AuditNumber, audit.Status, ErrInvalidState)
	}
	return s.store.DeleteAudit(ctx, id)
}

// Assign links a user to the audit, optionally scoped to zones. The scope
// only drives read-side filtering; it does not gate count submissions.
func (s *Service) Assign(ctx context.Context, auditID, userID int64, zones []string) (*models.AuditAssignment, error) {
	if userID == 0 {
		return nil, invalidInput("user_id", "must be provided")
	}
	if _, err := s.store.AuditByID(ctx, auditID); err != nil {
		return nil, err
	}

	assignment := &models.AuditAssignment{
		AuditID: auditID,
		UserID:  userID,
		Zones:   models.StringArray(zones),
	}
	if err := s.store.CreateAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("create assignment: %w", err)
	}
	return assignment, nil
}

func (s *Service) Assignments(ctx context.Context, auditID int64) ([]models.AuditAssignment, error) {
	if _, err := s.store.AuditByID(ctx, auditID); err != nil {
		return nil, err
	}
	return s.store.AssignmentsByAudit(ctx, auditID)
}
