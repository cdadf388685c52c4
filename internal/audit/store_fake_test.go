package audit

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storeops-system/internal/database/models"
	"storeops-system/internal/inventory"
)

// In-memory doubles for the store surfaces, mirroring the conditional
// writes of the gorm implementations.

type fakeStore struct {
	mu          sync.Mutex
	audits      map[int64]*models.Audit
	items       map[int64]*models.AuditItem
	assignments []models.AuditAssignment
	nextAuditID int64
	nextItemID  int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		audits: make(map[int64]*models.Audit),
		items:  make(map[int64]*models.AuditItem),
	}
}

func cloneAudit(a *models.Audit) *models.Audit {
	cp := *a
	if a.StartDate != nil {
		v := *a.StartDate
		cp.StartDate = &v
	}
	if a.EndDate != nil {
		v := *a.EndDate
		cp.EndDate = &v
	}
	return &cp
}

func cloneItem(item *models.AuditItem) *models.AuditItem {
	cp := *item
	if item.CountedQuantity != nil {
		v := *item.CountedQuantity
		cp.CountedQuantity = &v
	}
	if item.Discrepancy != nil {
		v := *item.Discrepancy
		cp.Discrepancy = &v
	}
	if item.CountedByID != nil {
		v := *item.CountedByID
		cp.CountedByID = &v
	}
	if item.CountedAt != nil {
		v := *item.CountedAt
		cp.CountedAt = &v
	}
	return &cp
}

func (f *fakeStore) CreateAudit(ctx context.Context, a *models.Audit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextAuditID++
	a.ID = f.nextAuditID
	a.CreatedAt = time.Now()
	f.audits[a.ID] = cloneAudit(a)
	return nil
}

func (f *fakeStore) AuditByID(ctx context.Context, id int64) (*models.Audit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audits[id]
	if !ok {
		return nil, fmt.Errorf("audit %d: %w", id, ErrNotFound)
	}
	return cloneAudit(a), nil
}

func (f *fakeStore) ListAudits(ctx context.Context, filter AuditFilter) ([]models.Audit, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Audit
	for _, a := range f.audits {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.WarehouseID != nil && a.WarehouseID != *filter.WarehouseID {
			continue
		}
		out = append(out, *cloneAudit(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeStore) DeleteAudit(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.audits[id]; !ok {
		return fmt.Errorf("audit %d: %w", id, ErrNotFound)
	}
	delete(f.audits, id)
	for itemID, item := range f.items {
		if item.AuditID == id {
			delete(f.items, itemID)
		}
	}
	return nil
}

func (f *fakeStore) TransitionAudit(ctx context.Context, auditID int64, from []models.AuditStatus, to models.AuditStatus, startDate, endDate *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.audits[auditID]
	if !ok {
		return fmt.Errorf("audit %d: %w", auditID, ErrNotFound)
	}
	allowed := false
	for _, s := range from {
		if a.Status == s {
			allowed = true
		}
	}
	if !allowed {
		return fmt.Errorf("audit %d not transitionable to %s: %w", auditID, to, ErrInvalidState)
	}
	a.Status = to
	if startDate != nil {
		a.StartDate = startDate
	}
	if endDate != nil {
		a.EndDate = endDate
	}
	return nil
}

func (f *fakeStore) CreateItems(ctx context.Context, items []models.AuditItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range items {
		f.nextItemID++
		items[i].ID = f.nextItemID
		f.items[items[i].ID] = cloneItem(&items[i])
	}
	return nil
}

func (f *fakeStore) ItemByID(ctx context.Context, id int64) (*models.AuditItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("audit item %d: %w", id, ErrNotFound)
	}
	return cloneItem(item), nil
}

func (f *fakeStore) ItemsByAudit(ctx context.Context, auditID int64, filter ItemFilter) ([]models.AuditItem, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditItem
	for _, item := range f.items {
		if item.AuditID != auditID {
			continue
		}
		if filter.Status != nil && item.Status != *filter.Status {
			continue
		}
		if filter.Zone != nil && ZoneOf(item) != *filter.Zone {
			continue
		}
		if filter.Search != nil {
			if item.Product == nil {
				continue
			}
			term := strings.ToLower(*filter.Search)
			code := strings.ToLower(item.Product.ProductCode)
			name := strings.ToLower(item.Product.ProductName)
			if !strings.Contains(code, term) && !strings.Contains(name, term) {
				continue
			}
		}
		out = append(out, *cloneItem(item))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := int64(len(out))
	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return nil, total, nil
		}
		end := filter.Offset + filter.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[filter.Offset:end]
	}
	return out, total, nil
}

func (f *fakeStore) UpdateItem(ctx context.Context, item *models.AuditItem, expectedVersion int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[item.ID]
	if !ok {
		return fmt.Errorf("audit item %d: %w", item.ID, ErrNotFound)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("audit item %d was modified concurrently: %w", item.ID, ErrConflict)
	}
	item.Version = expectedVersion + 1
	f.items[item.ID] = cloneItem(item)
	return nil
}

func (f *fakeStore) CreateAssignment(ctx context.Context, assignment *models.AuditAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	assignment.ID = int64(len(f.assignments) + 1)
	f.assignments = append(f.assignments, *assignment)
	return nil
}

func (f *fakeStore) AssignmentsByAudit(ctx context.Context, auditID int64) ([]models.AuditAssignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditAssignment
	for _, a := range f.assignments {
		if a.AuditID == auditID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) snapshot() (map[int64]*models.Audit, map[int64]*models.AuditItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	audits := make(map[int64]*models.Audit, len(f.audits))
	for id, a := range f.audits {
		audits[id] = cloneAudit(a)
	}
	items := make(map[int64]*models.AuditItem, len(f.items))
	for id, item := range f.items {
		items[id] = cloneItem(item)
	}
	return audits, items
}

func (f *fakeStore) restore(audits map[int64]*models.Audit, items map[int64]*models.AuditItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audits = audits
	f.items = items
}

type fakeInventory struct {
	mu         sync.Mutex
	items      map[int64]*models.InventoryItem
	movements  []models.StockMovement
	failAdjust bool
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{items: make(map[int64]*models.InventoryItem)}
}

func (f *fakeInventory) ItemsByWarehouse(ctx context.Context, warehouseID int32) ([]models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.InventoryItem
	for _, item := range f.items {
		if item.WarehouseID == warehouseID {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeInventory) ItemByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("inventory item %d: %w", id, inventory.ErrNotFound)
	}
	cp := *item
	return &cp, nil
}

func (f *fakeInventory) OnHandQuantity(ctx context.Context, productID int32, inventoryItemID int64) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[inventoryItemID]
	if !ok || item.ProductID != productID {
		return 0, fmt.Errorf("inventory item %d for product %d: %w", inventoryItemID, productID, inventory.ErrNotFound)
	}
	return item.OnHandQuantity, nil
}

func (f *fakeInventory) AdjustQuantity(ctx context.Context, inventoryItemID int64, delta int32, ref inventory.MovementRef) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAdjust {
		return 0, fmt.Errorf("adjustment rejected")
	}
	item, ok := f.items[inventoryItemID]
	if !ok {
		return 0, fmt.Errorf("inventory item %d: %w", inventoryItemID, inventory.ErrNotFound)
	}
	if item.OnHandQuantity+delta < 0 {
		return 0, fmt.Errorf("inventory item %d by %d: %w", inventoryItemID, delta, inventory.ErrNegativeStock)
	}
	item.OnHandQuantity += delta
	referenceID := ref.ReferenceID
	f.movements = append(f.movements, models.StockMovement{
		InventoryItemID: inventoryItemID,
		ProductID:       item.ProductID,
		WarehouseID:     item.WarehouseID,
		MovementType:    models.MovementTypeAdjustment,
		Quantity:        delta,
		ReferenceType:   ref.ReferenceType,
		ReferenceID:     &referenceID,
		CreatedBy:       ref.CreatedBy,
		CreatedAt:       time.Now(),
	})
	return item.OnHandQuantity, nil
}

func (f *fakeInventory) snapshot() (map[int64]*models.InventoryItem, []models.StockMovement) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make(map[int64]*models.InventoryItem, len(f.items))
	for id, item := range f.items {
		cp := *item
		items[id] = &cp
	}
	movements := append([]models.StockMovement(nil), f.movements...)
	return items, movements
}

func (f *fakeInventory) restore(items map[int64]*models.InventoryItem, movements []models.StockMovement) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = items
	f.movements = movements
}

// fakeUnitOfWork serializes transactions and restores the pre-tx state
// when fn fails, mimicking a database rollback.
type fakeUnitOfWork struct {
	mu    sync.Mutex
	store *fakeStore
	inv   *fakeInventory
}

func (u *fakeUnitOfWork) Do(ctx context.Context, fn func(store Store, inv inventory.Store) error) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	audits, items := u.store.snapshot()
	invItems, movements := u.inv.snapshot()

	if err := fn(u.store, u.inv); err != nil {
		u.store.restore(audits, items)
		u.inv.restore(invItems, movements)
		return err
	}
	return nil
}
