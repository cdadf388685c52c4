package audit

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"storeops-system/internal/database/models"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type testEnv struct {
	store *fakeStore
	inv   *fakeInventory
	uow   *fakeUnitOfWork
}

func newTestEnv() *testEnv {
	store := newFakeStore()
	inv := newFakeInventory()
	return &testEnv{
		store: store,
		inv:   inv,
		uow:   &fakeUnitOfWork{store: store, inv: inv},
	}
}

func (e *testEnv) engine() *Engine {
	return NewEngine(e.store, testLogger())
}

func (e *testEnv) generator() *Generator {
	return NewGenerator(e.uow, testLogger())
}

func (e *testEnv) controller() *Controller {
	return NewController(e.uow, nil, testLogger())
}

func (e *testEnv) service() *Service {
	return NewService(e.store, testLogger())
}

func (e *testEnv) seedAudit(t *testing.T, warehouseID int32, status models.AuditStatus) *models.Audit {
	t.Helper()
	a := &models.Audit{
		AuditNumber: fmt.Sprintf("AUD-%d-%d", warehouseID, len(e.store.audits)+1),
		WarehouseID: warehouseID,
		Status:      status,
		CreatedByID: 1,
	}
	require.NoError(t, e.store.CreateAudit(context.Background(), a))
	return a
}

func (e *testEnv) seedStock(id int64, warehouseID, productID, onHand int32, unitCost string) *models.InventoryItem {
	item := &models.InventoryItem{
		ID:             id,
		ProductID:      productID,
		WarehouseID:    warehouseID,
		OnHandQuantity: onHand,
		UnitCost:       unitCost,
	}
	e.inv.items[id] = item
	return item
}

func (e *testEnv) seedItem(t *testing.T, auditID, inventoryItemID int64, expected int32) *models.AuditItem {
	t.Helper()
	items := []models.AuditItem{{
		AuditID:          auditID,
		ProductID:        1,
		InventoryItemID:  inventoryItemID,
		ExpectedQuantity: expected,
		Status:           models.AuditItemStatusPending,
	}}
	require.NoError(t, e.store.CreateItems(context.Background(), items))
	return &items[0]
}

func (e *testEnv) item(t *testing.T, id int64) *models.AuditItem {
	t.Helper()
	item, err := e.store.ItemByID(context.Background(), id)
	require.NoError(t, err)
	return item
}

func (e *testEnv) audit(t *testing.T, id int64) *models.Audit {
	t.Helper()
	a, err := e.store.AuditByID(context.Background(), id)
	require.NoError(t, err)
	return a
}

func i32(v int32) *int32 { return &v }

func str(s string) *string { return &s }
