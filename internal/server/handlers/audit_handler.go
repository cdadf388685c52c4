package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"storeops-system/internal/audit"
	"storeops-system/internal/database/models"
	"storeops-system/internal/server/middleware"
)

type AuditHandler struct {
	service    *audit.Service
	generator  *audit.Generator
	engine     *audit.Engine
	controller *audit.Controller
}

func NewAuditHandler(service *audit.Service, generator *audit.Generator, engine *audit.Engine, controller *audit.Controller) *AuditHandler {
	return &AuditHandler{
		service:    service,
		generator:  generator,
		engine:     engine,
		controller: controller,
	}
}

// --- Requests ---

type CreateAuditRequest struct {
	WarehouseID int32   `json:"warehouse_id" binding:"required"`
	Notes       *string `json:"notes,omitempty"`
}

type UpdateAuditRequest struct {
	Status string `json:"status" binding:"required"`
}

type UpdateItemStatusRequest struct {
	ActualQuantity  *int32  `json:"actual_quantity,omitempty"`
	MissingQuantity *int32  `json:"missing_quantity,omitempty"`
	Status          *string `json:"status,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type CreateAssignmentRequest struct {
	UserID int64    `json:"user_id" binding:"required"`
	Zones  []string `json:"zones,omitempty"`
}

// --- Responses ---

type AuditResponse struct {
	ID          int64      `json:"id"`
	AuditNumber string     `json:"audit_number"`
	WarehouseID int32      `json:"warehouse_id"`
	Warehouse   *string    `json:"warehouse,omitempty"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	Notes       *string    `json:"notes"`
	CreatedByID int64      `json:"created_by_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type AuditItemResponse struct {
	ID               int64      `json:"id"`
	AuditID          int64      `json:"audit_id"`
	ProductID        int32      `json:"product_id"`
	ProductCode      *string    `json:"product_code,omitempty"`
	ProductName      *string    `json:"product_name,omitempty"`
	InventoryItemID  int64      `json:"inventory_item_id"`
	Zone             string     `json:"zone"`
	ExpectedQuantity int32      `json:"expected_quantity"`
	CountedQuantity  *int32     `json:"counted_quantity"`
	Discrepancy      *int32     `json:"discrepancy"`
	Status           string     `json:"status"`
	Notes            *string    `json:"notes"`
	CountedByID      *int64     `json:"counted_by_id"`
	CountedAt        *time.Time `json:"counted_at"`
	Version          int32      `json:"version"`
}

type AssignmentResponse struct {
	ID      int64    `json:"id"`
	AuditID int64    `json:"audit_id"`
	UserID  int64    `json:"user_id"`
	Zones   []string `json:"zones"`
}

func auditToResponse(a *models.Audit) AuditResponse {
	resp := AuditResponse{
		ID:          a.ID,
		AuditNumber: a.AuditNumber,
		WarehouseID: a.WarehouseID,
		Status:      a.Status.String(),
		StartDate:   a.StartDate,
		EndDate:     a.EndDate,
		Notes:       a.Notes,
		CreatedByID: a.CreatedByID,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.Warehouse != nil {
		resp.Warehouse = &a.Warehouse.WarehouseName
	}
	return resp
}

func itemToResponse(item *models.AuditItem) AuditItemResponse {
	resp := AuditItemResponse{
		ID:               item.ID,
		AuditID:          item.AuditID,
		ProductID:        item.ProductID,
		InventoryItemID:  item.InventoryItemID,
		Zone:             audit.ZoneOf(item),
		ExpectedQuantity: item.ExpectedQuantity,
		CountedQuantity:  item.CountedQuantity,
		Discrepancy:      item.Discrepancy,
		Status:           item.Status.String(),
		Notes:            item.Notes,
		CountedByID:      item.CountedByID,
		CountedAt:        item.CountedAt,
		Version:          item.Version,
	}
	if item.Product != nil {
		resp.ProductCode = &item.Product.ProductCode
		resp.ProductName = &item.Product.ProductName
	}
	return resp
}

func assignmentToResponse(a *models.AuditAssignment) AssignmentResponse {
	return AssignmentResponse{
		ID:      a.ID,
		AuditID: a.AuditID,
		UserID:  a.UserID,
		Zones:   a.Zones,
	}
}

// --- Audits ---

func (h *AuditHandler) CreateAudit(c *gin.Context) {
	var req CreateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.service.Create(c.Request.Context(), audit.CreateInput{
		WarehouseID: req.WarehouseID,
		Notes:       req.Notes,
		CreatedByID: middleware.UserID(c),
	})
	if err != nil {
		failFromError(c, err)
		return
	}

	success(c, auditToResponse(created))
}

func (h *AuditHandler) ListAudits(c *gin.Context) {
	p := parsePagination(c, 20)

	filter := audit.AuditFilter{
		WarehouseID: parseIntQuery(c, "warehouse_id"),
		Limit:       p.PageSize,
		Offset:      p.offset(),
	}
	if raw := parseStringQuery(c, "status"); raw != nil {
		status, ok := models.ParseAuditStatus(*raw)
		if !ok {
			fail(c, http.StatusBadRequest, "Invalid audit status: "+*raw)
			return
		}
		filter.Status = &status
	}

	audits, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		failFromError(c, err)
		return
	}

	type listEntry struct {
		AuditResponse
		Metrics audit.Summary `json:"metrics"`
	}
	entries := make([]listEntry, len(audits))
	for i := range audits {
		items, _, err := h.service.Items(c.Request.Context(), audits[i].ID, audit.ItemFilter{})
		if err != nil {
			failFromError(c, err)
			return
		}
		entries[i] = listEntry{
			AuditResponse: auditToResponse(&audits[i]),
			Metrics:       audit.Summarize(items),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       entries,
		"pagination": p.response(total),
	})
}

func (h *AuditHandler) GetAudit(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid audit ID")
		return
	}

	a, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}

	items, _, err := h.service.Items(c.Request.Context(), id, audit.ItemFilter{})
	if err != nil {
		failFromError(c, err)
		return
	}

	success(c, gin.H{
		"audit":   auditToResponse(a),
		"metrics": audit.Summarize(items),
		"zones":   audit.GroupByZone(items),
	})
}

func (h *AuditHandler) DeleteAudit(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid audit ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err)
		return
	}

	success(c, gin.H{"deleted": id})
}

// StartAudit snapshots the warehouse and begins counting.
func (h *AuditHandler) StartAudit(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid audit ID")
		return
	}

	created, err := h.generator.Start(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	success(c, gin.H{"audit_id": id, "item_count": created})
}

// UpdateAudit handles the terminal transitions: COMPLETED or CANCELLED.
func (h *AuditHandler) UpdateAudit(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid audit ID")
		return
	}

	var req UpdateAuditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	switch req.Status {
	case models.AuditStatusCompleted.String():
		result, err := h.controller.Complete(c.Request.Context(), id, middleware.UserID(c))
		if err != nil {
			failFromError(c, err)
			return
		}
		success(c, gin.H{
			"audit":          auditToResponse(result.Audit),
			"adjusted_items": result.AdjustedItems,
		})
	case models.AuditStatusCancelled.String():
		a, err := h.controller.Cancel(c.Request.Context(), id, middleware.UserID(c))
		if err != nil {
			failFromError(c, err)
			return
		}
		success(c, auditToResponse(a))
	default:
		fail(c, http.StatusBadRequest, "Status must be COMPLETED or CANCELLED")
	}
}

// --- Items ---

func (h *AuditHandler) ListItems(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid audit ID")
		return
	}

	p := parsePagination(c, 50)
	filter := audit.ItemFilter{
		Zone:   parseStringQuery(c, "zone"),
		Search: parseStringQuery(c, "search"),
		Limit:  p.PageSize,
		Offset: p.offset(),
	}
	if raw := parseStringQuery(c, "status"); raw != nil {
		status, ok := models.ParseAuditItemStatus(*raw)
		if !ok {
			fail(c, http.StatusBadRequest, "Invalid item status: "+*raw)
			return
		}
		filter.Status = &status
	}

	items, total, err := h.service.Items(c.Request.Context(), id, filter)
	if err != nil {
		failFromError(c, err)
		return
	}

	responses := make([]AuditItemResponse, len(items))
	for i := range items {
		responses[i] = itemToResponse(&items[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       responses,
		"pagination": p.response(total),
	})
}

// UpdateItemStatus is the single write endpoint for a line: a direct
// count, a missing-quantity report, or a status change, depending on
// which field the body carries.
func (h *AuditHandler) UpdateItemStatus(c *gin.Context) {
	itemID, err := parseInt64Param(c, "itemId")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid item ID")
		return
	}

	var req UpdateItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	provided := 0
	for _, set := range []bool{req.ActualQuantity != nil, req.MissingQuantity != nil, req.Status != nil} {
		if set {
			provided++
		}
	}
	if provided != 1 {
		fail(c, http.StatusBadRequest, "Provide exactly one of actual_quantity, missing_quantity or status")
		return
	}

	userID := middleware.UserID(c)
	var item *models.AuditItem

	switch {
	case req.ActualQuantity != nil:
		item, err = h.engine.SubmitCount(c.Request.Context(), itemID, audit.CountInput{
			CountedQuantity: *req.ActualQuantity,
			Notes:           req.Notes,
			UserID:          userID,
		})
	case req.MissingQuantity != nil:
		item, err = h.engine.SubmitDiscrepancy(c.Request.Context(), itemID, audit.DiscrepancyInput{
			MissingQuantity: *req.MissingQuantity,
			Notes:           req.Notes,
			UserID:          userID,
		})
	default:
		status, ok := models.ParseAuditItemStatus(*req.Status)
		if !ok {
			fail(c, http.StatusBadRequest, "Invalid item status: "+*req.Status)
			return
		}
		item, err = h.engine.SetStatus(c.Request.Context(), itemID, audit.StatusInput{
			Status: status,
			Notes:  req.Notes,
			UserID: userID,
		})
	}
	if err != nil {
		failFromError(c, err)
		return
	}

	success(c, itemToResponse(item))
}

func (h *AuditHandler) ReopenItem(c *gin.Context) {
	itemID, err := parseInt64Param(c, "itemId")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid item ID")
		return
	}

	item, err := h.engine.Reopen(c.Request.Context(), itemID, middleware.UserID(c))
	if err != nil {
		failFromError(c, err)
		return
	}

	success(c, itemToResponse(item))
}

// --- Assignments ---

func (h *AuditHandler) CreateAssignment(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid audit ID")
		return
	}

	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	assignment, err := h.service.Assign(c.Request.Context(), id, req.UserID, req.Zones)
	if err != nil {
		failFromError(c, err)
		return
	}

	success(c, assignmentToResponse(assignment))
}

func (h *AuditHandler) ListAssignments(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid audit ID")
		return
	}

	assignments, err := h.service.Assignments(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}

	responses := make([]AssignmentResponse, len(assignments))
	for i := range assignments {
		responses[i] = assignmentToResponse(&assignments[i])
	}

	success(c, responses)
}
