package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"storeops-system/config"
	"storeops-system/internal/database"
	"storeops-system/internal/database/models"
)

const (
	WAREHOUSE_CACHE_KEY = "inventory:warehouses"
	PRODUCTS_CACHE_KEY  = "inventory:products"
	CACHE_TTL_MEDIUM    = 30 * time.Minute
)

// InventoryHandler serves the read-mostly catalog behind the audit UI:
// warehouses, products, stock records and the movement ledger.
type InventoryHandler struct {
	db    *gorm.DB
	store *database.InventoryStore
	redis *redis.Client
}

func NewInventoryHandler(db *gorm.DB, redisClient *redis.Client) *InventoryHandler {
	return &InventoryHandler{
		db:    db,
		store: database.NewInventoryStore(db),
		redis: redisClient,
	}
}

func (h *InventoryHandler) cached(ctx context.Context, key string, dest interface{}) bool {
	if h.redis == nil {
		return false
	}
	val, err := h.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), dest) == nil
}

func (h *InventoryHandler) cache(ctx context.Context, key string, value interface{}) {
	if h.redis == nil {
		return
	}
	if raw, err := json.Marshal(value); err == nil {
		_ = h.redis.Set(ctx, key, raw, CACHE_TTL_MEDIUM).Err()
	}
}

func (h *InventoryHandler) ListWarehouses(c *gin.Context) {
	ctx := c.Request.Context()

	var warehouses []models.Warehouse
	if !h.cached(ctx, WAREHOUSE_CACHE_KEY, &warehouses) {
		if err := h.db.WithContext(ctx).Where("is_active = ?", true).Find(&warehouses).Error; err != nil {
			config.LogError(config.GetLogger(), "inventory", "ListWarehouses", "query warehouses", nil, err)
			fail(c, http.StatusInternalServerError, "database error")
			return
		}
		h.cache(ctx, WAREHOUSE_CACHE_KEY, warehouses)
	}

	success(c, warehouses)
}

func (h *InventoryHandler) GetWarehouse(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid warehouse ID")
		return
	}

	var warehouse models.Warehouse
	if err := h.db.WithContext(c.Request.Context()).Preload("Zones").First(&warehouse, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			fail(c, http.StatusNotFound, "Warehouse not found")
			return
		}
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	success(c, warehouse)
}

type productPage struct {
	Products []models.InventoryProduct `json:"products"`
	Total    int64                     `json:"total"`
}

func (h *InventoryHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	p := parsePagination(c, 20)
	search := parseStringQuery(c, "search")

	// Unfiltered pages are hot behind the audit item picker; cache them
	// per page. Searches go straight to the database.
	cacheKey := ""
	if search == nil {
		cacheKey = fmt.Sprintf("%s:%d:%d", PRODUCTS_CACHE_KEY, p.PageNumber, p.PageSize)
		var page productPage
		if h.cached(ctx, cacheKey, &page) {
			c.JSON(http.StatusOK, gin.H{
				"success":    true,
				"data":       page.Products,
				"pagination": p.response(page.Total),
			})
			return
		}
	}

	query := h.db.WithContext(ctx).Model(&models.InventoryProduct{})
	if search != nil {
		term := "%" + *search + "%"
		query = query.Where("product_code ILIKE ? OR product_name ILIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	var products []models.InventoryProduct
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&products).Error; err != nil {
		config.LogError(config.GetLogger(), "inventory", "ListProducts", "query products", nil, err)
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	if cacheKey != "" {
		h.cache(ctx, cacheKey, productPage{Products: products, Total: total})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       products,
		"pagination": p.response(total),
	})
}

func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, err := parseInt64Param(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var product models.InventoryProduct
	if err := h.db.WithContext(c.Request.Context()).Preload("Items").First(&product, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			fail(c, http.StatusNotFound, "Product not found")
			return
		}
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	success(c, product)
}

func (h *InventoryHandler) ListStockMovements(c *gin.Context) {
	p := parsePagination(c, 50)

	movements, total, err := h.store.ListMovements(c.Request.Context(),
		parseIntQuery(c, "product_id"),
		parseIntQuery(c, "warehouse_id"),
		p.PageSize, p.offset())
	if err != nil {
		config.LogError(config.GetLogger(), "inventory", "ListStockMovements", "query movements", nil, err)
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       movements,
		"pagination": p.response(total),
	})
}
