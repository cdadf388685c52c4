package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"storeops-system/internal/audit"
	"storeops-system/internal/inventory"
)

// --- Helpers ---

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// failFromError maps the engine's error taxonomy onto HTTP statuses.
func failFromError(c *gin.Context, err error) {
	switch {
	case audit.IsValidation(err):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, audit.ErrNotFound), errors.Is(err, inventory.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, audit.ErrInvalidState):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, audit.ErrConflict):
		fail(c, http.StatusConflict, err.Error())
	case errors.Is(err, inventory.ErrNegativeStock):
		fail(c, http.StatusConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func parseInt64Param(c *gin.Context, param string) (int64, error) {
	return strconv.ParseInt(c.Param(param), 10, 64)
}

func parseIntQuery(c *gin.Context, param string) *int32 {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseInt(str, 10, 32)
	if err != nil {
		return nil
	}
	result := int32(val)
	return &result
}

func parseStringQuery(c *gin.Context, param string) *string {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	return &str
}

type pagination struct {
	PageSize   int
	PageNumber int
}

func (p pagination) offset() int {
	return (p.PageNumber - 1) * p.PageSize
}

func (p pagination) response(total int64) gin.H {
	nextPageToken := ""
	if int64(p.PageNumber*p.PageSize) < total {
		nextPageToken = strconv.Itoa(p.PageNumber + 1)
	}
	return gin.H{
		"next_page_token": nextPageToken,
		"total_count":     total,
	}
}

func parsePagination(c *gin.Context, defaultSize int) pagination {
	p := pagination{PageSize: defaultSize, PageNumber: 1}

	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "")); err == nil && size > 0 {
		p.PageSize = size
	}
	if token := c.Query("page_token"); token != "" {
		if n, err := strconv.Atoi(token); err == nil && n > 0 {
			p.PageNumber = n
		}
	}
	return p
}
