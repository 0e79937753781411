package httpserver

import (
	"net/http"
	"strconv"

	"pennycentral/internal/domain"

	"github.com/gin-gonic/gin"
)

type itemListResponse struct {
	Items []domain.Item `json:"items"`
	Count int           `json:"count"`
}

func (h *handlers) listItems(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	items, err := h.deps.ItemSvc.List(c.Request.Context(), domain.ItemFilter{
		State:  c.Query("state"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, itemListResponse{Items: items, Count: len(items)})
}

func (h *handlers) getItem(c *gin.Context) {
	it, err := h.deps.ItemSvc.Get(c.Request.Context(), c.Param("sku"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *handlers) patchItem(c *gin.Context) {
	var patch domain.ItemPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badJSON(c, err)
		return
	}
	it, err := h.deps.ItemSvc.Patch(c.Request.Context(), c.Param("sku"), patch)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *handlers) deleteItem(c *gin.Context) {
	if err := h.deps.ItemSvc.Delete(c.Request.Context(), c.Param("sku")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, name+" must be a non-negative integer")
	}
	return n, nil
}
