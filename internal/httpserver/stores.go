package httpserver

import (
	"net/http"

	"pennycentral/internal/domain"

	"github.com/gin-gonic/gin"
)

type storeListResponse struct {
	Stores []domain.Store `json:"stores"`
	Count  int            `json:"count"`
}

func (h *handlers) listStores(c *gin.Context) {
	stores, err := h.deps.StoreSvc.List(c.Request.Context(), c.Query("state"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, storeListResponse{Stores: stores, Count: len(stores)})
}

func (h *handlers) getStore(c *gin.Context) {
	s, err := h.deps.StoreSvc.Get(c.Request.Context(), c.Param("number"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, s)
}
