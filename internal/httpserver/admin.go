package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	tok, err := h.deps.Admin.Login(req.Password)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}
