package httpserver

import (
	"net/http"
	"strings"

	"pennycentral/internal/analytics"
	"pennycentral/internal/domain"

	"github.com/gin-gonic/gin"
)

type trackRequest struct {
	Name     string         `json:"name"`
	ClientID string         `json:"clientId"`
	Params   map[string]any `json:"params"`
}

type trackResponse struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

func (h *handlers) adConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Launch.ForPath(c.Query("path")))
}

// track relays one analytics event. Relay failures never fail the caller.
func (h *handlers) track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badJSON(c, err)
		return
	}
	if !analytics.ValidEventName(req.Name) {
		writeError(c, h.logger, domain.NewValidationError("name", "event name must be lowercase snake_case, at most 40 characters"))
		return
	}

	params := analytics.Sanitize(req.Params)
	if h.deps.Tracker != nil {
		clientID := strings.TrimSpace(req.ClientID)
		if clientID == "" {
			clientID = c.GetString(requestIDKey)
		}
		if err := h.deps.Tracker.Send(c.Request.Context(), clientID, analytics.Event{Name: req.Name, Params: params}); err != nil {
			h.logger.Printf("track: request_id=%s event=%s error=%v", c.GetString(requestIDKey), req.Name, err)
		}
	}
	c.JSON(http.StatusAccepted, trackResponse{Name: req.Name, Params: params})
}
