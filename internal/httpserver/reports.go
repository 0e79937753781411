package httpserver

import (
	"net/http"

	"pennycentral/internal/domain"
	reportsvc "pennycentral/internal/service/report"

	"github.com/gin-gonic/gin"
)

type reportListResponse struct {
	Reports []domain.Report `json:"reports"`
	Count   int             `json:"count"`
}

func (h *handlers) submitReport(c *gin.Context) {
	var in reportsvc.SubmitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badJSON(c, err)
		return
	}
	rep, err := h.deps.ReportSvc.Submit(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rep)
}

func (h *handlers) listReports(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	reports, err := h.deps.ReportSvc.List(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reportListResponse{Reports: reports, Count: len(reports)})
}

func (h *handlers) approveReport(c *gin.Context) {
	out, err := h.deps.ReportSvc.Approve(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) rejectReport(c *gin.Context) {
	rep, err := h.deps.ReportSvc.Reject(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *handlers) deleteReport(c *gin.Context) {
	if err := h.deps.ReportSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
