package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"store-monitor-backend/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// TriggerReport handles POST /api/trigger_report.
func (h *Handler) TriggerReport(c *gin.Context) {
	id := h.reports.Trigger()
	c.JSON(http.StatusOK, gin.H{"report_id": id})
}

// GetReport handles GET /api/get_report?report_id=...
func (h *Handler) GetReport(c *gin.Context) {
	id := c.Query("report_id")
	res, err := h.reports.Poll(id)
	switch {
	case errors.Is(err, report.ErrMissingID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "report_id is required"})
		return
	case errors.Is(err, report.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid report_id"})
		return
	case err != nil:
		log.Printf("Error polling report %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("An unexpected error occurred: %v", err)})
		return
	}

	if res.Status != report.StatusComplete {
		c.JSON(http.StatusOK, gin.H{"status": res.Status})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       res.Status,
		"report_file":  res.ArtifactPath,
		"download_url": fmt.Sprintf("/api/reports/%s/download", id),
	})
}

// DownloadReport handles GET /api/reports/:report_id/download?format=csv|xlsx.
func (h *Handler) DownloadReport(c *gin.Context) {
	id := c.Param("report_id")
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	r, err := h.reports.Report(id)
	switch {
	case errors.Is(err, report.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid report_id"})
		return
	case errors.Is(err, report.ErrNotComplete):
		c.JSON(http.StatusConflict, gin.H{"error": "report is not complete"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("report_%s.%s", id, format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if format == "xlsx" {
		c.Header("Content-Type", xlsxContentType)
		c.Status(http.StatusOK)
		if err := report.WriteXLSX(c.Writer, r); err != nil {
			log.Printf("Error writing xlsx for report %s: %v", id, err)
		}
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.WriteCSV(c.Writer, r); err != nil {
		log.Printf("Error writing csv for report %s: %v", id, err)
	}
}
