package api

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/attendance"
	"attendtrack/internal/export"
)

func (h *Handler) markAttendance(c *gin.Context) {
	var req attendance.MarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	n, err := h.Attendance.Mark(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

func (h *Handler) dashboard(c *gin.Context) {
	day, err := dayParam(c, "date")
	if err != nil {
		h.fail(c, err)
		return
	}
	d, err := h.Reports.Dashboard(c.Request.Context(), *day.From)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) exportAttendance(c *gin.Context) {
	f, err := recordFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.Reports.Export(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	if c.Query("format") != "csv" {
		c.JSON(http.StatusOK, rows)
		return
	}
	var buf bytes.Buffer
	if err := export.AttendanceCSV(&buf, rows); err != nil {
		h.fail(c, err)
		return
	}
	attachment(c, "attendance-export.csv", "text/csv", buf.Bytes())
}

func (h *Handler) bulkImportAttendance(c *gin.Context) {
	format, data, err := h.upload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.Attendance.BulkImport(c.Request.Context(), format, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) studentHistory(c *gin.Context) {
	h.history(c, c.Param("studentId"))
}

func (h *Handler) studentSummary(c *gin.Context) {
	h.summary(c, c.Param("studentId"))
}

func (h *Handler) myHistory(c *gin.Context) {
	h.history(c, principal(c).ID)
}

func (h *Handler) mySummary(c *gin.Context) {
	h.summary(c, principal(c).ID)
}

func (h *Handler) history(c *gin.Context, studentID string) {
	r, err := dateRange(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	records, err := h.Attendance.History(c.Request.Context(), principal(c), studentID, r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) summary(c *gin.Context, studentID string) {
	r, err := dateRange(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	stats, err := h.Attendance.StudentSummary(c.Request.Context(), principal(c), studentID, r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
