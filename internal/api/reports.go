package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/apperr"
	"attendtrack/internal/export"
	"attendtrack/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func percentParam(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.ValidationError{Field: name, Value: raw, Message: "must be a number"}
	}
	return &v, nil
}

func (h *Handler) summaryRows(c *gin.Context) ([]report.StudentRow, error) {
	f, err := recordFilter(c)
	if err != nil {
		return nil, err
	}
	var b report.Bounds
	if b.Min, err = percentParam(c, "minPercentage"); err != nil {
		return nil, err
	}
	if b.Max, err = percentParam(c, "maxPercentage"); err != nil {
		return nil, err
	}
	return h.Reports.Summary(c.Request.Context(), f, b)
}

func (h *Handler) summaryReport(c *gin.Context) {
	rows, err := h.summaryRows(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) downloadSummary(c *gin.Context) {
	rows, err := h.summaryRows(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		if err := export.SummaryCSV(&buf, rows); err != nil {
			h.fail(c, err)
			return
		}
		attachment(c, "attendance-summary.csv", "text/csv", buf.Bytes())
	case "xlsx":
		if err := export.SummaryXLSX(&buf, rows); err != nil {
			h.fail(c, err)
			return
		}
		attachment(c, "attendance-summary.xlsx", xlsxContentType, buf.Bytes())
	default:
		h.badRequest(c, "format must be csv or xlsx")
	}
}

func (h *Handler) dailyReport(c *gin.Context) {
	day, err := dayParam(c, "date")
	if err != nil {
		h.fail(c, err)
		return
	}
	f, err := recordFilter(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.Reports.Daily(c.Request.Context(), *day.From, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) weeklyTrend(c *gin.Context) {
	weeks := 0
	if raw := c.Query("weeks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.badRequest(c, "weeks must be a positive integer")
			return
		}
		weeks = n
	}
	buckets, err := h.Reports.WeeklyTrend(c.Request.Context(), weeks)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}
