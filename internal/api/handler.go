package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"attendtrack/internal/apperr"
	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/events"
	"attendtrack/internal/importer"
	"attendtrack/internal/model"
	"attendtrack/internal/report"
	"attendtrack/internal/roster"
	"attendtrack/internal/store"
)

// Deps are the collaborators the HTTP layer dispatches to.
type Deps struct {
	Store      store.Store
	Redis      *store.Redis
	Auth       *auth.Service
	Guard      *auth.Guard
	Roster     *roster.Service
	Attendance *attendance.Service
	Reports    *report.Engine
	Events     *events.Service

	MaxUploadBytes int64
	SecureCookies  bool
	Log            zerolog.Logger
}

// Handler serves the REST API.
type Handler struct {
	Deps
}

func New(d Deps) *Handler {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 5 << 20
	}
	return &Handler{Deps: d}
}

// fail maps an error onto a status code. Unexpected errors are logged and
// hidden behind a generic message.
func (h *Handler) fail(c *gin.Context, err error) {
	var ve apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, apperr.ErrEmptyFile), errors.Is(err, apperr.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// principal returns the caller stored by the auth guard.
func principal(c *gin.Context) model.Principal {
	p, _ := auth.PrincipalFrom(c)
	return p
}

// dateRange reads startDate/endDate.
func dateRange(c *gin.Context) (model.DateRange, error) {
	r, err := model.NewDateRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		return model.DateRange{}, apperr.Invalid("startDate/endDate", err.Error())
	}
	return r, nil
}

// recordFilter reads the shared report filters.
func recordFilter(c *gin.Context) (model.RecordFilter, error) {
	r, err := dateRange(c)
	if err != nil {
		return model.RecordFilter{}, err
	}
	f := model.RecordFilter{Range: r, Department: strings.TrimSpace(c.Query("department"))}
	if raw := c.Query("program_type"); raw != "" {
		p, ok := model.ParseProgramType(raw)
		if !ok {
			return model.RecordFilter{}, apperr.ValidationError{Field: "program_type", Value: raw, Message: "must be one of UG PG"}
		}
		f.ProgramType = p
	}
	return f, nil
}

// dayParam reads an optional single-day query parameter, defaulting to today.
func dayParam(c *gin.Context, name string) (model.DateRange, error) {
	raw := c.Query(name)
	if raw == "" {
		return model.SingleDay(timeNow()), nil
	}
	d, err := model.ParseDay(raw)
	if err != nil {
		return model.DateRange{}, apperr.ValidationError{Field: name, Value: raw, Message: "expected YYYY-MM-DD"}
	}
	return model.SingleDay(d), nil
}

// upload reads the multipart "file" field and works out its format.
func (h *Handler) upload(c *gin.Context) (importer.Format, []byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, apperr.Invalid("file", fmt.Sprintf("file exceeds %d bytes", h.MaxUploadBytes))
		}
		return "", nil, apperr.Invalid("file", "file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", nil, fmt.Errorf("uploaded file is empty: %w", apperr.ErrEmptyFile)
	}
	format, err := importer.DetectFormat(fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		return "", nil, err
	}
	return format, data, nil
}

func attachment(c *gin.Context, filename, contentType string, body []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}
