package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendtrack/internal/model"
)

var timeNow = time.Now

// Register mounts every route on r.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.health)
	r.GET("/health", h.health)

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/admin", h.adminLogin)
	authRoutes.POST("/student", h.studentLogin)
	authRoutes.POST("/logout", h.logout)

	admin := h.Guard.Require(model.RoleAdmin)
	student := h.Guard.Require(model.RoleStudent)
	anyone := h.Guard.Require(model.RoleAdmin, model.RoleStudent)

	students := api.Group("/students", admin)
	students.GET("", h.listStudents)
	students.POST("", h.createStudent)
	students.POST("/import", h.importStudents)
	students.PUT("/:id", h.updateStudent)
	students.PUT("/:id/password", h.setStudentPassword)
	students.DELETE("/:id", h.deleteStudent)

	att := api.Group("/attendance")
	att.POST("/mark", admin, h.markAttendance)
	att.GET("/dashboard", admin, h.dashboard)
	att.GET("/export", admin, h.exportAttendance)
	att.POST("/bulk-import", admin, h.bulkImportAttendance)
	att.GET("/student/:studentId", anyone, h.studentHistory)
	att.GET("/student/:studentId/summary", anyone, h.studentSummary)
	att.GET("/me/history", student, h.myHistory)
	att.GET("/me/summary", student, h.mySummary)

	reports := api.Group("/reports", admin)
	reports.GET("/summary", h.summaryReport)
	reports.GET("/summary/download", h.downloadSummary)
	reports.GET("/daily", h.dailyReport)
	reports.GET("/weekly-trend", h.weeklyTrend)

	ev := api.Group("/events")
	ev.GET("", h.listEvents)
	ev.POST("", admin, h.createEvent)
	ev.PUT("/:id", admin, h.updateEvent)
	ev.DELETE("/:id", admin, h.deleteEvent)
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbHealthy := h.Store.Ping(ctx) == nil
	redisHealthy := h.Redis.Healthy(ctx)
	status, code := "ok", http.StatusOK
	if !dbHealthy {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"db":        dbHealthy,
		"redis":     redisHealthy,
		"timestamp": timeNow().UTC().Format(time.RFC3339),
	})
}
