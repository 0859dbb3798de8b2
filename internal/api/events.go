package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/events"
)

func (h *Handler) listEvents(c *gin.Context) {
	r, err := dateRange(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.Events.List(c.Request.Context(), r)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) createEvent(c *gin.Context) {
	var in events.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	e, err := h.Events.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handler) updateEvent(c *gin.Context) {
	var p events.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	e, err := h.Events.Update(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handler) deleteEvent(c *gin.Context) {
	if err := h.Events.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}
