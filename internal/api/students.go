package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/model"
	"attendtrack/internal/roster"
)

func (h *Handler) listStudents(c *gin.Context) {
	f := model.StudentFilter{Department: c.Query("department"), Search: c.Query("search")}
	if raw := c.Query("program_type"); raw != "" {
		p, ok := model.ParseProgramType(raw)
		if !ok {
			h.badRequest(c, "program_type must be one of UG PG")
			return
		}
		f.ProgramType = p
	}
	students, err := h.Roster.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) createStudent(c *gin.Context) {
	var in roster.StudentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	st, secret, err := h.Roster.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := gin.H{"student": st}
	if secret != "" && !h.Roster.Policy().Derivable() {
		resp["initial_password"] = secret
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) updateStudent(c *gin.Context) {
	var req struct {
		RollNumber  *string `json:"roll_number"`
		Name        *string `json:"student_name"`
		Department  *string `json:"department"`
		ProgramType *string `json:"program_type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	if req.RollNumber != nil {
		h.badRequest(c, "roll_number cannot be changed")
		return
	}
	u := model.StudentUpdate{Name: req.Name, Department: req.Department}
	if req.ProgramType != nil {
		p := model.ProgramType(*req.ProgramType)
		u.ProgramType = &p
	}
	st, err := h.Roster.Update(c.Request.Context(), c.Param("id"), u)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) setStudentPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "password is required")
		return
	}
	if err := h.Roster.SetPassword(c.Request.Context(), c.Param("id"), req.Password); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func (h *Handler) deleteStudent(c *gin.Context) {
	if err := h.Roster.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "student deleted"})
}

func (h *Handler) importStudents(c *gin.Context) {
	format, data, err := h.upload(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.Roster.Import(c.Request.Context(), format, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := gin.H{
		"imported": res.Imported,
		"skipped":  res.Skipped,
		"message":  fmt.Sprintf("Imported %d students", res.Imported),
	}
	if len(res.Credentials) > 0 {
		resp["credentials"] = res.Credentials
	}
	c.JSON(http.StatusOK, resp)
}
