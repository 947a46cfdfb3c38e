package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/srms-api/internal/service"
	appErrors "github.com/campushub/srms-api/pkg/errors"
	"github.com/campushub/srms-api/pkg/response"
)

// SemesterHandler exposes semester record, analytics and transcript endpoints.
type SemesterHandler struct {
	semesters *service.SemesterService
	exports   *service.ExportService
}

// NewSemesterHandler constructs SemesterHandler.
func NewSemesterHandler(semesters *service.SemesterService, exports *service.ExportService) *SemesterHandler {
	return &SemesterHandler{semesters: semesters, exports: exports}
}

// ListByStudent returns a student's semesters with the CGPA computed on read.
func (h *SemesterHandler) ListByStudent(c *gin.Context) {
	result, err := h.semesters.ListByStudent(c.Request.Context(), claimsFromContext(c), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Get returns one semester record.
func (h *SemesterHandler) Get(c *gin.Context) {
	semester, err := h.semesters.Get(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Create opens a new semester record for a student.
func (h *SemesterHandler) Create(c *gin.Context) {
	var req service.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.semesters.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// Update replaces a semester's subjects and/or status.
func (h *SemesterHandler) Update(c *gin.Context) {
	var req service.UpdateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.semesters.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// AddSubject appends one subject to an existing semester.
func (h *SemesterHandler) AddSubject(c *gin.Context) {
	var req service.AddSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.semesters.AddSubject(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Delete removes a semester record.
func (h *SemesterHandler) Delete(c *gin.Context) {
	if err := h.semesters.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message": "semester deleted"}, nil)
}

// Performance returns the aggregated performance report for a student.
func (h *SemesterHandler) Performance(c *gin.Context) {
	report, err := h.semesters.Performance(c.Request.Context(), claimsFromContext(c), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Transcript streams the student's transcript as a CSV or PDF download.
func (h *SemesterHandler) Transcript(c *gin.Context) {
	format := c.DefaultQuery("format", service.FormatCSV)
	result, err := h.exports.Transcript(c.Request.Context(), claimsFromContext(c), c.Param("studentId"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
