package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/private-school-system/backend/internal/services"
)

type GradeHandler struct {
	grades *services.GradeService
}

func NewGradeHandler(grades *services.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// ApplyBulk grades a batch of students against one subject, season label and
// grade kind. The whole batch is rejected when the season label does not
// resolve; individual entries fail on their own otherwise.
// @Summary Apply grades in bulk
// @Tags grades
// @Accept json
// @Produce json
// @Param request body services.BulkGradeRequest true "Bulk grading request"
// @Success 200 {object} services.BulkGradeResult
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/grades/bulk [post]
func (h *GradeHandler) ApplyBulk(c *gin.Context) {
	var req services.BulkGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	req.GradedBy = userID.(uuid.UUID)

	result, err := h.grades.ApplyBulk(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrSeasonNotResolved) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, services.ErrExerciseNotFound) || errors.Is(err, services.ErrSubjectMismatch) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetComposite returns the aggregated score row for one student in one
// subject and season.
// @Summary Get a student's composite score
// @Tags grades
// @Produce json
// @Param student_id path string true "Student ID"
// @Param subject_id query string true "Subject ID"
// @Param season_id query string true "Season ID"
// @Success 200 {object} models.CompositeGrade
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /api/v1/students/{student_id}/composite [get]
func (h *GradeHandler) GetComposite(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
		return
	}
	subjectID, err := uuid.Parse(c.Query("subject_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subject ID"})
		return
	}
	seasonID, err := uuid.Parse(c.Query("season_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid season ID"})
		return
	}

	composite, err := h.grades.GetComposite(c.Request.Context(), studentID, subjectID, seasonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No grades recorded"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, composite)
}

// ListGrades returns the raw grade rows behind one composite.
// @Summary List a student's raw grades for a subject and season
// @Tags grades
// @Produce json
// @Param student_id path string true "Student ID"
// @Param subject_id query string true "Subject ID"
// @Param season_id query string true "Season ID"
// @Success 200 {array} grading.Event
// @Security BearerAuth
// @Router /api/v1/students/{student_id}/grades [get]
func (h *GradeHandler) ListGrades(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
		return
	}
	subjectID, err := uuid.Parse(c.Query("subject_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid subject ID"})
		return
	}
	seasonID, err := uuid.Parse(c.Query("season_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid season ID"})
		return
	}

	events, err := h.grades.ListEvents(c.Request.Context(), studentID, subjectID, seasonID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, events)
}

// ListComposites returns every composite a student has, across subjects and
// seasons, for report card and profile views.
// @Summary List a student's composite scores
// @Tags grades
// @Produce json
// @Param student_id path string true "Student ID"
// @Success 200 {array} models.CompositeGrade
// @Security BearerAuth
// @Router /api/v1/students/{student_id}/composites [get]
func (h *GradeHandler) ListComposites(c *gin.Context) {
	studentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid student ID"})
		return
	}

	composites, err := h.grades.ListCompositesForStudent(c.Request.Context(), studentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, composites)
}
